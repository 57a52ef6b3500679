// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shearbook Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shearbook/shearbook/internal/auth"
)

var accountRowColumns = []string{
	"id", "email", "password_hash", "name", "phone", "role",
	"origin", "origin_id", "created_at", "updated_at", "deleted_at",
}

func uniqueViolation() *pgconn.PgError {
	return &pgconn.PgError{
		Code:           pgerrcode.UniqueViolation,
		ConstraintName: "accounts_active_email_key",
	}
}

func TestAccountRepository_Create(t *testing.T) {
	account := &auth.Account{
		Email:        "casey@example.com",
		PasswordHash: "$argon2id$hashed",
		Name:         "Casey",
		Phone:        "010-1234-5678",
		Role:         auth.RoleCustomer,
		Origin:       auth.OriginLocal,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantID    int64
		wantErr   error
	}{
		{
			name: "successful insert assigns id",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO accounts`).
					WithArgs(
						account.Email, account.PasswordHash, account.Name,
						account.Phone, "CUSTOMER", "LOCAL", "",
						account.CreatedAt, account.UpdatedAt,
					).
					WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
			},
			wantID: 7,
		},
		{
			name: "unique violation maps to duplicate email",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO accounts`).
					WithArgs(
						account.Email, account.PasswordHash, account.Name,
						account.Phone, "CUSTOMER", "LOCAL", "",
						account.CreatedAt, account.UpdatedAt,
					).
					WillReturnError(uniqueViolation())
			},
			wantErr: auth.ErrDuplicateEmail,
		},
		{
			name: "other database error passes through",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO accounts`).
					WithArgs(
						account.Email, account.PasswordHash, account.Name,
						account.Phone, "CUSTOMER", "LOCAL", "",
						account.CreatedAt, account.UpdatedAt,
					).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: errors.New("connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			created := *account
			repo := NewAccountRepository(mock)
			err = repo.Create(context.Background(), &created)

			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, auth.ErrDuplicateEmail) {
					assert.ErrorIs(t, err, auth.ErrDuplicateEmail)
				} else {
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, created.ID)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestAccountRepository_GetByEmail(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		email     string
		setupMock func(mock pgxmock.PgxPoolIface)
		want      *auth.Account
		wantErr   error
	}{
		{
			name:  "active account found",
			email: "casey@example.com",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(accountRowColumns).
					AddRow(
						int64(7), "casey@example.com", "$argon2id$hashed",
						"Casey", "010-1234-5678", "OWNER", "LOCAL",
						(*string)(nil), now, now, (*time.Time)(nil),
					)
				mock.ExpectQuery(`SELECT .+ FROM accounts WHERE email = \$1 AND deleted_at IS NULL`).
					WithArgs("casey@example.com").
					WillReturnRows(rows)
			},
			want: &auth.Account{
				ID:           7,
				Email:        "casey@example.com",
				PasswordHash: "$argon2id$hashed",
				Name:         "Casey",
				Phone:        "010-1234-5678",
				Role:         auth.RoleOwner,
				Origin:       auth.OriginLocal,
				CreatedAt:    now,
				UpdatedAt:    now,
			},
		},
		{
			name:  "no row maps to not found",
			email: "ghost@example.com",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .+ FROM accounts WHERE email = \$1 AND deleted_at IS NULL`).
					WithArgs("ghost@example.com").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: auth.ErrNotFound,
		},
		{
			name:  "database error passes through",
			email: "casey@example.com",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .+ FROM accounts WHERE email = \$1 AND deleted_at IS NULL`).
					WithArgs("casey@example.com").
					WillReturnError(errors.New("timeout"))
			},
			wantErr: errors.New("timeout"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewAccountRepository(mock)
			got, err := repo.GetByEmail(context.Background(), tt.email)

			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, auth.ErrNotFound) {
					assert.ErrorIs(t, err, auth.ErrNotFound)
				} else {
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestAccountRepository_GetByID(t *testing.T) {
	now := time.Now()
	originID := "kakao-9876"

	t.Run("federated account round-trips origin id", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		rows := pgxmock.NewRows(accountRowColumns).
			AddRow(
				int64(9), "casey@example.com", "$argon2id$hashed",
				"Casey", "01012345678", "CUSTOMER", "KAKAO",
				&originID, now, now, (*time.Time)(nil),
			)
		mock.ExpectQuery(`SELECT .+ FROM accounts WHERE id = \$1 AND deleted_at IS NULL`).
			WithArgs(int64(9)).
			WillReturnRows(rows)

		repo := NewAccountRepository(mock)
		got, err := repo.GetByID(context.Background(), 9)

		require.NoError(t, err)
		assert.Equal(t, auth.OriginKakao, got.Origin)
		assert.Equal(t, originID, got.OriginID)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("no row maps to not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectQuery(`SELECT .+ FROM accounts WHERE id = \$1 AND deleted_at IS NULL`).
			WithArgs(int64(99)).
			WillReturnError(pgx.ErrNoRows)

		repo := NewAccountRepository(mock)
		_, err = repo.GetByID(context.Background(), 99)

		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})
}

func TestAccountRepository_Update(t *testing.T) {
	account := &auth.Account{
		ID:           7,
		Email:        "casey@example.com",
		PasswordHash: "$argon2id$fresh",
		Name:         "Casey",
		Phone:        "010-1234-5678",
		Role:         auth.RoleCustomer,
		Origin:       auth.OriginLocal,
	}

	t.Run("successful update", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectExec(`UPDATE accounts`).
			WithArgs(
				account.ID, account.Email, account.PasswordHash,
				account.Name, account.Phone, "CUSTOMER", "LOCAL", "",
				pgxmock.AnyArg(), account.DeletedAt,
			).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		updated := *account
		repo := NewAccountRepository(mock)
		err = repo.Update(context.Background(), &updated)

		require.NoError(t, err)
		assert.False(t, updated.UpdatedAt.IsZero(), "UpdatedAt should be refreshed")
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("missing row maps to not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectExec(`UPDATE accounts`).
			WithArgs(
				account.ID, account.Email, account.PasswordHash,
				account.Name, account.Phone, "CUSTOMER", "LOCAL", "",
				pgxmock.AnyArg(), account.DeletedAt,
			).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		updated := *account
		repo := NewAccountRepository(mock)
		err = repo.Update(context.Background(), &updated)

		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("email collision maps to duplicate email", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectExec(`UPDATE accounts`).
			WithArgs(
				account.ID, account.Email, account.PasswordHash,
				account.Name, account.Phone, "CUSTOMER", "LOCAL", "",
				pgxmock.AnyArg(), account.DeletedAt,
			).
			WillReturnError(uniqueViolation())

		updated := *account
		repo := NewAccountRepository(mock)
		err = repo.Update(context.Background(), &updated)

		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrDuplicateEmail)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})
}

func TestAccountRepository_SoftDelete(t *testing.T) {
	t.Run("successful soft delete", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectExec(`UPDATE accounts`).
			WithArgs(int64(7), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		repo := NewAccountRepository(mock)
		err = repo.SoftDelete(context.Background(), 7)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("already deleted or unknown maps to not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectExec(`UPDATE accounts`).
			WithArgs(int64(99), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		repo := NewAccountRepository(mock)
		err = repo.SoftDelete(context.Background(), 99)

		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})
}

func TestAccountRepositoryInterface(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	defer mock.Close()

	var _ auth.AccountRepository = NewAccountRepository(mock)
}
