// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shearbook Contributors

// Package postgres implements auth repositories backed by PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/shearbook/shearbook/internal/auth"
)

// Querier is the subset of pgxpool.Pool the repository needs. The
// narrow interface lets tests substitute pgxmock.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository implements auth.AccountRepository using PostgreSQL.
//
// Active-email uniqueness is enforced by a partial unique index on
// accounts(email) WHERE deleted_at IS NULL, so the losing side of a
// concurrent signup surfaces auth.ErrDuplicateEmail regardless of any
// caller-side pre-check.
type AccountRepository struct {
	db Querier
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db Querier) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, email, password_hash, name, phone, role,
		       origin, origin_id, created_at, updated_at, deleted_at`

// Create stores a new account and assigns its ID from the sequence.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO accounts (
			email, password_hash, name, phone, role,
			origin, origin_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`,
		account.Email,
		account.PasswordHash,
		account.Name,
		account.Phone,
		string(account.Role),
		string(account.Origin),
		account.OriginID,
		account.CreatedAt,
		account.UpdatedAt,
	).Scan(&account.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("AUTH_DUPLICATE_EMAIL").
				With("email", account.Email).
				Wrap(auth.ErrDuplicateEmail)
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			Wrap(err)
	}
	return nil
}

// GetByEmail retrieves an active account by exact email match.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE email = $1 AND deleted_at IS NULL
	`, email)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_EMAIL_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}
	return account, nil
}

// GetByID retrieves an active account by id.
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*auth.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1 AND deleted_at IS NULL
	`, id)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_ID_FAILED").
			With("operation", "get account by id").
			With("id", id).
			Wrap(err)
	}
	return account, nil
}

// Update persists mutations to an existing account.
func (r *AccountRepository) Update(ctx context.Context, account *auth.Account) error {
	account.UpdatedAt = time.Now()

	tag, err := r.db.Exec(ctx, `
		UPDATE accounts
		SET email = $2, password_hash = $3, name = $4, phone = $5,
		    role = $6, origin = $7, origin_id = $8, updated_at = $9,
		    deleted_at = $10
		WHERE id = $1
	`,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.Name,
		account.Phone,
		string(account.Role),
		string(account.Origin),
		account.OriginID,
		account.UpdatedAt,
		account.DeletedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("AUTH_DUPLICATE_EMAIL").
				With("email", account.Email).
				Wrap(auth.ErrDuplicateEmail)
		}
		return oops.Code("ACCOUNT_UPDATE_FAILED").
			With("operation", "update account").
			With("id", account.ID).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", account.ID).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// SoftDelete marks an active account as deleted. The partial unique
// index stops covering the row, so the email becomes reusable.
func (r *AccountRepository) SoftDelete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE accounts
		SET deleted_at = $2, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`, id, time.Now())
	if err != nil {
		return oops.Code("ACCOUNT_DELETE_FAILED").
			With("operation", "soft delete account").
			With("id", id).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("id", id).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanAccount reads one account row.
func scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		account  auth.Account
		role     string
		origin   string
		originID *string
	)
	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.Name,
		&account.Phone,
		&role,
		&origin,
		&originID,
		&account.CreatedAt,
		&account.UpdatedAt,
		&account.DeletedAt,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers map pgx.ErrNoRows
	}
	account.Role = auth.Role(role)
	account.Origin = auth.Origin(origin)
	if originID != nil {
		account.OriginID = *originID
	}
	return &account, nil
}
