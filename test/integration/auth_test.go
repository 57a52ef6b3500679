// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shearbook Contributors

//go:build integration

package integration

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/shearbook/shearbook/internal/auth"
	authpg "github.com/shearbook/shearbook/internal/auth/postgres"
	"github.com/shearbook/shearbook/internal/store"
)

// testEnv holds the resources shared by the auth integration specs.
type testEnv struct {
	ctx       context.Context
	cancel    context.CancelFunc
	container testcontainers.Container
	pool      interface{ Close() }
	repo      *authpg.AccountRepository
	service   *auth.Service
	codec     *auth.TokenCodec
}

func setupTestEnv() (*testEnv, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)

	env := &testEnv{ctx: ctx, cancel: cancel}

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("shearbook_test"),
		postgres.WithUsername("shearbook"),
		postgres.WithPassword("shearbook"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		cancel()
		return nil, err
	}
	env.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		_ = container.Terminate(ctx)
		return nil, err
	}
	_ = migrator.Close()

	pool, err := store.Connect(ctx, connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	env.pool = pool
	env.repo = authpg.NewAccountRepository(pool)

	env.codec, err = auth.NewTokenCodec(auth.TokenConfig{
		Secret:     []byte("integration-test-secret-32-bytes"),
		AccessTTL:  time.Hour,
		RefreshTTL: 14 * 24 * time.Hour,
	})
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	env.service, err = auth.NewService(env.repo, auth.NewArgon2idHasher(), env.codec)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	return env, nil
}

func (env *testEnv) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if env.pool != nil {
		env.pool.Close()
	}
	if env.container != nil {
		_ = env.container.Terminate(ctx)
	}
	env.cancel()
}

var _ = Describe("Auth service against PostgreSQL", Ordered, func() {
	var env *testEnv

	BeforeAll(func() {
		var err error
		env, err = setupTestEnv()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		env.cleanup()
	})

	signup := func(email string) auth.SignupInput {
		return auth.SignupInput{
			Email:    email,
			Password: "password123",
			Name:     "Casey",
			Phone:    "010-1234-5678",
			Role:     auth.RoleCustomer,
		}
	}

	Describe("account repository", func() {
		It("round-trips an account through create and lookup", func() {
			account := auth.NewLocalAccount(signup("repo@example.com"), "$argon2id$hash")
			Expect(env.repo.Create(env.ctx, account)).To(Succeed())
			Expect(account.ID).NotTo(BeZero())

			byEmail, err := env.repo.GetByEmail(env.ctx, "repo@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(byEmail.ID).To(Equal(account.ID))
			Expect(byEmail.Role).To(Equal(auth.RoleCustomer))
			Expect(byEmail.Origin).To(Equal(auth.OriginLocal))

			byID, err := env.repo.GetByID(env.ctx, account.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(byID.Email).To(Equal("repo@example.com"))
		})

		It("rejects a second active account with the same email", func() {
			first := auth.NewLocalAccount(signup("dup@example.com"), "$argon2id$hash")
			Expect(env.repo.Create(env.ctx, first)).To(Succeed())

			second := auth.NewLocalAccount(signup("dup@example.com"), "$argon2id$hash")
			err := env.repo.Create(env.ctx, second)
			Expect(err).To(MatchError(auth.ErrDuplicateEmail))
		})

		It("frees the email for reuse after soft delete", func() {
			account := auth.NewLocalAccount(signup("reuse@example.com"), "$argon2id$hash")
			Expect(env.repo.Create(env.ctx, account)).To(Succeed())
			Expect(env.repo.SoftDelete(env.ctx, account.ID)).To(Succeed())

			// The deleted account is invisible to lookups.
			_, err := env.repo.GetByEmail(env.ctx, "reuse@example.com")
			Expect(err).To(MatchError(auth.ErrNotFound))
			_, err = env.repo.GetByID(env.ctx, account.ID)
			Expect(err).To(MatchError(auth.ErrNotFound))

			// A new signup can claim the email.
			replacement := auth.NewLocalAccount(signup("reuse@example.com"), "$argon2id$hash")
			Expect(env.repo.Create(env.ctx, replacement)).To(Succeed())
			Expect(replacement.ID).NotTo(Equal(account.ID))
		})

		It("persists updates", func() {
			account := auth.NewLocalAccount(signup("update@example.com"), "$argon2id$hash")
			Expect(env.repo.Create(env.ctx, account)).To(Succeed())

			account.Role = auth.RoleOwner
			account.Name = "Casey the Owner"
			Expect(env.repo.Update(env.ctx, account)).To(Succeed())

			reloaded, err := env.repo.GetByID(env.ctx, account.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.Role).To(Equal(auth.RoleOwner))
			Expect(reloaded.Name).To(Equal("Casey the Owner"))
		})
	})

	Describe("full auth flow", func() {
		It("signs up, logs in, and refreshes", func() {
			session, err := env.service.Signup(env.ctx, signup("flow@example.com"))
			Expect(err).NotTo(HaveOccurred())
			Expect(session.AccessToken).NotTo(BeEmpty())
			Expect(session.RefreshToken).NotTo(BeEmpty())

			loginSession, err := env.service.Login(env.ctx, "flow@example.com", "password123")
			Expect(err).NotTo(HaveOccurred())
			Expect(loginSession.Account.ID).To(Equal(session.Account.ID))

			_, err = env.service.Login(env.ctx, "flow@example.com", "wrong-password")
			Expect(err).To(HaveOccurred())

			profile, err := env.service.WhoAmI(env.ctx, session.Account.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(profile.Email).To(Equal("flow@example.com"))

			renewed, err := env.service.RefreshSession(env.ctx, session.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(renewed.Account.ID).To(Equal(session.Account.ID))
		})

		It("lets exactly one of two concurrent signups win", func() {
			type result struct {
				session *auth.Session
				err     error
			}
			results := make(chan result, 2)

			for range 2 {
				go func() {
					session, err := env.service.Signup(env.ctx, signup("race@example.com"))
					results <- result{session, err}
				}()
			}

			var wins, losses int
			for range 2 {
				r := <-results
				if r.err == nil {
					wins++
				} else {
					losses++
					Expect(r.err).To(MatchError(auth.ErrDuplicateEmail))
				}
			}
			Expect(wins).To(Equal(1))
			Expect(losses).To(Equal(1))
		})
	})
})
