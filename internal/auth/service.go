// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shearbook Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// Session is the result of a successful signup, login, or refresh:
// a fresh token pair plus the public profile they were minted for.
type Session struct {
	AccessToken  string
	RefreshToken string
	Account      Profile
}

// Service orchestrates authentication operations over the repository,
// hasher, and token codec. It holds no per-request state; every call
// may run concurrently with others.
type Service struct {
	accounts AccountRepository
	hasher   PasswordHasher
	tokens   *TokenCodec
	logger   *slog.Logger
}

// NewService creates a Service with explicit dependencies.
func NewService(accounts AccountRepository, hasher PasswordHasher, tokens *TokenCodec) (*Service, error) {
	return NewServiceWithLogger(accounts, hasher, tokens, slog.Default())
}

// NewServiceWithLogger creates a Service with a custom logger.
func NewServiceWithLogger(accounts AccountRepository, hasher PasswordHasher, tokens *TokenCodec, logger *slog.Logger) (*Service, error) {
	if accounts == nil {
		return nil, errors.New("accounts repository is required")
	}
	if hasher == nil {
		return nil, errors.New("password hasher is required")
	}
	if tokens == nil {
		return nil, errors.New("token codec is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{
		accounts: accounts,
		hasher:   hasher,
		tokens:   tokens,
		logger:   logger,
	}, nil
}

// dummyPasswordHash is used when an email doesn't resolve to an account
// so that Login still performs a hash verification, keeping response
// time consistent and preventing email enumeration through timing.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Signup registers a new local account and issues its first session.
// An active account already holding the email fails with
// AUTH_DUPLICATE_EMAIL; the repository's uniqueness constraint backs
// the pre-check, so concurrent signups with the same email cannot both
// succeed.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	// Advisory pre-check for a friendly error on the common path. The
	// data-layer constraint remains authoritative under races.
	_, err := s.accounts.GetByEmail(ctx, in.Email)
	if err == nil {
		return nil, errDuplicateEmail(in.Email)
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, oops.Code("AUTH_SIGNUP_FAILED").
			With("operation", "check email").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, oops.Code("AUTH_SIGNUP_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	account := NewLocalAccount(in, hash)
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			// Lost the race to a concurrent signup.
			return nil, errDuplicateEmail(in.Email)
		}
		return nil, oops.Code("AUTH_SIGNUP_FAILED").
			With("operation", "create account").
			Wrap(err)
	}

	s.logger.Info("account created",
		"account_id", account.ID,
		"role", string(account.Role),
	)

	return s.newSession(account)
}

// Login authenticates an active account by email and password.
// Unknown email and wrong password return the same error so callers
// cannot enumerate accounts.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	account, lookupErr := s.accounts.GetByEmail(ctx, email)

	// Pick the hash to verify against: real, or dummy to keep timing
	// consistent when the account is absent.
	targetHash := dummyPasswordHash
	accountExists := false

	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get account by email").
				Wrap(lookupErr)
		}
	} else {
		targetHash = account.PasswordHash
		accountExists = true
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil {
		if !accountExists {
			return nil, errInvalidCredentials()
		}
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}
	if !accountExists || !valid {
		return nil, errInvalidCredentials()
	}

	// Upgrade legacy hashes on successful login. Best effort: login
	// succeeds even if the rewrite fails.
	if s.hasher.NeedsUpgrade(account.PasswordHash) {
		if newHash, hashErr := s.hasher.Hash(password); hashErr == nil {
			account.PasswordHash = newHash
			if updateErr := s.accounts.Update(ctx, account); updateErr != nil {
				s.logger.Warn("password hash upgrade failed",
					"account_id", account.ID,
					"error", updateErr,
				)
			}
		}
	}

	return s.newSession(account)
}

// WhoAmI returns the public profile for an active account id.
func (s *Service) WhoAmI(ctx context.Context, accountID int64) (*Profile, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errAccountNotFound(accountID)
		}
		return nil, oops.Code("AUTH_LOOKUP_FAILED").
			With("operation", "get account by id").
			With("account_id", accountID).
			Wrap(err)
	}
	return profilePtr(account), nil
}

// RefreshSession exchanges a valid refresh token for a new token pair.
// Claims on the new access token reflect the account's current stored
// state, not whatever the old token carried. The presented refresh
// token stays usable until its own expiry; there is no revocation
// store.
func (s *Service) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return nil, err
	}

	accountID, err := claims.AccountID()
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errAccountNotFound(accountID)
		}
		return nil, oops.Code("AUTH_REFRESH_FAILED").
			With("operation", "get account by id").
			With("account_id", accountID).
			Wrap(err)
	}

	return s.newSession(account)
}

// newSession mints a fresh access/refresh pair for the account.
func (s *Service) newSession(account *Account) (*Session, error) {
	accessToken, err := s.tokens.IssueAccessToken(account.ID, account.Email, account.Role)
	if err != nil {
		return nil, oops.Code("AUTH_TOKEN_ISSUE_FAILED").
			With("operation", "issue access token").
			With("account_id", account.ID).
			Wrap(err)
	}
	refreshToken, err := s.tokens.IssueRefreshToken(account.ID)
	if err != nil {
		return nil, oops.Code("AUTH_TOKEN_ISSUE_FAILED").
			With("operation", "issue refresh token").
			With("account_id", account.ID).
			Wrap(err)
	}
	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Account:      ProfileOf(account),
	}, nil
}

func profilePtr(account *Account) *Profile {
	p := ProfileOf(account)
	return &p
}

func errDuplicateEmail(email string) error {
	return oops.Code("AUTH_DUPLICATE_EMAIL").
		With("email", email).
		Wrapf(ErrDuplicateEmail, "email is already in use")
}

func errInvalidCredentials() error {
	return oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid email or password")
}

func errAccountNotFound(accountID int64) error {
	return oops.Code("AUTH_ACCOUNT_NOT_FOUND").
		With("account_id", accountID).
		Errorf("account not found")
}
