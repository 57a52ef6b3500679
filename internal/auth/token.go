// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shearbook Contributors

package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// TokenConfig holds the immutable signing configuration for TokenCodec.
// The secret is process-wide; rotating it invalidates every
// outstanding token, which the stateless design accepts.
type TokenConfig struct {
	// Secret is the HMAC-SHA256 signing key.
	Secret []byte

	// AccessTTL is the lifetime of access tokens.
	AccessTTL time.Duration

	// RefreshTTL is the lifetime of refresh tokens. Configuration
	// validation keeps it longer than AccessTTL.
	RefreshTTL time.Duration

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// TokenClaims are the decoded contents of a verified session token.
// Access tokens carry Email and Role; refresh tokens carry only the
// registered claims, so consumers must re-derive account state from
// the repository rather than trust stale claims.
type TokenClaims struct {
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// AccountID parses the subject claim back into an account id.
func (c *TokenClaims) AccountID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, oops.Code("AUTH_INVALID_TOKEN").
			With("subject", c.Subject).
			Errorf("token subject is not an account id")
	}
	return id, nil
}

// TokenCodec signs and verifies compact self-contained session tokens.
// It is a pure function of (secret, clock, input) and holds no mutable
// state, so a single instance is safe for concurrent use.
type TokenCodec struct {
	config TokenConfig
}

// NewTokenCodec creates a TokenCodec, validating the configuration.
func NewTokenCodec(cfg TokenConfig) (*TokenCodec, error) {
	if len(cfg.Secret) == 0 {
		return nil, oops.Code("CONFIG_INVALID").Errorf("token secret is required")
	}
	if cfg.AccessTTL <= 0 {
		return nil, oops.Code("CONFIG_INVALID").Errorf("access token TTL must be positive")
	}
	if cfg.RefreshTTL <= 0 {
		return nil, oops.Code("CONFIG_INVALID").Errorf("refresh token TTL must be positive")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &TokenCodec{config: cfg}, nil
}

// IssueAccessToken signs a short-lived token carrying the account's
// identity and role claims.
func (c *TokenCodec) IssueAccessToken(accountID int64, email string, role Role) (string, error) {
	now := c.config.Now()
	claims := TokenClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(accountID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.config.AccessTTL)),
		},
	}
	return c.sign(claims)
}

// IssueRefreshToken signs a longer-lived token carrying only the
// subject. Role and email are deliberately absent: refresh must
// re-authorize against live account state.
func (c *TokenCodec) IssueRefreshToken(accountID int64) (string, error) {
	now := c.config.Now()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(accountID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.config.RefreshTTL)),
		},
	}
	return c.sign(claims)
}

func (c *TokenCodec) sign(claims TokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.config.Secret)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Verify parses a token, checking signature integrity and expiry.
// Expired-but-genuine tokens fail with AUTH_TOKEN_EXPIRED; everything
// else malformed, unsigned, or tampered fails with AUTH_INVALID_TOKEN.
func (c *TokenCodec) Verify(tokenStr string) (*TokenClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.config.Now),
		jwt.WithExpirationRequired(),
	)

	claims := &TokenClaims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return c.config.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, oops.Code("AUTH_TOKEN_EXPIRED").Errorf("token has expired")
		}
		return nil, oops.Code("AUTH_INVALID_TOKEN").
			With("reason", err.Error()).
			Errorf("invalid token")
	}
	if !token.Valid {
		return nil, oops.Code("AUTH_INVALID_TOKEN").Errorf("invalid token")
	}

	return claims, nil
}
