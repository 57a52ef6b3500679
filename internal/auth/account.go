// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Shearbook Contributors

package auth

import (
	"context"
	"net/mail"
	"regexp"
	"time"

	"github.com/samber/oops"
)

// Field length constraints.
const (
	MinPasswordLength = 8
	MaxNameLength     = 100
	MaxPhoneLength    = 20
	MaxEmailLength    = 255
)

// phoneRegex matches digits optionally separated by single dashes,
// e.g. "010-0000-0000" or "01000000000".
var phoneRegex = regexp.MustCompile(`^\d+(-\d+)*$`)

// Role determines what an account is allowed to do elsewhere in the
// platform. The auth service only carries it as a token claim.
type Role string

// Account roles.
const (
	RoleCustomer Role = "CUSTOMER"
	RoleOwner    Role = "OWNER"
	RoleAdmin    Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleOwner, RoleAdmin:
		return true
	}
	return false
}

// ParseRole converts a string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", oops.Code("AUTH_INVALID_INPUT").
			With("role", s).
			Errorf("unknown role %q", s)
	}
	return r, nil
}

// Origin identifies where an account's credentials live: local
// password-based auth or an external OAuth provider.
type Origin string

// Account origins.
const (
	OriginLocal Origin = "LOCAL"
	OriginKakao Origin = "KAKAO"
	OriginNaver Origin = "NAVER"
)

// Valid reports whether o is a known origin.
func (o Origin) Valid() bool {
	switch o {
	case OriginLocal, OriginKakao, OriginNaver:
		return true
	}
	return false
}

// Account is the identity record for a platform user.
// The ID is assigned by the repository on Create.
type Account struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	Role         Role
	Origin       Origin
	// OriginID is the provider-scoped external id for federated
	// accounts. Empty when Origin is LOCAL.
	OriginID  string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// IsDeleted reports whether the account has been soft-deleted.
func (a *Account) IsDeleted() bool {
	return a.DeletedAt != nil
}

// SoftDelete marks the account as deleted without removing it.
func (a *Account) SoftDelete() {
	now := time.Now()
	a.DeletedAt = &now
	a.UpdatedAt = now
}

// Profile is the public view of an account. It never carries the
// password hash.
type Profile struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Role      Role      `json:"role"`
	Origin    Origin    `json:"origin"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProfileOf builds the public view of an account.
func ProfileOf(a *Account) Profile {
	return Profile{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.Name,
		Phone:     a.Phone,
		Role:      a.Role,
		Origin:    a.Origin,
		CreatedAt: a.CreatedAt,
	}
}

// ValidateEmail validates an email address.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_INVALID_INPUT").Errorf("email cannot be empty")
	}
	if len(email) > MaxEmailLength {
		return oops.Code("AUTH_INVALID_INPUT").
			With("max", MaxEmailLength).
			Errorf("email must be at most %d characters", MaxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return oops.Code("AUTH_INVALID_INPUT").Errorf("invalid email address")
	}
	return nil
}

// ValidatePassword validates a plaintext password.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return oops.Code("AUTH_INVALID_INPUT").
			With("min", MinPasswordLength).
			Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// SignupInput carries validated signup fields into the service.
type SignupInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Role     Role
}

// Validate checks every signup field and returns the first failure.
func (in SignupInput) Validate() error {
	if err := ValidateEmail(in.Email); err != nil {
		return err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return err
	}
	if in.Name == "" {
		return oops.Code("AUTH_INVALID_INPUT").Errorf("name cannot be empty")
	}
	if len(in.Name) > MaxNameLength {
		return oops.Code("AUTH_INVALID_INPUT").
			With("max", MaxNameLength).
			Errorf("name must be at most %d characters", MaxNameLength)
	}
	if in.Phone == "" {
		return oops.Code("AUTH_INVALID_INPUT").Errorf("phone cannot be empty")
	}
	if len(in.Phone) > MaxPhoneLength {
		return oops.Code("AUTH_INVALID_INPUT").
			With("max", MaxPhoneLength).
			Errorf("phone must be at most %d characters", MaxPhoneLength)
	}
	if !phoneRegex.MatchString(in.Phone) {
		return oops.Code("AUTH_INVALID_INPUT").Errorf("phone must contain only digits and dashes")
	}
	if !in.Role.Valid() {
		return oops.Code("AUTH_INVALID_INPUT").
			With("role", string(in.Role)).
			Errorf("unknown role %q", string(in.Role))
	}
	return nil
}

// NewLocalAccount builds an account for password-based signup. The
// password hash must already be computed; ID is assigned on Create.
func NewLocalAccount(in SignupInput, passwordHash string) *Account {
	now := time.Now()
	return &Account{
		Email:        in.Email,
		PasswordHash: passwordHash,
		Name:         in.Name,
		Phone:        in.Phone,
		Role:         in.Role,
		Origin:       OriginLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// AccountRepository manages account persistence.
//
// Email uniqueness among active accounts is enforced by the storage
// layer, not by callers: Create must fail with ErrDuplicateEmail when
// another active account holds the same email, even if a caller's
// pre-check passed moments earlier.
type AccountRepository interface {
	// Create stores a new account and assigns its ID.
	// Returns ErrDuplicateEmail when the active-email constraint trips.
	Create(ctx context.Context, account *Account) error

	// GetByEmail retrieves an active account by exact email match.
	// Returns ErrNotFound for unknown or soft-deleted accounts.
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// GetByID retrieves an active account by id.
	// Returns ErrNotFound for unknown or soft-deleted accounts.
	GetByID(ctx context.Context, id int64) (*Account, error)

	// Update persists mutations to an existing account.
	Update(ctx context.Context, account *Account) error

	// SoftDelete marks an account as deleted, freeing its email for
	// reuse by a later signup.
	SoftDelete(ctx context.Context, id int64) error
}
