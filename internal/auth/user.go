// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RetroTech Solutions

package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 50
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6

// usernameRegex matches usernames containing only letters, numbers,
// dots, underscores, and hyphens.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// emailRegex matches a basic local@domain.tld shape. This mirrors the
// original system's check; it is not a full RFC 5322 validator.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// User represents a stored credential record.
//
// ResetToken and ResetTokenExpires are either both nil or both set;
// the store enforces the pairing with a CHECK constraint and the
// SetResetToken/ClearResetToken operations only ever write them
// together.
type User struct {
	ID                ulid.ULID
	Username          string
	Email             string
	PasswordHash      string
	CreatedAt         time.Time
	ResetToken        *string
	ResetTokenExpires *time.Time
}

// NewUser creates a User with validated fields and an assigned ID.
// The password hash must already be computed by a PasswordHasher.
func NewUser(username, email, passwordHash string) (*User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if passwordHash == "" {
		return nil, oops.Code(CodeValidationFailed).Errorf("password hash cannot be empty")
	}
	return &User{
		ID:           ulid.Make(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// HasPendingReset reports whether a reset token is set, regardless of
// whether it has expired.
func (u *User) HasPendingReset() bool {
	return u.ResetToken != nil && u.ResetTokenExpires != nil
}

// ValidateUsername checks length (3-50) and charset [A-Za-z0-9._-].
func ValidateUsername(username string) error {
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return oops.Code(CodeValidationFailed).
			With("field", "username").
			Errorf("username must be %d-%d characters", MinUsernameLength, MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code(CodeValidationFailed).
			With("field", "username").
			Errorf("username may contain only letters, numbers, dots, underscores, or hyphens")
	}
	return nil
}

// ValidateEmail checks the basic local@domain.tld shape.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return oops.Code(CodeValidationFailed).
			With("field", "email").
			Errorf("invalid email format")
	}
	return nil
}

// ValidatePassword checks the minimum length policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return oops.Code(CodeValidationFailed).
			With("field", "password").
			Errorf("password must be at least %d characters long", MinPasswordLength)
	}
	return nil
}

// ValidateNewPassword checks the password policy and that the
// confirmation matches exactly.
func ValidateNewPassword(password, confirm string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	if password != confirm {
		return oops.Code(CodeValidationFailed).
			With("field", "confirm_password").
			Errorf("passwords do not match")
	}
	return nil
}

// UserRepository is the credential store consumed by the services.
// Implementations map storage-level uniqueness violations to
// ErrDuplicate and absent rows to ErrNotFound.
type UserRepository interface {
	// Create stores a new user record.
	Create(ctx context.Context, user *User) error

	// GetByUsername retrieves a user by exact username.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByEmail retrieves a user by exact email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByResetToken retrieves the user whose reset token equals the
	// given value and has not yet expired. Expired tokens behave as
	// absent.
	GetByResetToken(ctx context.Context, token string) (*User, error)

	// UpdatePassword replaces the stored password hash for a username.
	UpdatePassword(ctx context.Context, username, newHash string) error

	// SetResetToken stores a reset token and its expiry on the user
	// record as a single write. A later call overwrites an earlier
	// pending token; last write wins.
	SetResetToken(ctx context.Context, username, token string, expiresAt time.Time) error

	// ClearResetToken removes the reset token pair from the user record.
	ClearResetToken(ctx context.Context, username string) error

	// ListAll returns every user record. Debug surface only; the rows
	// include raw password hashes.
	ListAll(ctx context.Context) ([]*User, error)
}
