// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RetroTech Solutions

package auth

import (
	"crypto/md5" //nolint:gosec // G501: contracted legacy scheme, see LegacyHasher doc
	"encoding/hex"

	"github.com/samber/oops"
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code(CodeValidationFailed).Errorf("password cannot be empty")

// PasswordHasher produces and verifies password digests. The username
// is passed as the identifier because the legacy scheme salts with it;
// implementations are free to ignore it.
type PasswordHasher interface {
	// Hash produces a digest of the password for the given username.
	Hash(password, username string) (string, error)

	// Verify checks whether the password matches the stored digest.
	// Returns (true, nil) on match, (false, nil) on mismatch, or an
	// error when the digest cannot be processed.
	Verify(password, username, digest string) (bool, error)
}

// LegacyHasher reproduces the original RetroTech digest construction:
//
//	digest = hex(md5(username || password))
//
// The digest is deterministic and unsalted beyond the username: two
// accounts with the same username and password always share a digest,
// and the construction is open to precomputation. Verification is a
// plain string equality, with no timing guarantee. This is the
// contracted behavior of the system; deployments wanting a hardened
// scheme select Argon2idHasher through configuration instead.
type LegacyHasher struct{}

// NewLegacyHasher creates a LegacyHasher.
func NewLegacyHasher() *LegacyHasher {
	return &LegacyHasher{}
}

// Hash produces the legacy digest. It is a pure function over its
// inputs: identical inputs always produce identical output.
func (h *LegacyHasher) Hash(password, username string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	sum := md5.Sum([]byte(username + password)) //nolint:gosec // G401: contracted legacy scheme
	return hex.EncodeToString(sum[:]), nil
}

// Verify recomputes the digest and compares for equality.
func (h *LegacyHasher) Verify(password, username, digest string) (bool, error) {
	computed, err := h.Hash(password, username)
	if err != nil {
		return false, err
	}
	return computed == digest, nil
}

// Compile-time interface check.
var _ PasswordHasher = (*LegacyHasher)(nil)
