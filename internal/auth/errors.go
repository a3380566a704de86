// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RetroTech Solutions

package auth

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a create would violate a uniqueness
// constraint on username or email.
var ErrDuplicate = errors.New("duplicate record")

// Error codes used across the auth packages. The two
// anti-enumeration pairs (unknown user vs wrong password, missing
// token vs expired token) intentionally collapse to a single code and
// a single caller-visible message each; internal logging carries the
// precise cause.
const (
	CodeValidationFailed      = "VALIDATION_FAILED"
	CodeDuplicateUser         = "DUPLICATE_USER"
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeNotAuthenticated      = "NOT_AUTHENTICATED"
	CodeTokenMalformed        = "TOKEN_MALFORMED"
	CodeTokenInvalidOrExpired = "TOKEN_INVALID_OR_EXPIRED"
	CodeStoreUnavailable      = "STORE_UNAVAILABLE"
)

// Caller-visible messages for the anti-enumeration pairs. These are
// part of the contracted behavior and must stay identical for both
// causes in each pair.
const (
	MsgInvalidCredentials    = "invalid username or password"
	MsgTokenInvalidOrExpired = "invalid or expired reset link"
)
