// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RetroTech Solutions

package auth

import (
	"crypto/md5" //nolint:gosec // G501: contracted legacy scheme, see BucketTokenSource doc
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/samber/oops"
)

// Reset token configuration.
const (
	ResetTokenLength = 32        // hex characters
	ResetTokenTTL    = time.Hour // validity window from issuance

	// tokenBucketMillis is the hour bucket width used by the legacy
	// token construction, in milliseconds.
	tokenBucketMillis = int64(time.Hour / time.Millisecond)
)

// ResetTokenSource issues reset tokens bound to a username.
type ResetTokenSource interface {
	// Issue produces a token and its expiry timestamp.
	Issue(username string) (token string, expiresAt time.Time, err error)
}

// BucketTokenSource reproduces the original RetroTech token
// construction:
//
//	token = hex(md5(username || decimal(floor(nowMs/3600000)*3600000)))
//
// The token is fully determined by the username and the current hour
// boundary; it carries no random component, so two issues within the
// same hour produce the identical token. This is the contracted
// behavior; RandomTokenSource is the hardened substitute selected
// through configuration.
type BucketTokenSource struct {
	now func() time.Time
}

// NewBucketTokenSource creates a BucketTokenSource on the wall clock.
func NewBucketTokenSource() *BucketTokenSource {
	return &BucketTokenSource{now: time.Now}
}

// NewBucketTokenSourceAt creates a BucketTokenSource on the given
// clock. Used by tests to pin the hour bucket.
func NewBucketTokenSourceAt(now func() time.Time) *BucketTokenSource {
	return &BucketTokenSource{now: now}
}

// Issue derives the token from the username and the current hour
// boundary. The expiry is one hour from now, not from the boundary.
func (s *BucketTokenSource) Issue(username string) (string, time.Time, error) {
	now := s.now()
	bucket := now.UnixMilli() / tokenBucketMillis * tokenBucketMillis
	sum := md5.Sum([]byte(username + strconv.FormatInt(bucket, 10))) //nolint:gosec // G401: contracted legacy scheme
	return hex.EncodeToString(sum[:]), now.Add(ResetTokenTTL), nil
}

// RandomTokenSource issues cryptographically random tokens with the
// same 32-hex-character format and one-hour expiry as the legacy
// source, keeping IsWellFormedToken and the workflow state machine
// unchanged.
type RandomTokenSource struct{}

// NewRandomTokenSource creates a RandomTokenSource.
func NewRandomTokenSource() *RandomTokenSource {
	return &RandomTokenSource{}
}

// Issue produces a random token of ResetTokenLength hex characters.
func (s *RandomTokenSource) Issue(_ string) (string, time.Time, error) {
	buf := make([]byte, ResetTokenLength/2)
	if _, err := rand.Read(buf); err != nil {
		return "", time.Time{}, oops.Code("RESET_TOKEN_GENERATE_FAILED").Wrap(err)
	}
	return hex.EncodeToString(buf), time.Now().Add(ResetTokenTTL), nil
}

// IsWellFormedToken reports whether the token is exactly 32
// hexadecimal characters (either case). Format check only; it says
// nothing about whether the token is live.
func IsWellFormedToken(token string) bool {
	if len(token) != ResetTokenLength {
		return false
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// Compile-time interface checks.
var (
	_ ResetTokenSource = (*BucketTokenSource)(nil)
	_ ResetTokenSource = (*RandomTokenSource)(nil)
)
