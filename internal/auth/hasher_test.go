// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RetroTech Solutions

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrotech/authd/internal/auth"
)

func TestLegacyHasher_Hash(t *testing.T) {
	hasher := auth.NewLegacyHasher()

	t.Run("known digests", func(t *testing.T) {
		tests := []struct {
			username string
			password string
			want     string
		}{
			{"alice", "Secret1", "d29eb646aa003ec1c30faa7659a80de8"},
			{"admin", "admin123", "172eee54aa664e9dd0536b063796e54e"},
			{"bob", "bobsecure", "7bf9cb12f232a2291d7b2cd738e8bcde"},
		}

		for _, tt := range tests {
			got, err := hasher.Hash(tt.password, tt.username)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		h1, err := hasher.Hash("samepassword", "alice")
		require.NoError(t, err)
		h2, err := hasher.Hash("samepassword", "alice")
		require.NoError(t, err)
		assert.Equal(t, h1, h2)
	})

	t.Run("username participates in the digest", func(t *testing.T) {
		h1, err := hasher.Hash("samepassword", "alice")
		require.NoError(t, err)
		h2, err := hasher.Hash("samepassword", "bob")
		require.NoError(t, err)
		assert.NotEqual(t, h1, h2)
	})

	t.Run("concatenation order is username then password", func(t *testing.T) {
		// "ab"+"c" and "a"+"bc" must not collide with each other's
		// reversed split; the digest is over username || password.
		h1, err := hasher.Hash("c", "ab")
		require.NoError(t, err)
		h2, err := hasher.Hash("bc", "a")
		require.NoError(t, err)
		assert.Equal(t, h1, h2) // both digest "abc"
	})

	t.Run("rejects empty password", func(t *testing.T) {
		_, err := hasher.Hash("", "alice")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrEmptyPassword)
	})

	t.Run("digest is 32 lowercase hex characters", func(t *testing.T) {
		got, err := hasher.Hash("whatever", "user")
		require.NoError(t, err)
		assert.Len(t, got, 32)
		assert.True(t, auth.IsWellFormedToken(got))
	})
}

func TestLegacyHasher_Verify(t *testing.T) {
	hasher := auth.NewLegacyHasher()

	t.Run("correct password matches", func(t *testing.T) {
		ok, err := hasher.Verify("Secret1", "alice", "d29eb646aa003ec1c30faa7659a80de8")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("wrong password does not match", func(t *testing.T) {
		ok, err := hasher.Verify("Secret2", "alice", "d29eb646aa003ec1c30faa7659a80de8")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("same password under another username does not match", func(t *testing.T) {
		ok, err := hasher.Verify("Secret1", "bob", "d29eb646aa003ec1c30faa7659a80de8")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("comparison is case-sensitive", func(t *testing.T) {
		ok, err := hasher.Verify("Secret1", "alice", "D29EB646AA003EC1C30FAA7659A80DE8")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("empty password errors", func(t *testing.T) {
		_, err := hasher.Verify("", "alice", "d29eb646aa003ec1c30faa7659a80de8")
		assert.Error(t, err)
	})
}
