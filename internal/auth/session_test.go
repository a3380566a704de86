// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RetroTech Solutions

package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retrotech/authd/internal/auth"
)

func TestNewSession(t *testing.T) {
	user, err := auth.NewUser("alice", "alice@example.com", "digest")
	require.NoError(t, err)

	t.Run("snapshots the user", func(t *testing.T) {
		expiresAt := time.Now().Add(auth.SessionTTL)
		session, err := auth.NewSession(user, "tokenhash", expiresAt)
		require.NoError(t, err)

		assert.Equal(t, user.ID, session.UserID)
		assert.Equal(t, "alice", session.Username)
		assert.Equal(t, "alice@example.com", session.Email)
		assert.Equal(t, user.CreatedAt, session.UserCreatedAt)
		assert.Equal(t, expiresAt, session.ExpiresAt)
	})

	t.Run("snapshot does not track later user changes", func(t *testing.T) {
		session, err := auth.NewSession(user, "tokenhash", time.Now().Add(time.Hour))
		require.NoError(t, err)

		user.Email = "changed@example.com"
		defer func() { user.Email = "alice@example.com" }()

		assert.Equal(t, "alice@example.com", session.Email)
	})

	t.Run("nil user rejected", func(t *testing.T) {
		_, err := auth.NewSession(nil, "tokenhash", time.Now().Add(time.Hour))
		assert.Error(t, err)
	})

	t.Run("empty token hash rejected", func(t *testing.T) {
		_, err := auth.NewSession(user, "", time.Now().Add(time.Hour))
		assert.Error(t, err)
	})

	t.Run("zero expiry rejected", func(t *testing.T) {
		_, err := auth.NewSession(user, "tokenhash", time.Time{})
		assert.Error(t, err)
	})
}

func TestSessionExpiry(t *testing.T) {
	user, err := auth.NewUser("alice", "alice@example.com", "digest")
	require.NoError(t, err)

	expiresAt := time.Now().Add(time.Hour)
	session, err := auth.NewSession(user, "tokenhash", expiresAt)
	require.NoError(t, err)

	assert.False(t, session.IsExpired())
	assert.False(t, session.IsExpiredAt(expiresAt.Add(-time.Second)))
	assert.True(t, session.IsExpiredAt(expiresAt.Add(time.Second)))
}

func TestGenerateSessionToken(t *testing.T) {
	token, hash, err := auth.GenerateSessionToken()
	require.NoError(t, err)

	assert.Len(t, token, auth.SessionTokenBytes*2)
	assert.Equal(t, auth.HashSessionToken(token), hash)
	assert.NotEqual(t, token, hash)

	token2, _, err := auth.GenerateSessionToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, token2)
}

func TestVerifySessionToken(t *testing.T) {
	token, hash, err := auth.GenerateSessionToken()
	require.NoError(t, err)

	assert.True(t, auth.VerifySessionToken(token, hash))
	assert.False(t, auth.VerifySessionToken("wrong", hash))
	assert.False(t, auth.VerifySessionToken("", hash))
	assert.False(t, auth.VerifySessionToken(token, ""))
}
