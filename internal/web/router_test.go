// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RetroTech Solutions

package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/retrotech/authd/internal/auth"
)

func TestDebugRoutesDisabledByDefault(t *testing.T) {
	router, _ := newTestRouter(t, false)

	for _, path := range []string{"/api/debug/users", "/api/debug/info"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusNotFound, resp.Code, "expected %s to be absent", path)
	}
}

func TestDebugUsers(t *testing.T) {
	router, deps := newTestRouter(t, true)

	alice := testUser(t, "alice", "alice@example.com", "d29eb646aa003ec1c30faa7659a80de8")
	bob := testUser(t, "bob", "bob@example.com", "7bf9cb12f232a2291d7b2cd738e8bcde")
	deps.users.On("ListAll", mock.Anything).Return([]*auth.User{alice, bob}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/debug/users", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	body := decodeBody(t, resp)

	users, ok := body["users"].([]any)
	require.True(t, ok)
	require.Len(t, users, 2)

	first := users[0].(map[string]any)
	assert.Equal(t, "alice", first["username"])
	// The debug dump intentionally exposes stored hashes.
	assert.Equal(t, "d29eb646aa003ec1c30faa7659a80de8", first["password_hash"])
	assert.Equal(t, true, body["debug"])
}

func TestDebugInfo(t *testing.T) {
	router, _ := newTestRouter(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/debug/info", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	body := decodeBody(t, resp)
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, "PostgreSQL", body["database"])
}

func TestUnknownRouteReturns404(t *testing.T) {
	router, _ := newTestRouter(t, false)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
}
