// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RetroTech Solutions

package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/retrotech/authd/internal/auth"
	"github.com/retrotech/authd/internal/auth/mocks"
	mailmocks "github.com/retrotech/authd/internal/mail/mocks"
)

type testDeps struct {
	users    *mocks.MockUserRepository
	sessions *mocks.MockSessionRepository
	hasher   *mocks.MockPasswordHasher
	tokens   *mocks.MockResetTokenSource
	notifier *mailmocks.MockNotifier
}

func newTestRouter(t *testing.T, debugEnabled bool) (http.Handler, *testDeps) {
	t.Helper()

	deps := &testDeps{
		users:    mocks.NewMockUserRepository(t),
		sessions: mocks.NewMockSessionRepository(t),
		hasher:   mocks.NewMockPasswordHasher(t),
		tokens:   mocks.NewMockResetTokenSource(t),
		notifier: mailmocks.NewMockNotifier(t),
	}

	authService, err := auth.NewService(deps.users, deps.sessions, deps.hasher)
	require.NoError(t, err)

	resetService, err := auth.NewPasswordResetService(
		deps.users, deps.tokens, deps.hasher, deps.notifier, "http://localhost:8080")
	require.NoError(t, err)

	router := NewRouter(RouterDeps{
		Auth:         authService,
		Reset:        resetService,
		Users:        deps.users,
		SessionTTL:   auth.SessionTTL,
		Version:      "test",
		DebugEnabled: debugEnabled,
	})

	return router, deps
}

func testUser(t *testing.T, username, email, hash string) *auth.User {
	t.Helper()
	user, err := auth.NewUser(username, email, hash)
	require.NoError(t, err)
	return user
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return body
}

func errorCodeOf(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, resp)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error object in response, got %v", body)
	code, _ := errObj["code"].(string)
	return code
}

func TestRegister(t *testing.T) {
	t.Run("creates user and returns 201", func(t *testing.T) {
		router, deps := newTestRouter(t, false)

		deps.users.On("GetByUsername", mock.Anything, "alice").Return(nil, auth.ErrNotFound)
		deps.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, auth.ErrNotFound)
		deps.hasher.On("Hash", "secret1", "alice").Return("digest", nil)
		deps.users.On("Create", mock.Anything, mock.AnythingOfType("*auth.User")).Return(nil)

		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(
			`{"username":"alice","email":"alice@example.com","password":"secret1","confirmPassword":"secret1"}`))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusCreated, resp.Code)
		body := decodeBody(t, resp)
		user, ok := body["user"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "alice", user["username"])
		assert.Equal(t, "alice@example.com", user["email"])
		assert.NotEmpty(t, user["id"])
	})

	t.Run("duplicate username returns 409", func(t *testing.T) {
		router, deps := newTestRouter(t, false)

		existing := testUser(t, "alice", "other@example.com", "digest")
		deps.users.On("GetByUsername", mock.Anything, "alice").Return(existing, nil)

		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(
			`{"username":"alice","email":"alice@example.com","password":"secret1","confirmPassword":"secret1"}`))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusConflict, resp.Code)
		assert.Equal(t, auth.CodeDuplicateUser, errorCodeOf(t, resp))
	})

	t.Run("validation failure returns 400 before store access", func(t *testing.T) {
		router, _ := newTestRouter(t, false)

		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(
			`{"username":"al","email":"alice@example.com","password":"secret1","confirmPassword":"secret1"}`))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, auth.CodeValidationFailed, errorCodeOf(t, resp))
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		router, _ := newTestRouter(t, false)

		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("{"))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestLogin(t *testing.T) {
	t.Run("sets session cookie on success", func(t *testing.T) {
		router, deps := newTestRouter(t, false)

		user := testUser(t, "alice", "alice@example.com", "digest")
		deps.users.On("GetByUsername", mock.Anything, "alice").Return(user, nil)
		deps.hasher.On("Verify", "secret1", "alice", "digest").Return(true, nil)
		deps.sessions.On("Create", mock.Anything, mock.AnythingOfType("*auth.Session")).Return(nil)

		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(
			`{"username":"alice","password":"secret1"}`))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusOK, resp.Code)

		cookies := resp.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, SessionCookieName, cookies[0].Name)
		assert.NotEmpty(t, cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
		assert.Equal(t, int(auth.SessionTTL.Seconds()), cookies[0].MaxAge)

		body := decodeBody(t, resp)
		u, ok := body["user"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "alice", u["username"])
	})

	t.Run("unknown username returns 401 with shared message", func(t *testing.T) {
		router, deps := newTestRouter(t, false)

		deps.users.On("GetByUsername", mock.Anything, "ghost").Return(nil, auth.ErrNotFound)

		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(
			`{"username":"ghost","password":"whatever"}`))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusUnauthorized, resp.Code)
		body := decodeBody(t, resp)
		errObj := body["error"].(map[string]any)
		assert.Equal(t, auth.CodeInvalidCredentials, errObj["code"])
		assert.Equal(t, auth.MsgInvalidCredentials, errObj["message"])
	})

	t.Run("wrong password returns identical 401", func(t *testing.T) {
		router, deps := newTestRouter(t, false)

		user := testUser(t, "alice", "alice@example.com", "digest")
		deps.users.On("GetByUsername", mock.Anything, "alice").Return(user, nil)
		deps.hasher.On("Verify", "wrong", "alice", "digest").Return(false, nil)

		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(
			`{"username":"alice","password":"wrong"}`))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusUnauthorized, resp.Code)
		body := decodeBody(t, resp)
		errObj := body["error"].(map[string]any)
		assert.Equal(t, auth.CodeInvalidCredentials, errObj["code"])
		assert.Equal(t, auth.MsgInvalidCredentials, errObj["message"])
	})

	t.Run("store failure returns 503 without detail", func(t *testing.T) {
		router, deps := newTestRouter(t, false)

		deps.users.On("GetByUsername", mock.Anything, "alice").Return(nil, assert.AnError)

		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(
			`{"username":"alice","password":"secret1"}`))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusServiceUnavailable, resp.Code)
		body := decodeBody(t, resp)
		errObj := body["error"].(map[string]any)
		assert.Equal(t, auth.CodeStoreUnavailable, errObj["code"])
		assert.NotContains(t, errObj["message"], assert.AnError.Error())
	})
}

func TestLogout(t *testing.T) {
	t.Run("destroys session and clears cookie", func(t *testing.T) {
		router, deps := newTestRouter(t, false)

		deps.sessions.On("DeleteByTokenHash", mock.Anything, auth.HashSessionToken("tok")).Return(nil)

		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok"})
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusNoContent, resp.Code)

		cookies := resp.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, SessionCookieName, cookies[0].Name)
		assert.Equal(t, -1, cookies[0].MaxAge)
	})

	t.Run("succeeds without a cookie", func(t *testing.T) {
		router, _ := newTestRouter(t, false)

		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusNoContent, resp.Code)
	})

	t.Run("succeeds when session teardown fails", func(t *testing.T) {
		router, deps := newTestRouter(t, false)

		deps.sessions.On("DeleteByTokenHash", mock.Anything, mock.AnythingOfType("string")).Return(assert.AnError)

		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok"})
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusNoContent, resp.Code)
	})
}

func TestMe(t *testing.T) {
	t.Run("returns session snapshot", func(t *testing.T) {
		router, deps := newTestRouter(t, false)

		user := testUser(t, "alice", "alice@example.com", "digest")
		session, err := auth.NewSession(user, auth.HashSessionToken("tok"), time.Now().Add(time.Hour))
		require.NoError(t, err)
		deps.sessions.On("GetByTokenHash", mock.Anything, auth.HashSessionToken("tok")).Return(session, nil)

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok"})
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusOK, resp.Code)
		body := decodeBody(t, resp)
		u := body["user"].(map[string]any)
		assert.Equal(t, "alice", u["username"])
		assert.Equal(t, "alice@example.com", u["email"])
	})

	t.Run("missing cookie returns 401", func(t *testing.T) {
		router, _ := newTestRouter(t, false)

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Equal(t, auth.CodeNotAuthenticated, errorCodeOf(t, resp))
	})

	t.Run("expired session returns 401 and reaps the row", func(t *testing.T) {
		router, deps := newTestRouter(t, false)

		user := testUser(t, "alice", "alice@example.com", "digest")
		session, err := auth.NewSession(user, auth.HashSessionToken("tok"), time.Now().Add(time.Hour))
		require.NoError(t, err)
		session.ExpiresAt = time.Now().Add(-time.Minute)

		deps.sessions.On("GetByTokenHash", mock.Anything, auth.HashSessionToken("tok")).Return(session, nil)
		deps.sessions.On("DeleteByTokenHash", mock.Anything, session.TokenHash).Return(nil)

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok"})
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}
