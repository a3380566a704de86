// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RetroTech Solutions

package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/oops"

	"github.com/retrotech/authd/internal/auth"
	"github.com/retrotech/authd/internal/observability"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "session_id"

type contextKey string

const sessionContextKey contextKey = "session"

// SessionFromContext returns the authenticated session stored by the
// auth middleware, or an error when the request was not authenticated.
func SessionFromContext(ctx context.Context) (*auth.Session, error) {
	session, ok := ctx.Value(sessionContextKey).(*auth.Session)
	if !ok || session == nil {
		return nil, oops.Code(auth.CodeNotAuthenticated).Errorf("authentication required")
	}
	return session, nil
}

// sessionToken extracts the session token from the request cookie, or
// the empty string when absent.
func sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// setSessionCookie writes the session token as an HTTP-only cookie.
func setSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires the session cookie on the client.
func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// RequireAuthenticated resolves the session cookie through the auth
// service and stores the session on the request context. Requests
// without a valid, unexpired session get a 401 and never reach the
// wrapped handler.
func RequireAuthenticated(service *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := service.Authenticate(r.Context(), sessionToken(r))
			if err != nil {
				writeError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// CountRequests records one observation per request, labelled with the
// chi route pattern and the response status class. A nil metrics value
// disables recording.
func CountRequests(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if metrics == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			class := strconv.Itoa(rec.status/100) + "xx"
			metrics.HTTPRequestsTotal.WithLabelValues(route, class).Inc()
		})
	}
}
