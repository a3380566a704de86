// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RetroTech Solutions

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/retrotech/authd/pkg/errutil"
)

// Service provides registration, login, logout, and session
// validation.
type Service struct {
	users    UserRepository
	sessions SessionRepository
	hasher   PasswordHasher
	logger   *slog.Logger
}

// NewService creates a Service. All dependencies are required.
func NewService(users UserRepository, sessions SessionRepository, hasher PasswordHasher) (*Service, error) {
	return NewServiceWithLogger(users, sessions, hasher, slog.Default())
}

// NewServiceWithLogger creates a Service with an explicit logger.
func NewServiceWithLogger(users UserRepository, sessions SessionRepository, hasher PasswordHasher, logger *slog.Logger) (*Service, error) {
	if users == nil {
		return nil, oops.Errorf("users repository is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("sessions repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		logger:   logger,
	}, nil
}

// Register validates the credentials, checks for username and email
// collisions, and creates the user record. All validation failures
// short-circuit before any store access.
func (s *Service) Register(ctx context.Context, username, email, password, confirm string) (*User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidateNewPassword(password, confirm); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, oops.Code(CodeDuplicateUser).
			With("field", "username").
			Errorf("username already exists")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, oops.Code(CodeStoreUnavailable).
			With("operation", "get user by username").
			Wrap(err)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, oops.Code(CodeDuplicateUser).
			With("field", "email").
			Errorf("email already registered")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, oops.Code(CodeStoreUnavailable).
			With("operation", "get user by email").
			Wrap(err)
	}

	digest, err := s.hasher.Hash(password, username)
	if err != nil {
		return nil, oops.Code(CodeStoreUnavailable).
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(username, email, digest)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		// The unique indexes are the backstop for the check-then-create
		// race; a concurrent insert surfaces here as ErrDuplicate.
		if errors.Is(err, ErrDuplicate) {
			return nil, oops.Code(CodeDuplicateUser).
				Errorf("username or email already registered")
		}
		return nil, oops.Code(CodeStoreUnavailable).
			With("operation", "create user").
			Wrap(err)
	}

	s.logger.Info("new user registered",
		slog.String("user_id", user.ID.String()),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login verifies the credentials and creates a session on success.
// Returns the session and the plaintext session token. An unknown
// username and a wrong password produce the identical
// INVALID_CREDENTIALS error.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Debug("login failed: unknown username", slog.String("username", username))
			return nil, "", oops.Code(CodeInvalidCredentials).Errorf("%s", MsgInvalidCredentials)
		}
		return nil, "", oops.Code(CodeStoreUnavailable).
			With("operation", "get user by username").
			Wrap(err)
	}

	ok, err := s.hasher.Verify(password, user.Username, user.PasswordHash)
	if err != nil {
		return nil, "", oops.Code(CodeStoreUnavailable).
			With("operation", "verify password").
			Wrap(err)
	}
	if !ok {
		s.logger.Debug("login failed: wrong password", slog.String("username", username))
		return nil, "", oops.Code(CodeInvalidCredentials).Errorf("%s", MsgInvalidCredentials)
	}

	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		return nil, "", oops.Code(CodeStoreUnavailable).
			With("operation", "generate session token").
			Wrap(err)
	}

	session, err := NewSession(user, tokenHash, time.Now().Add(SessionTTL))
	if err != nil {
		return nil, "", oops.Code(CodeStoreUnavailable).
			With("operation", "create session").
			Wrap(err)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", oops.Code(CodeStoreUnavailable).
			With("operation", "persist session").
			Wrap(err)
	}

	s.logger.Info("user logged in", slog.String("username", user.Username))

	return session, token, nil
}

// Logout destroys the session for the given plaintext token. Teardown
// is best-effort: failures are logged and never surfaced, so logout
// always succeeds from the caller's perspective.
func (s *Service) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := s.sessions.DeleteByTokenHash(ctx, HashSessionToken(token)); err != nil {
		if !errors.Is(err, ErrNotFound) {
			errutil.LogError(s.logger, "session teardown failed", err)
		}
		return
	}
	s.logger.Info("user logged out")
}

// Authenticate resolves the plaintext session token to an active
// session. An empty, unknown, or expired token yields
// NOT_AUTHENTICATED.
func (s *Service) Authenticate(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, oops.Code(CodeNotAuthenticated).Errorf("authentication required")
	}

	session, err := s.sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeNotAuthenticated).Errorf("authentication required")
		}
		return nil, oops.Code(CodeStoreUnavailable).
			With("operation", "get session by token hash").
			Wrap(err)
	}

	if session.IsExpired() {
		// Expired rows are reaped lazily; the periodic DeleteExpired
		// sweep removes the rest.
		_ = s.sessions.DeleteByTokenHash(ctx, session.TokenHash) //nolint:errcheck // best effort
		return nil, oops.Code(CodeNotAuthenticated).Errorf("authentication required")
	}

	return session, nil
}
