// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RetroTech Solutions

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/samber/oops"

	"github.com/retrotech/authd/internal/mail"
	"github.com/retrotech/authd/pkg/errutil"
)

// PasswordResetService drives the reset workflow per username:
// NoPendingReset -> PendingReset -> Consumed | Expired. Concurrent
// requests for the same username are not ordered; the last issued
// token wins and silently invalidates an earlier pending one.
type PasswordResetService struct {
	users    UserRepository
	tokens   ResetTokenSource
	hasher   PasswordHasher
	notifier mail.Notifier
	baseURL  string
	logger   *slog.Logger
}

// NewPasswordResetService creates a PasswordResetService. The baseURL
// is used to render reset links in notification payloads.
func NewPasswordResetService(
	users UserRepository,
	tokens ResetTokenSource,
	hasher PasswordHasher,
	notifier mail.Notifier,
	baseURL string,
) (*PasswordResetService, error) {
	return NewPasswordResetServiceWithLogger(users, tokens, hasher, notifier, baseURL, slog.Default())
}

// NewPasswordResetServiceWithLogger creates a PasswordResetService
// with an explicit logger.
func NewPasswordResetServiceWithLogger(
	users UserRepository,
	tokens ResetTokenSource,
	hasher PasswordHasher,
	notifier mail.Notifier,
	baseURL string,
	logger *slog.Logger,
) (*PasswordResetService, error) {
	if users == nil {
		return nil, oops.Errorf("users repository is required")
	}
	if tokens == nil {
		return nil, oops.Errorf("reset token source is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if notifier == nil {
		return nil, oops.Errorf("notifier is required")
	}
	if baseURL == "" {
		return nil, oops.Errorf("base URL is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &PasswordResetService{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		notifier: notifier,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		logger:   logger,
	}, nil
}

// RequestReset starts the reset workflow for a username or email
// (disambiguated by the presence of '@'). When the account does not
// exist the call still succeeds with no further action, so the
// response never reveals whether the identifier is registered.
func (s *PasswordResetService) RequestReset(ctx context.Context, identifier string) error {
	if identifier == "" {
		return oops.Code(CodeValidationFailed).Errorf("please provide a username or email")
	}

	var (
		user *User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.users.GetByEmail(ctx, identifier)
	} else {
		user, err = s.users.GetByUsername(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Debug("reset requested for unknown account")
			return nil
		}
		return oops.Code(CodeStoreUnavailable).
			With("operation", "look up reset identifier").
			Wrap(err)
	}

	token, expiresAt, err := s.tokens.Issue(user.Username)
	if err != nil {
		return oops.Code(CodeStoreUnavailable).
			With("operation", "issue reset token").
			Wrap(err)
	}

	if err := s.users.SetResetToken(ctx, user.Username, token, expiresAt); err != nil {
		return oops.Code(CodeStoreUnavailable).
			With("operation", "persist reset token").
			Wrap(err)
	}

	s.logger.Info("password reset requested",
		slog.String("username", user.Username),
		slog.Time("expires_at", expiresAt),
	)

	// Delivery is outside the workflow's contract; a sink failure does
	// not unwind the pending reset.
	n := mail.NewResetNotification(s.baseURL, user.Username, user.Email, token, expiresAt)
	if err := s.notifier.Send(ctx, n); err != nil {
		errutil.LogError(s.logger, "reset notification delivery failed", err)
	}

	return nil
}

// ValidateToken checks a presented token and returns the user it is
// bound to. A structurally invalid token is rejected with
// TOKEN_MALFORMED before any store access; a well-formed token that is
// unknown or expired yields TOKEN_INVALID_OR_EXPIRED, with the same
// caller-visible message for both causes.
func (s *PasswordResetService) ValidateToken(ctx context.Context, token string) (*User, error) {
	if !IsWellFormedToken(token) {
		return nil, oops.Code(CodeTokenMalformed).Errorf("invalid reset link")
	}

	user, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeTokenInvalidOrExpired).Errorf("%s", MsgTokenInvalidOrExpired)
		}
		return nil, oops.Code(CodeStoreUnavailable).
			With("operation", "get user by reset token").
			Wrap(err)
	}

	return user, nil
}

// CompleteReset consumes a token and writes the new password hash.
// The token's structural check and the password policy run before any
// store access. Clearing the consumed token is best-effort: if it
// fails, the password change has already taken effect and the stale
// token remains usable until its natural expiry.
func (s *PasswordResetService) CompleteReset(ctx context.Context, token, newPassword, confirm string) error {
	if !IsWellFormedToken(token) {
		return oops.Code(CodeTokenMalformed).Errorf("invalid reset link")
	}
	if err := ValidateNewPassword(newPassword, confirm); err != nil {
		return err
	}

	user, err := s.ValidateToken(ctx, token)
	if err != nil {
		return err
	}

	digest, err := s.hasher.Hash(newPassword, user.Username)
	if err != nil {
		return oops.Code(CodeStoreUnavailable).
			With("operation", "hash new password").
			Wrap(err)
	}

	if err := s.users.UpdatePassword(ctx, user.Username, digest); err != nil {
		return oops.Code(CodeStoreUnavailable).
			With("operation", "update password").
			Wrap(err)
	}

	if err := s.users.ClearResetToken(ctx, user.Username); err != nil {
		errutil.LogError(s.logger, "failed to clear consumed reset token", err)
	}

	s.logger.Info("password reset completed", slog.String("username", user.Username))

	return nil
}
