// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RetroTech Solutions

// Package mail builds password-reset notification payloads and hands
// them to a delivery sink. The core's responsibility ends at payload
// construction; actual delivery is a deployment concern.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Notification is a fully rendered reset notification ready for a
// delivery sink.
type Notification struct {
	Recipient string
	Subject   string
	Body      string
	ResetLink string
	ExpiresAt time.Time
}

// Notifier delivers a notification. Implementations must not block
// the reset workflow on delivery; errors are reported, not retried.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// resetBodyTemplate mirrors the original RetroTech reset email.
const resetBodyTemplate = `Dear %s,

You have requested a password reset for your RetroTech Solutions account.

Please click the following link to reset your password:
%s

This link will expire in 1 hour for your security.

If you did not request this password reset, please ignore this email.

Best regards,
RetroTech Solutions Security Team
`

// NewResetNotification renders the reset notification for a user. The
// link embeds the plaintext token under the reset completion route of
// baseURL.
func NewResetNotification(baseURL, username, email, token string, expiresAt time.Time) Notification {
	link := fmt.Sprintf("%s/reset/reset-password/%s", baseURL, token)
	return Notification{
		Recipient: email,
		Subject:   "Password Reset Request - RetroTech Solutions",
		Body:      fmt.Sprintf(resetBodyTemplate, username, link),
		ResetLink: link,
		ExpiresAt: expiresAt,
	}
}

// LogNotifier writes notifications to the structured log instead of
// delivering them. This is the shipped default; the original system
// likewise only ever logged the email content.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier. A nil logger uses the default.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Send logs the notification.
func (n *LogNotifier) Send(ctx context.Context, notification Notification) error {
	n.logger.InfoContext(ctx, "password reset notification",
		slog.String("recipient", notification.Recipient),
		slog.String("subject", notification.Subject),
		slog.String("reset_link", notification.ResetLink),
		slog.Time("expires_at", notification.ExpiresAt),
	)
	return nil
}

// Compile-time interface check.
var _ Notifier = (*LogNotifier)(nil)
