// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RetroTech Solutions

// Package auth implements the credential and session core of the
// RetroTech authentication service.
//
// # Domain Types
//
// User represents a stored credential record. Session represents a
// server-side login session holding a snapshot of the user at login
// time. Both are persisted through the UserRepository and
// SessionRepository interfaces; the PostgreSQL implementations live in
// the postgres subpackage.
//
// # Services
//
// Service coordinates registration, login, logout, and session
// validation. PasswordResetService drives the time-boxed password
// reset workflow: token issuance, validation, and single-use
// consumption.
//
// # Compatibility contracts
//
// The default PasswordHasher (LegacyHasher) and ResetTokenSource
// (BucketTokenSource) reproduce the behavior of the original RetroTech
// system, including its deterministic, identifier-salted constructions.
// Hardened implementations (Argon2idHasher, RandomTokenSource) satisfy
// the same interfaces and are selected through configuration.
package auth
