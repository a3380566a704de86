// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RetroTech Solutions

package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/retrotech/authd/internal/auth"
	authpg "github.com/retrotech/authd/internal/auth/postgres"
	"github.com/retrotech/authd/internal/config"
	"github.com/retrotech/authd/internal/store"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// seedCredential is one sample account. These mirror the demo data the
// original system shipped with; the passwords are intentionally weak.
type seedCredential struct {
	username string
	email    string
	password string
}

// seedCredentials is the sample data set. The demo account's password
// is shorter than the registration policy allows, so seeding hashes
// and inserts directly instead of going through the registration flow.
var seedCredentials = []seedCredential{
	{"admin", "admin@retrotech.com", "admin123"},
	{"john.doe", "john.doe@example.com", "Password1"},
	{"jane.smith", "jane.smith@example.com", "qwerty123"},
	{"test.user", "test.user@example.com", "test123"},
	{"demo", "demo@example.com", "demo"},
	{"alice", "alice@example.com", "alice2024"},
	{"bob", "bob@example.com", "bobsecure"},
	{"charlie", "charlie@example.com", "charlie123"},
	{"david", "david@example.com", "david456"},
	{"eve", "eve@example.com", "evepassword"},
	{"frank", "frank@example.com", "frank789"},
	{"grace", "grace@example.com", "grace321"},
	{"henry", "henry@example.com", "henry654"},
	{"iris", "iris@example.com", "iris987"},
	{"jack", "jack@example.com", "jack111"},
}

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	timeout time.Duration
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the database with sample accounts",
		Long: `Creates the sample accounts the original system shipped with.
This command is idempotent - it will not create duplicates if run multiple times.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args, cfg)
		},
	}

	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")
	cmd.Flags().String("database.url", "", "PostgreSQL connection URL")
	// The default must match config.Default: posflag loads unchanged
	// flag defaults for keys the file layer did not set.
	cmd.Flags().String("auth.hasher", config.Default().Auth.Hasher, "password hashing strategy (legacy or argon2id)")

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string, seedCfg *seedConfig) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	// Use cmd.Context() to respect SIGINT/SIGTERM signals
	ctx, cancel := context.WithTimeout(cmd.Context(), seedCfg.timeout)
	defer cancel()

	cmd.Println("Connecting to database...")
	db, err := store.Open(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	users := authpg.NewUserRepository(db.Pool())
	hasher := buildHasher(cfg.Auth.Hasher)

	created, skipped, err := seedUsers(ctx, users, hasher)
	if err != nil {
		return err
	}

	cmd.Printf("Seeding complete: %d created, %d already present\n", created, skipped)
	return nil
}

// seedUsers inserts the sample accounts, skipping any that already
// exist. Returns the number created and the number skipped.
func seedUsers(ctx context.Context, users auth.UserRepository, hasher auth.PasswordHasher) (created, skipped int, err error) {
	for _, cred := range seedCredentials {
		digest, hashErr := hasher.Hash(cred.password, cred.username)
		if hashErr != nil {
			return created, skipped, hashErr
		}

		user, userErr := auth.NewUser(cred.username, cred.email, digest)
		if userErr != nil {
			return created, skipped, userErr
		}

		if createErr := users.Create(ctx, user); createErr != nil {
			if errors.Is(createErr, auth.ErrDuplicate) {
				skipped++
				slog.Debug("seed account already exists", "username", cred.username)
				continue
			}
			return created, skipped, createErr
		}

		created++
		slog.Info("created seed account", "username", cred.username, "email", cred.email)
	}

	return created, skipped, nil
}
