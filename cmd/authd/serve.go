// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 RetroTech Solutions

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/retrotech/authd/internal/auth"
	authpg "github.com/retrotech/authd/internal/auth/postgres"
	"github.com/retrotech/authd/internal/config"
	"github.com/retrotech/authd/internal/logging"
	"github.com/retrotech/authd/internal/mail"
	"github.com/retrotech/authd/internal/observability"
	"github.com/retrotech/authd/internal/store"
	"github.com/retrotech/authd/internal/web"
)

const (
	readHeaderTimeout   = 10 * time.Second
	shutdownTimeout     = 5 * time.Second
	sessionReapInterval = time.Hour
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication API server",
		Long: `Start the HTTP API server for registration, login, and password
reset, plus the observability server for metrics and health probes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeWithDeps(cmd, nil)
		},
	}

	registerConfigFlags(cmd.Flags())

	return cmd
}

// registerConfigFlags declares flags whose dotted names map directly
// onto configuration keys. Defaults mirror config.Default so flag
// values only take effect over the file when explicitly set.
func registerConfigFlags(flags *pflag.FlagSet) {
	def := config.Default()

	flags.String("server.addr", def.Server.Addr, "HTTP API listen address")
	flags.String("server.base_url", def.Server.BaseURL, "public base URL used in reset links")
	flags.Duration("server.session_ttl", def.Server.SessionTTL, "session lifetime (e.g. 24h)")
	flags.String("database.url", "", "PostgreSQL connection URL")
	flags.String("metrics.addr", def.Metrics.Addr, "metrics/health HTTP address (empty = disabled)")
	flags.String("auth.hasher", def.Auth.Hasher, "password hashing strategy (legacy or argon2id)")
	flags.String("auth.token_source", def.Auth.TokenSource, "reset token strategy (deterministic or random)")
	flags.Bool("debug.enabled", def.Debug.Enabled, "mount the /api/debug routes (exposes raw hashes)")
	flags.String("log.format", def.Log.Format, "log format (json or text)")
}

// runServeWithDeps starts the server with injectable dependencies.
// If deps is nil, default implementations are used.
func runServeWithDeps(cmd *cobra.Command, deps *ServeDeps) error {
	if deps == nil {
		deps = &ServeDeps{}
	}
	if deps.StoreOpener == nil {
		deps.StoreOpener = func(ctx context.Context, dsn string) (Store, error) {
			return store.Open(ctx, dsn)
		}
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}
	if deps.ListenerFactory == nil {
		deps.ListenerFactory = net.Listen
	}

	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("authd", version, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting authd",
		"addr", cfg.Server.Addr,
		"hasher", cfg.Auth.Hasher,
		"token_source", cfg.Auth.TokenSource,
		"debug_enabled", cfg.Debug.Enabled,
	)

	db, err := deps.StoreOpener(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("connected to database")

	users := authpg.NewUserRepository(db.Pool())
	sessions := authpg.NewSessionRepository(db.Pool())
	hasher := buildHasher(cfg.Auth.Hasher)
	tokens := buildTokenSource(cfg.Auth.TokenSource)
	notifier := mail.NewLogNotifier(nil)

	authSvc, err := auth.NewService(users, sessions, hasher)
	if err != nil {
		return err
	}
	resetSvc, err := auth.NewPasswordResetService(users, tokens, hasher, notifier, cfg.Server.BaseURL)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var ready atomic.Bool

	// Observability server is optional; without it the metrics
	// counters are disabled but the API still serves.
	var metrics *observability.Metrics
	var obsServer ObservabilityServer
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, ready.Load)
		obsErrChan, obsErr := obsServer.Start()
		if obsErr != nil {
			return obsErr
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		metrics = obsServer.Metrics()
		slog.Info("observability server started", "addr", obsServer.Addr())
	}

	router := web.NewRouter(web.RouterDeps{
		Auth:         authSvc,
		Reset:        resetSvc,
		Users:        users,
		Metrics:      metrics,
		SessionTTL:   cfg.Server.SessionTTL,
		Version:      version,
		DebugEnabled: cfg.Debug.Enabled,
	})

	listener, err := deps.ListenerFactory("tcp", cfg.Server.Addr)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		if serveErr := httpServer.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	go reapSessions(ctx, sessions, sessionReapInterval)

	ready.Store(true)
	cmd.Println("authd started on " + listener.Addr().String())
	slog.Info("authd ready", "addr", listener.Addr().String())

	var runErr error
	select {
	case runErr = <-errChan:
		slog.Error("API server error", "error", runErr)
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	ready.Store(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("error shutting down API server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			slog.Warn("error stopping observability server", "error", err)
		}
	}

	return runErr
}

// buildHasher maps the validated configuration value to a hashing
// strategy.
func buildHasher(name string) auth.PasswordHasher {
	if name == config.HasherArgon2id {
		return auth.NewArgon2idHasher()
	}
	return auth.NewLegacyHasher()
}

// buildTokenSource maps the validated configuration value to a reset
// token strategy.
func buildTokenSource(name string) auth.ResetTokenSource {
	if name == config.TokenSourceRandom {
		return auth.NewRandomTokenSource()
	}
	return auth.NewBucketTokenSource()
}

// monitorServerErrors cancels the run context when a background server
// reports an error. A closed channel means a clean shutdown.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errChan <-chan error, name string) {
	select {
	case err, ok := <-errChan:
		if ok && err != nil {
			slog.Error("background server error", "server", name, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}

// reapSessions periodically deletes expired sessions so the table does
// not grow without bound.
func reapSessions(ctx context.Context, sessions auth.SessionRepository, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.DeleteExpired(ctx)
			if err != nil {
				slog.Warn("session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("deleted expired sessions", "count", n)
			}
		}
	}
}
