// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the blog server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"blogcms/internal/auth"
	"blogcms/internal/cache"
	"blogcms/internal/config"
	"blogcms/internal/database"
	"blogcms/internal/handlers"
	"blogcms/internal/middleware"
	"blogcms/internal/render"
	"blogcms/internal/router"
	"blogcms/internal/session"
	"blogcms/internal/store"
)

// Login attempts allowed per client IP per window.
const (
	loginLimit  = 10
	loginWindow = time.Minute
)

type options struct {
	migrateOnly  bool
	seed         bool
	sitemapPath  string
	hashPassword bool
	totpSetup    string
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("blogcms", flag.ContinueOnError)
	fs.BoolVar(&opts.migrateOnly, "migrate-only", false, "apply database migrations and exit")
	fs.BoolVar(&opts.seed, "seed", false, "seed sample data even outside development")
	fs.StringVar(&opts.sitemapPath, "sitemap", "", "write the sitemap to `PATH` and exit")
	fs.BoolVar(&opts.hashPassword, "hash-password", false, "read a password from stdin, print its bcrypt hash and exit")
	fs.StringVar(&opts.totpSetup, "totp-setup", "", "generate a TOTP secret, write its QR code PNG to `PATH` and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Offline helpers that need neither configuration nor services.
	switch {
	case opts.hashPassword:
		if err := hashPassword(os.Stdin, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	case opts.totpSetup != "":
		if err := totpSetup(adminAccount(), opts.totpSetup, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(cfg))
	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"auth", cfg.AuthEnabled(),
	)

	if err := run(cfg, opts); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

// newLogger returns a structured logger: JSON in production, text in
// development, unless LOG_FORMAT says otherwise.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.IsDev() {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, hopts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, hopts))
}

func run(cfg *config.Config, opts *options) error {
	ctx := context.Background()

	// Connect to PostgreSQL.
	db, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if opts.migrateOnly {
		return nil
	}

	// Seed sample data (no-op if data already exists).
	if cfg.IsDev() || opts.seed {
		if err := database.Seed(ctx, db); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	postStore := store.NewPostStore(db)
	categoryStore := store.NewCategoryStore(db)

	if opts.sitemapPath != "" {
		return writeSitemap(ctx, opts.sitemapPath, cfg.BaseURL, postStore, categoryStore)
	}

	// Connect to Valkey for the page cache and sessions. It is optional
	// unless admin authentication needs sessions.
	valkeyClient, err := cache.ConnectValkey(ctx, cache.Options{
		Host:     cfg.ValkeyHost,
		Port:     cfg.ValkeyPort,
		Password: cfg.ValkeyPassword,
		DB:       cfg.ValkeyDB,
	})
	if err != nil {
		if cfg.AuthEnabled() {
			return fmt.Errorf("valkey is required for admin sessions: %w", err)
		}
		slog.Warn("valkey unavailable, page cache disabled", "error", err)
	} else {
		defer valkeyClient.Close()
	}

	secureCookies := !cfg.IsDev()
	var (
		pageCache    *cache.PageCache
		sessionStore *session.Store
	)
	if valkeyClient != nil {
		pageCache = cache.NewPageCache(valkeyClient, cfg.PageCacheTTL)
		sessionStore = session.NewStore(valkeyClient, secureCookies)
	}

	renderer, err := render.New(cfg.SiteTitle, cfg.AuthEnabled())
	if err != nil {
		return fmt.Errorf("initialize templates: %w", err)
	}

	admin := auth.NewAdmin(cfg.AdminUser, cfg.AdminPasswordHash, cfg.AdminTOTPSecret)
	if !admin.Enabled() {
		slog.Warn("ADMIN_PASSWORD_HASH not set, admin area is open")
	}

	limiter := middleware.NewRateLimiter(loginLimit, loginWindow)
	defer limiter.Stop()

	r := router.New(router.Deps{
		Sessions:     sessionStore,
		Admin:        admin,
		LoginLimiter: limiter,
		SecureCookie: secureCookies,
		API:          handlers.NewAPI(postStore, categoryStore, pageCache),
		Public:       handlers.NewPublic(renderer, postStore, categoryStore, pageCache, cfg.BaseURL),
		Pages:        handlers.NewAdmin(renderer, postStore, categoryStore),
		Auth:         handlers.NewAuth(renderer, sessionStore, admin),
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr(), "base_url", cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig)
	}

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
