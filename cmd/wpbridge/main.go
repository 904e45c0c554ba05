// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/wpbridge/internal/auth"
	"github.com/olegiv/wpbridge/internal/blog"
	"github.com/olegiv/wpbridge/internal/cache"
	"github.com/olegiv/wpbridge/internal/config"
	"github.com/olegiv/wpbridge/internal/geoip"
	"github.com/olegiv/wpbridge/internal/handler/api"
	"github.com/olegiv/wpbridge/internal/logging"
	"github.com/olegiv/wpbridge/internal/mailer"
	"github.com/olegiv/wpbridge/internal/metrics"
	"github.com/olegiv/wpbridge/internal/middleware"
	"github.com/olegiv/wpbridge/internal/scheduler"
	"github.com/olegiv/wpbridge/internal/store"
	"github.com/olegiv/wpbridge/internal/version"
	"github.com/olegiv/wpbridge/internal/wordpress"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

const requestTimeout = 30 * time.Second

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")
	hashToken := flag.String("hash-token", "", "Print the argon2id hash of an admin token and exit")
	genToken := flag.Bool("gen-token", false, "Generate a random admin token with its hash and exit")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "wpbridge - WordPress blog API with an admin surface\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WPB_ENV                 Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WPB_SERVER_PORT         Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WPB_DB_PATH             SQLite database path (default: ./data/wpbridge.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WPB_WP_BASE_URL         WordPress REST base, e.g. https://example.com/wp-json/wp/v2\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WPB_WP_AUTH             Source auth: none|basic|bearer (default: none)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WPB_ADMIN_TOKEN_HASH    argon2id hash of the admin token (required in production)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WPB_REDIS_URL           Redis URL for a shared settings cache (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  WPB_GEOIP_DB_PATH       GeoLite2-Country.mmdb path (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	info := version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}
	if *showVersion {
		_, _ = fmt.Println(info.String())
		os.Exit(0)
	}

	if *hashToken != "" || *genToken {
		if err := printToken(*hashToken); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := run(info); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

// printToken hashes token, or a freshly generated one when token is empty.
func printToken(token string) error {
	if token == "" {
		var err error
		if token, err = auth.GenerateToken(); err != nil {
			return fmt.Errorf("generating token: %w", err)
		}
		_, _ = fmt.Printf("token: %s\n", token)
	}
	hash, err := auth.HashToken(token)
	if err != nil {
		return fmt.Errorf("hashing token: %w", err)
	}
	_, _ = fmt.Printf("WPB_ADMIN_TOKEN_HASH=%s\n", hash)
	return nil
}

func sourceSigner(cfg *config.Config) wordpress.Signer {
	switch cfg.WPAuth {
	case config.AuthBasic:
		return wordpress.BasicAuth{Username: cfg.WPUsername, Password: cfg.WPAppPassword}
	case config.AuthBearer:
		return wordpress.BearerAuth{Token: cfg.WPToken}
	default:
		return wordpress.NoAuth{}
	}
}

func run(info version.Info) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	console, logCloser := logging.NewHandler(logging.Options{
		Level:       logging.ParseLevel(cfg.LogLevel),
		Development: cfg.IsDevelopment(),
		File:        cfg.LogFile,
		MaxSizeMB:   cfg.LogMaxSizeMB,
		MaxBackups:  cfg.LogMaxBackups,
	})
	defer func() { _ = logCloser.Close() }()
	slog.SetDefault(slog.New(console))

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}()

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	queries := store.New(db)

	// Warnings and errors also go to the event log from here on.
	logger := slog.New(logging.NewEventLogHandler(console, queries))
	slog.SetDefault(logger)
	slog.Info("database ready", "event_log_min_level", "warn")

	cacher, err := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cfg.CacheTTLDuration(),
		MaxSize:    cfg.CacheMaxSize,
	})
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() { _ = cacher.Close() }()
	if cfg.UseRedisCache() {
		slog.Info("settings cache backend", "type", "redis", "url", cache.SanitizeRedisURL(cfg.RedisURL))
	} else {
		slog.Info("settings cache backend", "type", "memory", "max_size", cfg.CacheMaxSize)
	}

	settings := cache.NewSettingsCache(cacher, queries, blog.DefaultSettings(cfg), cfg.CacheTTLDuration(), logger)
	m := metrics.New()

	signer := sourceSigner(cfg)
	factory := func(baseURL string) (blog.Source, error) {
		return wordpress.New(baseURL,
			wordpress.WithSigner(signer),
			wordpress.WithTimeout(cfg.SourceTimeout()),
			wordpress.WithObserver(m.ObserveSource),
			wordpress.WithLogger(logger),
			wordpress.WithUserAgent("wpbridge/"+info.Version),
		)
	}
	svc := blog.NewService(settings, factory,
		blog.WithSanitizedHTML(cfg.SanitizeHTML),
		blog.WithLogger(logger),
	)
	monitor := blog.NewMonitor(svc, logger)

	geo, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		slog.Warn("GeoIP database unavailable, country lookup disabled", "error", err, "path", cfg.GeoIPDBPath)
	}
	defer func() { _ = geo.Close() }()

	mail := mailer.New(queries, logger)

	sched := scheduler.New(logger)
	for _, job := range []scheduler.Job{
		scheduler.SourceProbeJob(monitor, cfg.ProbeSchedule),
		scheduler.GeoIPReloadJob(geo, logger),
		scheduler.EventRetentionJob(queries, cfg.EventRetentionDays, logger),
	} {
		if err := sched.Add(job); err != nil {
			return fmt.Errorf("registering job: %w", err)
		}
	}
	sched.Start()

	// First probe so /health has a source status right away.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.SourceTimeout())
		defer cancel()
		monitor.Check(ctx)
	}()

	limiter := middleware.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
	stopCleanup := make(chan struct{})
	go limiter.Cleanup(10*time.Minute, stopCleanup)
	defer close(stopCleanup)

	// The fetch-metadata check does not use the key, but csrf.Protect wants one.
	csrfKey := make([]byte, 32)
	if _, err := rand.Read(csrfKey); err != nil {
		return fmt.Errorf("generating CSRF key: %w", err)
	}

	routes := api.RouteConfig{
		RateLimit: limiter.Middleware(),
		CSRF: middleware.CSRF(middleware.CSRFConfig{
			AuthKey:        csrfKey,
			TrustedOrigins: middleware.TrustedHosts(cfg.CORSOrigins),
			Logger:         logger,
		}),
		Metrics: m.Handler(),
	}
	if adminAuth := middleware.NewAdminAuth(cfg.AdminTokenHash, logger); adminAuth.Enabled() {
		routes.AdminAuth = adminAuth.Middleware()
	} else {
		slog.Warn("admin API disabled: WPB_ADMIN_TOKEN_HASH is not set", "category", "auth")
	}

	h := api.NewHandler(api.Deps{
		DB:       db,
		Blog:     svc,
		Settings: settings,
		Monitor:  monitor,
		Notifier: mail,
		Geo:      geo,
		Jobs:     sched,
		Counter:  m,
		Logger:   logger,
		Version:  info,
	})

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(m.Middleware)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.Timeout(requestTimeout))
	h.Routes(r, routes)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      requestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", info.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		sched.Stop(context.Background())
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	sched.Stop(ctx)
	mail.Wait()

	slog.Info("server stopped")
	return nil
}
