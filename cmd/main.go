/*
Package main is the entry point for the Arz Store web client.

It loads configuration, initializes the global logging system, wires the marketplace
API client, the session store with its backend, preview staging and the live hub,
serves HTTP, and shuts everything down in order on SIGINT or SIGTERM.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arzweb/internal/app/api"
	"arzweb/internal/app/db"
	"arzweb/internal/app/ipinfo"
	"arzweb/internal/app/live"
	"arzweb/internal/app/session"
	"arzweb/internal/app/storage"
	"arzweb/internal/configs"
	"arzweb/internal/handler"
	"arzweb/internal/pkg/auth/jwt"
	"arzweb/internal/pkg/formtoken"
	"arzweb/internal/pkg/logx"
	"arzweb/internal/ui"
)

const (
	formTokenLifetime = time.Hour
	ipLookupTimeout   = 2 * time.Second
	startupTimeout    = 15 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("api_base_url", cfg.APIBaseURL).
		Str("session_backend", cfg.SessionBackend).
		Bool("s3_previews", cfg.S3Enabled()).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancelStart := context.WithTimeout(ctx, startupTimeout)
	defer cancelStart()

	client, err := api.NewClient(cfg.APIBaseURL, cfg.APITimeout)
	if err != nil {
		logx.Fatal(err, "Failed to create marketplace API client")
	}

	previews, err := storage.NewService(startCtx, storage.ServiceConfig{
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
		LocalURLPrefix:    "/previews/",
	})
	if err != nil {
		logx.Fatal(err, "Failed to initialize preview storage")
	}

	backend, closeBackend := openBackend(startCtx, cfg)
	defer closeBackend()

	sessions := session.NewManager(backend, session.ManagerOptions{
		TTL:      cfg.SessionTTL,
		Previews: previews,
	})
	store := session.NewStore(client, ipinfo.New(cfg.IPLookupURL, ipLookupTimeout), sessions, session.StoreOptions{
		RefreshInterval: cfg.SessionRefreshInterval,
	})

	renderer, err := ui.New()
	if err != nil {
		logx.Fatal(err, "Failed to parse templates")
	}

	forms := formtoken.NewManager(formTokenLifetime)
	hub := live.NewHub()

	deps := &handler.AppDeps{
		Config:   cfg,
		API:      client,
		Sessions: sessions,
		Store:    store,
		Renderer: renderer,
		Forms:    forms,
		Previews: previews,
		Live:     hub,
		Cookie:   jwt.CookieOptions{Secret: cfg.SessionSecret, Secure: cfg.SecureCookies},
	}

	// Setup HTTP server and routes
	router, submitLimiter := handler.Router(deps)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Arz Store web starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	// Live connections are hijacked and not tracked by Shutdown.
	hub.Shutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	submitLimiter.Stop()
	forms.Stop()
	sessions.Shutdown()

	logx.Info("Server gracefully stopped.")
}

// openBackend selects where session records are persisted. The returned func
// releases the connection after the manager has flushed.
func openBackend(ctx context.Context, cfg *configs.AppConfig) (session.Backend, func()) {
	switch cfg.SessionBackend {
	case configs.SessionBackendRedis:
		rdb, err := session.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logx.Fatal(err, "Failed to connect to Redis", "addr", cfg.RedisAddr)
		}
		logx.Info("Sessions persisted in Redis", "addr", cfg.RedisAddr)
		return session.NewRedisBackend(rdb), func() {
			if err := rdb.Close(); err != nil {
				logx.Error(err, "Failed to close Redis client")
			}
		}

	case configs.SessionBackendPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			logx.Fatal(err, "Failed to connect to Postgres")
		}
		logx.Info("Sessions persisted in Postgres")
		return session.NewPostgresBackend(pool), pool.Close

	default:
		logx.Info("Sessions kept in memory")
		return session.NewMemoryBackend(), func() {}
	}
}
