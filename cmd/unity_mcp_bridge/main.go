package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hkaya/unity_mcp_bridge/internal/asset"
	"github.com/hkaya/unity_mcp_bridge/internal/cleanup"
	"github.com/hkaya/unity_mcp_bridge/internal/config"
	"github.com/hkaya/unity_mcp_bridge/internal/fetch"
	"github.com/hkaya/unity_mcp_bridge/internal/http/rest"
	"github.com/hkaya/unity_mcp_bridge/internal/logctx"
	"github.com/hkaya/unity_mcp_bridge/internal/notifier"
	"github.com/hkaya/unity_mcp_bridge/internal/storage/sqlite"
	"github.com/hkaya/unity_mcp_bridge/internal/telemetry"
	"github.com/hkaya/unity_mcp_bridge/internal/tools"
	"github.com/hkaya/unity_mcp_bridge/internal/unity"
	"github.com/mark3labs/mcp-go/server"
)

const (
	serviceName    = "unity_mcp_bridge"
	serviceVersion = "1.2.0"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	// In stdio mode stdout carries the MCP protocol, so logs always go to stderr.
	logger := slog.New(logctx.NewTraceHandler(
		slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}),
	))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("unity mcp bridge starting...", "log_level", cfg.LogLevel, "serve_mode", cfg.ServeMode)

	if err := run(logctx.WithLogger(ctx, logger), cfg); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("fatal error", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := logctx.LoggerFromContext(ctx)

	// =========================================================================
	// Start Telemetry
	tel, err := telemetry.New(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
	})
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer tel.Shutdown(context.Background())

	// =========================================================================
	// Start Database
	database, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("DB error: %w", err)
	}
	defer database.Close()

	imports := sqlite.NewImportRepository(database)

	// =========================================================================
	// Start Editor Client
	client := unity.NewClient(cfg.UnityHost, cfg.UnityPort, cfg.CommandTimeout)
	defer client.Close()

	sender := unity.NewInstrumentedSender(client, tel)

	if err := client.Ping(ctx); err != nil {
		logger.Warn("editor not reachable yet, commands will retry on demand", "err", err)
	}

	// =========================================================================
	// Start Importer
	cacheDir, err := cfg.ResolveCacheDir()
	if err != nil {
		return err
	}

	importer := asset.NewImporter(
		sender,
		fetch.New(cfg.DownloadTimeout),
		cfg.AssetRoot,
		cacheDir,
		cfg.MaxParallelImports,
	)
	importer.History = imports
	importer.Telemetry = tel

	if cfg.DiscordWebhookURL != "" {
		importer.Notifier = &notifier.DiscordNotifier{WebhookURL: cfg.DiscordWebhookURL}
	}

	// =========================================================================
	// Start Management API
	serverErrors := make(chan error, 1)

	mgmtServer := setupManagementServer(ctx, client, imports, tel, cfg)

	go func() {
		logger.Info("initializing management API", "host", cfg.Web.BindAddress)
		serverErrors <- mgmtServer.ListenAndServe()
	}()

	// =========================================================================
	// Start Cache Sweeper
	setupCacheSweeper(ctx, cacheDir, tel, cfg)

	// =========================================================================
	// Start MCP Server
	mcpServer := server.NewMCPServer(serviceName, serviceVersion, server.WithToolCapabilities(false))
	tools.NewHandler(sender, importer, tel).Register(mcpServer)

	mcpErrors := make(chan error, 1)

	go func() {
		mcpErrors <- serveMCP(ctx, mcpServer, cfg)
	}()

	logger.Info("waiting for tool calls...",
		"editor", net.JoinHostPort(cfg.UnityHost, cfg.UnityPort),
		"asset_root", cfg.AssetRoot,
		"cache_dir", cacheDir,
		"retention", cfg.CacheRetention.String(),
	)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("management server error: %w", err)
	case err := <-mcpErrors:
		if err != nil {
			return fmt.Errorf("mcp server error: %w", err)
		}

		return nil
	case <-ctx.Done():
		logger.Info("start shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := mgmtServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to gracefully shutdown the server", "err", err)

			if err = mgmtServer.Close(); err != nil {
				return fmt.Errorf("could not stop server gracefully: %w", err)
			}
		}

		return ctx.Err()
	}
}

// serveMCP runs the tool surface over stdio or SSE depending on configuration.
func serveMCP(ctx context.Context, s *server.MCPServer, cfg *config.Config) error {
	switch cfg.ServeMode {
	case "stdio":
		return server.ServeStdio(s)
	case "sse":
		sse := server.NewSSEServer(s)

		go func() {
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
			defer cancel()

			_ = sse.Shutdown(shutdownCtx)
		}()

		return sse.Start(cfg.SSEBindAddress)
	}

	return fmt.Errorf("invalid serve mode: %s", cfg.ServeMode)
}

// setupManagementServer prepares the operational HTTP server for health,
// metrics and import history.
func setupManagementServer(ctx context.Context, pinger rest.Pinger, imports *sqlite.ImportRepository, tel *telemetry.Telemetry, cfg *config.Config) *http.Server {
	handler := rest.NewManagementHandler(pinger, imports, tel, serviceVersion)

	r := chi.NewRouter()
	r.Use(telemetry.RequestID)
	r.Use(telemetry.HTTPLogging)
	r.Use(telemetry.NewHTTPMiddleware(tel).Middleware)
	r.Mount("/", handler.Routes())

	return &http.Server{
		Addr:         cfg.Web.BindAddress,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		Handler:      r,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
}

func setupCacheSweeper(ctx context.Context, cacheDir string, tel *telemetry.Telemetry, cfg *config.Config) {
	logger := logctx.LoggerFromContext(ctx)

	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Info("cache sweeper shutting down.")

				return
			case <-ticker.C:
				deleted, err := cleanup.SweepCache(ctx, cacheDir, cfg.CacheRetention)
				if err != nil {
					logger.Error("failed to sweep download cache", "err", err)

					continue
				}

				tel.RecordCacheSweep(int64(deleted))
			}
		}
	}()
}
