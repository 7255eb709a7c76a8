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

	"github.com/joho/godotenv"

	"github.com/ashita-ai/aitools/internal/config"
	"github.com/ashita-ai/aitools/internal/mcp"
	"github.com/ashita-ai/aitools/internal/ratelimit"
	"github.com/ashita-ai/aitools/internal/server"
	"github.com/ashita-ai/aitools/internal/service/catalog"
	"github.com/ashita-ai/aitools/internal/source"
	"github.com/ashita-ai/aitools/internal/telemetry"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv("AITOOLS_LOG_LEVEL"))); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("aitools starting", "version", version, "port", cfg.Port, "backend", cfg.Backend, "mock", cfg.Mock)

	otelShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Endpoint:    cfg.OTELEndpoint,
		ServiceName: cfg.ServiceName,
		Version:     version,
		Insecure:    cfg.OTELInsecure,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	src, err := source.New(source.Config{
		Backend:       cfg.Backend,
		Mock:          cfg.Mock,
		APIURL:        cfg.APIURL,
		APIKey:        cfg.APIKey,
		GitHubURL:     cfg.GitHubURL,
		GitHubToken:   cfg.GitHubToken,
		GitHubPerPage: cfg.GitHubPerPage,
		GitHubRPS:     cfg.GitHubRPS,
		Timeout:       cfg.HTTPTimeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("catalog source: %w", err)
	}

	svc := catalog.New(src, catalog.Config{
		TTL:      cfg.CacheTTL,
		Idle:     cfg.CacheIdle,
		PageSize: cfg.PageSize,
	}, logger)
	defer func() { _ = svc.Close() }()

	limiter := ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer func() { _ = limiter.Close() }()
	if cfg.RateLimitRPS > 0 {
		logger.Info("rate limiting enabled", "rps", cfg.RateLimitRPS, "burst", cfg.RateLimitBurst)
	} else {
		logger.Info("rate limiting disabled")
	}

	mcpSrv := mcp.New(svc, logger, version)

	srv := server.New(server.ServerConfig{
		Service:      svc,
		Logger:       logger,
		Limiter:      limiter,
		MCPServer:    mcpSrv.MCPServer(),
		Port:         cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		Version:      version,
	})

	// Start HTTP server in background.
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	slog.Info("aitools shutting down")

	httpCtx, httpCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer httpCancel()
	if err := srv.Shutdown(httpCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	slog.Info("aitools stopped")
	return nil
}
