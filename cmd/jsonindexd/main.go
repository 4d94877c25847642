// Package main implements the jsonindexd daemon: the JSON indexing engine
// behind NATS ingest/lookup subjects and an HTTP lookup gateway.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360/jsonindex/config"
	"github.com/c360/jsonindex/engine"
	"github.com/c360/jsonindex/gateway"
	"github.com/c360/jsonindex/metric"
	"github.com/c360/jsonindex/natsclient"
	"github.com/c360/jsonindex/service"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "jsonindexd"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("daemon failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}

	cfg, err := loadConfig(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logLevel := cfg.LogLevel
	if cliCfg.LogLevel != "" {
		logLevel = cliCfg.LogLevel
	}
	logger := setupLogger(logLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	logger.Info("starting jsonindexd",
		"version", Version,
		"config_path", cliCfg.ConfigPath,
		"nats_urls", cfg.NATS.URLs,
		"http_addr", cfg.HTTP.Addr)

	signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	registry := metric.NewRegistry()
	eng := engine.New(cfg.Engine, logger, registry.Metrics)

	natsClient, err := natsclient.NewClient(
		natsURL(cfg),
		natsclient.WithLogger(logger),
		natsclient.WithName(appName),
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
		natsclient.WithReconnectWait(cfg.NATS.ReconnectWait),
	)
	if err != nil {
		return fmt.Errorf("create NATS client: %w", err)
	}

	if err := natsClient.Connect(signalCtx); err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}

	svc := service.New(eng, natsClient, cfg.Subjects, cfg.Ingest, logger, registry.Metrics)
	if err := svc.Start(signalCtx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	gw := gateway.New(eng, logger, registry, svc.Healthy)
	if err := gw.Start(cfg.HTTP.Addr); err != nil {
		return fmt.Errorf("start gateway: %w", err)
	}

	logger.Info("jsonindexd started")
	<-signalCtx.Done()
	logger.Info("received shutdown signal")

	return shutdown(cliCfg.ShutdownTimeout, svc, gw, natsClient, logger)
}

// shutdown stops the service, the gateway and the NATS connection, each
// within the shared timeout.
func shutdown(
	timeout time.Duration,
	svc *service.Service,
	gw *gateway.Server,
	natsClient *natsclient.Client,
	logger *slog.Logger,
) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var g errgroup.Group
	g.Go(func() error {
		if err := svc.Stop(); err != nil {
			return fmt.Errorf("stop service: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := gw.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("stop gateway: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}

	// Close NATS last so in-flight handlers can finish draining.
	if err := natsClient.Close(shutdownCtx); err != nil {
		logger.Error("close NATS", "error", err)
		return err
	}

	logger.Info("jsonindexd shutdown complete")
	return nil
}

func natsURL(cfg *config.File) string {
	if envURL := os.Getenv("JSONINDEX_NATS_URL"); envURL != "" {
		return envURL
	}
	if len(cfg.NATS.URLs) > 0 {
		return cfg.NATS.URLs[0]
	}
	return "nats://127.0.0.1:4222"
}

func loadConfig(path string) (*config.File, error) {
	if path == "" {
		cfg := config.DefaultFile()
		return &cfg, nil
	}
	return config.Load(path)
}
