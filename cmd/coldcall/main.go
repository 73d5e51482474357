package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/propline/coldcall/internal/anthropic"
	"github.com/propline/coldcall/internal/api"
	"github.com/propline/coldcall/internal/audit"
	"github.com/propline/coldcall/internal/config"
	"github.com/propline/coldcall/internal/engine"
	"github.com/propline/coldcall/internal/extractor"
	"github.com/propline/coldcall/internal/hermes"
	"github.com/propline/coldcall/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("coldcall starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.EnsureSchema(ctx); err != nil {
		slog.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}
	slog.Info("database ready")

	// Anthropic client (optional: without a key every answer goes through
	// the deterministic heuristics)
	var llm *anthropic.Client
	if cfg.AnthropicAPIKey != "" {
		llm = anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		slog.Info("anthropic client ready", "model", cfg.AnthropicModel)
	} else {
		slog.Warn("ANTHROPIC_API_KEY not set, running with heuristic extraction only")
	}

	// Extractor
	ext := extractor.New(llm, slog.Default())

	// NATS/Hermes (optional: without a bus coldcall serves HTTP only)
	var pub engine.Publisher
	hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Warn("failed to connect to NATS, running HTTP-only", "url", cfg.NatsURL, "error", err)
	} else {
		defer hermesClient.Close()
		pub = hermesClient
		slog.Info("NATS connected", "url", cfg.NatsURL)
	}

	// Audit sinks: always the database, plus per-caller files if configured
	sinks := []engine.AuditSink{db}
	if cfg.AuditDir != "" {
		fileLog, err := audit.NewLogger(cfg.AuditDir)
		if err != nil {
			slog.Error("failed to open audit dir", "dir", cfg.AuditDir, "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, fileLog)
		slog.Info("file audit log ready", "dir", cfg.AuditDir)
	}

	// Engine
	eng := engine.New(db, ext, pub, cfg.MaxClarify, slog.Default(), sinks...)

	// Bridge bot messages from the bus into the engine
	if hermesClient != nil {
		if err := hermesClient.Subscribe(hermes.SubjectBotMessageIn, eng.HandleBotMessage); err != nil {
			slog.Error("failed to subscribe to bot messages", "error", err)
			os.Exit(1)
		}
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, cfg.APIToken, eng, db)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	// Announce registration
	if hermesClient != nil {
		if err := hermesClient.Publish("crm.agent.coldcall.registered", map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"port":      cfg.Port,
		}); err != nil {
			slog.Warn("failed to publish registration", "error", err)
		}
	}

	slog.Info("coldcall ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("coldcall stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
