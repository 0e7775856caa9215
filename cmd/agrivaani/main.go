// Command agrivaani runs the conversational assistant server.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agrivaani/agrivaani"
	"github.com/agrivaani/agrivaani/llm/anthropic"
	"github.com/agrivaani/agrivaani/llm/openai"
	"github.com/agrivaani/agrivaani/location"
	"github.com/agrivaani/agrivaani/store/postgres"
	"github.com/agrivaani/agrivaani/tts/reverie"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(*configPath, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, logger *slog.Logger) error {
	cfg, err := agrivaani.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		conversations agrivaani.ConversationStore
		facts         agrivaani.MemoryStore
		resetter      agrivaani.Resetter
	)
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		conversations = pg.Conversations()
		facts = pg.Facts()
		resetter = pg
		logger.Info("using postgres stores")
	} else {
		conversations = agrivaani.NewMemoryConversationStore()
		facts = agrivaani.NewMemoryFactStore()
		resetter = agrivaani.NewStorePair(conversations, facts)
		logger.Info("using in-memory stores")
	}

	generator, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	enricher := location.NewEnricher(
		location.WithTTL(cfg.LocationTTL),
		location.WithLogger(logger),
	)

	pipeline := agrivaani.NewPipeline(agrivaani.PipelineConfig{
		Conversations: conversations,
		Facts:         facts,
		Resetter:      resetter,
		Enricher:      enricher,
		Generator:     generator,
		HistoryLimit:  cfg.HistoryLimit,
		Logger:        logger,
	})

	synthesizer := reverie.New(reverie.Config{
		APIKey: cfg.Reverie.APIKey,
		AppID:  cfg.Reverie.AppID,
		URL:    cfg.Reverie.URL,
	}, reverie.WithLogger(logger))

	handler := agrivaani.NewServer(agrivaani.ServerConfig{
		Pipeline:       pipeline,
		Synthesizer:    synthesizer,
		Conversations:  conversations,
		Facts:          facts,
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Addr, "provider", cfg.Provider)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}

func newGenerator(cfg agrivaani.Config) (agrivaani.Generator, error) {
	switch cfg.Provider {
	case "anthropic":
		return anthropic.New(cfg.AnthropicAPIKey, cfg.Model)
	default:
		return openai.New(cfg.OpenAIAPIKey, cfg.Model)
	}
}
