package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nikhilbhutani/ytsummary/internal/api"
	"github.com/nikhilbhutani/ytsummary/internal/config"
	"github.com/nikhilbhutani/ytsummary/internal/llm"
	"github.com/nikhilbhutani/ytsummary/internal/metrics"
	"github.com/nikhilbhutani/ytsummary/internal/summary"
	"github.com/nikhilbhutani/ytsummary/internal/transcript"
	"github.com/nikhilbhutani/ytsummary/pkg/tokenizer"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	generator, err := llm.NewGenerator(cfg.Inference)
	if err != nil {
		slog.Error("failed to build inference backend", "error", err)
		os.Exit(1)
	}

	var counter tokenizer.Counter
	if cfg.Tokenizer.URL != "" {
		counter = tokenizer.NewRemote(cfg.Tokenizer.URL, cfg.Inference.HuggingFaceToken, cfg.Tokenizer.Timeout)
	} else {
		counter = tokenizer.NewLocal(cfg.Tokenizer.Encoding)
	}

	m := metrics.New()
	svc := summary.NewService(
		transcript.NewYouTubeClient(cfg.Transcript.Timeout),
		counter,
		generator,
		m,
		summary.Options{
			MaxTokens:         cfg.Tokenizer.MaxTokens,
			Params:            llm.DefaultParams,
			TranscriptTimeout: cfg.Transcript.Timeout,
			TokenizerTimeout:  cfg.Tokenizer.Timeout,
			InferenceTimeout:  cfg.Inference.Timeout,
		},
	)

	router := api.NewRouter(cfg, svc, m)
	handler := router.Setup()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	if rl := router.Limiter(); rl != nil {
		go rl.Cleanup(ctx, time.Minute, 3*time.Minute)
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Transcript.Timeout + cfg.Tokenizer.Timeout + cfg.Inference.Timeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server",
			"addr", cfg.Addr(),
			"provider", generator.Name(),
			"max_prompt_tokens", cfg.Tokenizer.MaxTokens,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
