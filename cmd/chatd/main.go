// Package main is the entry point for the chat backend.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/aichat/internal/config"
	"github.com/capitalize-ai/aichat/internal/handler"
	"github.com/capitalize-ai/aichat/internal/llm"
	"github.com/capitalize-ai/aichat/internal/middleware"
	natsclient "github.com/capitalize-ai/aichat/internal/nats"
	"github.com/capitalize-ai/aichat/internal/server"
	"github.com/capitalize-ai/aichat/internal/service"
	"github.com/capitalize-ai/aichat/pkg/logger"
	"github.com/capitalize-ai/aichat/pkg/tracing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "chatd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting chat backend")

	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "chatd", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Events go to JetStream only when NATS is configured.
	var events service.EventPublisher = service.NopPublisher{}
	readiness := map[string]handler.ReadinessCheck{}
	if cfg.NATSURL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		natsClient, err := natsclient.Connect(connectCtx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		cancel()
		if err != nil {
			return err
		}
		defer natsClient.Close()

		streamManager := natsclient.NewStreamManager(natsClient.JetStream())
		if err := streamManager.EnsureStream(ctx); err != nil {
			return err
		}
		events = streamManager
		readiness["nats"] = natsClient.Ready
	}

	llmClient, err := llm.NewClient(llm.Provider(cfg.DefaultLLM), llm.Keys{
		Anthropic:     cfg.AnthropicAPIKey,
		OpenAI:        cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		OpenAIModels:  cfg.OpenAIModels,
	})
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	log.Info("llm provider selected", zap.String("provider", llmClient.Name()))

	issuer, err := middleware.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiration)
	if err != nil {
		return err
	}

	routes, err := server.NewRouter(server.Deps{
		Logger:            log,
		Issuer:            issuer,
		LLM:               llmClient,
		Events:            events,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		CORSOrigins:       cfg.CORSOrigins,
		Readiness:         readiness,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      routes,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
	return nil
}
