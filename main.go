package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nsqio/go-nsq"

	"knowbase/internal/adapter/gemini"
	"knowbase/internal/adapter/openai"
	"knowbase/internal/app"
	"knowbase/internal/config"
	"knowbase/internal/logger"
)

func main() {
	handler := logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(slog.New(handler))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer deps.DB.Close()
	defer deps.NSQProducer.Stop()

	ai, err := newAIClient(ctx, cfg)
	if err != nil {
		slog.Error("failed to create AI client", "error", err)
		os.Exit(1)
	}

	application, err := app.New(cfg, deps.DB, deps.Store, deps.NSQProducer, ai)
	if err != nil {
		slog.Error("failed to build app", "error", err)
		os.Exit(1)
	}

	// Ingestion consumer: documents process concurrently, chunks within one
	// document stay sequential.
	consumer, err := nsq.NewConsumer(config.TopicIngestTask, config.ChannelPipeline, nsq.NewConfig())
	if err != nil {
		slog.Error("failed to create NSQ consumer", "error", err)
		os.Exit(1)
	}
	consumer.AddConcurrentHandlers(application.Consumer, cfg.IngestionConcurrency)
	if err := consumer.ConnectToNSQLookupd(cfg.NSQLookupd); err != nil {
		slog.Error("failed to connect to NSQLookupd", "error", err)
		os.Exit(1)
	}
	defer consumer.Stop()
	slog.Info("ingestion consumer connected", "topic", config.TopicIngestTask, "concurrency", cfg.IngestionConcurrency)

	if err := application.Run(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func newAIClient(ctx context.Context, cfg *config.Config) (app.AIClient, error) {
	switch cfg.AIProvider {
	case config.ProviderGemini:
		return gemini.NewClient(ctx, gemini.Config{
			APIKey:      cfg.GeminiAPIKey,
			EmbedModel:  cfg.GeminiEmbedModel,
			ChatModel:   cfg.GeminiChatModel,
			Temperature: cfg.GenTemperature,
			MaxTokens:   cfg.GenMaxTokens,
		})
	default:
		return openai.NewClient(openai.Config{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			EmbedModel:  cfg.OpenAIEmbedModel,
			ChatModel:   cfg.OpenAIChatModel,
			Temperature: cfg.GenTemperature,
			MaxTokens:   cfg.GenMaxTokens,
		}), nil
	}
}
