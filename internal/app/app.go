// Package app wires the features together and owns the HTTP surface.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"knowbase/features/ask"
	"knowbase/features/bot"
	"knowbase/features/document"
	wstore "knowbase/internal/adapter/weaviate"
	"knowbase/internal/answer"
	"knowbase/internal/config"
	"knowbase/internal/middleware"
	"knowbase/internal/retrieval"
	"knowbase/internal/worker"
)

// AIClient is the provider-neutral surface the app needs from OpenAI or
// Gemini: batch embedding for ingestion, query embedding and generation for
// answering.
type AIClient interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Generate(ctx context.Context, systemPrompt, question string) (string, error)
}

type App struct {
	Handler  http.Handler
	Consumer *worker.Consumer

	cfg *config.Config
}

func New(cfg *config.Config, db *sql.DB, store *wstore.Store, pub document.EventPublisher, ai AIClient) (*App, error) {
	// Feature: Bot
	botRepo := bot.NewPostgresRepo(db)
	botService := bot.NewService(botRepo, store)
	botHandler := bot.NewHandler(botService)

	// Feature: Document
	docRepo := document.NewPostgresRepo(db)
	docService := document.NewService(docRepo, store, pub)
	docHandler := document.NewHandler(docService, cfg.UploadDir, int(cfg.MaxUploadSizeMB))

	// Feature: Ask
	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}

	retrievalService := retrieval.NewService(ai, store, queryLogger, retrieval.Config{
		TopK:         cfg.RetrievalTopK,
		Threshold:    cfg.SimilarityThreshold,
		EmbedTimeout: time.Duration(cfg.EmbedTimeoutSeconds) * time.Second,
	})
	composer := answer.NewComposer(ai, docRepo, answer.Config{
		GenTimeout: time.Duration(cfg.GenerationTimeoutSeconds) * time.Second,
	})
	askService := ask.NewService(botService, retrievalService, composer)
	askHandler := ask.NewHandler(askService)

	// Worker: ingestion pipeline behind the NSQ consumer
	pipeline := worker.NewPipeline(ai, store, docRepo, worker.PipelineConfig{
		ChunkSize:      cfg.ChunkSize,
		ChunkOverlap:   cfg.ChunkOverlap,
		EmbedBatchSize: cfg.EmbedBatchSize,
		EmbedTimeout:   time.Duration(cfg.EmbedTimeoutSeconds) * time.Second,
	})
	consumer := worker.NewConsumer(pipeline)

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	authed := func(next http.HandlerFunc) http.Handler {
		return middleware.CorrelationID(enableCORS(middleware.RequireAuth(cfg.JWTSecret, next)))
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /bots", authed(botHandler.Create))
	mux.Handle("GET /bots", authed(botHandler.List))
	mux.Handle("DELETE /bots/{id}", authed(botHandler.Delete))

	mux.Handle("POST /bots/{id}/documents", authed(docHandler.Upload))
	mux.Handle("GET /bots/{id}/documents", authed(docHandler.List))
	mux.Handle("GET /documents/{id}", authed(docHandler.Get))
	mux.Handle("DELETE /documents/{id}", authed(docHandler.Delete))

	mux.Handle("POST /bots/{id}/ask", authed(askHandler.Ask))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{
		Handler:  mux,
		Consumer: consumer,
		cfg:      cfg,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.ServerPort),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.cfg.ServerPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
