// Package document manages uploaded knowledge documents and their journey
// through the ingestion pipeline.
package document

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"knowbase/internal/apperr"
	"knowbase/internal/config"
	"knowbase/internal/middleware"
	"knowbase/internal/worker"
)

// Ingestion states. pending and processing are transient; completed and error
// are final. Re-uploading is the only way to retry a failed document.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

type Document struct {
	ID        string `json:"id"`
	BotID     string `json:"bot_id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	SizeBytes int64  `json:"size_bytes"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
}

type Repository interface {
	BotOwned(ctx context.Context, botID, userID string) (bool, error)
	Create(ctx context.Context, d *Document) error
	GetOwned(ctx context.Context, id, userID string) (*Document, error)
	ListByBot(ctx context.Context, botID string) ([]Document, error)
	MarkError(ctx context.Context, id, detail string) error
	SoftDelete(ctx context.Context, id string) error
	GetNames(ctx context.Context, ids []string) (map[string]string, error)
}

type ChunkStore interface {
	DeleteByDocument(ctx context.Context, documentID string) error
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

type Service struct {
	repo       Repository
	chunkStore ChunkStore
	pub        EventPublisher
}

func NewService(repo Repository, chunkStore ChunkStore, pub EventPublisher) *Service {
	return &Service{repo: repo, chunkStore: chunkStore, pub: pub}
}

// UploadCommand describes an accepted file already persisted to disk.
type UploadCommand struct {
	BotID     string
	Name      string
	MediaType string
	SizeBytes int64
	Path      string
}

// Upload records the document and hands it to the pipeline. The caller has
// already validated the media type and written the file to cmd.Path.
func (s *Service) Upload(ctx context.Context, userID string, cmd UploadCommand) (*Document, error) {
	if err := s.checkBot(ctx, cmd.BotID, userID); err != nil {
		return nil, err
	}

	doc := &Document{
		BotID:     cmd.BotID,
		Name:      cmd.Name,
		Type:      cmd.MediaType,
		SizeBytes: cmd.SizeBytes,
		Status:    StatusPending,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(worker.IngestTask{
		DocumentID:    doc.ID,
		BotID:         doc.BotID,
		Path:          cmd.Path,
		MediaType:     cmd.MediaType,
		Name:          cmd.Name,
		CorrelationID: middleware.GetCorrelationID(ctx),
	})
	if err := s.pub.Publish(config.TopicIngestTask, payload); err != nil {
		slog.ErrorContext(ctx, "failed to publish ingest.task event", "error", err, "document_id", doc.ID)
		// Nothing will ever pick the document up, so don't leave it pending.
		if markErr := s.repo.MarkError(ctx, doc.ID, "failed to queue ingestion"); markErr != nil {
			slog.ErrorContext(ctx, "failed to mark document error", "error", markErr, "document_id", doc.ID)
		}
		return nil, fmt.Errorf("publish ingest task: %w", err)
	}

	slog.InfoContext(ctx, "published ingest.task event", "document_id", doc.ID, "bot_id", doc.BotID)
	return doc, nil
}

func (s *Service) List(ctx context.Context, userID, botID string) ([]Document, error) {
	if err := s.checkBot(ctx, botID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListByBot(ctx, botID)
}

func (s *Service) Get(ctx context.Context, userID, id string) (*Document, error) {
	doc, err := s.repo.GetOwned(ctx, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete purges the document's chunks from the vector store before the row is
// soft-deleted, so nothing orphaned stays retrievable.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}

	if err := s.chunkStore.DeleteByDocument(ctx, id); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, id)
}

func (s *Service) checkBot(ctx context.Context, botID, userID string) error {
	owned, err := s.repo.BotOwned(ctx, botID, userID)
	if err != nil {
		return err
	}
	if !owned {
		return apperr.ErrNotFound
	}
	return nil
}
