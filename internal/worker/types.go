package worker

import (
	"context"
)

// Chunk is one embedded span of a document, ready to persist.
type Chunk struct {
	Content    string
	Vector     []float32
	DocumentID string
	BotID      string
	ChunkIndex int
}

// IngestTask is the payload published to the ingest.task topic when a
// document is accepted for processing.
type IngestTask struct {
	DocumentID    string `json:"document_id"`
	BotID         string `json:"bot_id"`
	Path          string `json:"path"`
	MediaType     string `json:"media_type"`
	Name          string `json:"name"`
	CorrelationID string `json:"correlation_id"`
}

type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type ChunkStore interface {
	StoreChunk(ctx context.Context, chunk Chunk) error
}

type StatusStore interface {
	UpdateStatus(ctx context.Context, id, status string) error
	MarkError(ctx context.Context, id, detail string) error
}
