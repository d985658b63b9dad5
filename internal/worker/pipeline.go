package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"knowbase/internal/extract"
	"knowbase/internal/text"
)

// PipelineConfig carries the ingestion tunables.
type PipelineConfig struct {
	ChunkSize      int
	ChunkOverlap   int
	EmbedBatchSize int
	EmbedTimeout   time.Duration
}

// Pipeline runs one document through extract -> chunk -> embed -> store and
// always leaves the document in a terminal state (completed or error).
type Pipeline struct {
	embedder Embedder
	chunks   ChunkStore
	docs     StatusStore
	cfg      PipelineConfig
}

func NewPipeline(embedder Embedder, chunks ChunkStore, docs StatusStore, cfg PipelineConfig) *Pipeline {
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = 1
	}
	return &Pipeline{embedder: embedder, chunks: chunks, docs: docs, cfg: cfg}
}

// Process ingests one document. A returned error means the terminal status
// could not be recorded and the message should be retried; domain failures
// (bad file, embedding outage) are absorbed into the document's error state.
func (p *Pipeline) Process(ctx context.Context, task IngestTask) error {
	if err := p.docs.UpdateStatus(ctx, task.DocumentID, "processing"); err != nil {
		return fmt.Errorf("set processing: %w", err)
	}

	data, err := os.ReadFile(task.Path)
	if err != nil {
		return p.fail(ctx, task, fmt.Sprintf("read upload: %v", err))
	}

	plain, err := extract.Extract(data, task.MediaType)
	if err != nil {
		return p.fail(ctx, task, err.Error())
	}

	spans := text.Split(plain, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
	if len(spans) == 0 {
		// Empty document: completes with zero chunks, not an error.
		return p.complete(ctx, task, 0)
	}

	index := 0
	for start := 0; start < len(spans); start += p.cfg.EmbedBatchSize {
		end := min(start+p.cfg.EmbedBatchSize, len(spans))

		embedCtx, cancel := context.WithTimeout(ctx, p.cfg.EmbedTimeout)
		vectors, err := p.embedder.EmbedBatch(embedCtx, spans[start:end])
		cancel()
		if err != nil {
			return p.fail(ctx, task, fmt.Sprintf("embed chunk %d: %v", index, err))
		}
		if len(vectors) != end-start {
			return p.fail(ctx, task, fmt.Sprintf("embedder returned %d vectors for %d inputs", len(vectors), end-start))
		}

		for i, vec := range vectors {
			chunk := Chunk{
				Content:    spans[start+i],
				Vector:     vec,
				DocumentID: task.DocumentID,
				BotID:      task.BotID,
				ChunkIndex: index,
			}
			if err := p.chunks.StoreChunk(ctx, chunk); err != nil {
				return p.fail(ctx, task, fmt.Sprintf("store chunk %d: %v", index, err))
			}
			index++
		}
	}

	return p.complete(ctx, task, index)
}

func (p *Pipeline) fail(ctx context.Context, task IngestTask, detail string) error {
	slog.ErrorContext(ctx, "document ingestion failed", "document_id", task.DocumentID, "bot_id", task.BotID, "detail", detail)
	if err := p.docs.MarkError(ctx, task.DocumentID, detail); err != nil {
		return fmt.Errorf("mark error: %w", err)
	}
	return nil
}

func (p *Pipeline) complete(ctx context.Context, task IngestTask, chunkCount int) error {
	if err := p.docs.UpdateStatus(ctx, task.DocumentID, "completed"); err != nil {
		return fmt.Errorf("set completed: %w", err)
	}
	slog.InfoContext(ctx, "document ingestion completed", "document_id", task.DocumentID, "chunks", chunkCount)
	return nil
}
