package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nsqio/go-nsq"

	"knowbase/internal/middleware"
)

// Consumer adapts the ingestion pipeline to NSQ delivery.
type Consumer struct {
	pipeline *Pipeline
}

func NewConsumer(pipeline *Pipeline) *Consumer {
	return &Consumer{pipeline: pipeline}
}

func (c *Consumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var task IngestTask
	if err := json.Unmarshal(m.Body, &task); err != nil {
		// Poison pill: invalid JSON, don't retry
		slog.Error("poison pill: invalid json", "error", err)
		return nil
	}

	ctx := context.Background()
	if task.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, task.CorrelationID)
	}

	if task.DocumentID == "" || task.BotID == "" {
		slog.ErrorContext(ctx, "missing required fields, dropping", "document_id", task.DocumentID, "bot_id", task.BotID)
		return nil
	}

	if err := c.pipeline.Process(ctx, task); err != nil {
		// Terminal status write failed; let NSQ redeliver.
		slog.ErrorContext(ctx, "ingestion pipeline failed", "error", err, "document_id", task.DocumentID)
		return err
	}
	return nil
}
