// Package retrieval answers "what does this bot know about X": it embeds the
// question, queries the vector store scoped to one bot, and keeps only the
// candidates similar enough to ground an answer.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"time"

	"knowbase/internal/apperr"
	"knowbase/internal/middleware"
)

// Result is one retrieved chunk with its similarity to the question.
type Result struct {
	Content    string  `json:"content"`
	Similarity float32 `json:"similarity"`
	DocumentID string  `json:"documentId"`
	ChunkIndex int     `json:"chunkIndex"`
}

type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type Searcher interface {
	SearchNear(ctx context.Context, vector []float32, botID string, limit int) ([]Result, error)
}

type Config struct {
	TopK         int
	Threshold    float32
	EmbedTimeout time.Duration
}

type Service struct {
	embedder QueryEmbedder
	store    Searcher
	logger   *QueryLogger
	cfg      Config
}

func NewService(e QueryEmbedder, s Searcher, l *QueryLogger, cfg Config) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	return &Service{embedder: e, store: s, logger: l, cfg: cfg}
}

// Retrieve returns the chunks backing an answer, best match first. An empty
// result is a valid outcome: the bot has nothing relevant, not an error.
func (s *Service) Retrieve(ctx context.Context, botID, question string) ([]Result, error) {
	start := time.Now()

	embedCtx, cancel := context.WithTimeout(ctx, s.cfg.EmbedTimeout)
	vector, err := s.embedder.EmbedQuery(embedCtx, question)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrEmbedding, err)
	}

	candidates, err := s.store.SearchNear(ctx, vector, botID, s.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrRetrieval, err)
	}

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		if c.Similarity >= s.cfg.Threshold {
			results = append(results, c)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if s.logger != nil {
		s.logger.Log(QueryLogEntry{
			BotID:         botID,
			Query:         question,
			NumResults:    len(results),
			Duration:      time.Since(start),
			CorrelationID: middleware.GetCorrelationID(ctx),
		})
	}
	return results, nil
}
