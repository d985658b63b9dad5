// Package ask answers questions against a bot's knowledge base.
package ask

import (
	"context"
	"fmt"
	"strings"

	"knowbase/features/bot"
	"knowbase/internal/answer"
	"knowbase/internal/apperr"
	"knowbase/internal/retrieval"
)

type Bots interface {
	Get(ctx context.Context, id, userID string) (*bot.Bot, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, botID, question string) ([]retrieval.Result, error)
}

type Composer interface {
	Compose(ctx context.Context, question string, evidence []retrieval.Result) (*answer.Answer, error)
}

type Service struct {
	bots      Bots
	retriever Retriever
	composer  Composer
}

func NewService(bots Bots, retriever Retriever, composer Composer) *Service {
	return &Service{bots: bots, retriever: retriever, composer: composer}
}

// Ask runs the full question path: ownership check, retrieval, composition.
func (s *Service) Ask(ctx context.Context, userID, botID, question string) (*answer.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", apperr.ErrInvalidInput)
	}

	if _, err := s.bots.Get(ctx, botID, userID); err != nil {
		return nil, err
	}

	evidence, err := s.retriever.Retrieve(ctx, botID, question)
	if err != nil {
		return nil, err
	}

	return s.composer.Compose(ctx, question, evidence)
}
