// Package bot manages the caller's bots. A bot is the tenancy boundary: every
// document, chunk and question is scoped to exactly one bot.
package bot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"knowbase/internal/apperr"
)

type Bot struct {
	ID        string `json:"id"`
	UserID    string `json:"-"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

type Repository interface {
	Create(ctx context.Context, b *Bot) error
	GetOwned(ctx context.Context, id, userID string) (*Bot, error)
	List(ctx context.Context, userID string) ([]Bot, error)
	SoftDelete(ctx context.Context, id string) error
	SoftDeleteDocuments(ctx context.Context, botID string) error
}

type ChunkStore interface {
	DeleteByBot(ctx context.Context, botID string) error
}

type Service struct {
	repo       Repository
	chunkStore ChunkStore
}

func NewService(repo Repository, chunkStore ChunkStore) *Service {
	return &Service{repo: repo, chunkStore: chunkStore}
}

func (s *Service) Create(ctx context.Context, userID, name string) (*Bot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", apperr.ErrInvalidInput)
	}

	b := &Bot{UserID: userID, Name: name}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Bot, error) {
	return s.repo.List(ctx, userID)
}

// Get returns the bot only if it belongs to the caller. A bot owned by someone
// else is reported as not found.
func (s *Service) Get(ctx context.Context, id, userID string) (*Bot, error) {
	b, err := s.repo.GetOwned(ctx, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Delete removes the bot and everything it owns: chunks in the vector store
// first, then the document rows, then the bot itself.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}

	if err := s.chunkStore.DeleteByBot(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SoftDeleteDocuments(ctx, id); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, id)
}
