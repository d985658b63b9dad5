package worker_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"knowbase/internal/worker"
)

type MockEmbedder struct{ mock.Mock }

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

type MockChunkStore struct{ mock.Mock }

func (m *MockChunkStore) StoreChunk(ctx context.Context, chunk worker.Chunk) error {
	return m.Called(ctx, chunk).Error(0)
}

type MockStatusStore struct{ mock.Mock }

func (m *MockStatusStore) UpdateStatus(ctx context.Context, id, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockStatusStore) MarkError(ctx context.Context, id, detail string) error {
	return m.Called(ctx, id, detail).Error(0)
}
