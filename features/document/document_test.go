package document_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"knowbase/features/document"
	"knowbase/internal/apperr"
	"knowbase/internal/worker"
)

type MockRepo struct{ mock.Mock }

func (m *MockRepo) BotOwned(ctx context.Context, botID, userID string) (bool, error) {
	args := m.Called(ctx, botID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepo) Create(ctx context.Context, d *document.Document) error {
	args := m.Called(ctx, d)
	if args.Error(0) == nil {
		d.ID = "doc-1"
	}
	return args.Error(0)
}

func (m *MockRepo) GetOwned(ctx context.Context, id, userID string) (*document.Document, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.Document), args.Error(1)
}

func (m *MockRepo) ListByBot(ctx context.Context, botID string) ([]document.Document, error) {
	args := m.Called(ctx, botID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]document.Document), args.Error(1)
}

func (m *MockRepo) MarkError(ctx context.Context, id, detail string) error {
	return m.Called(ctx, id, detail).Error(0)
}

func (m *MockRepo) SoftDelete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepo) GetNames(ctx context.Context, ids []string) (map[string]string, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

type MockChunkStore struct{ mock.Mock }

func (m *MockChunkStore) DeleteByDocument(ctx context.Context, documentID string) error {
	return m.Called(ctx, documentID).Error(0)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(topic string, body []byte) error {
	return m.Called(topic, body).Error(0)
}

func uploadCommand() document.UploadCommand {
	return document.UploadCommand{
		BotID:     "bot-1",
		Name:      "policy.pdf",
		MediaType: "pdf",
		SizeBytes: 2048,
		Path:      "/uploads/abc_policy.pdf",
	}
}

func TestService_Upload_PublishesIngestTask(t *testing.T) {
	repo := new(MockRepo)
	pub := new(MockPublisher)

	repo.On("BotOwned", mock.Anything, "bot-1", "user-1").Return(true, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(d *document.Document) bool {
		return d.Status == document.StatusPending && d.BotID == "bot-1"
	})).Return(nil)
	pub.On("Publish", "ingest.task", mock.MatchedBy(func(body []byte) bool {
		var task worker.IngestTask
		if err := json.Unmarshal(body, &task); err != nil {
			return false
		}
		return task.DocumentID == "doc-1" && task.BotID == "bot-1" && task.Path == "/uploads/abc_policy.pdf"
	})).Return(nil)

	svc := document.NewService(repo, new(MockChunkStore), pub)
	doc, err := svc.Upload(context.Background(), "user-1", uploadCommand())

	assert.NoError(t, err)
	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, document.StatusPending, doc.Status)
	pub.AssertExpectations(t)
}

func TestService_Upload_BotNotOwned(t *testing.T) {
	repo := new(MockRepo)
	pub := new(MockPublisher)
	repo.On("BotOwned", mock.Anything, "bot-1", "user-2").Return(false, nil)

	svc := document.NewService(repo, new(MockChunkStore), pub)
	_, err := svc.Upload(context.Background(), "user-2", uploadCommand())

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Upload_PublishFailureMarksError(t *testing.T) {
	repo := new(MockRepo)
	pub := new(MockPublisher)

	repo.On("BotOwned", mock.Anything, "bot-1", "user-1").Return(true, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	pub.On("Publish", "ingest.task", mock.Anything).Return(assert.AnError)
	repo.On("MarkError", mock.Anything, "doc-1", "failed to queue ingestion").Return(nil)

	svc := document.NewService(repo, new(MockChunkStore), pub)
	_, err := svc.Upload(context.Background(), "user-1", uploadCommand())

	assert.Error(t, err)
	repo.AssertExpectations(t)
}

func TestService_List_ChecksOwnership(t *testing.T) {
	repo := new(MockRepo)
	repo.On("BotOwned", mock.Anything, "bot-1", "user-2").Return(false, nil)

	svc := document.NewService(repo, new(MockChunkStore), new(MockPublisher))
	_, err := svc.List(context.Background(), "user-2", "bot-1")

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	repo.AssertNotCalled(t, "ListByBot", mock.Anything, mock.Anything)
}

func TestService_Get_MissingLooksSame(t *testing.T) {
	repo := new(MockRepo)
	repo.On("GetOwned", mock.Anything, "doc-1", "user-1").Return(nil, sql.ErrNoRows)

	svc := document.NewService(repo, new(MockChunkStore), new(MockPublisher))
	_, err := svc.Get(context.Background(), "user-1", "doc-1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestService_Delete_PurgesChunksFirst(t *testing.T) {
	repo := new(MockRepo)
	chunks := new(MockChunkStore)

	repo.On("GetOwned", mock.Anything, "doc-1", "user-1").Return(&document.Document{ID: "doc-1"}, nil)
	chunks.On("DeleteByDocument", mock.Anything, "doc-1").Return(nil)
	repo.On("SoftDelete", mock.Anything, "doc-1").Return(nil)

	svc := document.NewService(repo, chunks, new(MockPublisher))
	assert.NoError(t, svc.Delete(context.Background(), "user-1", "doc-1"))

	chunks.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestService_Delete_ChunkFailureKeepsRow(t *testing.T) {
	repo := new(MockRepo)
	chunks := new(MockChunkStore)

	repo.On("GetOwned", mock.Anything, "doc-1", "user-1").Return(&document.Document{ID: "doc-1"}, nil)
	chunks.On("DeleteByDocument", mock.Anything, "doc-1").Return(assert.AnError)

	svc := document.NewService(repo, chunks, new(MockPublisher))
	assert.Error(t, svc.Delete(context.Background(), "user-1", "doc-1"))
	repo.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
}
