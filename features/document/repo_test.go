package document_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"knowbase/features/document"
)

func TestPostgresRepo_BotOwned(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM bots WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL)`)).
		WithArgs("bot-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	repo := document.NewPostgresRepo(db)
	owned, err := repo.BotOwned(context.Background(), "bot-1", "user-1")
	assert.NoError(t, err)
	assert.True(t, owned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO documents (bot_id, name, type, size_bytes, status) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`)).
		WithArgs("bot-1", "policy.pdf", "pdf", int64(2048), "pending").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("doc-1", "2026-01-01T00:00:00Z"))

	repo := document.NewPostgresRepo(db)
	d := &document.Document{
		BotID:     "bot-1",
		Name:      "policy.pdf",
		Type:      "pdf",
		SizeBytes: 2048,
		Status:    document.StatusPending,
	}
	assert.NoError(t, repo.Create(context.Background(), d))
	assert.Equal(t, "doc-1", d.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_GetOwned(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "bot_id", "name", "type", "size_bytes", "status", "error", "created_at"}).
		AddRow("doc-1", "bot-1", "policy.pdf", "pdf", int64(2048), "completed", nil, "2026-01-01T00:00:00Z")
	mock.ExpectQuery(`SELECT d\.id, d\.bot_id, d\.name, d\.type, d\.size_bytes, d\.status, d\.error, d\.created_at`).
		WithArgs("doc-1", "user-1").
		WillReturnRows(rows)

	repo := document.NewPostgresRepo(db)
	d, err := repo.GetOwned(context.Background(), "doc-1", "user-1")
	assert.NoError(t, err)
	assert.Equal(t, "completed", d.Status)
	assert.Empty(t, d.Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_ListByBot(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "bot_id", "name", "type", "size_bytes", "status", "error", "created_at"}).
		AddRow("doc-2", "bot-1", "faq.md", "markdown", int64(100), "error", "text extraction failed", "2026-01-02T00:00:00Z").
		AddRow("doc-1", "bot-1", "policy.pdf", "pdf", int64(2048), "completed", nil, "2026-01-01T00:00:00Z")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, bot_id, name, type, size_bytes, status, error, created_at`)).
		WithArgs("bot-1").
		WillReturnRows(rows)

	repo := document.NewPostgresRepo(db)
	docs, err := repo.ListByBot(context.Background(), "bot-1")
	assert.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.Equal(t, "text extraction failed", docs[0].Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE documents SET status = $1, updated_at = NOW() WHERE id = $2`)).
		WithArgs("processing", "doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := document.NewPostgresRepo(db)
	assert.NoError(t, repo.UpdateStatus(context.Background(), "doc-1", document.StatusProcessing))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_MarkError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE documents SET status = 'error', error = $1, updated_at = NOW() WHERE id = $2`)).
		WithArgs("embedding failed", "doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := document.NewPostgresRepo(db)
	assert.NoError(t, repo.MarkError(context.Background(), "doc-1", "embedding failed"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_GetNames(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name FROM documents WHERE id = ANY($1)`)).
		WithArgs(pq.Array([]string{"doc-1", "doc-2"})).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow("doc-1", "policy.pdf").
			AddRow("doc-2", "faq.md"))

	repo := document.NewPostgresRepo(db)
	names, err := repo.GetNames(context.Background(), []string{"doc-1", "doc-2"})
	assert.NoError(t, err)
	assert.Equal(t, map[string]string{"doc-1": "policy.pdf", "doc-2": "faq.md"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}
