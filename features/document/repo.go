package document

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) BotOwned(ctx context.Context, botID, userID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM bots WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL)`
	err := r.db.QueryRowContext(ctx, query, botID, userID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PostgresRepo) Create(ctx context.Context, d *Document) error {
	query := `INSERT INTO documents (bot_id, name, type, size_bytes, status) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, d.BotID, d.Name, d.Type, d.SizeBytes, d.Status).Scan(&d.ID, &d.CreatedAt)
}

func (r *PostgresRepo) GetOwned(ctx context.Context, id, userID string) (*Document, error) {
	d := &Document{}
	var errDetail sql.NullString
	query := `SELECT d.id, d.bot_id, d.name, d.type, d.size_bytes, d.status, d.error, d.created_at
		FROM documents d
		JOIN bots b ON b.id = d.bot_id
		WHERE d.id = $1 AND b.user_id = $2 AND d.deleted_at IS NULL AND b.deleted_at IS NULL`
	err := r.db.QueryRowContext(ctx, query, id, userID).
		Scan(&d.ID, &d.BotID, &d.Name, &d.Type, &d.SizeBytes, &d.Status, &errDetail, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	d.Error = errDetail.String
	return d, nil
}

func (r *PostgresRepo) ListByBot(ctx context.Context, botID string) ([]Document, error) {
	query := `SELECT id, bot_id, name, type, size_bytes, status, error, created_at
		FROM documents WHERE bot_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, botID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var errDetail sql.NullString
		if err := rows.Scan(&d.ID, &d.BotID, &d.Name, &d.Type, &d.SizeBytes, &d.Status, &errDetail, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Error = errDetail.String
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE documents SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, status, id)
	return err
}

func (r *PostgresRepo) MarkError(ctx context.Context, id, detail string) error {
	query := `UPDATE documents SET status = 'error', error = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, detail, id)
	return err
}

func (r *PostgresRepo) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE documents SET deleted_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// GetNames resolves document ids to display names for answer attribution.
// Soft-deleted documents are included: a freshly deleted document may still
// back an in-flight answer.
func (r *PostgresRepo) GetNames(ctx context.Context, ids []string) (map[string]string, error) {
	query := `SELECT id, name FROM documents WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}
