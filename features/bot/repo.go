package bot

import (
	"context"
	"database/sql"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Create(ctx context.Context, b *Bot) error {
	query := `INSERT INTO bots (user_id, name) VALUES ($1, $2) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, b.UserID, b.Name).Scan(&b.ID, &b.CreatedAt)
}

func (r *PostgresRepo) GetOwned(ctx context.Context, id, userID string) (*Bot, error) {
	b := &Bot{}
	query := `SELECT id, user_id, name, created_at FROM bots WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(&b.ID, &b.UserID, &b.Name, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *PostgresRepo) List(ctx context.Context, userID string) ([]Bot, error) {
	query := `SELECT id, user_id, name, created_at FROM bots WHERE user_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bots []Bot
	for rows.Next() {
		var b Bot
		if err := rows.Scan(&b.ID, &b.UserID, &b.Name, &b.CreatedAt); err != nil {
			return nil, err
		}
		bots = append(bots, b)
	}
	return bots, rows.Err()
}

func (r *PostgresRepo) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE bots SET deleted_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *PostgresRepo) SoftDeleteDocuments(ctx context.Context, botID string) error {
	query := `UPDATE documents SET deleted_at = NOW() WHERE bot_id = $1 AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, botID)
	return err
}
