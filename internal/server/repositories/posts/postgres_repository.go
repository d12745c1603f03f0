package posts

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/transitwatch/internal/dbx"
	"github.com/dmitrijs2005/transitwatch/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, post *models.Post) error {
	query :=
		`INSERT INTO posts (file_id, user_id, time, certainty)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, post.FileID, post.UserID, post.Time, post.Certainty).
		Scan(&post.ID, &post.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Each(ctx context.Context, fn func(models.Post) error) error {
	query :=
		`SELECT id, file_id, user_id, time, certainty, created_at FROM posts
		 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.FileID, &p.UserID, &p.Time, &p.Certainty, &p.CreatedAt); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows: %w", err)
	}
	return nil
}
