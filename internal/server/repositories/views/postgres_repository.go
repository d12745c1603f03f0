package views

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/transitwatch/internal/common"
	"github.com/dmitrijs2005/transitwatch/internal/dbx"
	"github.com/dmitrijs2005/transitwatch/internal/server/models"
)

// insertChunk bounds the number of rows per INSERT statement.
const insertChunk = 500

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetFileID(ctx context.Context, userID int64, viewOrder int) (int, error) {
	query :=
		`SELECT file_id FROM user_views
		 WHERE user_id = $1 AND view_order = $2`

	var fileID int
	err := r.db.QueryRowContext(ctx, query, userID, viewOrder).Scan(&fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return fileID, nil
}

func (r *PostgresRepository) CreateBatch(ctx context.Context, views []models.UserView) error {
	for start := 0; start < len(views); start += insertChunk {
		end := min(start+insertChunk, len(views))
		chunk := views[start:end]

		var sb strings.Builder
		sb.WriteString(`INSERT INTO user_views (user_id, view_order, file_id) VALUES `)
		args := make([]any, 0, len(chunk)*3)
		for i, v := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "($%d, $%d, $%d)", i*3+1, i*3+2, i*3+3)
			args = append(args, v.UserID, v.ViewOrder, v.FileID)
		}

		if _, err := r.db.ExecContext(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) CountForUser(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_views WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_views`); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
