// Package users is the progress store: accounts and each user's cursor
// through their assigned views.
package users

import (
	"context"

	"github.com/dmitrijs2005/transitwatch/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetProgressForUpdate reads the cursor and locks the row until the
	// enclosing transaction ends.
	GetProgressForUpdate(ctx context.Context, id int64) (*models.Progress, error)
	// AdvanceProgress stores viewIndex and bumps classified_file_count by one.
	AdvanceProgress(ctx context.Context, id int64, viewIndex int) error

	Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	ListIDs(ctx context.Context) ([]int64, error)
}
