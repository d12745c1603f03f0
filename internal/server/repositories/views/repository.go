// Package views is the view assignment table: (user, view_order) -> file id.
package views

import (
	"context"

	"github.com/dmitrijs2005/transitwatch/internal/server/models"
)

type Repository interface {
	// GetFileID returns common.ErrorNotFound when the user has no view at
	// viewOrder.
	GetFileID(ctx context.Context, userID int64, viewOrder int) (int, error)
	CreateBatch(ctx context.Context, views []models.UserView) error
	CountForUser(ctx context.Context, userID int64) (int, error)
	DeleteAll(ctx context.Context) error
}
