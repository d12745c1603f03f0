// Package posts is the append-only submission ledger.
package posts

import (
	"context"

	"github.com/dmitrijs2005/transitwatch/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, post *models.Post) error
	// Each streams the ledger in insertion order.
	Each(ctx context.Context, fn func(models.Post) error) error
}
