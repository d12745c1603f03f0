package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/transitwatch/internal/dbx"
	"github.com/dmitrijs2005/transitwatch/internal/server/repositories/posts"
	"github.com/dmitrijs2005/transitwatch/internal/server/repositories/users"
	"github.com/dmitrijs2005/transitwatch/internal/server/repositories/views"
)

// RepositoryManager hands out repositories bound to either the pool or an
// open transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Views(db dbx.DBTX) views.Repository
	Posts(db dbx.DBTX) posts.Repository
}
