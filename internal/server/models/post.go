package models

import (
	"database/sql"
	"time"
)

// Post is one ledger record of a submission. Time is NULL for the single
// record written when the user marked nothing.
type Post struct {
	ID        int64           `db:"id"`
	FileID    int             `db:"file_id"`
	UserID    int64           `db:"user_id"`
	Time      sql.NullFloat64 `db:"time"`
	Certainty int             `db:"certainty"`
	CreatedAt time.Time       `db:"created_at"`
}
