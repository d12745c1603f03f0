package models

// UserView maps a user's view_order onto a file of the shared pool.
// Rows are generated offline and never change afterwards.
type UserView struct {
	UserID    int64 `db:"user_id"`
	ViewOrder int   `db:"view_order"`
	FileID    int   `db:"file_id"`
}
