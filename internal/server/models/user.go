// Package models defines the server's persisted records and the request and
// response shapes exchanged over HTTP.
package models

import "time"

// User is an account plus its progress cursor through the assigned views.
type User struct {
	ID                  int64     `db:"id"`
	UserName            string    `db:"username"`
	Email               string    `db:"email"`
	PasswordHash        string    `db:"password_hash"`
	ViewIndex           int       `db:"view_index"`
	ClassifiedFileCount int64     `db:"classified_file_count"`
	CreatedAt           time.Time `db:"created_at"`
}

// Progress is the mutable part of a User.
type Progress struct {
	UserID              int64
	ViewIndex           int
	ClassifiedFileCount int64
}

// LeaderboardEntry is one row of the profile page's high-score table.
type LeaderboardEntry struct {
	UserName            string `json:"username"`
	ClassifiedFileCount int64  `json:"classified_file_count"`
}
