package domain

import "time"

// Account is a login credential mapped to a posting. Identity is deliberately
// minimal: a binary admin/non-admin distinction and nothing more.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	PostingID    *string
	IsAdmin      bool
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
