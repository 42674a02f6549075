package dto

import "time"

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the signed token.
type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Account   AccountResponse `json:"account"`
}

// CreateAccountRequest payload. Admin-only.
type CreateAccountRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	PostingID *string `json:"posting_id"`
	IsAdmin   bool    `json:"is_admin"`
}

// AccountResponse omits the credential hash.
type AccountResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	PostingID *string   `json:"posting_id"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}
