package dto

import (
	"time"

	"github.com/spec-kit/governance-service/internal/domain"
)

// CreateObligationRequest payload.
type CreateObligationRequest struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Origin       string    `json:"origin"`
	FromOfficeID string    `json:"from_office_id"`
	ToOfficeID   string    `json:"to_office_id"`
	Deadline     time.Time `json:"deadline"`
}

// CertifyObligationRequest payload.
type CertifyObligationRequest struct {
	ActingOfficeID string `json:"acting_office_id"`
}

// ObligationResponse view.
type ObligationResponse struct {
	ID           string                  `json:"id"`
	Title        string                  `json:"title"`
	Description  string                  `json:"description,omitempty"`
	Origin       string                  `json:"origin,omitempty"`
	FromOfficeID string                  `json:"from_office_id"`
	ToOfficeID   string                  `json:"to_office_id"`
	Deadline     time.Time               `json:"deadline"`
	Status       domain.ObligationStatus `json:"status"`
	CertifiedAt  *time.Time              `json:"certified_at"`
	CreatedAt    time.Time               `json:"created_at"`
}

// ObligationLedgerResponse is one office's two-sided ledger view.
type ObligationLedgerResponse struct {
	Owed       []ObligationResponse `json:"owed"`
	Receivable []ObligationResponse `json:"receivable"`
}
