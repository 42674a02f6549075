package domain

import "time"

// ObligationStatus is the two-state machine for cross-office commitments.
type ObligationStatus string

const (
	ObligationStatusPending   ObligationStatus = "PENDING"
	ObligationStatusCertified ObligationStatus = "CERTIFIED"
)

// Obligation is a directed commitment from one Office to another. Only the
// receiving office may certify it, and certification is final.
type Obligation struct {
	ID           string
	Title        string
	Description  string
	Origin       string
	FromOfficeID string
	ToOfficeID   string
	Deadline     time.Time
	Status       ObligationStatus
	CertifiedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
