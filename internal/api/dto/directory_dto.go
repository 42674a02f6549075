package dto

import (
	"time"

	"github.com/spec-kit/governance-service/internal/domain"
)

// CreateDesignationRequest payload.
type CreateDesignationRequest struct {
	Title string `json:"title"`
	Rank  int    `json:"rank"`
}

// DesignationResponse view.
type DesignationResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Rank     int    `json:"rank"`
	IsActive bool   `json:"is_active"`
}

// CreateCommitteeRequest payload.
type CreateCommitteeRequest struct {
	Name      string `json:"name"`
	QuorumMin int    `json:"quorum_min"`
}

// AddCommitteeMemberRequest payload.
type AddCommitteeMemberRequest struct {
	DesignationID string `json:"designation_id"`
}

// CommitteeResponse view.
type CommitteeResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	QuorumMin int      `json:"quorum_min"`
	IsActive  bool     `json:"is_active"`
	Members   []string `json:"members,omitempty"`
}

// CreateOfficeRequest payload.
type CreateOfficeRequest struct {
	Name   string  `json:"name"`
	UnitID *string `json:"unit_id"`
}

// OfficeResponse view.
type OfficeResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	UnitID   *string `json:"unit_id"`
	IsActive bool    `json:"is_active"`
}

// CreatePostingRequest payload.
type CreatePostingRequest struct {
	PersonName    string  `json:"person_name"`
	UnitID        string  `json:"unit_id"`
	DesignationID string  `json:"designation_id"`
	RegionID      *string `json:"region_id"`
}

// PostingResponse view.
type PostingResponse struct {
	ID            string  `json:"id"`
	PersonName    string  `json:"person_name"`
	UnitID        string  `json:"unit_id"`
	DesignationID string  `json:"designation_id"`
	RegionID      *string `json:"region_id"`
	Active        bool    `json:"active"`
}

// CreateTenureRequest payload.
type CreateTenureRequest struct {
	PostingID string `json:"posting_id"`
	OfficeID  string `json:"office_id"`
}

// TenureResponse view.
type TenureResponse struct {
	ID        string     `json:"id"`
	PostingID string     `json:"posting_id"`
	OfficeID  string     `json:"office_id"`
	Active    bool       `json:"active"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
}

// OccupantsResponse lists postings occupying an Authority Body.
type OccupantsResponse struct {
	AuthorityType domain.BodyType   `json:"authority_type"`
	AuthorityID   string            `json:"authority_id"`
	Occupants     []PostingResponse `json:"occupants"`
}
