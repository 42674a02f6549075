package dto

import (
	"time"

	"github.com/spec-kit/governance-service/internal/domain"
)

// CreateDecisionRequest payload.
type CreateDecisionRequest struct {
	CategoryID      string  `json:"category_id"`
	ScopeID         string  `json:"scope_id"`
	Subject         string  `json:"subject"`
	Justification   string  `json:"justification"`
	AmountMinor     int64   `json:"amount_minor"`
	Currency        string  `json:"currency"`
	RegionID        *string `json:"region_id"`
	CommitteeRouted bool    `json:"committee_routed"`
}

// DecisionActionRequest payload for workflow actions.
type DecisionActionRequest struct {
	Action domain.DecisionAction `json:"action"`
	Notes  string                `json:"notes"`
}

// WithdrawRequest payload.
type WithdrawRequest struct {
	Notes string `json:"notes"`
}

// RuleSnapshotResponse is the frozen authority context on a decision.
type RuleSnapshotResponse struct {
	RuleID              string          `json:"rule_id"`
	AuthorityType       domain.BodyType `json:"authority_type"`
	AuthorityID         string          `json:"authority_id"`
	LimitMin            *int64          `json:"limit_min"`
	LimitMax            *int64          `json:"limit_max"`
	Currency            string          `json:"currency"`
	EvidenceRequired    bool            `json:"evidence_required"`
	EscalationMandatory bool            `json:"escalation_mandatory"`
	ResolvedAt          time.Time       `json:"resolved_at"`
}

// DecisionResponse is the full proposal view.
type DecisionResponse struct {
	ID                 string                `json:"id"`
	ReferenceKey       string                `json:"reference_key"`
	InitiatorPostingID string                `json:"initiator_posting_id"`
	UnitID             string                `json:"unit_id"`
	RegionID           *string               `json:"region_id"`
	CategoryID         string                `json:"category_id"`
	ScopeID            string                `json:"scope_id"`
	Subject            string                `json:"subject"`
	Justification      string                `json:"justification"`
	AmountMinor        int64                 `json:"amount_minor"`
	Currency           string                `json:"currency"`
	CommitteeRouted    bool                  `json:"committee_routed"`
	Rule               *RuleSnapshotResponse `json:"rule,omitempty"`
	Status             domain.DecisionStatus `json:"status"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
	ResolvedAt         *time.Time            `json:"resolved_at"`
}

// AuditEntryResponse is one trail record.
type AuditEntryResponse struct {
	ID             string                `json:"id"`
	ActorType      domain.ActorType      `json:"actor_type"`
	ActorPostingID *string               `json:"actor_posting_id"`
	PriorStatus    domain.DecisionStatus `json:"prior_status"`
	NewStatus      domain.DecisionStatus `json:"new_status"`
	Notes          string                `json:"notes,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}

// ResolutionResponse answers an authority lookup.
type ResolutionResponse struct {
	Rule          RuleResponse    `json:"rule"`
	AuthorityType domain.BodyType `json:"authority_type"`
	AuthorityID   string          `json:"authority_id"`
	Ambiguous     bool            `json:"ambiguous"`
}

// ValidationResponse answers a claimed-authority check.
type ValidationResponse struct {
	Valid               bool          `json:"valid"`
	Reason              string        `json:"reason,omitempty"`
	EscalationMandatory bool          `json:"escalation_mandatory"`
	Rule                *RuleResponse `json:"rule,omitempty"`
}
