package domain

import "time"

// DecisionStatus enumerates lifecycle states for governed proposals.
type DecisionStatus string

const (
	DecisionStatusDraft           DecisionStatus = "DRAFT"
	DecisionStatusPendingApproval DecisionStatus = "PENDING_APPROVAL"
	DecisionStatusQueryRaised     DecisionStatus = "QUERY_RAISED"
	DecisionStatusSanctioned      DecisionStatus = "SANCTIONED"
	DecisionStatusRejected        DecisionStatus = "REJECTED"
	DecisionStatusDeclined        DecisionStatus = "DECLINED"
	DecisionStatusEscalated       DecisionStatus = "ESCALATED"
)

// Terminal reports whether no further transition may be applied.
func (s DecisionStatus) Terminal() bool {
	switch s {
	case DecisionStatusSanctioned, DecisionStatusRejected, DecisionStatusDeclined:
		return true
	}
	return false
}

// DecisionAction enumerates actor-driven workflow actions.
type DecisionAction string

const (
	ActionSanction DecisionAction = "SANCTION"
	ActionQuery    DecisionAction = "QUERY"
	ActionReject   DecisionAction = "REJECT"
	ActionRespond  DecisionAction = "RESPOND"
)

// Decision is the proposal under governance. Once created it is mutated only
// through workflow transitions; the outcome payload is editable in DRAFT only.
// Terminal decisions are retained permanently.
type Decision struct {
	ID                 string
	ReferenceKey       string
	InitiatorPostingID string
	UnitID             string
	RegionID           *string
	CategoryID         string
	ScopeID            string
	Subject            string
	Justification      string
	AmountMinor        int64
	Currency           string
	CommitteeRouted    bool
	Rule               *RuleSnapshot
	Status             DecisionStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ResolvedAt         *time.Time
}
