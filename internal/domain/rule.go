package domain

import "time"

// DecisionCategory is one classification axis for rule lookup. Append-only
// reference data.
type DecisionCategory struct {
	ID        string
	Code      string
	Name      string
	CreatedAt time.Time
}

// FunctionalScope is the second classification axis. Append-only reference data.
type FunctionalScope struct {
	ID        string
	Code      string
	Name      string
	CreatedAt time.Time
}

// DoARule binds one Authority Body to a (category, scope) pair with a monetary
// band. Amounts are minor units; a nil bound means unbounded on that side.
type DoARule struct {
	ID                  string
	AuthorityType       BodyType
	AuthorityID         string
	CategoryID          string
	ScopeID             string
	LimitMin            *int64
	LimitMax            *int64
	Currency            string
	EvidenceRequired    bool
	EscalationMandatory bool
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// EffectiveMin treats a nil lower bound as zero.
func (r DoARule) EffectiveMin() int64 {
	if r.LimitMin == nil {
		return 0
	}
	return *r.LimitMin
}

// Contains reports whether amount falls within the rule's band.
func (r DoARule) Contains(amount int64) bool {
	if amount < r.EffectiveMin() {
		return false
	}
	if r.LimitMax != nil && amount > *r.LimitMax {
		return false
	}
	return true
}

// Overlaps reports whether two bands share any amount.
func (r DoARule) Overlaps(other DoARule) bool {
	if r.LimitMax != nil && other.EffectiveMin() > *r.LimitMax {
		return false
	}
	if other.LimitMax != nil && r.EffectiveMin() > *other.LimitMax {
		return false
	}
	return true
}

// AuthorityRef returns the rule's bound authority body reference.
func (r DoARule) AuthorityRef() AuthorityRef {
	return AuthorityRef{Type: r.AuthorityType, BodyID: r.AuthorityID}
}

// RuleSnapshot is the frozen authority context copied onto a Decision at
// submit time. Later edits to the live rule never alter it.
type RuleSnapshot struct {
	RuleID              string   `json:"rule_id"`
	AuthorityType       BodyType `json:"authority_type"`
	AuthorityID         string   `json:"authority_id"`
	CategoryID          string   `json:"category_id"`
	ScopeID             string   `json:"scope_id"`
	LimitMin            *int64   `json:"limit_min"`
	LimitMax            *int64   `json:"limit_max"`
	Currency            string   `json:"currency"`
	EvidenceRequired    bool     `json:"evidence_required"`
	EscalationMandatory bool     `json:"escalation_mandatory"`
	ResolvedAt          time.Time `json:"resolved_at"`
}

// Snapshot freezes the rule's fields as authority context for a decision.
func (r DoARule) Snapshot(at time.Time) RuleSnapshot {
	return RuleSnapshot{
		RuleID:              r.ID,
		AuthorityType:       r.AuthorityType,
		AuthorityID:         r.AuthorityID,
		CategoryID:          r.CategoryID,
		ScopeID:             r.ScopeID,
		LimitMin:            r.LimitMin,
		LimitMax:            r.LimitMax,
		Currency:            r.Currency,
		EvidenceRequired:    r.EvidenceRequired,
		EscalationMandatory: r.EscalationMandatory,
		ResolvedAt:          at,
	}
}

// AuthorityRef returns the frozen authority body reference.
func (s RuleSnapshot) AuthorityRef() AuthorityRef {
	return AuthorityRef{Type: s.AuthorityType, BodyID: s.AuthorityID}
}
