package dto

import (
	"time"

	"github.com/spec-kit/governance-service/internal/domain"
)

// CreateCategoryRequest payload.
type CreateCategoryRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// CategoryResponse view.
type CategoryResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateScopeRequest payload.
type CreateScopeRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ScopeResponse view.
type ScopeResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// RuleRequest payload for creating or updating a delegation rule.
type RuleRequest struct {
	AuthorityType       domain.BodyType `json:"authority_type"`
	AuthorityID         string          `json:"authority_id"`
	CategoryID          string          `json:"category_id"`
	ScopeID             string          `json:"scope_id"`
	LimitMin            *int64          `json:"limit_min"`
	LimitMax            *int64          `json:"limit_max"`
	Currency            string          `json:"currency"`
	EvidenceRequired    bool            `json:"evidence_required"`
	EscalationMandatory bool            `json:"escalation_mandatory"`
	IsActive            bool            `json:"is_active"`
}

// RuleResponse view.
type RuleResponse struct {
	ID                  string          `json:"id"`
	AuthorityType       domain.BodyType `json:"authority_type"`
	AuthorityID         string          `json:"authority_id"`
	CategoryID          string          `json:"category_id"`
	ScopeID             string          `json:"scope_id"`
	LimitMin            *int64          `json:"limit_min"`
	LimitMax            *int64          `json:"limit_max"`
	Currency            string          `json:"currency"`
	EvidenceRequired    bool            `json:"evidence_required"`
	EscalationMandatory bool            `json:"escalation_mandatory"`
	IsActive            bool            `json:"is_active"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}
