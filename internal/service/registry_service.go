package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/governance-service/internal/cache"
	"github.com/spec-kit/governance-service/internal/directory"
	"github.com/spec-kit/governance-service/internal/domain"
	"github.com/spec-kit/governance-service/internal/repository"
	apperrors "github.com/spec-kit/governance-service/pkg/util"
)

// RegistryService administers the rule registry: decision categories,
// functional scopes and delegation rules. Writes are admin-only and rule
// writes reject band overlaps instead of deferring the defect to resolution
// time.
type RegistryService struct {
	rules  repository.RuleRepository
	dir    *directory.Directory
	cache  *cache.RuleCache
	logger *zap.Logger
}

// RegistryDependencies bundles collaborators for the registry.
type RegistryDependencies struct {
	RuleRepo  repository.RuleRepository
	Directory *directory.Directory
	RuleCache *cache.RuleCache
	Logger    *zap.Logger
}

// NewRegistryService constructs the service.
func NewRegistryService(deps RegistryDependencies) *RegistryService {
	return &RegistryService{
		rules:  deps.RuleRepo,
		dir:    deps.Directory,
		cache:  deps.RuleCache,
		logger: deps.Logger,
	}
}

func requireAdminActor(actor domain.ActorRef) error {
	if actor.Type == domain.ActorTypeSystem {
		return nil
	}
	if !actor.Admin {
		return apperrors.NewForbidden("registry writes require an administrator")
	}
	return nil
}

// CreateCategory registers a decision category. Categories are append-only.
func (s *RegistryService) CreateCategory(ctx context.Context, actor domain.ActorRef, code, name string) (*domain.DecisionCategory, error) {
	if err := requireAdminActor(actor); err != nil {
		return nil, err
	}
	if code == "" || name == "" {
		return nil, apperrors.NewValidationError("code and name are required", nil)
	}
	category := &domain.DecisionCategory{Code: code, Name: name}
	if err := s.rules.CreateCategory(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// ListCategories returns all decision categories.
func (s *RegistryService) ListCategories(ctx context.Context) ([]domain.DecisionCategory, error) {
	categories, err := s.rules.ListCategories(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return categories, nil
}

// CreateScope registers a functional scope. Scopes are append-only.
func (s *RegistryService) CreateScope(ctx context.Context, actor domain.ActorRef, code, name string) (*domain.FunctionalScope, error) {
	if err := requireAdminActor(actor); err != nil {
		return nil, err
	}
	if code == "" || name == "" {
		return nil, apperrors.NewValidationError("code and name are required", nil)
	}
	scope := &domain.FunctionalScope{Code: code, Name: name}
	if err := s.rules.CreateScope(ctx, scope); err != nil {
		return nil, apperrors.MapError(err)
	}
	return scope, nil
}

// ListScopes returns all functional scopes.
func (s *RegistryService) ListScopes(ctx context.Context) ([]domain.FunctionalScope, error) {
	scopes, err := s.rules.ListScopes(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return scopes, nil
}

// RuleInput carries the fields for creating or updating a delegation rule.
type RuleInput struct {
	AuthorityType       domain.BodyType
	AuthorityID         string
	CategoryID          string
	ScopeID             string
	LimitMin            *int64
	LimitMax            *int64
	Currency            string
	EvidenceRequired    bool
	EscalationMandatory bool
	IsActive            bool
}

// CreateRule registers a delegation rule after validating the band and
// rejecting overlaps with the pair's existing active rules.
func (s *RegistryService) CreateRule(ctx context.Context, actor domain.ActorRef, input RuleInput) (*domain.DoARule, error) {
	if err := requireAdminActor(actor); err != nil {
		return nil, err
	}
	rule := &domain.DoARule{
		AuthorityType:       input.AuthorityType,
		AuthorityID:         input.AuthorityID,
		CategoryID:          input.CategoryID,
		ScopeID:             input.ScopeID,
		LimitMin:            input.LimitMin,
		LimitMax:            input.LimitMax,
		Currency:            input.Currency,
		EvidenceRequired:    input.EvidenceRequired,
		EscalationMandatory: input.EscalationMandatory,
		IsActive:            input.IsActive,
	}
	if rule.Currency == "" {
		rule.Currency = "INR"
	}
	if err := s.validateRule(ctx, rule, ""); err != nil {
		return nil, err
	}
	if err := s.rules.CreateRule(ctx, rule); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.cache.Invalidate(ctx, rule.CategoryID, rule.ScopeID)
	return rule, nil
}

// UpdateRule rewrites a rule's authority, band and flags. The (category,
// scope) pair is fixed at creation; overlap validation excludes the rule
// itself.
func (s *RegistryService) UpdateRule(ctx context.Context, actor domain.ActorRef, ruleID string, input RuleInput) (*domain.DoARule, error) {
	if err := requireAdminActor(actor); err != nil {
		return nil, err
	}
	existing, err := s.rules.GetRule(ctx, ruleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("rule", map[string]any{"rule_id": ruleID})
		}
		return nil, apperrors.MapError(err)
	}

	rule := *existing
	rule.AuthorityType = input.AuthorityType
	rule.AuthorityID = input.AuthorityID
	rule.LimitMin = input.LimitMin
	rule.LimitMax = input.LimitMax
	rule.EvidenceRequired = input.EvidenceRequired
	rule.EscalationMandatory = input.EscalationMandatory
	rule.IsActive = input.IsActive
	if input.Currency != "" {
		rule.Currency = input.Currency
	}
	if err := s.validateRule(ctx, &rule, ruleID); err != nil {
		return nil, err
	}
	if err := s.rules.UpdateRule(ctx, &rule); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("rule", map[string]any{"rule_id": ruleID})
		}
		return nil, apperrors.MapError(err)
	}
	s.cache.Invalidate(ctx, rule.CategoryID, rule.ScopeID)
	return &rule, nil
}

// DeactivateRule retires a rule. Frozen snapshots on in-flight decisions are
// unaffected.
func (s *RegistryService) DeactivateRule(ctx context.Context, actor domain.ActorRef, ruleID string) (*domain.DoARule, error) {
	if err := requireAdminActor(actor); err != nil {
		return nil, err
	}
	rule, err := s.rules.GetRule(ctx, ruleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("rule", map[string]any{"rule_id": ruleID})
		}
		return nil, apperrors.MapError(err)
	}
	if !rule.IsActive {
		return rule, nil
	}
	rule.IsActive = false
	if err := s.rules.UpdateRule(ctx, rule); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.cache.Invalidate(ctx, rule.CategoryID, rule.ScopeID)
	return rule, nil
}

// GetRule loads a single rule.
func (s *RegistryService) GetRule(ctx context.Context, ruleID string) (*domain.DoARule, error) {
	rule, err := s.rules.GetRule(ctx, ruleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("rule", map[string]any{"rule_id": ruleID})
		}
		return nil, apperrors.MapError(err)
	}
	return rule, nil
}

// ListRules returns the pair's active rules ordered by band.
func (s *RegistryService) ListRules(ctx context.Context, categoryID, scopeID string) ([]domain.DoARule, error) {
	rules, err := s.rules.ListByCategoryScope(ctx, categoryID, scopeID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return rules, nil
}

// validateRule checks referential integrity, band sanity and overlap with the
// pair's active rules. excludeID skips the rule being updated.
func (s *RegistryService) validateRule(ctx context.Context, rule *domain.DoARule, excludeID string) error {
	if rule.AuthorityID == "" {
		return apperrors.NewValidationError("authority_id is required", nil)
	}
	if rule.LimitMin != nil && rule.LimitMax != nil && *rule.LimitMin > *rule.LimitMax {
		return apperrors.NewValidationError("limit_min exceeds limit_max", map[string]any{
			"limit_min": *rule.LimitMin,
			"limit_max": *rule.LimitMax,
		})
	}
	if _, err := s.rules.GetCategory(ctx, rule.CategoryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("decision category", map[string]any{"category_id": rule.CategoryID})
		}
		return apperrors.MapError(err)
	}
	if _, err := s.rules.GetScope(ctx, rule.ScopeID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("functional scope", map[string]any{"scope_id": rule.ScopeID})
		}
		return apperrors.MapError(err)
	}

	switch rule.AuthorityType {
	case domain.BodyTypeDesignation:
		if _, err := s.dir.GetDesignation(ctx, rule.AuthorityID); err != nil {
			return err
		}
	case domain.BodyTypeCommittee:
		if _, err := s.dir.GetCommittee(ctx, rule.AuthorityID); err != nil {
			return err
		}
	default:
		return apperrors.NewValidationError("authority_type must be DESIGNATION or COMMITTEE", map[string]any{
			"authority_type": rule.AuthorityType,
		})
	}

	if !rule.IsActive {
		return nil
	}
	active, err := s.rules.ListByCategoryScope(ctx, rule.CategoryID, rule.ScopeID)
	if err != nil {
		return apperrors.MapError(err)
	}
	for _, other := range active {
		if other.ID == excludeID {
			continue
		}
		if rule.Overlaps(other) {
			return apperrors.NewConfigurationError("delegation band overlaps an existing rule", map[string]any{
				"conflicting_rule_id": other.ID,
			})
		}
	}
	return nil
}
