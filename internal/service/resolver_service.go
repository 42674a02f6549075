package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/spec-kit/governance-service/internal/cache"
	"github.com/spec-kit/governance-service/internal/directory"
	"github.com/spec-kit/governance-service/internal/domain"
	"github.com/spec-kit/governance-service/internal/repository"
	apperrors "github.com/spec-kit/governance-service/pkg/util"
)

// ValidationReason explains why a claimed authority is invalid.
type ValidationReason string

const (
	ReasonNoRule       ValidationReason = "NO_RULE"
	ReasonBelowMin     ValidationReason = "BELOW_MIN"
	ReasonExceedsLimit ValidationReason = "EXCEEDS_LIMIT"
)

// Resolution is the outcome of a successful authority lookup.
type Resolution struct {
	Rule      domain.DoARule
	Authority domain.AuthorityRef
	// Ambiguous flags a configuration defect: more than one band contained
	// the amount and the most conservative authority was chosen.
	Ambiguous bool
}

// Validation is the outcome of a claimed-authority check.
type Validation struct {
	Valid               bool
	Reason              ValidationReason
	EscalationMandatory bool
	Rule                *domain.DoARule
}

// ResolverService answers who is empowered to decide a given amount.
type ResolverService struct {
	rules  repository.RuleRepository
	dir    *directory.Directory
	cache  *cache.RuleCache
	logger *zap.Logger
}

// ResolverDependencies bundles collaborators for the resolver.
type ResolverDependencies struct {
	RuleRepo  repository.RuleRepository
	Directory *directory.Directory
	RuleCache *cache.RuleCache
	Logger    *zap.Logger
}

// NewResolverService constructs the service.
func NewResolverService(deps ResolverDependencies) *ResolverService {
	return &ResolverService{
		rules:  deps.RuleRepo,
		dir:    deps.Directory,
		cache:  deps.RuleCache,
		logger: deps.Logger,
	}
}

// ResolveAuthority finds the rule whose band contains the amount for the
// (category, scope) pair. When no band contains the amount it fails with
// ESCALATION_REQUIRED; the caller must treat that as escalation, never as
// "any authority may proceed". Overlapping bands are a configuration defect:
// the rule with the smallest upper limit wins deterministically and the
// ambiguity is logged.
func (s *ResolverService) ResolveAuthority(ctx context.Context, categoryID, scopeID string, amountMinor int64) (*Resolution, error) {
	rules, err := s.rulesForPair(ctx, categoryID, scopeID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	var containing []domain.DoARule
	for _, rule := range rules {
		if rule.Contains(amountMinor) {
			containing = append(containing, rule)
		}
	}
	if len(containing) == 0 {
		return nil, apperrors.NewEscalationRequired(map[string]any{
			"category_id":  categoryID,
			"scope_id":     scopeID,
			"amount_minor": amountMinor,
		})
	}

	ambiguous := len(containing) > 1
	if ambiguous {
		sort.SliceStable(containing, func(i, j int) bool {
			return moreConservative(containing[i], containing[j])
		})
		ids := make([]string, 0, len(containing))
		for _, rule := range containing {
			ids = append(ids, rule.ID)
		}
		s.logger.Warn("overlapping delegation bands; picking most conservative authority",
			zap.String("category_id", categoryID),
			zap.String("scope_id", scopeID),
			zap.Int64("amount_minor", amountMinor),
			zap.Strings("rule_ids", ids),
		)
	}

	winner := containing[0]
	return &Resolution{
		Rule:      winner,
		Authority: winner.AuthorityRef(),
		Ambiguous: ambiguous,
	}, nil
}

// moreConservative reports whether a's upper limit is strictly tighter than
// b's; an unbounded band is the least conservative of all.
func moreConservative(a, b domain.DoARule) bool {
	if a.LimitMax == nil {
		return false
	}
	if b.LimitMax == nil {
		return true
	}
	return *a.LimitMax < *b.LimitMax
}

// ValidateAuthority checks a claimed authority body against the registry for
// the (category, scope, amount) triple.
func (s *ResolverService) ValidateAuthority(ctx context.Context, body domain.AuthorityRef, categoryID, scopeID string, amountMinor int64) (*Validation, error) {
	rules, err := s.rulesForPair(ctx, categoryID, scopeID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	var held []domain.DoARule
	for _, rule := range rules {
		if rule.AuthorityType == body.Type && rule.AuthorityID == body.BodyID {
			held = append(held, rule)
		}
	}
	if len(held) == 0 {
		return &Validation{Valid: false, Reason: ReasonNoRule}, nil
	}

	// top is the least conservative band the body holds; its escalation flag
	// routes amounts above every held band.
	top := held[0]
	lowestMin := held[0].EffectiveMin()
	for _, rule := range held {
		if rule.Contains(amountMinor) {
			matched := rule
			return &Validation{Valid: true, Rule: &matched}, nil
		}
		if rule.EffectiveMin() < lowestMin {
			lowestMin = rule.EffectiveMin()
		}
		if moreConservative(top, rule) {
			top = rule
		}
	}

	if amountMinor < lowestMin {
		return &Validation{Valid: false, Reason: ReasonBelowMin}, nil
	}
	return &Validation{
		Valid:               false,
		Reason:              ReasonExceedsLimit,
		EscalationMandatory: top.EscalationMandatory,
		Rule:                &top,
	}, nil
}

// CanInitiate reports whether the posting's designation holds at least one
// rule in the functional scope; used as a gate before drafting a proposal.
func (s *ResolverService) CanInitiate(ctx context.Context, postingID, scopeID string) (bool, error) {
	posting, err := s.dir.GetPosting(ctx, postingID)
	if err != nil {
		return false, err
	}
	if !posting.Active {
		return false, nil
	}
	count, err := s.rules.CountByScopeAndAuthority(ctx, scopeID, domain.BodyTypeDesignation, posting.DesignationID)
	if err != nil {
		return false, apperrors.MapError(err)
	}
	return count > 0, nil
}

func (s *ResolverService) rulesForPair(ctx context.Context, categoryID, scopeID string) ([]domain.DoARule, error) {
	if cached, ok := s.cache.Get(ctx, categoryID, scopeID); ok {
		return cached, nil
	}
	rules, err := s.rules.ListByCategoryScope(ctx, categoryID, scopeID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, categoryID, scopeID, rules)
	return rules, nil
}
