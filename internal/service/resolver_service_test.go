package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/governance-service/internal/cache"
	"github.com/spec-kit/governance-service/internal/directory"
	"github.com/spec-kit/governance-service/internal/domain"
	apperrors "github.com/spec-kit/governance-service/pkg/util"
)

const (
	testCategory = "cat-capex"
	testScope    = "scope-procurement"
)

func newResolverFixture() (*ResolverService, *mockRuleRepo, *mockDirectoryRepo) {
	rules := newMockRuleRepo()
	dirRepo := newMockDirectoryRepo()
	svc := NewResolverService(ResolverDependencies{
		RuleRepo:  rules,
		Directory: directory.New(dirRepo),
		RuleCache: cache.NewRuleCache(nil, 0, zap.NewNop()),
		Logger:    zap.NewNop(),
	})
	return svc, rules, dirRepo
}

func seedRule(t *testing.T, rules *mockRuleRepo, authorityID string, min, max *int64, escalation bool) domain.DoARule {
	t.Helper()
	rule := &domain.DoARule{
		AuthorityType:       domain.BodyTypeDesignation,
		AuthorityID:         authorityID,
		CategoryID:          testCategory,
		ScopeID:             testScope,
		LimitMin:            min,
		LimitMax:            max,
		Currency:            "INR",
		EscalationMandatory: escalation,
		IsActive:            true,
	}
	if err := rules.CreateRule(context.Background(), rule); err != nil {
		t.Fatalf("seed rule: %v", err)
	}
	return *rule
}

func TestResolveAuthorityPicksContainingBand(t *testing.T) {
	svc, rules, _ := newResolverFixture()
	chief := seedRule(t, rules, "des-chief-manager", i64Ptr(0), i64Ptr(10_000_000), false)
	general := seedRule(t, rules, "des-general-manager", i64Ptr(10_000_001), i64Ptr(100_000_000), true)

	resolution, err := svc.ResolveAuthority(context.Background(), testCategory, testScope, 5_000_000)
	if err != nil {
		t.Fatalf("resolve 5M: %v", err)
	}
	if resolution.Rule.ID != chief.ID {
		t.Fatalf("expected chief manager band, got rule %s", resolution.Rule.ID)
	}
	if resolution.Ambiguous {
		t.Fatal("non-overlapping bands must not be flagged ambiguous")
	}

	resolution, err = svc.ResolveAuthority(context.Background(), testCategory, testScope, 50_000_000)
	if err != nil {
		t.Fatalf("resolve 50M: %v", err)
	}
	if resolution.Rule.ID != general.ID {
		t.Fatalf("expected general manager band, got rule %s", resolution.Rule.ID)
	}
	if resolution.Authority.BodyID != "des-general-manager" {
		t.Fatalf("unexpected authority %s", resolution.Authority.BodyID)
	}
}

func TestResolveAuthorityNoBandRequiresEscalation(t *testing.T) {
	svc, rules, _ := newResolverFixture()
	seedRule(t, rules, "des-chief-manager", i64Ptr(0), i64Ptr(10_000_000), false)

	_, err := svc.ResolveAuthority(context.Background(), testCategory, testScope, 150_000_000)
	if err == nil {
		t.Fatal("expected error for uncovered amount")
	}
	if apperrors.Code(err) != "ESCALATION_REQUIRED" {
		t.Fatalf("expected ESCALATION_REQUIRED, got %s", apperrors.Code(err))
	}
}

func TestResolveAuthorityOverlapPicksMostConservative(t *testing.T) {
	svc, rules, _ := newResolverFixture()
	bounded := seedRule(t, rules, "des-chief-manager", i64Ptr(0), i64Ptr(10_000_000), false)
	seedRule(t, rules, "des-board", i64Ptr(0), nil, false)

	resolution, err := svc.ResolveAuthority(context.Background(), testCategory, testScope, 5_000_000)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !resolution.Ambiguous {
		t.Fatal("overlapping bands must be flagged ambiguous")
	}
	if resolution.Rule.ID != bounded.ID {
		t.Fatalf("expected bounded band to win, got %s", resolution.Rule.ID)
	}
}

func TestValidateAuthority(t *testing.T) {
	svc, rules, _ := newResolverFixture()
	seedRule(t, rules, "des-chief-manager", i64Ptr(0), i64Ptr(10_000_000), true)
	seedRule(t, rules, "des-general-manager", i64Ptr(10_000_001), i64Ptr(100_000_000), false)

	chief := domain.AuthorityRef{Type: domain.BodyTypeDesignation, BodyID: "des-chief-manager"}
	general := domain.AuthorityRef{Type: domain.BodyTypeDesignation, BodyID: "des-general-manager"}

	validation, err := svc.ValidateAuthority(context.Background(), chief, testCategory, testScope, 5_000_000)
	if err != nil {
		t.Fatalf("validate within band: %v", err)
	}
	if !validation.Valid {
		t.Fatalf("expected valid, got reason %s", validation.Reason)
	}

	validation, err = svc.ValidateAuthority(context.Background(), chief, testCategory, testScope, 20_000_000)
	if err != nil {
		t.Fatalf("validate above band: %v", err)
	}
	if validation.Valid || validation.Reason != ReasonExceedsLimit {
		t.Fatalf("expected EXCEEDS_LIMIT, got valid=%v reason=%s", validation.Valid, validation.Reason)
	}
	if !validation.EscalationMandatory {
		t.Fatal("expected mandatory escalation flag from the held band")
	}

	validation, err = svc.ValidateAuthority(context.Background(), general, testCategory, testScope, 5_000_000)
	if err != nil {
		t.Fatalf("validate below band: %v", err)
	}
	if validation.Valid || validation.Reason != ReasonBelowMin {
		t.Fatalf("expected BELOW_MIN, got valid=%v reason=%s", validation.Valid, validation.Reason)
	}

	unknown := domain.AuthorityRef{Type: domain.BodyTypeDesignation, BodyID: "des-clerk"}
	validation, err = svc.ValidateAuthority(context.Background(), unknown, testCategory, testScope, 5_000_000)
	if err != nil {
		t.Fatalf("validate no rule: %v", err)
	}
	if validation.Valid || validation.Reason != ReasonNoRule {
		t.Fatalf("expected NO_RULE, got valid=%v reason=%s", validation.Valid, validation.Reason)
	}
}

func TestCanInitiate(t *testing.T) {
	svc, rules, dirRepo := newResolverFixture()
	seedRule(t, rules, "des-chief-manager", i64Ptr(0), i64Ptr(10_000_000), false)

	holder := &domain.Posting{PersonName: "A. Rao", UnitID: "unit-1", DesignationID: "des-chief-manager", Active: true}
	if err := dirRepo.CreatePosting(context.Background(), holder); err != nil {
		t.Fatalf("seed posting: %v", err)
	}
	outsider := &domain.Posting{PersonName: "B. Iyer", UnitID: "unit-1", DesignationID: "des-clerk", Active: true}
	if err := dirRepo.CreatePosting(context.Background(), outsider); err != nil {
		t.Fatalf("seed posting: %v", err)
	}

	ok, err := svc.CanInitiate(context.Background(), holder.ID, testScope)
	if err != nil {
		t.Fatalf("can initiate: %v", err)
	}
	if !ok {
		t.Fatal("delegation holder should be able to initiate")
	}

	ok, err = svc.CanInitiate(context.Background(), outsider.ID, testScope)
	if err != nil {
		t.Fatalf("can initiate outsider: %v", err)
	}
	if ok {
		t.Fatal("posting without delegation must not initiate")
	}
}
