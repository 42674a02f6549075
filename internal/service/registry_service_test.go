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

type registryFixture struct {
	svc        *RegistryService
	rules      *mockRuleRepo
	categoryID string
	scopeID    string
	chiefID    string
	boardID    string
	admin      domain.ActorRef
	clerk      domain.ActorRef
}

func newRegistryFixture(t *testing.T) *registryFixture {
	t.Helper()
	ctx := context.Background()
	rules := newMockRuleRepo()
	dirRepo := newMockDirectoryRepo()

	chief := &domain.Designation{Title: "Chief Manager", Rank: 3, IsActive: true}
	if err := dirRepo.CreateDesignation(ctx, chief); err != nil {
		t.Fatalf("seed designation: %v", err)
	}
	board := &domain.Committee{Name: "Board", QuorumMin: 3, IsActive: true}
	if err := dirRepo.CreateCommittee(ctx, board); err != nil {
		t.Fatalf("seed committee: %v", err)
	}

	svc := NewRegistryService(RegistryDependencies{
		RuleRepo:  rules,
		Directory: directory.New(dirRepo),
		RuleCache: cache.NewRuleCache(nil, 0, zap.NewNop()),
		Logger:    zap.NewNop(),
	})

	admin := domain.PostingActor("post-admin", true)
	category, err := svc.CreateCategory(ctx, admin, "CAPEX", "Capital Expenditure")
	if err != nil {
		t.Fatalf("seed category: %v", err)
	}
	scope, err := svc.CreateScope(ctx, admin, "PROCUREMENT", "Procurement")
	if err != nil {
		t.Fatalf("seed scope: %v", err)
	}

	return &registryFixture{
		svc:        svc,
		rules:      rules,
		categoryID: category.ID,
		scopeID:    scope.ID,
		chiefID:    chief.ID,
		boardID:    board.ID,
		admin:      admin,
		clerk:      domain.PostingActor("post-clerk", false),
	}
}

func (f *registryFixture) ruleInput(authorityID string, min, max *int64) RuleInput {
	return RuleInput{
		AuthorityType: domain.BodyTypeDesignation,
		AuthorityID:   authorityID,
		CategoryID:    f.categoryID,
		ScopeID:       f.scopeID,
		LimitMin:      min,
		LimitMax:      max,
		IsActive:      true,
	}
}

func TestRegistryWritesRequireAdmin(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()

	if _, err := f.svc.CreateCategory(ctx, f.clerk, "OPEX", "Operating Expenditure"); apperrors.Code(err) != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN for non-admin, got %v", err)
	}
	if _, err := f.svc.CreateRule(ctx, f.clerk, f.ruleInput(f.chiefID, i64Ptr(0), i64Ptr(1000))); apperrors.Code(err) != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN for non-admin rule write, got %v", err)
	}
}

func TestCreateRuleRejectsOverlap(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateRule(ctx, f.admin, f.ruleInput(f.chiefID, i64Ptr(0), i64Ptr(10_000_000)))
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}
	if first.Currency != "INR" {
		t.Fatalf("currency must default to INR, got %s", first.Currency)
	}

	_, err = f.svc.CreateRule(ctx, f.admin, f.ruleInput(f.chiefID, i64Ptr(5_000_000), i64Ptr(20_000_000)))
	if apperrors.Code(err) != "CONFIGURATION_ERROR" {
		t.Fatalf("overlapping band must be CONFIGURATION_ERROR, got %v", err)
	}

	// Adjacent band is fine.
	if _, err := f.svc.CreateRule(ctx, f.admin, f.ruleInput(f.chiefID, i64Ptr(10_000_001), i64Ptr(20_000_000))); err != nil {
		t.Fatalf("adjacent band must be accepted: %v", err)
	}
}

func TestCreateRuleValidation(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()

	input := f.ruleInput(f.chiefID, i64Ptr(100), i64Ptr(10))
	if _, err := f.svc.CreateRule(ctx, f.admin, input); apperrors.Code(err) != "VALIDATION_FAILED" {
		t.Fatalf("inverted band must fail validation, got %v", err)
	}

	input = f.ruleInput("des-missing", i64Ptr(0), i64Ptr(10))
	if _, err := f.svc.CreateRule(ctx, f.admin, input); apperrors.Code(err) != "NOT_FOUND" {
		t.Fatalf("unknown designation must be NOT_FOUND, got %v", err)
	}

	input = f.ruleInput(f.chiefID, i64Ptr(0), i64Ptr(10))
	input.CategoryID = "cat-missing"
	if _, err := f.svc.CreateRule(ctx, f.admin, input); apperrors.Code(err) != "NOT_FOUND" {
		t.Fatalf("unknown category must be NOT_FOUND, got %v", err)
	}

	committeeInput := f.ruleInput(f.boardID, i64Ptr(0), nil)
	committeeInput.AuthorityType = domain.BodyTypeCommittee
	if _, err := f.svc.CreateRule(ctx, f.admin, committeeInput); err != nil {
		t.Fatalf("committee-held rule must be accepted: %v", err)
	}
}

func TestUpdateRuleExcludesSelfFromOverlapCheck(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()

	rule, err := f.svc.CreateRule(ctx, f.admin, f.ruleInput(f.chiefID, i64Ptr(0), i64Ptr(10_000_000)))
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}

	// Shrinking its own band overlaps only itself, which must not conflict.
	input := f.ruleInput(f.chiefID, i64Ptr(0), i64Ptr(5_000_000))
	updated, err := f.svc.UpdateRule(ctx, f.admin, rule.ID, input)
	if err != nil {
		t.Fatalf("update rule: %v", err)
	}
	if updated.LimitMax == nil || *updated.LimitMax != 5_000_000 {
		t.Fatalf("band update not applied: %+v", updated)
	}
}

func TestDeactivateRuleIsIdempotent(t *testing.T) {
	f := newRegistryFixture(t)
	ctx := context.Background()

	rule, err := f.svc.CreateRule(ctx, f.admin, f.ruleInput(f.chiefID, i64Ptr(0), i64Ptr(10_000_000)))
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}

	deactivated, err := f.svc.DeactivateRule(ctx, f.admin, rule.ID)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if deactivated.IsActive {
		t.Fatal("rule must be inactive after deactivation")
	}

	if _, err := f.svc.DeactivateRule(ctx, f.admin, rule.ID); err != nil {
		t.Fatalf("second deactivation must be a no-op: %v", err)
	}

	// The retired band frees the range for a successor rule.
	if _, err := f.svc.CreateRule(ctx, f.admin, f.ruleInput(f.chiefID, i64Ptr(0), i64Ptr(10_000_000))); err != nil {
		t.Fatalf("retired band must not block a replacement: %v", err)
	}
}
