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

type decisionFixture struct {
	svc       *DecisionService
	rules     *mockRuleRepo
	dirRepo   *mockDirectoryRepo
	decisions *mockDecisionRepo
	audit     *mockAuditRepo
	initiator domain.ActorRef
	approver  domain.ActorRef
	outsider  domain.ActorRef
}

// newDecisionFixture seeds a chief-manager band [0, 10M] held by the approver's
// designation; the initiator holds a small band in the same scope so drafting
// is permitted.
func newDecisionFixture(t *testing.T) *decisionFixture {
	t.Helper()
	rules := newMockRuleRepo()
	dirRepo := newMockDirectoryRepo()
	decisions := newMockDecisionRepo()
	audit := &mockAuditRepo{}
	dir := directory.New(dirRepo)

	resolver := NewResolverService(ResolverDependencies{
		RuleRepo:  rules,
		Directory: dir,
		RuleCache: cache.NewRuleCache(nil, 0, zap.NewNop()),
		Logger:    zap.NewNop(),
	})
	svc := NewDecisionService(DecisionDependencies{
		DecisionRepo: decisions,
		AuditRepo:    audit,
		Resolver:     resolver,
		Directory:    dir,
		TxRunner:     fakeTxRunner{},
		Logger:       zap.NewNop(),
	})

	seedRule(t, rules, "des-chief-manager", i64Ptr(0), i64Ptr(10_000_000), false)
	seedRule(t, rules, "des-officer", i64Ptr(0), i64Ptr(100_000), false)

	ctx := context.Background()
	initiatorPosting := &domain.Posting{PersonName: "A. Rao", UnitID: "unit-1", DesignationID: "des-officer", Active: true}
	if err := dirRepo.CreatePosting(ctx, initiatorPosting); err != nil {
		t.Fatalf("seed initiator: %v", err)
	}
	approverPosting := &domain.Posting{PersonName: "S. Menon", UnitID: "unit-1", DesignationID: "des-chief-manager", Active: true}
	if err := dirRepo.CreatePosting(ctx, approverPosting); err != nil {
		t.Fatalf("seed approver: %v", err)
	}
	outsiderPosting := &domain.Posting{PersonName: "B. Iyer", UnitID: "unit-2", DesignationID: "des-clerk", Active: true}
	if err := dirRepo.CreatePosting(ctx, outsiderPosting); err != nil {
		t.Fatalf("seed outsider: %v", err)
	}

	return &decisionFixture{
		svc:       svc,
		rules:     rules,
		dirRepo:   dirRepo,
		decisions: decisions,
		audit:     audit,
		initiator: domain.PostingActor(initiatorPosting.ID, false),
		approver:  domain.PostingActor(approverPosting.ID, false),
		outsider:  domain.PostingActor(outsiderPosting.ID, false),
	}
}

func (f *decisionFixture) draft(t *testing.T, amount int64) *domain.Decision {
	t.Helper()
	decision, err := f.svc.CreateDraft(context.Background(), f.initiator, DraftInput{
		CategoryID:    testCategory,
		ScopeID:       testScope,
		Subject:       "procure test rigs",
		Justification: "capacity expansion",
		AmountMinor:   amount,
	})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	return decision
}

func TestCreateDraftRequiresScopeDelegation(t *testing.T) {
	f := newDecisionFixture(t)
	_, err := f.svc.CreateDraft(context.Background(), f.outsider, DraftInput{
		CategoryID:    testCategory,
		ScopeID:       testScope,
		Subject:       "x",
		Justification: "y",
		AmountMinor:   100,
	})
	if apperrors.Code(err) != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestSubmitFreezesRuleSnapshot(t *testing.T) {
	f := newDecisionFixture(t)
	decision := f.draft(t, 5_000_000)

	submitted, err := f.svc.Submit(context.Background(), f.initiator, decision.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if submitted.Status != domain.DecisionStatusPendingApproval {
		t.Fatalf("expected PENDING_APPROVAL, got %s", submitted.Status)
	}
	if submitted.Rule == nil {
		t.Fatal("submit must freeze the resolved rule")
	}
	if submitted.Rule.AuthorityID != "des-chief-manager" {
		t.Fatalf("unexpected frozen authority %s", submitted.Rule.AuthorityID)
	}
}

func TestSubmitWithoutCoveringBandEscalates(t *testing.T) {
	f := newDecisionFixture(t)
	decision := f.draft(t, 500_000_000)

	escalated, err := f.svc.Submit(context.Background(), f.initiator, decision.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if escalated.Status != domain.DecisionStatusEscalated {
		t.Fatalf("expected ESCALATED, got %s", escalated.Status)
	}

	trail, err := f.svc.ReadTrail(context.Background(), decision.ID)
	if err != nil {
		t.Fatalf("read trail: %v", err)
	}
	if len(trail) != 1 {
		t.Fatalf("expected one trail entry, got %d", len(trail))
	}
	if trail[0].ActorType != domain.ActorTypeSystem {
		t.Fatalf("forced escalation must be recorded as a system action, got %s", trail[0].ActorType)
	}
}

func TestSubmitCommitteeRoutedRequiresCommitteeBand(t *testing.T) {
	f := newDecisionFixture(t)
	ctx := context.Background()
	decision, err := f.svc.CreateDraft(ctx, f.initiator, DraftInput{
		CategoryID:      testCategory,
		ScopeID:         testScope,
		Subject:         "procure test rigs",
		Justification:   "capacity expansion",
		AmountMinor:     5_000_000,
		CommitteeRouted: true,
	})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}

	// Only designation-held bands cover this amount.
	_, err = f.svc.Submit(ctx, f.initiator, decision.ID)
	if apperrors.Code(err) != "CONFIGURATION_ERROR" {
		t.Fatalf("expected CONFIGURATION_ERROR, got %v", err)
	}

	unchanged, err := f.svc.Get(ctx, decision.ID)
	if err != nil {
		t.Fatalf("reload decision: %v", err)
	}
	if unchanged.Status != domain.DecisionStatusDraft {
		t.Fatalf("routing mismatch must leave the decision in DRAFT, got %s", unchanged.Status)
	}
}

func TestSanctionByOccupantResolvesDecision(t *testing.T) {
	f := newDecisionFixture(t)
	decision := f.draft(t, 5_000_000)
	if _, err := f.svc.Submit(context.Background(), f.initiator, decision.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	sanctioned, err := f.svc.ApplyAction(context.Background(), f.approver, decision.ID, domain.ActionSanction, "approved")
	if err != nil {
		t.Fatalf("sanction: %v", err)
	}
	if sanctioned.Status != domain.DecisionStatusSanctioned {
		t.Fatalf("expected SANCTIONED, got %s", sanctioned.Status)
	}
	if sanctioned.ResolvedAt == nil {
		t.Fatal("terminal decision must carry a resolution timestamp")
	}
}

func TestActionOnTerminalDecisionRejected(t *testing.T) {
	f := newDecisionFixture(t)
	decision := f.draft(t, 5_000_000)
	ctx := context.Background()
	if _, err := f.svc.Submit(ctx, f.initiator, decision.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.svc.ApplyAction(ctx, f.approver, decision.ID, domain.ActionSanction, "approved"); err != nil {
		t.Fatalf("sanction: %v", err)
	}

	before, _ := f.svc.ReadTrail(ctx, decision.ID)
	_, err := f.svc.ApplyAction(ctx, f.approver, decision.ID, domain.ActionSanction, "again")
	if apperrors.Code(err) != "INVALID_TRANSITION" {
		t.Fatalf("expected INVALID_TRANSITION, got %v", err)
	}
	after, _ := f.svc.ReadTrail(ctx, decision.ID)
	if len(after) != len(before) {
		t.Fatalf("rejected action must not grow the trail: %d -> %d", len(before), len(after))
	}
}

func TestSanctionByNonOccupantUnauthorized(t *testing.T) {
	f := newDecisionFixture(t)
	decision := f.draft(t, 5_000_000)
	ctx := context.Background()
	if _, err := f.svc.Submit(ctx, f.initiator, decision.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, err := f.svc.ApplyAction(ctx, f.outsider, decision.ID, domain.ActionSanction, "")
	if apperrors.Code(err) != "UNAUTHORIZED" {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestQueryAndRespondRoundTrip(t *testing.T) {
	f := newDecisionFixture(t)
	decision := f.draft(t, 5_000_000)
	ctx := context.Background()
	if _, err := f.svc.Submit(ctx, f.initiator, decision.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := f.svc.ApplyAction(ctx, f.approver, decision.ID, domain.ActionQuery, ""); apperrors.Code(err) != "VALIDATION_FAILED" {
		t.Fatalf("query without notes must fail validation, got %v", err)
	}

	queried, err := f.svc.ApplyAction(ctx, f.approver, decision.ID, domain.ActionQuery, "need vendor quotes")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if queried.Status != domain.DecisionStatusQueryRaised {
		t.Fatalf("expected QUERY_RAISED, got %s", queried.Status)
	}

	if _, err := f.svc.ApplyAction(ctx, f.approver, decision.ID, domain.ActionRespond, "quotes attached"); apperrors.Code(err) != "UNAUTHORIZED" {
		t.Fatalf("only the initiator may respond, got %v", err)
	}

	responded, err := f.svc.ApplyAction(ctx, f.initiator, decision.ID, domain.ActionRespond, "quotes attached")
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if responded.Status != domain.DecisionStatusPendingApproval {
		t.Fatalf("expected PENDING_APPROVAL after response, got %s", responded.Status)
	}
}

func TestReadTrailOrdersMostRecentFirst(t *testing.T) {
	f := newDecisionFixture(t)
	decision := f.draft(t, 5_000_000)
	ctx := context.Background()
	if _, err := f.svc.Submit(ctx, f.initiator, decision.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.svc.ApplyAction(ctx, f.approver, decision.ID, domain.ActionQuery, "need vendor quotes"); err != nil {
		t.Fatalf("query: %v", err)
	}
	if _, err := f.svc.ApplyAction(ctx, f.initiator, decision.ID, domain.ActionRespond, "quotes attached"); err != nil {
		t.Fatalf("respond: %v", err)
	}
	if _, err := f.svc.ApplyAction(ctx, f.approver, decision.ID, domain.ActionSanction, "approved"); err != nil {
		t.Fatalf("sanction: %v", err)
	}

	trail, err := f.svc.ReadTrail(ctx, decision.ID)
	if err != nil {
		t.Fatalf("read trail: %v", err)
	}
	if len(trail) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(trail))
	}
	if trail[0].NewStatus != domain.DecisionStatusSanctioned {
		t.Fatalf("newest entry must lead, got %s", trail[0].NewStatus)
	}
	if trail[3].NewStatus != domain.DecisionStatusPendingApproval || trail[3].PriorStatus != domain.DecisionStatusDraft {
		t.Fatalf("oldest entry must be the submission, got %s -> %s", trail[3].PriorStatus, trail[3].NewStatus)
	}
}

func TestWithdrawDeclinesDraft(t *testing.T) {
	f := newDecisionFixture(t)
	decision := f.draft(t, 5_000_000)

	withdrawn, err := f.svc.Withdraw(context.Background(), f.initiator, decision.ID, "superseded")
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if withdrawn.Status != domain.DecisionStatusDeclined {
		t.Fatalf("expected DECLINED, got %s", withdrawn.Status)
	}

	_, err = f.svc.Withdraw(context.Background(), f.initiator, decision.ID, "again")
	if apperrors.Code(err) != "INVALID_TRANSITION" {
		t.Fatalf("expected INVALID_TRANSITION on second withdraw, got %v", err)
	}
}

func TestUpdateDraftLockedAfterSubmit(t *testing.T) {
	f := newDecisionFixture(t)
	decision := f.draft(t, 5_000_000)
	ctx := context.Background()
	if _, err := f.svc.Submit(ctx, f.initiator, decision.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, err := f.svc.UpdateDraft(ctx, f.initiator, decision.ID, DraftInput{
		CategoryID:    testCategory,
		ScopeID:       testScope,
		Subject:       "changed",
		Justification: "changed",
		AmountMinor:   1,
	})
	if apperrors.Code(err) != "INVALID_TRANSITION" {
		t.Fatalf("expected INVALID_TRANSITION, got %v", err)
	}
}
