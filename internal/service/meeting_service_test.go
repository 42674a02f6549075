package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/governance-service/internal/directory"
	"github.com/spec-kit/governance-service/internal/domain"
	"github.com/spec-kit/governance-service/internal/repository"
	apperrors "github.com/spec-kit/governance-service/pkg/util"
)

// staleMeetingReads serves unlocked meeting reads from a snapshot taken before
// a concurrent finalization committed; locked reads see current state.
type staleMeetingReads struct {
	repository.MeetingRepository
	stale domain.Meeting
}

func (r staleMeetingReads) GetMeeting(ctx context.Context, id string) (*domain.Meeting, error) {
	if id == r.stale.ID {
		copied := r.stale
		return &copied, nil
	}
	return r.MeetingRepository.GetMeeting(ctx, id)
}

type meetingFixture struct {
	svc         *MeetingService
	dirRepo     *mockDirectoryRepo
	decisions   *mockDecisionRepo
	audit       *mockAuditRepo
	meetings    *mockMeetingRepo
	committeeID string
	memberA     string
	memberB     string
	stranger    string
	member      domain.ActorRef
	nonMember   domain.ActorRef
}

// newMeetingFixture builds a two-member committee with quorum 2, one posting
// per designation, and a pending decision frozen to the committee.
func newMeetingFixture(t *testing.T) *meetingFixture {
	t.Helper()
	ctx := context.Background()
	dirRepo := newMockDirectoryRepo()
	decisions := newMockDecisionRepo()
	audit := &mockAuditRepo{}
	meetings := newMockMeetingRepo()
	dir := directory.New(dirRepo)

	svc := NewMeetingService(MeetingDependencies{
		MeetingRepo:  meetings,
		DecisionRepo: decisions,
		AuditRepo:    audit,
		Directory:    dir,
		TxRunner:     fakeTxRunner{},
		Logger:       zap.NewNop(),
	})

	a := &domain.Designation{Title: "Director Finance", Rank: 2, IsActive: true}
	b := &domain.Designation{Title: "Director Operations", Rank: 2, IsActive: true}
	s := &domain.Designation{Title: "Observer", Rank: 9, IsActive: true}
	for _, d := range []*domain.Designation{a, b, s} {
		if err := dirRepo.CreateDesignation(ctx, d); err != nil {
			t.Fatalf("seed designation: %v", err)
		}
	}

	committee := &domain.Committee{Name: "Credit Committee", QuorumMin: 2, IsActive: true}
	if err := dirRepo.CreateCommittee(ctx, committee); err != nil {
		t.Fatalf("seed committee: %v", err)
	}
	for _, designationID := range []string{a.ID, b.ID} {
		if err := dirRepo.AddCommitteeMember(ctx, committee.ID, designationID); err != nil {
			t.Fatalf("seed member: %v", err)
		}
	}

	memberPosting := &domain.Posting{PersonName: "S. Menon", UnitID: "unit-1", DesignationID: a.ID, Active: true}
	if err := dirRepo.CreatePosting(ctx, memberPosting); err != nil {
		t.Fatalf("seed posting: %v", err)
	}
	strangerPosting := &domain.Posting{PersonName: "B. Iyer", UnitID: "unit-1", DesignationID: s.ID, Active: true}
	if err := dirRepo.CreatePosting(ctx, strangerPosting); err != nil {
		t.Fatalf("seed posting: %v", err)
	}

	return &meetingFixture{
		svc:         svc,
		dirRepo:     dirRepo,
		decisions:   decisions,
		audit:       audit,
		meetings:    meetings,
		committeeID: committee.ID,
		memberA:     a.ID,
		memberB:     b.ID,
		stranger:    s.ID,
		member:      domain.PostingActor(memberPosting.ID, false),
		nonMember:   domain.PostingActor(strangerPosting.ID, false),
	}
}

func (f *meetingFixture) pendingDecision(t *testing.T, committeeID string) *domain.Decision {
	t.Helper()
	decision := &domain.Decision{
		ReferenceKey:       "DEC-TEST",
		InitiatorPostingID: "post-initiator",
		UnitID:             "unit-1",
		CategoryID:         testCategory,
		ScopeID:            testScope,
		Subject:            "large exposure",
		Justification:      "beyond individual limits",
		AmountMinor:        250_000_000,
		Currency:           "INR",
		CommitteeRouted:    true,
		Status:             domain.DecisionStatusPendingApproval,
		Rule: &domain.RuleSnapshot{
			RuleID:        "rule-committee",
			AuthorityType: domain.BodyTypeCommittee,
			AuthorityID:   committeeID,
			ResolvedAt:    time.Now(),
		},
	}
	if err := f.decisions.Create(context.Background(), decision); err != nil {
		t.Fatalf("seed decision: %v", err)
	}
	return decision
}

func (f *meetingFixture) schedule(t *testing.T) *domain.Meeting {
	t.Helper()
	meeting, err := f.svc.ScheduleMeeting(context.Background(), f.member, f.committeeID, time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	return meeting
}

func TestRecordAttendanceEvaluatesQuorum(t *testing.T) {
	f := newMeetingFixture(t)
	meeting := f.schedule(t)
	ctx := context.Background()

	updated, err := f.svc.RecordAttendance(ctx, f.member, meeting.ID, []string{f.memberA})
	if err != nil {
		t.Fatalf("record attendance: %v", err)
	}
	if updated.QuorumMet {
		t.Fatal("one of two members must not meet quorum")
	}

	// Non-member designations are recorded but excluded from the quorum count.
	updated, err = f.svc.RecordAttendance(ctx, f.member, meeting.ID, []string{f.memberA, f.stranger})
	if err != nil {
		t.Fatalf("record attendance: %v", err)
	}
	if updated.QuorumMet {
		t.Fatal("non-member attendance must not count toward quorum")
	}

	updated, err = f.svc.RecordAttendance(ctx, f.member, meeting.ID, []string{f.memberA, f.memberB})
	if err != nil {
		t.Fatalf("record attendance: %v", err)
	}
	if !updated.QuorumMet {
		t.Fatal("both members present must meet quorum")
	}
}

func TestAgendaOutcomeApprovedSanctionsDecision(t *testing.T) {
	f := newMeetingFixture(t)
	meeting := f.schedule(t)
	decision := f.pendingDecision(t, f.committeeID)
	ctx := context.Background()

	item, err := f.svc.AddToAgenda(ctx, f.member, meeting.ID, decision.ID, 1)
	if err != nil {
		t.Fatalf("add to agenda: %v", err)
	}

	if _, err := f.svc.UpdateAgendaOutcome(ctx, f.nonMember, item.ID, domain.AgendaOutcomeApproved, ""); apperrors.Code(err) != "UNAUTHORIZED" {
		t.Fatalf("non-member outcome must be unauthorized, got %v", err)
	}

	recorded, err := f.svc.UpdateAgendaOutcome(ctx, f.member, item.ID, domain.AgendaOutcomeApproved, "unanimous")
	if err != nil {
		t.Fatalf("record outcome: %v", err)
	}
	if recorded.Outcome != domain.AgendaOutcomeApproved {
		t.Fatalf("expected APPROVED, got %s", recorded.Outcome)
	}

	resolved, err := f.decisions.GetByID(ctx, decision.ID)
	if err != nil {
		t.Fatalf("reload decision: %v", err)
	}
	if resolved.Status != domain.DecisionStatusSanctioned {
		t.Fatalf("approved agenda item must sanction the decision, got %s", resolved.Status)
	}
	trail, _ := f.audit.ListByDecision(ctx, decision.ID)
	if len(trail) != 1 {
		t.Fatalf("committee transition must append exactly one audit entry, got %d", len(trail))
	}
}

func TestAgendaOutcomeDeferredLeavesDecisionPending(t *testing.T) {
	f := newMeetingFixture(t)
	meeting := f.schedule(t)
	decision := f.pendingDecision(t, f.committeeID)
	ctx := context.Background()

	item, err := f.svc.AddToAgenda(ctx, f.member, meeting.ID, decision.ID, 1)
	if err != nil {
		t.Fatalf("add to agenda: %v", err)
	}
	if _, err := f.svc.UpdateAgendaOutcome(ctx, f.member, item.ID, domain.AgendaOutcomeDeferred, "next sitting"); err != nil {
		t.Fatalf("defer: %v", err)
	}

	unchanged, err := f.decisions.GetByID(ctx, decision.ID)
	if err != nil {
		t.Fatalf("reload decision: %v", err)
	}
	if unchanged.Status != domain.DecisionStatusPendingApproval {
		t.Fatalf("deferred item must leave the decision pending, got %s", unchanged.Status)
	}
}

func TestAddToAgendaRejectsForeignCommittee(t *testing.T) {
	f := newMeetingFixture(t)
	meeting := f.schedule(t)
	decision := f.pendingDecision(t, "com-other")

	_, err := f.svc.AddToAgenda(context.Background(), f.member, meeting.ID, decision.ID, 1)
	if apperrors.Code(err) != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN for foreign committee, got %v", err)
	}
}

func TestAddToAgendaLosesRaceWithFinalization(t *testing.T) {
	f := newMeetingFixture(t)
	meeting := f.schedule(t)
	decision := f.pendingDecision(t, f.committeeID)
	ctx := context.Background()

	stale := *meeting
	if err := f.meetings.ConcludeMeetingTx(ctx, nil, meeting.ID, nil); err != nil {
		t.Fatalf("conclude: %v", err)
	}

	svc := NewMeetingService(MeetingDependencies{
		MeetingRepo:  staleMeetingReads{MeetingRepository: f.meetings, stale: stale},
		DecisionRepo: f.decisions,
		AuditRepo:    f.audit,
		Directory:    directory.New(f.dirRepo),
		TxRunner:     fakeTxRunner{},
		Logger:       zap.NewNop(),
	})

	_, err := svc.AddToAgenda(ctx, f.member, meeting.ID, decision.ID, 1)
	if apperrors.Code(err) != "INVALID_TRANSITION" {
		t.Fatalf("late agenda insert must lose with INVALID_TRANSITION, got %v", err)
	}
	agenda, err := f.meetings.ListAgenda(ctx, meeting.ID)
	if err != nil {
		t.Fatalf("list agenda: %v", err)
	}
	if len(agenda) != 0 {
		t.Fatalf("no item may land on a concluded meeting, got %d", len(agenda))
	}
}

func TestFinalizeRequiresDecidedAgenda(t *testing.T) {
	f := newMeetingFixture(t)
	meeting := f.schedule(t)
	decision := f.pendingDecision(t, f.committeeID)
	ctx := context.Background()

	item, err := f.svc.AddToAgenda(ctx, f.member, meeting.ID, decision.ID, 1)
	if err != nil {
		t.Fatalf("add to agenda: %v", err)
	}

	_, err = f.svc.FinalizeMeeting(ctx, f.member, meeting.ID, nil)
	if apperrors.Code(err) != "INCOMPLETE_AGENDA" {
		t.Fatalf("expected INCOMPLETE_AGENDA, got %v", err)
	}

	if _, err := f.svc.UpdateAgendaOutcome(ctx, f.member, item.ID, domain.AgendaOutcomeDeclined, "insufficient collateral"); err != nil {
		t.Fatalf("record outcome: %v", err)
	}

	// Quorum was never met; finalization is still permitted and the quorum
	// flag survives as recorded.
	minutes := strPtr("minutes/2026-09-01.pdf")
	finalized, err := f.svc.FinalizeMeeting(ctx, f.member, meeting.ID, minutes)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if finalized.Status != domain.MeetingStatusConcluded {
		t.Fatalf("expected CONCLUDED, got %s", finalized.Status)
	}
	if finalized.QuorumMet {
		t.Fatal("quorum flag must persist as recorded")
	}

	_, err = f.svc.FinalizeMeeting(ctx, f.member, meeting.ID, nil)
	if apperrors.Code(err) != "INVALID_TRANSITION" {
		t.Fatalf("expected INVALID_TRANSITION on concluded meeting, got %v", err)
	}
}

func TestCancelMeeting(t *testing.T) {
	f := newMeetingFixture(t)
	meeting := f.schedule(t)

	cancelled, err := f.svc.CancelMeeting(context.Background(), f.member, meeting.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != domain.MeetingStatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", cancelled.Status)
	}
}
