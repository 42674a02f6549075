package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/governance-service/internal/directory"
	"github.com/spec-kit/governance-service/internal/domain"
	"github.com/spec-kit/governance-service/internal/events"
	"github.com/spec-kit/governance-service/internal/repository"
	apperrors "github.com/spec-kit/governance-service/pkg/util"
)

// MeetingService runs the committee path: scheduling, attendance and quorum,
// agenda deliberation, and finalization. Agenda outcomes drive the underlying
// decisions' terminal transitions in place of a single-actor action.
type MeetingService struct {
	meetings   repository.MeetingRepository
	decisions  repository.DecisionRepository
	audit      repository.AuditRepository
	dir        *directory.Directory
	txRunner   repository.TxRunner
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// MeetingDependencies bundles collaborators for the committee subsystem.
type MeetingDependencies struct {
	MeetingRepo  repository.MeetingRepository
	DecisionRepo repository.DecisionRepository
	AuditRepo    repository.AuditRepository
	Directory    *directory.Directory
	TxRunner     repository.TxRunner
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewMeetingService constructs the service.
func NewMeetingService(deps MeetingDependencies) *MeetingService {
	return &MeetingService{
		meetings:   deps.MeetingRepo,
		decisions:  deps.DecisionRepo,
		audit:      deps.AuditRepo,
		dir:        deps.Directory,
		txRunner:   deps.TxRunner,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// ScheduleMeeting creates a SCHEDULED meeting for an active committee.
func (s *MeetingService) ScheduleMeeting(ctx context.Context, actor domain.ActorRef, committeeID string, when time.Time) (*domain.Meeting, error) {
	if _, err := requirePostingActor(actor); err != nil {
		return nil, err
	}
	committee, err := s.dir.GetCommittee(ctx, committeeID)
	if err != nil {
		return nil, err
	}
	if !committee.IsActive {
		return nil, apperrors.NewConflict("committee inactive", map[string]any{"committee_id": committeeID})
	}

	meeting := &domain.Meeting{
		CommitteeID:  committee.ID,
		ScheduledFor: when,
		Status:       domain.MeetingStatusScheduled,
	}
	if err := s.meetings.CreateMeeting(ctx, meeting); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.Event{
		Type:      events.EventMeetingScheduled,
		SubjectID: meeting.ID,
		Actor:     actor,
	})
	return meeting, nil
}

// RecordAttendance replaces the meeting's attendance snapshot and re-evaluates
// quorum against the committee's minimum in the same transaction. Only member
// designations count toward quorum.
func (s *MeetingService) RecordAttendance(ctx context.Context, actor domain.ActorRef, meetingID string, designationIDs []string) (*domain.Meeting, error) {
	if _, err := requirePostingActor(actor); err != nil {
		return nil, err
	}
	meeting, err := s.getMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if meeting.Status != domain.MeetingStatusScheduled {
		return nil, apperrors.NewInvalidTransition("attendance is recorded on scheduled meetings only", map[string]any{
			"status": meeting.Status,
		})
	}
	committee, err := s.dir.GetCommittee(ctx, meeting.CommitteeID)
	if err != nil {
		return nil, err
	}
	memberDesignations, err := s.dir.ResolveMemberDesignations(ctx, committee.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	members := make(map[string]struct{}, len(memberDesignations))
	for _, id := range memberDesignations {
		members[id] = struct{}{}
	}
	presentMembers := 0
	seen := make(map[string]struct{}, len(designationIDs))
	for _, id := range designationIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := members[id]; ok {
			presentMembers++
		}
	}
	quorumMet := presentMembers >= committee.QuorumMin

	err = s.txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		if err := s.meetings.ReplaceAttendanceTx(ctx, tx, meeting.ID, designationIDs); err != nil {
			return err
		}
		return s.meetings.SetQuorumTx(ctx, tx, meeting.ID, quorumMet)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.getMeeting(ctx, meeting.ID)
}

// AddToAgenda attaches a pending decision to a scheduled meeting.
func (s *MeetingService) AddToAgenda(ctx context.Context, actor domain.ActorRef, meetingID, decisionID string, position int) (*domain.AgendaItem, error) {
	if _, err := requirePostingActor(actor); err != nil {
		return nil, err
	}
	meeting, err := s.getMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if meeting.Status != domain.MeetingStatusScheduled {
		return nil, apperrors.NewInvalidTransition("agenda is editable while the meeting is scheduled only", map[string]any{
			"status": meeting.Status,
		})
	}
	decision, err := s.decisions.GetByID(ctx, decisionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("decision", map[string]any{"decision_id": decisionID})
		}
		return nil, apperrors.MapError(err)
	}
	if decision.Status != domain.DecisionStatusPendingApproval {
		return nil, apperrors.NewInvalidTransition("only a pending decision may be deliberated", map[string]any{
			"status": decision.Status,
		})
	}
	if decision.Rule != nil && decision.Rule.AuthorityType == domain.BodyTypeCommittee && decision.Rule.AuthorityID != meeting.CommitteeID {
		return nil, apperrors.NewForbidden("decision is delegated to a different committee")
	}

	item := &domain.AgendaItem{
		MeetingID:  meeting.ID,
		DecisionID: decision.ID,
		Position:   position,
		Outcome:    domain.AgendaOutcomePending,
	}
	// Re-check under the meeting row lock: the insert must not land after a
	// concurrent finalization counted zero pending items.
	err = s.txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		locked, err := s.meetings.GetMeetingForUpdateTx(ctx, tx, meeting.ID)
		if err != nil {
			return err
		}
		if locked.Status != domain.MeetingStatusScheduled {
			return repository.ErrStaleStatus
		}
		return s.meetings.AddAgendaItemTx(ctx, tx, item)
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, apperrors.NewInvalidTransition("meeting left SCHEDULED concurrently", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return item, nil
}

// UpdateAgendaOutcome records the committee's per-item outcome and propagates
// APPROVED and DECLINED onto the underlying decision in the same transaction,
// with an audit entry for the propagated transition. DEFERRED leaves the
// decision pending.
func (s *MeetingService) UpdateAgendaOutcome(ctx context.Context, actor domain.ActorRef, agendaItemID string, outcome domain.AgendaOutcome, notes string) (*domain.AgendaItem, error) {
	postingID, err := requirePostingActor(actor)
	if err != nil {
		return nil, err
	}
	if outcome != domain.AgendaOutcomeApproved && outcome != domain.AgendaOutcomeDeclined && outcome != domain.AgendaOutcomeDeferred {
		return nil, apperrors.NewValidationError("outcome must be APPROVED, DECLINED or DEFERRED", nil)
	}
	item, err := s.getAgendaItem(ctx, agendaItemID)
	if err != nil {
		return nil, err
	}
	meeting, err := s.getMeeting(ctx, item.MeetingID)
	if err != nil {
		return nil, err
	}
	if meeting.Status != domain.MeetingStatusScheduled {
		return nil, apperrors.NewInvalidTransition("outcomes are recorded while the meeting is scheduled only", map[string]any{
			"status": meeting.Status,
		})
	}
	committeeRef := domain.AuthorityRef{Type: domain.BodyTypeCommittee, BodyID: meeting.CommitteeID}
	occupant, err := s.dir.IsOccupant(ctx, committeeRef, postingID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !occupant {
		return nil, apperrors.NewUnauthorized("acting posting is not a member of this committee")
	}

	var decisionTarget domain.DecisionStatus
	switch outcome {
	case domain.AgendaOutcomeApproved:
		decisionTarget = domain.DecisionStatusSanctioned
	case domain.AgendaOutcomeDeclined:
		decisionTarget = domain.DecisionStatusRejected
	}

	err = s.txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		if err := s.meetings.UpdateAgendaOutcomeTx(ctx, tx, item.ID, outcome, notes); err != nil {
			return err
		}
		if decisionTarget == "" {
			return nil
		}
		if err := s.decisions.TransitionTx(ctx, tx, item.DecisionID, domain.DecisionStatusPendingApproval, decisionTarget, nil); err != nil {
			return err
		}
		entry := &domain.AuditEntry{
			DecisionID:     item.DecisionID,
			ActorType:      actor.Type,
			ActorPostingID: actor.PostingID,
			PriorStatus:    domain.DecisionStatusPendingApproval,
			NewStatus:      decisionTarget,
			Notes:          notes,
		}
		return s.audit.AppendTx(ctx, tx, entry)
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, apperrors.NewInvalidTransition("agenda item or decision changed concurrently", nil)
		}
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventAgendaOutcome,
		SubjectID: item.ID,
		Actor:     actor,
		Payload: events.AgendaOutcomePayload{
			MeetingID:  meeting.ID,
			DecisionID: item.DecisionID,
			Outcome:    outcome,
		},
	})
	return s.getAgendaItem(ctx, item.ID)
}

// FinalizeMeeting concludes a meeting once every agenda item is decided. The
// completeness check runs inside the concluding transaction under the meeting
// row lock, so an agenda insert cannot slip in between the count and the
// conclude; finalization never force-closes an undecided item. Quorum is a
// separate gate and does not block finalization by itself.
func (s *MeetingService) FinalizeMeeting(ctx context.Context, actor domain.ActorRef, meetingID string, minutesRef *string) (*domain.Meeting, error) {
	if _, err := requirePostingActor(actor); err != nil {
		return nil, err
	}
	meeting, err := s.getMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if meeting.Status != domain.MeetingStatusScheduled {
		return nil, apperrors.NewInvalidTransition("only a scheduled meeting may be finalized", map[string]any{
			"status": meeting.Status,
		})
	}

	err = s.txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		locked, err := s.meetings.GetMeetingForUpdateTx(ctx, tx, meeting.ID)
		if err != nil {
			return err
		}
		if locked.Status != domain.MeetingStatusScheduled {
			return repository.ErrStaleStatus
		}
		pending, err := s.meetings.CountPendingAgendaTx(ctx, tx, meeting.ID)
		if err != nil {
			return err
		}
		if pending > 0 {
			return apperrors.NewIncompleteAgenda(map[string]any{
				"meeting_id":    meeting.ID,
				"pending_items": pending,
			})
		}
		return s.meetings.ConcludeMeetingTx(ctx, tx, meeting.ID, minutesRef)
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, apperrors.NewInvalidTransition("meeting status changed concurrently", nil)
		}
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventMeetingFinalized,
		SubjectID: meeting.ID,
		Actor:     actor,
		Payload: events.MeetingFinalizedPayload{
			CommitteeID: meeting.CommitteeID,
			QuorumMet:   meeting.QuorumMet,
			MinutesRef:  minutesRef,
		},
	})
	return s.getMeeting(ctx, meeting.ID)
}

// CancelMeeting abandons a scheduled meeting.
func (s *MeetingService) CancelMeeting(ctx context.Context, actor domain.ActorRef, meetingID string) (*domain.Meeting, error) {
	if _, err := requirePostingActor(actor); err != nil {
		return nil, err
	}
	if err := s.meetings.CancelMeeting(ctx, meetingID); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, apperrors.NewInvalidTransition("only a scheduled meeting may be cancelled", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return s.getMeeting(ctx, meetingID)
}

// GetMeeting loads a meeting with its agenda and attendance snapshot.
func (s *MeetingService) GetMeeting(ctx context.Context, meetingID string) (*domain.Meeting, []domain.AgendaItem, []domain.AttendanceRecord, error) {
	meeting, err := s.getMeeting(ctx, meetingID)
	if err != nil {
		return nil, nil, nil, err
	}
	agenda, err := s.meetings.ListAgenda(ctx, meeting.ID)
	if err != nil {
		return nil, nil, nil, apperrors.MapError(err)
	}
	attendance, err := s.meetings.ListAttendance(ctx, meeting.ID)
	if err != nil {
		return nil, nil, nil, apperrors.MapError(err)
	}
	return meeting, agenda, attendance, nil
}

// ListMeetings returns a committee's meetings.
func (s *MeetingService) ListMeetings(ctx context.Context, committeeID string, limit, offset int) ([]domain.Meeting, error) {
	meetings, err := s.meetings.ListByCommittee(ctx, committeeID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return meetings, nil
}

func (s *MeetingService) getMeeting(ctx context.Context, meetingID string) (*domain.Meeting, error) {
	meeting, err := s.meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("meeting", map[string]any{"meeting_id": meetingID})
		}
		return nil, apperrors.MapError(err)
	}
	return meeting, nil
}

func (s *MeetingService) getAgendaItem(ctx context.Context, itemID string) (*domain.AgendaItem, error) {
	item, err := s.meetings.GetAgendaItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("agenda item", map[string]any{"agenda_item_id": itemID})
		}
		return nil, apperrors.MapError(err)
	}
	return item, nil
}

func (s *MeetingService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
