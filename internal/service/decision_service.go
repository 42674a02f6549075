package service

import (
	"context"
	"errors"
	"strings"
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

// DecisionService governs a proposal's lifecycle from draft to terminal
// resolution. Every transition writes its audit entry in the same transaction
// as the status update; concurrent actors racing on the same decision lose
// with INVALID_TRANSITION rather than overwriting.
type DecisionService struct {
	decisions  repository.DecisionRepository
	audit      repository.AuditRepository
	resolver   *ResolverService
	dir        *directory.Directory
	txRunner   repository.TxRunner
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// DecisionDependencies bundles collaborators for the decision workflow.
type DecisionDependencies struct {
	DecisionRepo repository.DecisionRepository
	AuditRepo    repository.AuditRepository
	Resolver     *ResolverService
	Directory    *directory.Directory
	TxRunner     repository.TxRunner
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// DraftInput describes the outcome payload of a proposal.
type DraftInput struct {
	CategoryID      string
	ScopeID         string
	Subject         string
	Justification   string
	AmountMinor     int64
	Currency        string
	RegionID        *string
	CommitteeRouted bool
}

// NewDecisionService constructs the service.
func NewDecisionService(deps DecisionDependencies) *DecisionService {
	return &DecisionService{
		decisions:  deps.DecisionRepo,
		audit:      deps.AuditRepo,
		resolver:   deps.Resolver,
		dir:        deps.Directory,
		txRunner:   deps.TxRunner,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// CreateDraft opens a proposal in DRAFT for an initiating posting. The posting
// must hold at least one rule in the functional scope to draft at all.
func (s *DecisionService) CreateDraft(ctx context.Context, actor domain.ActorRef, input DraftInput) (*domain.Decision, error) {
	postingID, err := requirePostingActor(actor)
	if err != nil {
		return nil, err
	}
	posting, err := s.dir.GetPosting(ctx, postingID)
	if err != nil {
		return nil, err
	}
	if !posting.Active {
		return nil, apperrors.NewForbidden("posting is not active")
	}
	if strings.TrimSpace(input.Subject) == "" || strings.TrimSpace(input.Justification) == "" {
		return nil, apperrors.NewValidationError("subject and justification required", nil)
	}
	if input.AmountMinor < 0 {
		return nil, apperrors.NewValidationError("amount must not be negative", nil)
	}

	ok, err := s.resolver.CanInitiate(ctx, postingID, input.ScopeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NewForbidden("designation holds no delegation in this functional scope")
	}

	currency := input.Currency
	if currency == "" {
		currency = "INR"
	}
	decision := &domain.Decision{
		ReferenceKey:       generateDecisionKey(),
		InitiatorPostingID: posting.ID,
		UnitID:             posting.UnitID,
		RegionID:           input.RegionID,
		CategoryID:         input.CategoryID,
		ScopeID:            input.ScopeID,
		Subject:            strings.TrimSpace(input.Subject),
		Justification:      strings.TrimSpace(input.Justification),
		AmountMinor:        input.AmountMinor,
		Currency:           currency,
		CommitteeRouted:    input.CommitteeRouted,
		Status:             domain.DecisionStatusDraft,
	}
	if err := s.decisions.Create(ctx, decision); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.Event{
		Type:      events.EventDecisionDrafted,
		SubjectID: decision.ID,
		Actor:     actor,
	})
	return decision, nil
}

// UpdateDraft edits the outcome payload; permitted only while in DRAFT and
// only by the initiator.
func (s *DecisionService) UpdateDraft(ctx context.Context, actor domain.ActorRef, decisionID string, input DraftInput) (*domain.Decision, error) {
	postingID, err := requirePostingActor(actor)
	if err != nil {
		return nil, err
	}
	decision, err := s.getDecision(ctx, decisionID)
	if err != nil {
		return nil, err
	}
	if decision.InitiatorPostingID != postingID {
		return nil, apperrors.NewUnauthorized("only the initiator may edit a draft")
	}
	if decision.Status != domain.DecisionStatusDraft {
		return nil, apperrors.NewInvalidTransition("outcome payload is editable in DRAFT only", map[string]any{
			"status": decision.Status,
		})
	}

	decision.CategoryID = input.CategoryID
	decision.ScopeID = input.ScopeID
	decision.Subject = strings.TrimSpace(input.Subject)
	decision.Justification = strings.TrimSpace(input.Justification)
	decision.AmountMinor = input.AmountMinor
	if input.Currency != "" {
		decision.Currency = input.Currency
	}
	decision.CommitteeRouted = input.CommitteeRouted
	if err := s.decisions.UpdatePayload(ctx, decision); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidTransition("decision left DRAFT concurrently", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return decision, nil
}

// Submit moves DRAFT to PENDING_APPROVAL, freezing the resolved rule onto the
// decision at this instant. A committee-routed decision must resolve to a
// committee-held band. When no band covers the amount the decision is
// system-forced to ESCALATED instead, never to PENDING_APPROVAL.
func (s *DecisionService) Submit(ctx context.Context, actor domain.ActorRef, decisionID string) (*domain.Decision, error) {
	postingID, err := requirePostingActor(actor)
	if err != nil {
		return nil, err
	}
	decision, err := s.getDecision(ctx, decisionID)
	if err != nil {
		return nil, err
	}
	if decision.InitiatorPostingID != postingID {
		return nil, apperrors.NewUnauthorized("only the initiator may submit")
	}
	if decision.Status != domain.DecisionStatusDraft {
		return nil, apperrors.NewInvalidTransition("only a DRAFT decision may be submitted", map[string]any{
			"status": decision.Status,
		})
	}

	resolution, err := s.resolver.ResolveAuthority(ctx, decision.CategoryID, decision.ScopeID, decision.AmountMinor)
	if err != nil {
		if apperrors.Code(err) == "ESCALATION_REQUIRED" {
			return s.forceEscalate(ctx, decision, "no authority band covers the proposed amount")
		}
		return nil, err
	}

	if decision.CommitteeRouted && resolution.Authority.Type != domain.BodyTypeCommittee {
		return nil, apperrors.NewConfigurationError("decision is flagged for committee routing but the band is held by a single authority", map[string]any{
			"authority_type": resolution.Authority.Type,
			"authority_id":   resolution.Authority.BodyID,
		})
	}

	snapshot := resolution.Rule.Snapshot(time.Now())
	if err := s.transition(ctx, decision.ID, actor, decision.Status, domain.DecisionStatusPendingApproval, "submitted", &snapshot); err != nil {
		return nil, err
	}
	return s.getDecision(ctx, decision.ID)
}

// ApplyAction applies SANCTION, QUERY, REJECT or RESPOND. Sanctioning,
// querying and rejecting require the actor's active posting to occupy the
// frozen Authority Body; responding is reserved for the initiator.
func (s *DecisionService) ApplyAction(ctx context.Context, actor domain.ActorRef, decisionID string, action domain.DecisionAction, notes string) (*domain.Decision, error) {
	postingID, err := requirePostingActor(actor)
	if err != nil {
		return nil, err
	}
	decision, err := s.getDecision(ctx, decisionID)
	if err != nil {
		return nil, err
	}
	if decision.Status.Terminal() {
		return nil, apperrors.NewInvalidTransition("decision is already resolved", map[string]any{
			"status": decision.Status,
		})
	}

	switch action {
	case domain.ActionRespond:
		if decision.Status != domain.DecisionStatusQueryRaised {
			return nil, apperrors.NewInvalidTransition("no query is pending on this decision", map[string]any{
				"status": decision.Status,
			})
		}
		if decision.InitiatorPostingID != postingID {
			return nil, apperrors.NewUnauthorized("only the initiator may respond to a query")
		}
		if strings.TrimSpace(notes) == "" {
			return nil, apperrors.NewValidationError("a query response must carry notes", nil)
		}
		if err := s.transition(ctx, decision.ID, actor, decision.Status, domain.DecisionStatusPendingApproval, notes, nil); err != nil {
			return nil, err
		}

	case domain.ActionSanction, domain.ActionQuery, domain.ActionReject:
		if decision.Status != domain.DecisionStatusPendingApproval {
			return nil, apperrors.NewInvalidTransition("decision is not pending approval", map[string]any{
				"status": decision.Status,
			})
		}
		if decision.Rule == nil {
			return nil, apperrors.NewConfigurationError("decision carries no frozen authority", nil)
		}
		occupant, err := s.dir.IsOccupant(ctx, decision.Rule.AuthorityRef(), postingID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !occupant {
			return nil, apperrors.NewUnauthorized("acting posting does not occupy the resolved authority")
		}
		if action == domain.ActionQuery && strings.TrimSpace(notes) == "" {
			return nil, apperrors.NewValidationError("a query must state what is being asked", nil)
		}

		if action == domain.ActionSanction {
			validation, err := s.resolver.ValidateAuthority(ctx, decision.Rule.AuthorityRef(), decision.CategoryID, decision.ScopeID, decision.AmountMinor)
			if err != nil {
				return nil, err
			}
			if !validation.Valid && validation.Reason == ReasonExceedsLimit && validation.EscalationMandatory {
				return s.forceEscalate(ctx, decision, "amount exceeds delegated limit; escalation mandatory")
			}
		}

		target := map[domain.DecisionAction]domain.DecisionStatus{
			domain.ActionSanction: domain.DecisionStatusSanctioned,
			domain.ActionQuery:    domain.DecisionStatusQueryRaised,
			domain.ActionReject:   domain.DecisionStatusRejected,
		}[action]
		if err := s.transition(ctx, decision.ID, actor, decision.Status, target, notes, nil); err != nil {
			return nil, err
		}

	default:
		return nil, apperrors.NewValidationError("unknown workflow action", map[string]any{"action": action})
	}

	return s.getDecision(ctx, decision.ID)
}

// Withdraw closes a proposal as DECLINED. Only the initiator may withdraw,
// and only from DRAFT or QUERY_RAISED; decisions are never deleted.
func (s *DecisionService) Withdraw(ctx context.Context, actor domain.ActorRef, decisionID, notes string) (*domain.Decision, error) {
	postingID, err := requirePostingActor(actor)
	if err != nil {
		return nil, err
	}
	decision, err := s.getDecision(ctx, decisionID)
	if err != nil {
		return nil, err
	}
	if decision.InitiatorPostingID != postingID {
		return nil, apperrors.NewUnauthorized("only the initiator may withdraw")
	}
	if decision.Status != domain.DecisionStatusDraft && decision.Status != domain.DecisionStatusQueryRaised {
		return nil, apperrors.NewInvalidTransition("decision cannot be withdrawn in its current state", map[string]any{
			"status": decision.Status,
		})
	}
	if err := s.transition(ctx, decision.ID, actor, decision.Status, domain.DecisionStatusDeclined, notes, nil); err != nil {
		return nil, err
	}
	return s.getDecision(ctx, decision.ID)
}

// ReadTrail returns the decision's audit entries, most recent first.
func (s *DecisionService) ReadTrail(ctx context.Context, decisionID string) ([]domain.AuditEntry, error) {
	if _, err := s.getDecision(ctx, decisionID); err != nil {
		return nil, err
	}
	trail, err := s.audit.ListByDecision(ctx, decisionID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return trail, nil
}

// Get loads one decision.
func (s *DecisionService) Get(ctx context.Context, decisionID string) (*domain.Decision, error) {
	return s.getDecision(ctx, decisionID)
}

// List returns decisions matching the filter.
func (s *DecisionService) List(ctx context.Context, filter repository.DecisionFilter) ([]domain.Decision, error) {
	decisions, err := s.decisions.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return decisions, nil
}

func (s *DecisionService) transition(ctx context.Context, decisionID string, actor domain.ActorRef, from, to domain.DecisionStatus, notes string, snapshot *domain.RuleSnapshot) error {
	err := s.txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		if err := s.decisions.TransitionTx(ctx, tx, decisionID, from, to, snapshot); err != nil {
			return err
		}
		entry := &domain.AuditEntry{
			DecisionID:     decisionID,
			ActorType:      actor.Type,
			ActorPostingID: actor.PostingID,
			PriorStatus:    from,
			NewStatus:      to,
			Notes:          notes,
		}
		return s.audit.AppendTx(ctx, tx, entry)
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return apperrors.NewInvalidTransition("decision status changed concurrently", map[string]any{
				"expected": from,
			})
		}
		return apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventDecisionTransitioned,
		SubjectID: decisionID,
		Actor:     actor,
		Payload: events.DecisionTransitionedPayload{
			PriorStatus: from,
			NewStatus:   to,
			Notes:       notes,
		},
	})
	return nil
}

// forceEscalate is the only automatic transition: an explicit, auditable
// system action recorded with the synthetic system actor.
func (s *DecisionService) forceEscalate(ctx context.Context, decision *domain.Decision, reason string) (*domain.Decision, error) {
	system := domain.SystemActor()
	if err := s.transition(ctx, decision.ID, system, decision.Status, domain.DecisionStatusEscalated, reason, nil); err != nil {
		return nil, err
	}
	s.logger.Info("decision escalated",
		zap.String("decision_id", decision.ID),
		zap.String("reason", reason),
	)
	s.publish(ctx, events.Event{
		Type:      events.EventDecisionEscalated,
		SubjectID: decision.ID,
		Actor:     system,
	})
	return s.getDecision(ctx, decision.ID)
}

func (s *DecisionService) getDecision(ctx context.Context, decisionID string) (*domain.Decision, error) {
	decision, err := s.decisions.GetByID(ctx, decisionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("decision", map[string]any{"decision_id": decisionID})
		}
		return nil, apperrors.MapError(err)
	}
	return decision, nil
}

func (s *DecisionService) publish(ctx context.Context, event events.Event) {
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

func requirePostingActor(actor domain.ActorRef) (string, error) {
	if actor.Type != domain.ActorTypePosting || actor.PostingID == nil {
		return "", apperrors.NewUnauthorized("an active posting is required")
	}
	return *actor.PostingID, nil
}

func generateDecisionKey() string {
	return "DEC-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
