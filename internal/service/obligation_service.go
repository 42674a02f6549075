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

// ObligationService manages the cross-office obligation ledger. Certification
// is reserved to the receiving office and is final.
type ObligationService struct {
	obligations repository.ObligationRepository
	dir         *directory.Directory
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// ObligationDependencies bundles collaborators for the obligation ledger.
type ObligationDependencies struct {
	ObligationRepo repository.ObligationRepository
	Directory      *directory.Directory
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewObligationService constructs the service.
func NewObligationService(deps ObligationDependencies) *ObligationService {
	return &ObligationService{
		obligations: deps.ObligationRepo,
		dir:         deps.Directory,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
	}
}

// ObligationInput carries the fields for creating an obligation.
type ObligationInput struct {
	Title        string
	Description  string
	Origin       string
	FromOfficeID string
	ToOfficeID   string
	Deadline     time.Time
}

// Create records a PENDING obligation between two existing offices.
func (s *ObligationService) Create(ctx context.Context, actor domain.ActorRef, input ObligationInput) (*domain.Obligation, error) {
	if _, err := requirePostingActor(actor); err != nil {
		return nil, err
	}
	if input.Title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	if input.FromOfficeID == input.ToOfficeID {
		return nil, apperrors.NewValidationError("an office cannot owe an obligation to itself", nil)
	}
	if input.Deadline.IsZero() {
		return nil, apperrors.NewValidationError("deadline is required", nil)
	}
	if _, err := s.dir.GetOffice(ctx, input.FromOfficeID); err != nil {
		return nil, err
	}
	if _, err := s.dir.GetOffice(ctx, input.ToOfficeID); err != nil {
		return nil, err
	}

	obligation := &domain.Obligation{
		Title:        input.Title,
		Description:  input.Description,
		Origin:       input.Origin,
		FromOfficeID: input.FromOfficeID,
		ToOfficeID:   input.ToOfficeID,
		Deadline:     input.Deadline,
		Status:       domain.ObligationStatusPending,
	}
	if err := s.obligations.Create(ctx, obligation); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventObligationCreated,
		SubjectID: obligation.ID,
		Actor:     actor,
	})
	return obligation, nil
}

// Certify marks an obligation fulfilled. Only the office the obligation is
// owed to may certify, and a certified obligation stays certified.
func (s *ObligationService) Certify(ctx context.Context, actor domain.ActorRef, obligationID, actingOfficeID string) (*domain.Obligation, error) {
	if _, err := requirePostingActor(actor); err != nil {
		return nil, err
	}
	obligation, err := s.get(ctx, obligationID)
	if err != nil {
		return nil, err
	}
	if obligation.ToOfficeID != actingOfficeID {
		return nil, apperrors.NewUnauthorized("only the office owed the obligation may certify it")
	}
	if obligation.Status == domain.ObligationStatusCertified {
		return nil, apperrors.NewAlreadyCompleted("obligation is already certified", map[string]any{
			"obligation_id": obligationID,
		})
	}

	if err := s.obligations.Certify(ctx, obligationID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the certify race; certification is final either way.
			return nil, apperrors.NewAlreadyCompleted("obligation is already certified", map[string]any{
				"obligation_id": obligationID,
			})
		}
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventObligationCertified,
		SubjectID: obligationID,
		Actor:     actor,
		Payload: events.ObligationCertifiedPayload{
			FromOfficeID: obligation.FromOfficeID,
			ToOfficeID:   obligation.ToOfficeID,
		},
	})
	return s.get(ctx, obligationID)
}

// Get loads a single obligation.
func (s *ObligationService) Get(ctx context.Context, obligationID string) (*domain.Obligation, error) {
	return s.get(ctx, obligationID)
}

// ListForOffice returns the office's ledger view: obligations it owes, is
// owed, or both, optionally narrowed to overdue pending entries.
func (s *ObligationService) ListForOffice(ctx context.Context, officeID string, filter repository.ObligationFilter) ([]domain.Obligation, []domain.Obligation, error) {
	if _, err := s.dir.GetOffice(ctx, officeID); err != nil {
		return nil, nil, err
	}

	owedFilter := filter
	owedFilter.OwedByOffice = &officeID
	owed, err := s.obligations.ListWithFilter(ctx, owedFilter)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	receivableFilter := filter
	receivableFilter.OwedToOffice = &officeID
	receivable, err := s.obligations.ListWithFilter(ctx, receivableFilter)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return owed, receivable, nil
}

// ListOverdue returns pending obligations whose deadline passed before now.
func (s *ObligationService) ListOverdue(ctx context.Context, now time.Time, limit, offset int) ([]domain.Obligation, error) {
	pending := domain.ObligationStatusPending
	result, err := s.obligations.ListWithFilter(ctx, repository.ObligationFilter{
		Status:    &pending,
		OverdueAt: &now,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

func (s *ObligationService) get(ctx context.Context, obligationID string) (*domain.Obligation, error) {
	obligation, err := s.obligations.GetByID(ctx, obligationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("obligation", map[string]any{"obligation_id": obligationID})
		}
		return nil, apperrors.MapError(err)
	}
	return obligation, nil
}

func (s *ObligationService) publish(ctx context.Context, event events.Event) {
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
