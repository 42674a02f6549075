package events

import (
	"time"

	"github.com/spec-kit/governance-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventDecisionDrafted      EventType = "decision_drafted"
	EventDecisionTransitioned EventType = "decision_transitioned"
	EventDecisionEscalated    EventType = "decision_escalated"
	EventMeetingScheduled     EventType = "meeting_scheduled"
	EventMeetingFinalized     EventType = "meeting_finalized"
	EventAgendaOutcome        EventType = "agenda_outcome_recorded"
	EventObligationCreated    EventType = "obligation_created"
	EventObligationCertified  EventType = "obligation_certified"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string           `json:"id"`
	Type      EventType        `json:"type"`
	SubjectID string           `json:"subject_id"`
	Actor     domain.ActorRef  `json:"actor"`
	Timestamp time.Time        `json:"timestamp"`
	Payload   interface{}      `json:"payload"`
}

// DecisionTransitionedPayload payload.
type DecisionTransitionedPayload struct {
	PriorStatus domain.DecisionStatus `json:"prior_status"`
	NewStatus   domain.DecisionStatus `json:"new_status"`
	Notes       string                `json:"notes,omitempty"`
}

// MeetingFinalizedPayload payload.
type MeetingFinalizedPayload struct {
	CommitteeID string  `json:"committee_id"`
	QuorumMet   bool    `json:"quorum_met"`
	MinutesRef  *string `json:"minutes_ref,omitempty"`
}

// AgendaOutcomePayload payload.
type AgendaOutcomePayload struct {
	MeetingID  string               `json:"meeting_id"`
	DecisionID string               `json:"decision_id"`
	Outcome    domain.AgendaOutcome `json:"outcome"`
}

// ObligationCertifiedPayload payload.
type ObligationCertifiedPayload struct {
	FromOfficeID string `json:"from_office_id"`
	ToOfficeID   string `json:"to_office_id"`
}
