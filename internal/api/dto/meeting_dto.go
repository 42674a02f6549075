package dto

import (
	"time"

	"github.com/spec-kit/governance-service/internal/domain"
)

// ScheduleMeetingRequest payload.
type ScheduleMeetingRequest struct {
	CommitteeID  string    `json:"committee_id"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

// RecordAttendanceRequest replaces the attendance snapshot wholesale.
type RecordAttendanceRequest struct {
	DesignationIDs []string `json:"designation_ids"`
}

// AddAgendaItemRequest payload.
type AddAgendaItemRequest struct {
	DecisionID string `json:"decision_id"`
	Position   int    `json:"position"`
}

// AgendaOutcomeRequest payload.
type AgendaOutcomeRequest struct {
	Outcome domain.AgendaOutcome `json:"outcome"`
	Notes   string               `json:"notes"`
}

// FinalizeMeetingRequest payload.
type FinalizeMeetingRequest struct {
	MinutesRef *string `json:"minutes_ref"`
}

// MeetingResponse view.
type MeetingResponse struct {
	ID           string               `json:"id"`
	CommitteeID  string               `json:"committee_id"`
	ScheduledFor time.Time            `json:"scheduled_for"`
	Status       domain.MeetingStatus `json:"status"`
	QuorumMet    bool                 `json:"quorum_met"`
	MinutesRef   *string              `json:"minutes_ref"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// AgendaItemResponse view.
type AgendaItemResponse struct {
	ID         string               `json:"id"`
	MeetingID  string               `json:"meeting_id"`
	DecisionID string               `json:"decision_id"`
	Position   int                  `json:"position"`
	Outcome    domain.AgendaOutcome `json:"outcome"`
	Notes      string               `json:"notes,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
}

// AttendanceResponse view.
type AttendanceResponse struct {
	DesignationID string    `json:"designation_id"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// MeetingDetailResponse bundles the meeting with its agenda and attendance.
type MeetingDetailResponse struct {
	Meeting    MeetingResponse      `json:"meeting"`
	Agenda     []AgendaItemResponse `json:"agenda"`
	Attendance []AttendanceResponse `json:"attendance"`
}
