package domain

import "time"

// MeetingStatus enumerates committee meeting lifecycle states.
type MeetingStatus string

const (
	MeetingStatusScheduled MeetingStatus = "SCHEDULED"
	MeetingStatusConcluded MeetingStatus = "CONCLUDED"
	MeetingStatusCancelled MeetingStatus = "CANCELLED"
)

// AgendaOutcome enumerates per-item results recorded during deliberation.
type AgendaOutcome string

const (
	AgendaOutcomePending  AgendaOutcome = "PENDING"
	AgendaOutcomeApproved AgendaOutcome = "APPROVED"
	AgendaOutcomeDeclined AgendaOutcome = "DECLINED"
	AgendaOutcomeDeferred AgendaOutcome = "DEFERRED"
)

// Meeting is a scheduled sitting of one Committee.
type Meeting struct {
	ID           string
	CommitteeID  string
	ScheduledFor time.Time
	Status       MeetingStatus
	QuorumMet    bool
	MinutesRef   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AgendaItem wraps exactly one Decision with an ordinal position.
type AgendaItem struct {
	ID         string
	MeetingID  string
	DecisionID string
	Position   int
	Outcome    AgendaOutcome
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AttendanceRecord marks one designation as present at a meeting. The set of
// records for a meeting is a snapshot; re-recording replaces it wholesale.
type AttendanceRecord struct {
	ID            string
	MeetingID     string
	DesignationID string
	RecordedAt    time.Time
}
