package domain

import "time"

// AuditEntry is one immutable record per transition applied to a Decision.
// Entries are appended in the same atomic unit as the status write and are
// never updated or deleted; corrections to history are new entries.
type AuditEntry struct {
	ID             string
	DecisionID     string
	ActorType      ActorType
	ActorPostingID *string
	PriorStatus    DecisionStatus
	NewStatus      DecisionStatus
	Notes          string
	CreatedAt      time.Time
}
