package domain

import "time"

// BodyType discriminates the polymorphic Authority Body.
type BodyType string

const (
	BodyTypeDesignation BodyType = "DESIGNATION"
	BodyTypeCommittee   BodyType = "COMMITTEE"
)

// AuthorityRef identifies an Authority Body without loading it.
type AuthorityRef struct {
	Type   BodyType
	BodyID string
}

// Designation is a rank in the organizational hierarchy, unique by title+rank.
type Designation struct {
	ID        string
	Title     string
	Rank      int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Committee is a named collective body with a quorum rule and a fixed
// membership of designations.
type Committee struct {
	ID        string
	Name      string
	QuorumMin int
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Office is a distinct authority-holding slot, used for tenures and
// cross-office obligations.
type Office struct {
	ID        string
	Name      string
	UnitID    *string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Posting is a person's assignment to a unit/designation/region triple.
type Posting struct {
	ID            string
	PersonName    string
	UnitID        string
	DesignationID string
	RegionID      *string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Tenure is a person's assignment to an Office.
type Tenure struct {
	ID        string
	PostingID string
	OfficeID  string
	Active    bool
	StartedAt time.Time
	EndedAt   *time.Time
}
