package models

import (
	"time"

	"github.com/google/uuid"
)

type NominationStatusType string

const (
	NominationStatusPending  NominationStatusType = "PENDING"
	NominationStatusApproved NominationStatusType = "APPROVED"
	NominationStatusRejected NominationStatusType = "REJECTED"
)

// IsTerminal reports whether no further admin transition is allowed.
func (s NominationStatusType) IsTerminal() bool {
	return s == NominationStatusApproved || s == NominationStatusRejected
}

// Conventional award tracks. Storage keeps category as a free string.
const (
	CategoryIntentionality = "intentionality"
	CategoryInquiry        = "inquiry"
	CategoryImpact         = "impact"
)

type Nomination struct {
	Versioned

	ID          uuid.UUID            `json:"id"`
	NominatorID uuid.UUID            `json:"nominator_id"`
	NomineeID   uuid.UUID            `json:"nominee_id"`
	Category    string               `json:"category"`
	Reason      string               `json:"reason"`
	Status      NominationStatusType `json:"status"`
	Year        int                  `json:"year"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`

	// Populated by joined reads only.
	Nominator *Member `json:"nominator,omitempty"`
	Nominee   *Member `json:"nominee,omitempty"`
}

func (n *Nomination) GetID() string {
	return n.ID.String()
}

// NominationStats aggregates one year's nominations for the admin dashboard.
type NominationStats struct {
	Year       int                          `json:"year"`
	Total      int                          `json:"total"`
	ByStatus   map[NominationStatusType]int `json:"by_status"`
	ByCategory map[string]int               `json:"by_category"`
}
