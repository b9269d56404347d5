package models

import (
	"time"

	"github.com/google/uuid"
)

// NominationSettings gates nomination creation for one award year.
// A zero ID means the row has not been persisted yet.
type NominationSettings struct {
	ID                  uuid.UUID  `json:"id"`
	Year                int        `json:"year"`
	IsNominationOpen    bool       `json:"is_nomination_open"`
	NominationStartDate *time.Time `json:"nomination_start_date"`
	NominationEndDate   *time.Time `json:"nomination_end_date"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Persisted reports whether the settings came from storage.
func (s *NominationSettings) Persisted() bool {
	return s.ID != uuid.Nil
}
