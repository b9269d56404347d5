package models

import (
	"time"

	"github.com/google/uuid"
)

type MembershipStatusType string

const (
	MembershipStatusPending  MembershipStatusType = "PENDING"
	MembershipStatusApproved MembershipStatusType = "APPROVED"
	MembershipStatusDenied   MembershipStatusType = "DENIED"
)

// Member is shared by general membership, nominators and nominees.
// Exactly one row exists per email regardless of role.
type Member struct {
	ID               uuid.UUID            `json:"id"`
	FullName         string               `json:"full_name"`
	Email            string               `json:"email"`
	MembershipStatus MembershipStatusType `json:"membership_status"`
	PhoneNumber      *string              `json:"phone_number,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}
