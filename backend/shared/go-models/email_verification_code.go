package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailVerificationCode for email_verification_codes table
type EmailVerificationCode struct {
	ID        uuid.UUID
	Email     string
	Code      string
	ExpiresAt time.Time
	Used      bool
	UsedAt    *time.Time
	CreatedAt time.Time
}
