package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type NotificationKindType string

const (
	NotificationKindNominationReceived      NotificationKindType = "nomination_received"
	NotificationKindNominationStatusChanged NotificationKindType = "nomination_status_changed"
)

type OutboxStatusType string

const (
	OutboxStatusPending    OutboxStatusType = "PENDING"
	OutboxStatusProcessing OutboxStatusType = "PROCESSING"
	OutboxStatusSent       OutboxStatusType = "SENT"
	OutboxStatusFailed     OutboxStatusType = "FAILED"
)

// NotificationOutboxEntry is written in the same transaction as the business
// change it announces and delivered later by the dispatcher.
type NotificationOutboxEntry struct {
	ID            uuid.UUID            `json:"id"`
	Kind          NotificationKindType `json:"kind"`
	Recipient     string               `json:"recipient"`
	Payload       json.RawMessage      `json:"payload"`
	Status        OutboxStatusType     `json:"status"`
	Attempts      int                  `json:"attempts"`
	MaxAttempts   int                  `json:"max_attempts"`
	NextAttemptAt time.Time            `json:"next_attempt_at"`
	LastError     *string              `json:"last_error,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// NominationNotificationPayload is the JSON body stored for nomination emails.
type NominationNotificationPayload struct {
	NominationID  uuid.UUID            `json:"nomination_id"`
	NominatorName string               `json:"nominator_name"`
	NomineeName   string               `json:"nominee_name"`
	NomineeEmail  string               `json:"nominee_email"`
	Category      string               `json:"category"`
	Year          int                  `json:"year"`
	Status        NominationStatusType `json:"status"`
}
