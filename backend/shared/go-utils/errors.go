// backend/shared/go-utils/errors.go
package utils

import (
	"errors"
	"net/http"
)

// Domain-level errors used by the service layer to provide
// fine-grained failure reasons. AppError.Err wraps one of these so
// callers can use errors.Is regardless of the HTTP mapping.
var (
	ErrValidation           = errors.New("validation_error")
	ErrInvalidEmail         = errors.New("invalid_email")
	ErrWindowClosed         = errors.New("window_closed")
	ErrDuplicateNomination  = errors.New("duplicate_nomination")
	ErrDuplicateYear        = errors.New("duplicate_year")
	ErrInvalidTransition    = errors.New("invalid_transition")
	ErrNotFound             = errors.New("not_found")
	ErrInvalidOrExpiredCode = errors.New("invalid_or_expired_code")
	ErrPersistence          = errors.New("persistence_error")
	ErrNotificationDelivery = errors.New("notification_delivery_failed")

	// For concurrency conflicts
	ErrRowVersionConflict = errors.New("row_version_conflict")
)

// AppError for structured error handling from services to controllers.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Details    any
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// DuplicateNominationDetails is attached to duplicate_nomination errors so the
// client can tell the nominator who they already nominated.
type DuplicateNominationDetails struct {
	NomineeName  string `json:"nominee_name"`
	NomineeEmail string `json:"nominee_email"`
	Category     string `json:"category"`
	Year         int    `json:"year"`
}

func NewValidationError(message string, err error) *AppError {
	if err == nil {
		err = ErrValidation
	}
	return &AppError{StatusCode: http.StatusBadRequest, Code: ErrCodeValidation, Message: message, Err: err}
}

func NewWindowClosedError(year int) *AppError {
	return &AppError{
		StatusCode: http.StatusConflict,
		Code:       ErrCodeWindowClosed,
		Message:    "Nominations are currently closed",
		Details:    map[string]int{"year": year},
		Err:        ErrWindowClosed,
	}
}

func NewDuplicateNominationError(d DuplicateNominationDetails) *AppError {
	return &AppError{
		StatusCode: http.StatusConflict,
		Code:       ErrCodeDuplicateNomination,
		Message:    "You have already nominated " + d.NomineeName + " in the " + d.Category + " category this year",
		Details:    d,
		Err:        ErrDuplicateNomination,
	}
}

func NewDuplicateYearError(year int) *AppError {
	return &AppError{
		StatusCode: http.StatusConflict,
		Code:       ErrCodeDuplicateYear,
		Message:    "Nomination settings already exist for this year",
		Details:    map[string]int{"year": year},
		Err:        ErrDuplicateYear,
	}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{StatusCode: http.StatusNotFound, Code: ErrCodeNotFound, Message: message, Err: ErrNotFound}
}

func NewInvalidTransitionError(message string) *AppError {
	return &AppError{StatusCode: http.StatusConflict, Code: ErrCodeInvalidTransition, Message: message, Err: ErrInvalidTransition}
}

func NewInvalidOrExpiredCodeError() *AppError {
	return &AppError{
		StatusCode: http.StatusBadRequest,
		Code:       ErrCodeInvalidOrExpiredCode,
		Message:    "Invalid or expired verification code",
		Err:        ErrInvalidOrExpiredCode,
	}
}

// NewRowVersionConflictError reports that optimistic-lock retries ran out.
func NewRowVersionConflictError(cause error) *AppError {
	return &AppError{
		StatusCode: http.StatusConflict,
		Code:       ErrCodeRowVersionConflict,
		Message:    "The record was modified concurrently, please retry",
		Err:        errors.Join(ErrRowVersionConflict, cause),
	}
}

// NewPersistenceError hides storage details behind a retry-safe message.
// The cause is kept for logging.
func NewPersistenceError(cause error) *AppError {
	return &AppError{
		StatusCode: http.StatusServiceUnavailable,
		Code:       ErrCodePersistence,
		Message:    "A temporary problem occurred, please try again",
		Err:        errors.Join(ErrPersistence, cause),
	}
}

func NewNotificationDeliveryError(cause error) *AppError {
	return &AppError{
		StatusCode: http.StatusBadGateway,
		Code:       ErrCodeExternalServiceFailure,
		Message:    "We could not send the email, please try again",
		Err:        errors.Join(ErrNotificationDelivery, cause),
	}
}

// HandleAppError centralizes responding to AppErrors.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, appErr.Details, appErr.Err)
	} else {
		// Fallback for unexpected error types
		RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", nil, err)
	}
}
