package repositories

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

// Constraint names from schema.sql that services branch on.
const (
	ConstraintMemberEmail            = "members_email_key"
	ConstraintNominationPerCategory  = "nominations_nominator_category_year_key"
	ConstraintNominationSettingsYear = "nomination_settings_year_key"
)

const (
	pgCodeUniqueViolation        = "23505"
	pgCodeForeignKeyViolation    = "23503"
	pgCodeCheckViolation         = "23514"
	pgCodeSerializationFailure   = "40001"
	pgClassConnectionException   = "08"
	pgClassInsufficientResources = "53"
	pgClassOperatorIntervention  = "57"
)

type PersistenceErrorKind string

const (
	KindUniqueViolation     PersistenceErrorKind = "unique_violation"
	KindForeignKeyViolation PersistenceErrorKind = "foreign_key_violation"
	KindCheckViolation      PersistenceErrorKind = "check_violation"
	KindConflict            PersistenceErrorKind = "conflict"
	KindUnavailable         PersistenceErrorKind = "unavailable"
	KindUnknown             PersistenceErrorKind = "unknown"
)

// PersistenceError is the typed failure every repository returns for
// storage problems, classified from the driver error code.
type PersistenceError struct {
	Kind       PersistenceErrorKind
	Constraint string
	Err        error
}

func (e *PersistenceError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("persistence %s (%s): %v", e.Kind, e.Constraint, e.Err)
	}
	return fmt.Sprintf("persistence %s: %v", e.Kind, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsUniqueViolation reports whether err is a unique violation on constraint.
// An empty constraint matches any unique violation.
func IsUniqueViolation(err error, constraint string) bool {
	var pErr *PersistenceError
	if !errors.As(err, &pErr) || pErr.Kind != KindUniqueViolation {
		return false
	}
	return constraint == "" || pErr.Constraint == constraint
}

// classify maps driver errors onto PersistenceError. pgx.ErrNoRows and
// already-classified errors pass through untouched.
func classify(err error) error {
	if err == nil || errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	var already *PersistenceError
	if errors.As(err, &already) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgCodeUniqueViolation:
			return &PersistenceError{Kind: KindUniqueViolation, Constraint: pgErr.ConstraintName, Err: err}
		case pgErr.Code == pgCodeForeignKeyViolation:
			return &PersistenceError{Kind: KindForeignKeyViolation, Constraint: pgErr.ConstraintName, Err: err}
		case pgErr.Code == pgCodeCheckViolation:
			return &PersistenceError{Kind: KindCheckViolation, Constraint: pgErr.ConstraintName, Err: err}
		case pgErr.Code == pgCodeSerializationFailure:
			return &PersistenceError{Kind: KindConflict, Err: err}
		case hasClass(pgErr.Code, pgClassConnectionException),
			hasClass(pgErr.Code, pgClassInsufficientResources),
			hasClass(pgErr.Code, pgClassOperatorIntervention):
			return &PersistenceError{Kind: KindUnavailable, Err: err}
		}
		return &PersistenceError{Kind: KindUnknown, Err: err}
	}

	// Dial and read failures surface as *net.OpError in pgconn v1.
	var opErr *net.OpError
	if errors.As(err, &opErr) || pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return &PersistenceError{Kind: KindUnavailable, Err: err}
	}
	return &PersistenceError{Kind: KindUnknown, Err: err}
}

// ErrVersionConflict is returned when optimistic-lock retries are exhausted.
var ErrVersionConflict = &PersistenceError{Kind: KindConflict, Err: errors.New("row version conflict")}

func hasClass(code, class string) bool {
	return len(code) == 5 && code[:2] == class
}
