package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
)

type EmailVerificationRepository interface {
	CreateCode(ctx context.Context, email, code string, expiresAt, createdAt time.Time) error

	// ConsumeCode marks the newest unused, unexpired row matching email and
	// code as used. It reports false when no such row exists or another
	// caller consumed it first.
	ConsumeCode(ctx context.Context, email, code string, now time.Time) (bool, error)

	// CleanupExpired deletes unused codes past expiry and used codes whose
	// used_at is older than usedBefore.
	CleanupExpired(ctx context.Context, now, usedBefore time.Time) (int64, error)
}

type emailVerificationRepository struct {
	db DB
}

func NewEmailVerificationRepository(db DB) EmailVerificationRepository {
	return &emailVerificationRepository{db: db}
}

func (r *emailVerificationRepository) CreateCode(
	ctx context.Context,
	email, code string,
	expiresAt, createdAt time.Time,
) error {
	q := `
		INSERT INTO email_verification_codes
			(id, email, code, expires_at, used, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5)
	`
	_, err := conn(ctx, r.db).Exec(ctx, q, uuid.New(), email, code, expiresAt, createdAt)
	return classify(err)
}

// The outer used = FALSE is re-evaluated against the locked row, so of two
// concurrent callers that picked the same id only one gets it back.
func (r *emailVerificationRepository) ConsumeCode(
	ctx context.Context,
	email, code string,
	now time.Time,
) (bool, error) {
	q := `
		UPDATE email_verification_codes
		SET used = TRUE, used_at = $3
		WHERE id = (
			SELECT id FROM email_verification_codes
			WHERE email = $1 AND code = $2 AND used = FALSE AND expires_at > $3
			ORDER BY created_at DESC
			LIMIT 1
		)
		AND used = FALSE
		RETURNING id
	`
	var id uuid.UUID
	err := conn(ctx, r.db).QueryRow(ctx, q, email, code, now).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, classify(err)
	}
	return true, nil
}

func (r *emailVerificationRepository) CleanupExpired(ctx context.Context, now, usedBefore time.Time) (int64, error) {
	q := `
		DELETE FROM email_verification_codes
		WHERE (used = FALSE AND expires_at < $1)
		   OR (used = TRUE AND used_at < $2)
	`
	tag, err := conn(ctx, r.db).Exec(ctx, q, now, usedBefore)
	if err != nil {
		return 0, classify(err)
	}
	return tag.RowsAffected(), nil
}
