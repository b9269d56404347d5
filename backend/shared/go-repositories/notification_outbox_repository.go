package repositories

import (
	"context"
	"time"

	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
)

const DefaultOutboxMaxAttempts = 5

type NotificationOutboxRepository interface {
	Enqueue(ctx context.Context, e *models.NotificationOutboxEntry) error

	// ClaimDue atomically moves up to limit due PENDING rows to PROCESSING
	// and returns them. Rows locked by another claimer are skipped.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]*models.NotificationOutboxEntry, error)

	MarkSent(ctx context.Context, id uuid.UUID, now time.Time) error
	Reschedule(ctx context.Context, id uuid.UUID, attempts int, nextAttemptAt time.Time, lastErr string) error
	MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string) error

	// ResetStuck returns PROCESSING rows untouched since before to PENDING.
	ResetStuck(ctx context.Context, before time.Time) (int64, error)
}

type notificationOutboxRepository struct {
	db DB
}

func NewNotificationOutboxRepository(db DB) NotificationOutboxRepository {
	return &notificationOutboxRepository{db: db}
}

/* ---------- Create ---------- */

func (r *notificationOutboxRepository) Enqueue(ctx context.Context, e *models.NotificationOutboxEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.MaxAttempts == 0 {
		e.MaxAttempts = DefaultOutboxMaxAttempts
	}
	if e.NextAttemptAt.IsZero() {
		e.NextAttemptAt = time.Now()
	}
	e.Status = models.OutboxStatusPending

	err := conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO notification_outbox (
			id,kind,recipient,payload,status,attempts,max_attempts,next_attempt_at,
			created_at,updated_at
		) VALUES ($1,$2,$3,$4,$5,0,$6,$7,NOW(),NOW())
		RETURNING created_at,updated_at`,
		e.ID, string(e.Kind), e.Recipient, []byte(e.Payload), string(e.Status), e.MaxAttempts, e.NextAttemptAt,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	return classify(err)
}

/* ---------- Claim ---------- */

func (r *notificationOutboxRepository) ClaimDue(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*models.NotificationOutboxEntry, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `
		UPDATE notification_outbox SET status='PROCESSING', updated_at=$1
		WHERE id IN (
			SELECT id FROM notification_outbox
			WHERE status='PENDING' AND next_attempt_at <= $1
			ORDER BY created_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id,kind,recipient,payload,status,attempts,max_attempts,next_attempt_at,
		          last_error,created_at,updated_at`,
		now, limit,
	)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	entries := []*models.NotificationOutboxEntry{}
	for rows.Next() {
		e, err := scanOutboxEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, classify(rows.Err())
}

/* ---------- Outcome ---------- */

func (r *notificationOutboxRepository) MarkSent(ctx context.Context, id uuid.UUID, now time.Time) error {
	_, err := conn(ctx, r.db).Exec(ctx, `
		UPDATE notification_outbox
		SET status='SENT', attempts=attempts+1, last_error=NULL, updated_at=$2
		WHERE id=$1`, id, now)
	return classify(err)
}

func (r *notificationOutboxRepository) Reschedule(
	ctx context.Context,
	id uuid.UUID,
	attempts int,
	nextAttemptAt time.Time,
	lastErr string,
) error {
	_, err := conn(ctx, r.db).Exec(ctx, `
		UPDATE notification_outbox
		SET status='PENDING', attempts=$2, next_attempt_at=$3, last_error=$4, updated_at=NOW()
		WHERE id=$1`, id, attempts, nextAttemptAt, lastErr)
	return classify(err)
}

func (r *notificationOutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastErr string) error {
	_, err := conn(ctx, r.db).Exec(ctx, `
		UPDATE notification_outbox
		SET status='FAILED', attempts=$2, last_error=$3, updated_at=NOW()
		WHERE id=$1`, id, attempts, lastErr)
	return classify(err)
}

func (r *notificationOutboxRepository) ResetStuck(ctx context.Context, before time.Time) (int64, error) {
	tag, err := conn(ctx, r.db).Exec(ctx, `
		UPDATE notification_outbox
		SET status='PENDING', updated_at=NOW()
		WHERE status='PROCESSING' AND updated_at < $1`, before)
	if err != nil {
		return 0, classify(err)
	}
	return tag.RowsAffected(), nil
}

/* ---------- internals ---------- */

func scanOutboxEntry(row pgx.Row) (*models.NotificationOutboxEntry, error) {
	var (
		e            models.NotificationOutboxEntry
		kind, status string
		payload      []byte
	)
	err := row.Scan(
		&e.ID, &kind, &e.Recipient, &payload, &status, &e.Attempts, &e.MaxAttempts,
		&e.NextAttemptAt, &e.LastError, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, classify(err)
	}
	e.Kind = models.NotificationKindType(kind)
	e.Status = models.OutboxStatusType(status)
	e.Payload = payload
	return &e, nil
}
