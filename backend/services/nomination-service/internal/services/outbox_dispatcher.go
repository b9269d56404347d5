package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Arshie13/FAPRNA-sub000/backend/services/nomination-service/internal/config"
	"github.com/Arshie13/FAPRNA-sub000/backend/services/nomination-service/internal/metrics"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-models"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-repositories"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-utils"
	"github.com/sirupsen/logrus"
)

// OutboxDispatcher delivers notification_outbox rows written by business
// transactions. Failures are retried with exponential backoff until the
// row's max_attempts, then the row is marked FAILED.
type OutboxDispatcher struct {
	repo         repositories.NotificationOutboxRepository
	notifier     Notifier
	metrics      *metrics.Metrics
	now          Clock
	pollInterval time.Duration
	batchSize    int
	baseBackoff  time.Duration
	stuckAfter   time.Duration
}

func NewOutboxDispatcher(
	repo repositories.NotificationOutboxRepository,
	notifier Notifier,
	cfg *config.Config,
	m *metrics.Metrics,
	now Clock,
) *OutboxDispatcher {
	d := &OutboxDispatcher{
		repo:         repo,
		notifier:     notifier,
		metrics:      m,
		now:          orNow(now),
		pollInterval: cfg.OutboxPollInterval,
		batchSize:    cfg.OutboxBatchSize,
		baseBackoff:  cfg.OutboxBaseBackoff,
		stuckAfter:   cfg.OutboxStuckAfter,
	}
	if d.pollInterval <= 0 {
		d.pollInterval = config.DefaultOutboxPollInterval
	}
	if d.batchSize <= 0 {
		d.batchSize = config.DefaultOutboxBatchSize
	}
	if d.baseBackoff <= 0 {
		d.baseBackoff = config.DefaultOutboxBaseBackoff
	}
	if d.stuckAfter <= 0 {
		d.stuckAfter = config.DefaultOutboxStuckAfter
	}
	return d
}

// Run polls until ctx is cancelled. It always returns nil so an errgroup
// shutdown is driven by the other members.
func (d *OutboxDispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	utils.Logger.WithFields(logrus.Fields{
		"poll_interval": d.pollInterval,
		"batch_size":    d.batchSize,
	}).Info("Outbox dispatcher started")

	for {
		select {
		case <-ctx.Done():
			utils.Logger.Info("Outbox dispatcher stopped")
			return nil
		case <-ticker.C:
			if _, err := d.ProcessOnce(ctx); err != nil {
				utils.Logger.WithError(err).Error("Outbox dispatch cycle failed")
			}
		}
	}
}

// ProcessOnce resets stuck rows, claims one batch and delivers it. It
// returns how many rows were claimed.
func (d *OutboxDispatcher) ProcessOnce(ctx context.Context) (int, error) {
	now := d.now()

	if reset, err := d.repo.ResetStuck(ctx, now.Add(-d.stuckAfter)); err != nil {
		utils.Logger.WithError(err).Warn("Failed to reset stuck outbox rows")
	} else if reset > 0 {
		utils.Logger.WithField("count", reset).Warn("Reset stuck outbox rows to PENDING")
	}

	entries, err := d.repo.ClaimDue(ctx, now, d.batchSize)
	if err != nil {
		return 0, fmt.Errorf("claiming outbox rows: %w", err)
	}
	for _, e := range entries {
		d.deliver(ctx, e)
	}
	return len(entries), nil
}

func (d *OutboxDispatcher) deliver(ctx context.Context, e *models.NotificationOutboxEntry) {
	log := utils.Logger.WithFields(logrus.Fields{
		"outbox_id": e.ID,
		"kind":      e.Kind,
	})

	sendErr := d.send(ctx, e)
	now := d.now()
	attempts := e.Attempts + 1

	if sendErr == nil {
		if err := d.repo.MarkSent(ctx, e.ID, now); err != nil {
			log.WithError(err).Error("Failed to mark outbox row sent")
		}
		d.metrics.IncNotificationDispatched(string(e.Kind), "sent")
		log.Info("Notification delivered")
		return
	}

	if attempts >= e.MaxAttempts {
		if err := d.repo.MarkFailed(ctx, e.ID, attempts, sendErr.Error()); err != nil {
			log.WithError(err).Error("Failed to mark outbox row failed")
		}
		d.metrics.IncNotificationDispatched(string(e.Kind), "failed")
		log.WithError(sendErr).WithField("attempts", attempts).Error("Notification failed after max attempts")
		return
	}

	next := now.Add(d.baseBackoff * time.Duration(1<<e.Attempts))
	if err := d.repo.Reschedule(ctx, e.ID, attempts, next, sendErr.Error()); err != nil {
		log.WithError(err).Error("Failed to reschedule outbox row")
	}
	d.metrics.IncNotificationDispatched(string(e.Kind), "retry")
	log.WithError(sendErr).WithFields(logrus.Fields{
		"attempts":        attempts,
		"next_attempt_at": next,
	}).Warn("Notification failed, will retry")
}

func (d *OutboxDispatcher) send(ctx context.Context, e *models.NotificationOutboxEntry) error {
	var p models.NominationNotificationPayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return fmt.Errorf("decoding outbox payload: %w", err)
	}
	msg := NominationEmail{
		To:            e.Recipient,
		NominatorName: p.NominatorName,
		NomineeName:   p.NomineeName,
		NomineeEmail:  p.NomineeEmail,
		Category:      p.Category,
		Year:          p.Year,
		Status:        p.Status,
	}

	switch e.Kind {
	case models.NotificationKindNominationReceived:
		return d.notifier.SendNominationReceived(ctx, msg)
	case models.NotificationKindNominationStatusChanged:
		return d.notifier.SendNominationStatusChanged(ctx, msg)
	default:
		return fmt.Errorf("unknown notification kind %q", e.Kind)
	}
}
