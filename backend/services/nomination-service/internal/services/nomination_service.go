package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Arshie13/FAPRNA-sub000/backend/services/nomination-service/internal/metrics"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-models"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-repositories"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/sirupsen/logrus"
)

const MaxReasonLength = 300

// CreateNominationInput is one submission of the nomination form.
type CreateNominationInput struct {
	Nominator PersonInput
	Nominee   PersonInput
	Category  string
	Reason    string
}

type NominationService interface {
	Create(ctx context.Context, in CreateNominationInput) (*models.Nomination, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.NominationStatusType) (*models.Nomination, error)

	ListAll(ctx context.Context, year *int) ([]*models.Nomination, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Nomination, error)
	ListEligibleMembers(ctx context.Context) ([]*models.Member, error)

	// GetStats summarises year, or the current year when year is nil.
	GetStats(ctx context.Context, year *int) (*models.NominationStats, error)
}

type nominationService struct {
	tx             repositories.Transactor
	nominationRepo repositories.NominationRepository
	memberRepo     repositories.MemberRepository
	outboxRepo     repositories.NotificationOutboxRepository
	identity       IdentityResolver
	window         WindowController
	metrics        *metrics.Metrics
	maxAttempts    int
	now            Clock
}

func NewNominationService(
	tx repositories.Transactor,
	nominationRepo repositories.NominationRepository,
	memberRepo repositories.MemberRepository,
	outboxRepo repositories.NotificationOutboxRepository,
	identity IdentityResolver,
	window WindowController,
	m *metrics.Metrics,
	outboxMaxAttempts int,
	now Clock,
) NominationService {
	return &nominationService{
		tx:             tx,
		nominationRepo: nominationRepo,
		memberRepo:     memberRepo,
		outboxRepo:     outboxRepo,
		identity:       identity,
		window:         window,
		metrics:        m,
		maxAttempts:    outboxMaxAttempts,
		now:            orNow(now),
	}
}

// ---------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------

func (s *nominationService) Create(ctx context.Context, in CreateNominationInput) (*models.Nomination, error) {
	in, vErr := normalizeNominationInput(in)
	if vErr != nil {
		s.metrics.IncNominationRejected("validation")
		return nil, vErr
	}

	year := s.window.CurrentYear()
	open, err := s.window.IsOpen(ctx, year)
	if err != nil {
		s.metrics.IncNominationRejected("persistence")
		return nil, err
	}
	if !open {
		s.metrics.IncNominationRejected("window_closed")
		return nil, utils.NewWindowClosedError(year)
	}

	nominator, err := s.identity.ResolveOrCreate(ctx, in.Nominator)
	if err != nil {
		s.metrics.IncNominationRejected("persistence")
		return nil, err
	}
	nominee, err := s.identity.ResolveOrCreate(ctx, in.Nominee)
	if err != nil {
		s.metrics.IncNominationRejected("persistence")
		return nil, err
	}

	// Fast path for the friendly message; the unique constraint below is
	// what actually guarantees one nomination per category per year.
	existing, err := s.nominationRepo.FindByNominatorCategoryYear(ctx, nominator.ID, in.Category, year)
	if err != nil {
		s.metrics.IncNominationRejected("persistence")
		return nil, persistenceFailure("nomination.find_existing", err)
	}
	if existing != nil {
		s.metrics.IncNominationRejected("duplicate")
		return nil, duplicateNominationError(existing)
	}

	n := &models.Nomination{
		ID:          uuid.New(),
		NominatorID: nominator.ID,
		NomineeID:   nominee.ID,
		Category:    in.Category,
		Reason:      in.Reason,
		Status:      models.NominationStatusPending,
		Year:        year,
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.nominationRepo.Create(ctx, n); err != nil {
			return err
		}
		return s.enqueue(ctx, models.NotificationKindNominationReceived, nominee.Email, n, nominator, nominee)
	})
	if err != nil {
		if repositories.IsUniqueViolation(err, repositories.ConstraintNominationPerCategory) {
			s.metrics.IncNominationRejected("duplicate")
			return nil, s.duplicateAfterRace(ctx, nominator.ID, in.Category, year, err)
		}
		s.metrics.IncNominationRejected("persistence")
		return nil, persistenceFailure("nomination.create", err)
	}

	n.Nominator = nominator
	n.Nominee = nominee
	s.metrics.IncNominationCreated()
	utils.Logger.WithFields(logrus.Fields{
		"nomination_id": n.ID,
		"category":      n.Category,
		"year":          n.Year,
	}).Info("Nomination created")
	return n, nil
}

// duplicateAfterRace re-reads the row that won the unique constraint so the
// caller still gets the existing nominee's details.
func (s *nominationService) duplicateAfterRace(
	ctx context.Context,
	nominatorID uuid.UUID,
	category string,
	year int,
	cause error,
) error {
	existing, err := s.nominationRepo.FindByNominatorCategoryYear(ctx, nominatorID, category, year)
	if err != nil {
		return persistenceFailure("nomination.refetch_duplicate", err)
	}
	if existing == nil {
		return persistenceFailure("nomination.refetch_duplicate", cause)
	}
	return duplicateNominationError(existing)
}

func duplicateNominationError(existing *models.Nomination) *utils.AppError {
	d := utils.DuplicateNominationDetails{Category: existing.Category, Year: existing.Year}
	if existing.Nominee != nil {
		d.NomineeName = existing.Nominee.FullName
		d.NomineeEmail = existing.Nominee.Email
	}
	return utils.NewDuplicateNominationError(d)
}

// normalizeNominationInput trims and lower-cases what is compared or stored.
func normalizeNominationInput(in CreateNominationInput) (CreateNominationInput, *utils.AppError) {
	for _, p := range []*PersonInput{&in.Nominator, &in.Nominee} {
		p.FullName = strings.TrimSpace(p.FullName)
		p.Email = utils.NormalizeEmail(p.Email)
	}
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	in.Reason = strings.TrimSpace(in.Reason)

	switch {
	case in.Nominator.FullName == "" || in.Nominee.FullName == "":
		return in, utils.NewValidationError("Nominator and nominee names are required", nil)
	case !utils.IsValidEmailSyntax(in.Nominator.Email):
		return in, utils.NewValidationError("Nominator email is invalid", utils.ErrInvalidEmail)
	case !utils.IsValidEmailSyntax(in.Nominee.Email):
		return in, utils.NewValidationError("Nominee email is invalid", utils.ErrInvalidEmail)
	case in.Category == "":
		return in, utils.NewValidationError("Category is required", nil)
	case in.Reason == "":
		return in, utils.NewValidationError("Reason is required", nil)
	case utf8.RuneCountInString(in.Reason) > MaxReasonLength:
		return in, utils.NewValidationError(
			fmt.Sprintf("Reason must be at most %d characters", MaxReasonLength), nil,
		)
	}
	return in, nil
}

// ---------------------------------------------------------------------
// Status transitions
// ---------------------------------------------------------------------

// errStatusUnchanged stops the retry loop when the target status is already set.
var errStatusUnchanged = errors.New("status unchanged")

// UpdateStatus moves a PENDING nomination to APPROVED or REJECTED. Repeating
// the current terminal status succeeds without writing.
func (s *nominationService) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status models.NominationStatusType,
) (*models.Nomination, error) {
	if !status.IsTerminal() {
		return nil, utils.NewValidationError("Status must be APPROVED or REJECTED", nil)
	}

	var updated *models.Nomination
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		err := s.nominationRepo.UpdateWithRetry(ctx, id, func(n *models.Nomination) error {
			updated = n
			if n.Status == status {
				return errStatusUnchanged
			}
			if n.Status.IsTerminal() {
				return utils.NewInvalidTransitionError(
					fmt.Sprintf("Nomination is already %s", strings.ToLower(string(n.Status))),
				)
			}
			n.Status = status
			return nil
		})
		if err != nil {
			return err
		}
		if updated.Nominator == nil {
			return fmt.Errorf("nomination %s loaded without nominator", id)
		}
		return s.enqueue(ctx, models.NotificationKindNominationStatusChanged,
			updated.Nominator.Email, updated, updated.Nominator, updated.Nominee)
	})

	switch {
	case err == nil:
		s.metrics.IncStatusChange(string(status))
		utils.Logger.WithFields(logrus.Fields{
			"nomination_id": id,
			"status":        status,
		}).Info("Nomination status updated")
		return updated, nil
	case errors.Is(err, errStatusUnchanged):
		return updated, nil
	case errors.Is(err, pgx.ErrNoRows):
		return nil, utils.NewNotFoundError("Nomination not found")
	case errors.Is(err, repositories.ErrVersionConflict):
		return nil, utils.NewRowVersionConflictError(err)
	default:
		return nil, persistenceFailure("nomination.update_status", err)
	}
}

// ---------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------

func (s *nominationService) ListAll(ctx context.Context, year *int) ([]*models.Nomination, error) {
	list, err := s.nominationRepo.List(ctx, year)
	if err != nil {
		return nil, persistenceFailure("nomination.list", err)
	}
	return list, nil
}

func (s *nominationService) GetByID(ctx context.Context, id uuid.UUID) (*models.Nomination, error) {
	n, err := s.nominationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, persistenceFailure("nomination.get_by_id", err)
	}
	if n == nil {
		return nil, utils.NewNotFoundError("Nomination not found")
	}
	return n, nil
}

func (s *nominationService) ListEligibleMembers(ctx context.Context) ([]*models.Member, error) {
	members, err := s.memberRepo.ListByMembershipStatus(ctx, models.MembershipStatusApproved)
	if err != nil {
		return nil, persistenceFailure("member.list_eligible", err)
	}
	return members, nil
}

func (s *nominationService) GetStats(ctx context.Context, year *int) (*models.NominationStats, error) {
	y := s.window.CurrentYear()
	if year != nil {
		y = *year
	}
	stats, err := s.nominationRepo.StatsByYear(ctx, y)
	if err != nil {
		return nil, persistenceFailure("nomination.stats", err)
	}
	return stats, nil
}

// ---------------------------------------------------------------------
// Outbox
// ---------------------------------------------------------------------

func (s *nominationService) enqueue(
	ctx context.Context,
	kind models.NotificationKindType,
	recipient string,
	n *models.Nomination,
	nominator, nominee *models.Member,
) error {
	payload := models.NominationNotificationPayload{
		NominationID: n.ID,
		Category:     n.Category,
		Year:         n.Year,
		Status:       n.Status,
	}
	if nominator != nil {
		payload.NominatorName = nominator.FullName
	}
	if nominee != nil {
		payload.NomineeName = nominee.FullName
		payload.NomineeEmail = nominee.Email
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.outboxRepo.Enqueue(ctx, &models.NotificationOutboxEntry{
		Kind:          kind,
		Recipient:     recipient,
		Payload:       raw,
		MaxAttempts:   s.maxAttempts,
		NextAttemptAt: s.now(),
	})
}
