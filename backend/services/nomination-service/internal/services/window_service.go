package services

import (
	"context"
	"fmt"

	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-models"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-repositories"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-utils"
	"github.com/google/uuid"
)

const (
	MinNominationYear = 2000
	MaxNominationYear = 2100
)

// WindowController owns the per-year open/closed switch for nominations.
type WindowController interface {
	CurrentYear() int

	// GetSettings never returns nil. A year with no stored row yields a
	// closed, non-persisted default.
	GetSettings(ctx context.Context, year int) (*models.NominationSettings, error)
	IsOpen(ctx context.Context, year int) (bool, error)
	ListYears(ctx context.Context) ([]*models.NominationSettings, error)

	// Toggle sets the current year's open flag, creating the row if needed.
	Toggle(ctx context.Context, isOpen bool) (*models.NominationSettings, error)
	CreateYear(ctx context.Context, year int) (*models.NominationSettings, error)
}

type windowController struct {
	settingsRepo repositories.NominationSettingsRepository
	now          Clock
}

func NewWindowController(settingsRepo repositories.NominationSettingsRepository, now Clock) WindowController {
	return &windowController{settingsRepo: settingsRepo, now: orNow(now)}
}

func (s *windowController) CurrentYear() int {
	return s.now().Year()
}

func (s *windowController) GetSettings(ctx context.Context, year int) (*models.NominationSettings, error) {
	settings, err := s.settingsRepo.GetByYear(ctx, year)
	if err != nil {
		return nil, persistenceFailure("settings.get_by_year", err)
	}
	if settings == nil {
		return &models.NominationSettings{Year: year, IsNominationOpen: false}, nil
	}
	return settings, nil
}

func (s *windowController) IsOpen(ctx context.Context, year int) (bool, error) {
	settings, err := s.GetSettings(ctx, year)
	if err != nil {
		return false, err
	}
	return settings.IsNominationOpen, nil
}

func (s *windowController) ListYears(ctx context.Context) ([]*models.NominationSettings, error) {
	list, err := s.settingsRepo.List(ctx)
	if err != nil {
		return nil, persistenceFailure("settings.list", err)
	}
	return list, nil
}

func (s *windowController) Toggle(ctx context.Context, isOpen bool) (*models.NominationSettings, error) {
	now := s.now()
	year := now.Year()

	settings, err := s.settingsRepo.UpsertOpenState(ctx, year, isOpen, now.UTC())
	if err != nil {
		return nil, persistenceFailure("settings.upsert_open_state", err)
	}
	utils.Logger.WithField("year", year).Infof("Nomination window set open=%t", isOpen)
	return settings, nil
}

func (s *windowController) CreateYear(ctx context.Context, year int) (*models.NominationSettings, error) {
	if year < MinNominationYear || year > MaxNominationYear {
		return nil, utils.NewValidationError(
			fmt.Sprintf("Year must be between %d and %d", MinNominationYear, MaxNominationYear), nil,
		)
	}

	settings := &models.NominationSettings{
		ID:               uuid.New(),
		Year:             year,
		IsNominationOpen: false,
	}
	if err := s.settingsRepo.Create(ctx, settings); err != nil {
		if repositories.IsUniqueViolation(err, repositories.ConstraintNominationSettingsYear) {
			return nil, utils.NewDuplicateYearError(year)
		}
		return nil, persistenceFailure("settings.create", err)
	}
	utils.Logger.WithField("year", year).Info("Nomination year created")
	return settings, nil
}
