package seeding

import (
	"context"
	"fmt"

	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-models"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-repositories"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-utils"
)

// SeedNominationYear makes sure a settings row exists for year. A new row
// is created closed; an existing row keeps its state.
func SeedNominationYear(ctx context.Context, settingsRepo repositories.NominationSettingsRepository, year int) error {
	existing, err := settingsRepo.GetByYear(ctx, year)
	if err != nil {
		return fmt.Errorf("error checking nomination settings for %d: %w", year, err)
	}
	if existing != nil {
		utils.Logger.Debugf("Nomination settings for %d already exist; skipping seed.", year)
		return nil
	}

	s := &models.NominationSettings{Year: year}
	if err := settingsRepo.Create(ctx, s); err != nil {
		if repositories.IsUniqueViolation(err, repositories.ConstraintNominationSettingsYear) {
			return nil
		}
		return fmt.Errorf("failed to insert nomination settings for %d: %w", year, err)
	}
	utils.Logger.Infof("Seeded closed nomination settings for %d.", year)
	return nil
}
