package seeding

import (
	"context"
	"fmt"

	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-models"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-repositories"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-utils"
	"github.com/google/uuid"
)

const (
	DefaultApprovedMemberID = "5eed0000-0000-4000-a000-000000000001"
	DefaultPendingMemberID  = "5eed0000-0000-4000-a000-000000000002"
)

var defaultMembers = []models.Member{
	{
		ID:               uuid.MustParse(DefaultApprovedMemberID),
		FullName:         "Seed Approved Member",
		Email:            "approved.member@faprna.test",
		MembershipStatus: models.MembershipStatusApproved,
	},
	{
		ID:               uuid.MustParse(DefaultPendingMemberID),
		FullName:         "Seed Pending Member",
		Email:            "pending.member@faprna.test",
		MembershipStatus: models.MembershipStatusPending,
	},
}

// SeedDefaultMembers inserts the fixed dev members. Rows that already exist,
// including ones created concurrently by another instance, are left alone.
func SeedDefaultMembers(ctx context.Context, memberRepo repositories.MemberRepository) error {
	for _, m := range defaultMembers {
		existing, err := memberRepo.GetByEmail(ctx, m.Email)
		if err != nil {
			return fmt.Errorf("error checking for existing member %s: %w", m.Email, err)
		}
		if existing != nil {
			utils.Logger.Debugf("Seed member %s already exists; skipping.", m.Email)
			continue
		}

		member := m
		if err := memberRepo.Create(ctx, &member); err != nil {
			if repositories.IsUniqueViolation(err, repositories.ConstraintMemberEmail) {
				continue
			}
			return fmt.Errorf("failed to insert seed member %s: %w", m.Email, err)
		}
		utils.Logger.Infof("Seeded member (ID=%s, status=%s).", member.ID, member.MembershipStatus)
	}
	return nil
}
