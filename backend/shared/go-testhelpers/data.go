//go:build integration

package testhelpers

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var emailSeq atomic.Int64

// UniqueEmail generates a unique, already-normalised email for testing.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d-%d@faprna.test", prefix, time.Now().UnixNano(), emailSeq.Add(1))
}

// CreateTestMember creates and persists a member with the given status.
func (h *TestHelper) CreateTestMember(ctx context.Context, emailPrefix string, status models.MembershipStatusType) *models.Member {
	m := &models.Member{
		ID:               uuid.New(),
		FullName:         "Test " + emailPrefix,
		Email:            UniqueEmail(emailPrefix),
		MembershipStatus: status,
	}
	require.NoError(h.T, h.MemberRepo.Create(ctx, m), "Failed to create test member")

	created, err := h.MemberRepo.GetByID(ctx, m.ID)
	require.NoError(h.T, err)
	require.NotNil(h.T, created, "Failed to fetch member immediately after creation")
	return created
}

// CreateTestNomination persists a PENDING nomination between two fresh members.
func (h *TestHelper) CreateTestNomination(ctx context.Context, category string, year int) *models.Nomination {
	nominator := h.CreateTestMember(ctx, "nominator", models.MembershipStatusApproved)
	nominee := h.CreateTestMember(ctx, "nominee", models.MembershipStatusPending)

	n := &models.Nomination{
		NominatorID: nominator.ID,
		NomineeID:   nominee.ID,
		Category:    category,
		Reason:      "Outstanding leadership in " + category,
		Year:        year,
	}
	require.NoError(h.T, h.NominationRepo.Create(ctx, n), "Failed to create test nomination")
	return n
}

// SetWindow opens or closes nominations for year.
func (h *TestHelper) SetWindow(ctx context.Context, year int, open bool) *models.NominationSettings {
	s, err := h.SettingsRepo.UpsertOpenState(ctx, year, open, time.Now().UTC())
	require.NoError(h.T, err, "Failed to set nomination window")
	return s
}
