package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Arshie13/FAPRNA-sub000/backend/services/nomination-service/internal/metrics"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-models"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-repositories"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-utils"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

type nominationFixture struct {
	svc      NominationService
	window   WindowController
	tx       *fakeTx
	members  *fakeMemberRepo
	noms     *fakeNominationRepo
	settings *fakeSettingsRepo
	outbox   *fakeOutboxRepo
	metrics  *metrics.Metrics
	clock    *fixedClock
}

func newNominationFixture(t *testing.T) *nominationFixture {
	t.Helper()
	f := &nominationFixture{
		tx:       &fakeTx{},
		members:  newFakeMemberRepo(),
		settings: newFakeSettingsRepo(),
		outbox:   &fakeOutboxRepo{},
		metrics:  metrics.New(prometheus.NewRegistry()),
		clock:    newFixedClock(testNow),
	}
	f.noms = newFakeNominationRepo(f.members)
	f.window = NewWindowController(f.settings, f.clock.Now)
	f.svc = NewNominationService(
		f.tx, f.noms, f.members, f.outbox,
		NewIdentityResolver(f.members), f.window,
		f.metrics, 5, f.clock.Now,
	)
	f.settings.setOpen(testNow.Year(), true)
	return f
}

func scenarioAInput() CreateNominationInput {
	return CreateNominationInput{
		Nominator: PersonInput{FullName: "Alice Nominator", Email: "a@x.com"},
		Nominee:   PersonInput{FullName: "Bob Nominee", Email: "b@x.com"},
		Category:  models.CategoryImpact,
		Reason:    "Led the community vaccination drive.",
	}
}

func requireAppErr(t *testing.T, err error, sentinel error) *utils.AppError {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, sentinel)
	var appErr *utils.AppError
	require.True(t, errors.As(err, &appErr), "expected *utils.AppError, got %T", err)
	return appErr
}

// ---------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------

func TestCreate_WindowOpenCreatesPendingNomination(t *testing.T) {
	f := newNominationFixture(t)

	n, err := f.svc.Create(context.Background(), scenarioAInput())
	require.NoError(t, err)

	assert.Equal(t, models.NominationStatusPending, n.Status)
	assert.Equal(t, 2025, n.Year)
	assert.Equal(t, "impact", n.Category)
	require.NotNil(t, n.Nominator)
	require.NotNil(t, n.Nominee)
	assert.Equal(t, "a@x.com", n.Nominator.Email)
	assert.Equal(t, "b@x.com", n.Nominee.Email)
	assert.Equal(t, models.MembershipStatusPending, n.Nominee.MembershipStatus)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.NominationsCreated))

	entries := f.outbox.snapshot()
	require.Len(t, entries, 1)
	assert.Equal(t, models.NotificationKindNominationReceived, entries[0].Kind)
	assert.Equal(t, "b@x.com", entries[0].Recipient)
	assert.Equal(t, 5, entries[0].MaxAttempts)

	var payload models.NominationNotificationPayload
	require.NoError(t, json.Unmarshal(entries[0].Payload, &payload))
	assert.Equal(t, n.ID, payload.NominationID)
	assert.Equal(t, "Alice Nominator", payload.NominatorName)
	assert.Equal(t, "Bob Nominee", payload.NomineeName)
}

func TestCreate_RepeatIsDuplicateWithNomineeName(t *testing.T) {
	f := newNominationFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, scenarioAInput())
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, scenarioAInput())
	appErr := requireAppErr(t, err, utils.ErrDuplicateNomination)
	assert.Contains(t, appErr.Message, "Bob Nominee")

	details, ok := appErr.Details.(utils.DuplicateNominationDetails)
	require.True(t, ok)
	assert.Equal(t, "b@x.com", details.NomineeEmail)
	assert.Equal(t, "impact", details.Category)

	all, err := f.svc.ListAll(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Len(t, f.outbox.snapshot(), 1)
}

func TestCreate_SameTripleDifferentCaseIsStillDuplicate(t *testing.T) {
	f := newNominationFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, scenarioAInput())
	require.NoError(t, err)

	in := scenarioAInput()
	in.Nominator.Email = "  A@X.com "
	in.Category = " Impact "
	in.Nominee = PersonInput{FullName: "Carol Other", Email: "c@x.com"}
	_, err = f.svc.Create(ctx, in)
	appErr := requireAppErr(t, err, utils.ErrDuplicateNomination)
	assert.Contains(t, appErr.Message, "Bob Nominee", "message names the nominee already chosen")
}

func TestCreate_OtherCategoryIsAllowed(t *testing.T) {
	f := newNominationFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, scenarioAInput())
	require.NoError(t, err)

	in := scenarioAInput()
	in.Category = models.CategoryInquiry
	_, err = f.svc.Create(ctx, in)
	require.NoError(t, err)
}

func TestCreate_UniqueViolationIsAuthoritativeDuplicate(t *testing.T) {
	f := newNominationFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, scenarioAInput())
	require.NoError(t, err)

	// The pre-check misses, as it would for two concurrent submissions.
	f.noms.skipLookup = true
	_, err = f.svc.Create(ctx, scenarioAInput())
	appErr := requireAppErr(t, err, utils.ErrDuplicateNomination)
	assert.Contains(t, appErr.Message, "Bob Nominee")
	assert.Len(t, f.outbox.snapshot(), 1, "losing insert enqueues nothing")
}

func TestCreate_WindowClosedPersistsNothing(t *testing.T) {
	f := newNominationFixture(t)
	f.settings.setOpen(testNow.Year(), false)

	_, err := f.svc.Create(context.Background(), scenarioAInput())
	appErr := requireAppErr(t, err, utils.ErrWindowClosed)
	assert.Equal(t, utils.ErrCodeWindowClosed, appErr.Code)

	assert.Zero(t, f.members.count(), "no members are created for a closed window")
	all, err := f.svc.ListAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreate_NoSettingsRowMeansClosed(t *testing.T) {
	f := newNominationFixture(t)
	f.clock.Advance(365 * 24 * time.Hour) // 2026 has no row

	_, err := f.svc.Create(context.Background(), scenarioAInput())
	requireAppErr(t, err, utils.ErrWindowClosed)
}

func TestCreate_Validation(t *testing.T) {
	cases := map[string]func(*CreateNominationInput){
		"missing nominator name": func(in *CreateNominationInput) { in.Nominator.FullName = "  " },
		"bad nominee email":      func(in *CreateNominationInput) { in.Nominee.Email = "not-an-email" },
		"empty category":         func(in *CreateNominationInput) { in.Category = "" },
		"empty reason":           func(in *CreateNominationInput) { in.Reason = "   " },
		"reason too long":        func(in *CreateNominationInput) { in.Reason = strings.Repeat("x", MaxReasonLength+1) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newNominationFixture(t)
			in := scenarioAInput()
			mutate(&in)

			_, err := f.svc.Create(context.Background(), in)
			var appErr *utils.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, utils.ErrCodeValidation, appErr.Code)
			assert.Zero(t, f.members.count())
		})
	}
}

func TestCreate_ReasonAtLimitIsAccepted(t *testing.T) {
	f := newNominationFixture(t)
	in := scenarioAInput()
	in.Reason = strings.Repeat("é", MaxReasonLength)

	_, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)
}

func TestCreate_SelfNominationIsAllowed(t *testing.T) {
	f := newNominationFixture(t)
	in := scenarioAInput()
	in.Nominee = in.Nominator

	n, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, n.NominatorID, n.NomineeID)
	assert.Equal(t, 1, f.members.count())
}

func TestCreate_ReusesExistingMembers(t *testing.T) {
	f := newNominationFixture(t)
	existing := &models.Member{FullName: "Bob Original", Email: "b@x.com", MembershipStatus: models.MembershipStatusApproved}
	f.members.put(existing)

	n, err := f.svc.Create(context.Background(), scenarioAInput())
	require.NoError(t, err)
	assert.Equal(t, existing.ID, n.NomineeID)
	assert.Equal(t, "Bob Original", n.Nominee.FullName, "existing member details are not overwritten")
	assert.Equal(t, 2, f.members.count())
}

func TestCreate_StorageFailureIsGenericPersistenceError(t *testing.T) {
	f := newNominationFixture(t)
	f.noms.createErr = errDBDown

	_, err := f.svc.Create(context.Background(), scenarioAInput())
	appErr := requireAppErr(t, err, utils.ErrPersistence)
	assert.Equal(t, utils.ErrCodePersistence, appErr.Code)
	assert.NotContains(t, appErr.Message, "connection refused")
}

func TestCreate_OutboxFailureFailsTheTransaction(t *testing.T) {
	f := newNominationFixture(t)
	f.outbox.enqueueErr = errDBDown

	_, err := f.svc.Create(context.Background(), scenarioAInput())
	requireAppErr(t, err, utils.ErrPersistence)
	assert.Equal(t, float64(0), testutil.ToFloat64(f.metrics.NominationsCreated))
}

// ---------------------------------------------------------------------
// UpdateStatus
// ---------------------------------------------------------------------

func createOne(t *testing.T, f *nominationFixture) *models.Nomination {
	t.Helper()
	n, err := f.svc.Create(context.Background(), scenarioAInput())
	require.NoError(t, err)
	return n
}

func TestUpdateStatus_PendingToApprovedNotifiesNominator(t *testing.T) {
	f := newNominationFixture(t)
	n := createOne(t, f)

	updated, err := f.svc.UpdateStatus(context.Background(), n.ID, models.NominationStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, models.NominationStatusApproved, updated.Status)
	assert.Equal(t, int64(2), updated.RowVersion)

	entries := f.outbox.snapshot()
	require.Len(t, entries, 2)
	last := entries[1]
	assert.Equal(t, models.NotificationKindNominationStatusChanged, last.Kind)
	assert.Equal(t, "a@x.com", last.Recipient)

	var payload models.NominationNotificationPayload
	require.NoError(t, json.Unmarshal(last.Payload, &payload))
	assert.Equal(t, models.NominationStatusApproved, payload.Status)
}

func TestUpdateStatus_RepeatIsIdempotent(t *testing.T) {
	f := newNominationFixture(t)
	n := createOne(t, f)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, n.ID, models.NominationStatusRejected)
	require.NoError(t, err)

	again, err := f.svc.UpdateStatus(ctx, n.ID, models.NominationStatusRejected)
	require.NoError(t, err)
	assert.Equal(t, models.NominationStatusRejected, again.Status)
	assert.Len(t, f.outbox.snapshot(), 2, "no second status email")
}

func TestUpdateStatus_TerminalCannotFlip(t *testing.T) {
	f := newNominationFixture(t)
	n := createOne(t, f)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, n.ID, models.NominationStatusApproved)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, n.ID, models.NominationStatusRejected)
	appErr := requireAppErr(t, err, utils.ErrInvalidTransition)
	assert.Equal(t, utils.ErrCodeInvalidTransition, appErr.Code)

	stored, err := f.svc.GetByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NominationStatusApproved, stored.Status)
}

func TestUpdateStatus_PendingIsNotATarget(t *testing.T) {
	f := newNominationFixture(t)
	n := createOne(t, f)

	_, err := f.svc.UpdateStatus(context.Background(), n.ID, models.NominationStatusPending)
	requireAppErr(t, err, utils.ErrValidation)
}

func TestUpdateStatus_UnknownID(t *testing.T) {
	f := newNominationFixture(t)

	_, err := f.svc.UpdateStatus(context.Background(), uuid.New(), models.NominationStatusApproved)
	requireAppErr(t, err, utils.ErrNotFound)
}

func TestUpdateStatus_RetriesPastOneConflict(t *testing.T) {
	f := newNominationFixture(t)
	n := createOne(t, f)
	f.noms.conflicts = 1

	updated, err := f.svc.UpdateStatus(context.Background(), n.ID, models.NominationStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, models.NominationStatusApproved, updated.Status)
}

func TestUpdateStatus_ExhaustedRetriesIsConflict(t *testing.T) {
	f := newNominationFixture(t)
	n := createOne(t, f)
	f.noms.conflicts = 3

	_, err := f.svc.UpdateStatus(context.Background(), n.ID, models.NominationStatusApproved)
	appErr := requireAppErr(t, err, utils.ErrRowVersionConflict)
	assert.Equal(t, utils.ErrCodeRowVersionConflict, appErr.Code)
	assert.ErrorIs(t, err, repositories.ErrVersionConflict)
}

// ---------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------

func TestGetByID_Missing(t *testing.T) {
	f := newNominationFixture(t)
	_, err := f.svc.GetByID(context.Background(), uuid.New())
	requireAppErr(t, err, utils.ErrNotFound)
}

func TestListAll_FiltersByYear(t *testing.T) {
	f := newNominationFixture(t)
	ctx := context.Background()
	createOne(t, f)

	f.clock.Advance(365 * 24 * time.Hour)
	f.settings.setOpen(2026, true)
	_, err := f.svc.Create(ctx, scenarioAInput())
	require.NoError(t, err, "same triple in a new year is a new nomination")

	all, err := f.svc.ListAll(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	only2025, err := f.svc.ListAll(ctx, utils.Ptr(2025))
	require.NoError(t, err)
	require.Len(t, only2025, 1)
	assert.Equal(t, 2025, only2025[0].Year)
}

func TestListEligibleMembers_OnlyApproved(t *testing.T) {
	f := newNominationFixture(t)
	f.members.put(&models.Member{FullName: "Approved", Email: "ok@x.com", MembershipStatus: models.MembershipStatusApproved})
	f.members.put(&models.Member{FullName: "Pending", Email: "p@x.com", MembershipStatus: models.MembershipStatusPending})
	f.members.put(&models.Member{FullName: "Denied", Email: "d@x.com", MembershipStatus: models.MembershipStatusDenied})

	list, err := f.svc.ListEligibleMembers(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ok@x.com", list[0].Email)
}

func TestGetStats_DefaultsToCurrentYear(t *testing.T) {
	f := newNominationFixture(t)
	ctx := context.Background()
	n := createOne(t, f)

	in := scenarioAInput()
	in.Category = models.CategoryInquiry
	_, err := f.svc.Create(ctx, in)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, n.ID, models.NominationStatusApproved)
	require.NoError(t, err)

	stats, err := f.svc.GetStats(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2025, stats.Year)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[models.NominationStatusApproved])
	assert.Equal(t, 1, stats.ByStatus[models.NominationStatusPending])
	assert.Equal(t, 1, stats.ByCategory[models.CategoryImpact])

	empty, err := f.svc.GetStats(ctx, utils.Ptr(2019))
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
}
