package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Arshie13/FAPRNA-sub000/backend/services/nomination-service/internal/config"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-models"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-repositories"
	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-utils"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

func init() {
	utils.InitLogger("nomination-service-test")
}

var errDBDown = &repositories.PersistenceError{Kind: repositories.KindUnavailable, Err: errors.New("connection refused")}

func uniqueViolation(constraint string) error {
	return &repositories.PersistenceError{
		Kind:       repositories.KindUniqueViolation,
		Constraint: constraint,
		Err:        errors.New("duplicate key value violates unique constraint"),
	}
}

// fixedClock returns a Clock pinned to t that tests can move forward.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFixedClock(t time.Time) *fixedClock { return &fixedClock{t: t} }

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testConfig() *config.Config {
	return &config.Config{
		OrganizationName:         config.OrganizationName,
		AppName:                  config.DefaultAppName,
		SendGridAPIKey:           "SG.test",
		VerificationCodeLength:   config.VerificationCodeLength,
		VerificationCodeExpiry:   config.DefaultVerificationCodeExpiry,
		UsedCodeGracePeriod:      config.DefaultUsedCodeGracePeriod,
		NotificationTimeout:      time.Second,
		OutboxPollInterval:       10 * time.Millisecond,
		OutboxBatchSize:          config.DefaultOutboxBatchSize,
		OutboxMaxAttempts:        config.DefaultOutboxMaxAttempts,
		OutboxBaseBackoff:        config.DefaultOutboxBaseBackoff,
		OutboxStuckAfter:         config.DefaultOutboxStuckAfter,
		LDFlag_SendgridFromEmail: config.DefaultSendgridFromEmail,
	}
}

// ---------------------------------------------------------------------
// Transactor
// ---------------------------------------------------------------------

type fakeTx struct {
	calls int
}

func (f *fakeTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

// ---------------------------------------------------------------------
// Members
// ---------------------------------------------------------------------

type fakeMemberRepo struct {
	mu      sync.Mutex
	byEmail map[string]*models.Member

	getErr    error
	createErr error

	// beforeCreate runs once before the next Create stores anything,
	// letting a test slip in a competing row.
	beforeCreate func()
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{byEmail: map[string]*models.Member{}}
}

func (f *fakeMemberRepo) put(m *models.Member) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	f.byEmail[m.Email] = m
}

func (f *fakeMemberRepo) Create(_ context.Context, m *models.Member) error {
	if hook := f.beforeCreate; hook != nil {
		f.beforeCreate = nil
		hook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.byEmail[m.Email]; ok {
		return uniqueViolation(repositories.ConstraintMemberEmail)
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.MembershipStatus == "" {
		m.MembershipStatus = models.MembershipStatusPending
	}
	cp := *m
	f.byEmail[m.Email] = &cp
	return nil
}

func (f *fakeMemberRepo) GetByEmail(_ context.Context, email string) (*models.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if m, ok := f.byEmail[email]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeMemberRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.byEmail {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeMemberRepo) ListByMembershipStatus(_ context.Context, status models.MembershipStatusType) ([]*models.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Member
	for _, m := range f.byEmail {
		if m.MembershipStatus == status {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (f *fakeMemberRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byEmail)
}

// ---------------------------------------------------------------------
// Nominations
// ---------------------------------------------------------------------

type fakeNominationRepo struct {
	mu      sync.Mutex
	members *fakeMemberRepo
	rows    map[uuid.UUID]*models.Nomination

	createErr error

	// skipLookup hides rows from FindByNominatorCategoryYear until the
	// next Create, so the unique constraint path can be exercised.
	skipLookup bool

	// conflicts makes the next N versioned updates lose the race.
	conflicts int
}

func newFakeNominationRepo(members *fakeMemberRepo) *fakeNominationRepo {
	return &fakeNominationRepo{members: members, rows: map[uuid.UUID]*models.Nomination{}}
}

func (f *fakeNominationRepo) hydrate(n *models.Nomination) *models.Nomination {
	cp := *n
	cp.Nominator, _ = f.members.GetByID(context.Background(), n.NominatorID)
	cp.Nominee, _ = f.members.GetByID(context.Background(), n.NomineeID)
	return &cp
}

func (f *fakeNominationRepo) Create(_ context.Context, n *models.Nomination) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.skipLookup = false
	if f.createErr != nil {
		return f.createErr
	}
	for _, r := range f.rows {
		if r.NominatorID == n.NominatorID && r.Category == n.Category && r.Year == n.Year {
			return uniqueViolation(repositories.ConstraintNominationPerCategory)
		}
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.RowVersion = 1
	cp := *n
	cp.Nominator, cp.Nominee = nil, nil
	f.rows[n.ID] = &cp
	return nil
}

func (f *fakeNominationRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Nomination, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n, ok := f.rows[id]; ok {
		return f.hydrate(n), nil
	}
	return nil, nil
}

func (f *fakeNominationRepo) FindByNominatorCategoryYear(
	_ context.Context, nominatorID uuid.UUID, category string, year int,
) (*models.Nomination, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.skipLookup {
		return nil, nil
	}
	for _, n := range f.rows {
		if n.NominatorID == nominatorID && n.Category == category && n.Year == year {
			return f.hydrate(n), nil
		}
	}
	return nil, nil
}

func (f *fakeNominationRepo) List(_ context.Context, year *int) ([]*models.Nomination, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Nomination
	for _, n := range f.rows {
		if year == nil || n.Year == *year {
			out = append(out, f.hydrate(n))
		}
	}
	return out, nil
}

func (f *fakeNominationRepo) StatsByYear(_ context.Context, year int) (*models.NominationStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &models.NominationStats{
		Year:       year,
		ByStatus:   map[models.NominationStatusType]int{},
		ByCategory: map[string]int{},
	}
	for _, n := range f.rows {
		if n.Year != year {
			continue
		}
		stats.Total++
		stats.ByStatus[n.Status]++
		stats.ByCategory[n.Category]++
	}
	return stats, nil
}

func (f *fakeNominationRepo) UpdateIfVersion(
	_ context.Context, n *models.Nomination, expected int64,
) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.rows[n.ID]
	if !ok || stored.RowVersion != expected {
		return pgconn.CommandTag("UPDATE 0"), nil
	}
	stored.Status = n.Status
	stored.Reason = n.Reason
	stored.RowVersion++
	return pgconn.CommandTag("UPDATE 1"), nil
}

func (f *fakeNominationRepo) UpdateWithRetry(
	ctx context.Context, id uuid.UUID, mutate func(*models.Nomination) error,
) error {
	for attempt := 0; attempt < 3; attempt++ {
		current, _ := f.GetByID(ctx, id)
		if current == nil {
			return pgx.ErrNoRows
		}
		old := current.RowVersion
		if err := mutate(current); err != nil {
			return err
		}
		f.mu.Lock()
		if f.conflicts > 0 {
			f.conflicts--
			f.rows[id].RowVersion++
		}
		f.mu.Unlock()
		tag, _ := f.UpdateIfVersion(ctx, current, old)
		if tag.RowsAffected() == 1 {
			current.SetRowVersion(old + 1)
			return nil
		}
	}
	return repositories.ErrVersionConflict
}

// ---------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------

type fakeSettingsRepo struct {
	mu     sync.Mutex
	byYear map[int]*models.NominationSettings
	getErr error
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{byYear: map[int]*models.NominationSettings{}}
}

func (f *fakeSettingsRepo) GetByYear(_ context.Context, year int) (*models.NominationSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if s, ok := f.byYear[year]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeSettingsRepo) List(_ context.Context) ([]*models.NominationSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.NominationSettings, 0, len(f.byYear))
	for _, s := range f.byYear {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out, nil
}

func (f *fakeSettingsRepo) Create(_ context.Context, s *models.NominationSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byYear[s.Year]; ok {
		return uniqueViolation(repositories.ConstraintNominationSettingsYear)
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	f.byYear[s.Year] = &cp
	return nil
}

func (f *fakeSettingsRepo) UpsertOpenState(
	_ context.Context, year int, isOpen bool, now time.Time,
) (*models.NominationSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byYear[year]
	if !ok {
		s = &models.NominationSettings{ID: uuid.New(), Year: year, CreatedAt: now}
		f.byYear[year] = s
	}
	s.IsNominationOpen = isOpen
	if isOpen {
		s.NominationStartDate, s.NominationEndDate = &now, nil
	} else {
		s.NominationStartDate, s.NominationEndDate = nil, &now
	}
	s.UpdatedAt = now
	cp := *s
	return &cp, nil
}

func (f *fakeSettingsRepo) setOpen(year int, open bool) {
	_, _ = f.UpsertOpenState(context.Background(), year, open, time.Now())
}

// ---------------------------------------------------------------------
// Verification codes
// ---------------------------------------------------------------------

type fakeEmailRepo struct {
	mu        sync.Mutex
	codes     []*models.EmailVerificationCode
	createErr error

	cleanupNow, cleanupUsedBefore time.Time
}

func (f *fakeEmailRepo) CreateCode(_ context.Context, email, code string, expiresAt, createdAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.codes = append(f.codes, &models.EmailVerificationCode{
		ID: uuid.New(), Email: email, Code: code, ExpiresAt: expiresAt, CreatedAt: createdAt,
	})
	return nil
}

func (f *fakeEmailRepo) ConsumeCode(_ context.Context, email, code string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.codes) - 1; i >= 0; i-- {
		c := f.codes[i]
		if c.Email == email && c.Code == code && !c.Used && now.Before(c.ExpiresAt) {
			c.Used = true
			c.UsedAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEmailRepo) CleanupExpired(_ context.Context, now, usedBefore time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanupNow, f.cleanupUsedBefore = now, usedBefore
	kept := f.codes[:0]
	var deleted int64
	for _, c := range f.codes {
		expired := !c.Used && !now.Before(c.ExpiresAt)
		stale := c.Used && c.UsedAt != nil && c.UsedAt.Before(usedBefore)
		if expired || stale {
			deleted++
			continue
		}
		kept = append(kept, c)
	}
	f.codes = kept
	return deleted, nil
}

// ---------------------------------------------------------------------
// Outbox
// ---------------------------------------------------------------------

type fakeOutboxRepo struct {
	mu         sync.Mutex
	entries    []*models.NotificationOutboxEntry
	enqueueErr error
	claimErr   error
	resetCalls int
}

func (f *fakeOutboxRepo) Enqueue(_ context.Context, e *models.NotificationOutboxEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.Status = models.OutboxStatusPending
	cp := *e
	f.entries = append(f.entries, &cp)
	return nil
}

func (f *fakeOutboxRepo) ClaimDue(_ context.Context, now time.Time, limit int) ([]*models.NotificationOutboxEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	var out []*models.NotificationOutboxEntry
	for _, e := range f.entries {
		if len(out) == limit {
			break
		}
		if e.Status == models.OutboxStatusPending && !e.NextAttemptAt.After(now) {
			e.Status = models.OutboxStatusProcessing
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeOutboxRepo) find(id uuid.UUID) *models.NotificationOutboxEntry {
	for _, e := range f.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (f *fakeOutboxRepo) MarkSent(_ context.Context, id uuid.UUID, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e := f.find(id); e != nil {
		e.Status = models.OutboxStatusSent
		e.Attempts++
	}
	return nil
}

func (f *fakeOutboxRepo) Reschedule(_ context.Context, id uuid.UUID, attempts int, next time.Time, lastErr string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e := f.find(id); e != nil {
		e.Status = models.OutboxStatusPending
		e.Attempts = attempts
		e.NextAttemptAt = next
		e.LastError = &lastErr
	}
	return nil
}

func (f *fakeOutboxRepo) MarkFailed(_ context.Context, id uuid.UUID, attempts int, lastErr string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e := f.find(id); e != nil {
		e.Status = models.OutboxStatusFailed
		e.Attempts = attempts
		e.LastError = &lastErr
	}
	return nil
}

func (f *fakeOutboxRepo) ResetStuck(_ context.Context, _ time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetCalls++
	return 0, nil
}

func (f *fakeOutboxRepo) snapshot() []models.NotificationOutboxEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.NotificationOutboxEntry, len(f.entries))
	for i, e := range f.entries {
		out[i] = *e
	}
	return out
}

// ---------------------------------------------------------------------
// Notifier
// ---------------------------------------------------------------------

type sentCode struct {
	To, Code string
}

type recordingNotifier struct {
	mu       sync.Mutex
	codes    []sentCode
	received []NominationEmail
	changed  []NominationEmail

	// failNext fails that many upcoming sends.
	failNext int
}

func (n *recordingNotifier) fail() error {
	if n.failNext > 0 {
		n.failNext--
		return errors.Join(utils.ErrNotificationDelivery, errors.New("sendgrid responded 503"))
	}
	return nil
}

func (n *recordingNotifier) SendVerificationCode(_ context.Context, to, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.fail(); err != nil {
		return err
	}
	n.codes = append(n.codes, sentCode{To: to, Code: code})
	return nil
}

func (n *recordingNotifier) SendNominationReceived(_ context.Context, e NominationEmail) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.fail(); err != nil {
		return err
	}
	n.received = append(n.received, e)
	return nil
}

func (n *recordingNotifier) SendNominationStatusChanged(_ context.Context, e NominationEmail) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.fail(); err != nil {
		return err
	}
	n.changed = append(n.changed, e)
	return nil
}

func (n *recordingNotifier) lastCode() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.codes) == 0 {
		return ""
	}
	return n.codes[len(n.codes)-1].Code
}
