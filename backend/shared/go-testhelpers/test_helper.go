//go:build integration

package testhelpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-repositories"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const postgresImage = "postgres:16-alpine"

// TestHelper bundles a live database and every repository for integration tests.
type TestHelper struct {
	T   *testing.T
	Ctx context.Context
	DB  *pgxpool.Pool

	// Repositories
	Transactor     repositories.Transactor
	MemberRepo     repositories.MemberRepository
	NominationRepo repositories.NominationRepository
	SettingsRepo   repositories.NominationSettingsRepository
	EmailRepo      repositories.EmailVerificationRepository
	OutboxRepo     repositories.NotificationOutboxRepository
}

// PostgresDB is a database shared by one test package. Container is nil when
// TEST_DB_URL pointed at an existing server.
type PostgresDB struct {
	Container *tcpostgres.PostgresContainer
	URL       string
	Pool      *pgxpool.Pool
}

// StartPostgres connects to TEST_DB_URL when set, otherwise starts a
// throwaway container. The schema is applied either way. Call it once from
// TestMain.
func StartPostgres(ctx context.Context) (*PostgresDB, error) {
	db := &PostgresDB{URL: os.Getenv("TEST_DB_URL")}

	if db.URL == "" {
		container, err := tcpostgres.Run(ctx, postgresImage,
			tcpostgres.WithDatabase("faprna"),
			tcpostgres.WithUsername("faprna"),
			tcpostgres.WithPassword("faprna"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to start postgres container: %w", err)
		}
		db.Container = container

		url, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			_ = container.Terminate(ctx)
			return nil, fmt.Errorf("failed to get postgres connection string: %w", err)
		}
		db.URL = url
	}

	pool, err := pgxpool.Connect(ctx, db.URL)
	if err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	db.Pool = pool

	if err := repositories.ApplySchema(ctx, pool); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return db, nil
}

func (p *PostgresDB) Close(ctx context.Context) {
	if p.Pool != nil {
		p.Pool.Close()
	}
	if p.Container != nil {
		_ = p.Container.Terminate(ctx)
	}
}

// NewTestHelper wires repositories on pool and truncates every table so each
// test starts from an empty database.
func NewTestHelper(t *testing.T, pool *pgxpool.Pool) *TestHelper {
	t.Helper()

	h := &TestHelper{
		T:              t,
		Ctx:            context.Background(),
		DB:             pool,
		Transactor:     repositories.NewTransactor(pool),
		MemberRepo:     repositories.NewMemberRepository(pool),
		NominationRepo: repositories.NewNominationRepository(pool),
		SettingsRepo:   repositories.NewNominationSettingsRepository(pool),
		EmailRepo:      repositories.NewEmailVerificationRepository(pool),
		OutboxRepo:     repositories.NewNotificationOutboxRepository(pool),
	}
	h.Truncate()
	return h
}

func (h *TestHelper) Truncate() {
	_, err := h.DB.Exec(h.Ctx, `
		TRUNCATE notification_outbox, email_verification_codes, nominations,
		         nomination_settings, members CASCADE`)
	require.NoError(h.T, err, "Failed to truncate tables")
}
