package repositories

import (
	"context"
	"errors"

	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-models"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

type NominationRepository interface {
	Create(ctx context.Context, n *models.Nomination) error

	// Reads return the nominator and nominee joined in.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Nomination, error)
	FindByNominatorCategoryYear(ctx context.Context, nominatorID uuid.UUID, category string, year int) (*models.Nomination, error)
	List(ctx context.Context, year *int) ([]*models.Nomination, error)
	StatsByYear(ctx context.Context, year int) (*models.NominationStats, error)

	// Optimistic‑lock helpers
	UpdateIfVersion(ctx context.Context, n *models.Nomination, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Nomination) error) error
}

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

type nominationRepo struct {
	*BaseVersionedRepo[*models.Nomination]

	db DB
}

func NewNominationRepository(db DB) NominationRepository {
	r := &nominationRepo{db: db}
	r.BaseVersionedRepo = NewBaseRepo(db, baseSelectNomination()+" WHERE n.id=$1", scanNomination)
	return r
}

/* ---------- Create ---------- */

// Create inserts a nomination. A second nomination for the same nominator,
// category and year fails with a unique violation on
// ConstraintNominationPerCategory.
func (r *nominationRepo) Create(ctx context.Context, n *models.Nomination) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Status == "" {
		n.Status = models.NominationStatusPending
	}

	err := conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO nominations (
			id,nominator_id,nominee_id,category,reason,status,year,
			row_version,created_at,updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,1,NOW(),NOW())
		RETURNING row_version,created_at,updated_at`,
		n.ID, n.NominatorID, n.NomineeID, n.Category, n.Reason, string(n.Status), n.Year,
	).Scan(&n.RowVersion, &n.CreatedAt, &n.UpdatedAt)
	return classify(err)
}

/* ---------- Reads ---------- */

func (r *nominationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Nomination, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *nominationRepo) FindByNominatorCategoryYear(
	ctx context.Context,
	nominatorID uuid.UUID,
	category string,
	year int,
) (*models.Nomination, error) {
	row := conn(ctx, r.db).QueryRow(ctx,
		baseSelectNomination()+" WHERE n.nominator_id=$1 AND n.category=$2 AND n.year=$3",
		nominatorID, category, year,
	)
	return scanNomination(row)
}

// List returns nominations newest first, optionally narrowed to one year.
func (r *nominationRepo) List(ctx context.Context, year *int) ([]*models.Nomination, error) {
	q := baseSelectNomination()
	var args []any
	if year != nil {
		q += " WHERE n.year=$1"
		args = append(args, *year)
	}
	q += " ORDER BY n.created_at DESC"

	rows, err := conn(ctx, r.db).Query(ctx, q, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	nominations := []*models.Nomination{}
	for rows.Next() {
		n, err := scanNomination(rows)
		if err != nil {
			return nil, err
		}
		nominations = append(nominations, n)
	}
	return nominations, classify(rows.Err())
}

func (r *nominationRepo) StatsByYear(ctx context.Context, year int) (*models.NominationStats, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `
		SELECT status,category,COUNT(*)
		FROM nominations
		WHERE year=$1
		GROUP BY status,category`, year)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	stats := &models.NominationStats{
		Year:       year,
		ByStatus:   map[models.NominationStatusType]int{},
		ByCategory: map[string]int{},
	}
	for rows.Next() {
		var status, category string
		var count int
		if err := rows.Scan(&status, &category, &count); err != nil {
			return nil, classify(err)
		}
		stats.Total += count
		stats.ByStatus[models.NominationStatusType(status)] += count
		stats.ByCategory[category] += count
	}
	return stats, classify(rows.Err())
}

/* ---------- Updates ---------- */

// UpdateIfVersion writes the mutable columns only when row_version still
// equals expected.
func (r *nominationRepo) UpdateIfVersion(
	ctx context.Context,
	n *models.Nomination,
	expected int64,
) (pgconn.CommandTag, error) {
	return conn(ctx, r.db).Exec(ctx, `
		UPDATE nominations SET
			status=$1,reason=$2,
			row_version=row_version+1,updated_at=NOW()
		WHERE id=$3 AND row_version=$4`,
		string(n.Status), n.Reason, n.ID, expected,
	)
}

func (r *nominationRepo) UpdateWithRetry(
	ctx context.Context,
	id uuid.UUID,
	mutate func(*models.Nomination) error,
) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}

/* ---------- internals ---------- */

func baseSelectNomination() string {
	return `
		SELECT n.id,n.nominator_id,n.nominee_id,n.category,n.reason,n.status,n.year,
		       n.row_version,n.created_at,n.updated_at,
		       nr.id,nr.full_name,nr.email,nr.membership_status,nr.phone_number,nr.created_at,nr.updated_at,
		       ne.id,ne.full_name,ne.email,ne.membership_status,ne.phone_number,ne.created_at,ne.updated_at
		FROM nominations n
		JOIN members nr ON nr.id = n.nominator_id
		JOIN members ne ON ne.id = n.nominee_id`
}

// scanNomination returns (nil, nil) when the row does not exist.
func scanNomination(row pgx.Row) (*models.Nomination, error) {
	var (
		n                          models.Nomination
		nominator, nominee         models.Member
		status                     string
		nominatorStatus, nomStatus string
	)
	err := row.Scan(
		&n.ID, &n.NominatorID, &n.NomineeID, &n.Category, &n.Reason, &status, &n.Year,
		&n.RowVersion, &n.CreatedAt, &n.UpdatedAt,
		&nominator.ID, &nominator.FullName, &nominator.Email, &nominatorStatus,
		&nominator.PhoneNumber, &nominator.CreatedAt, &nominator.UpdatedAt,
		&nominee.ID, &nominee.FullName, &nominee.Email, &nomStatus,
		&nominee.PhoneNumber, &nominee.CreatedAt, &nominee.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err)
	}

	n.Status = models.NominationStatusType(status)
	nominator.MembershipStatus = models.MembershipStatusType(nominatorStatus)
	nominee.MembershipStatus = models.MembershipStatusType(nomStatus)
	n.Nominator = &nominator
	n.Nominee = &nominee
	return &n, nil
}
