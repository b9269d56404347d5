package repositories

import (
	"context"
	"errors"

	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
)

type MemberRepository interface {
	Create(ctx context.Context, m *models.Member) error
	GetByEmail(ctx context.Context, email string) (*models.Member, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	ListByMembershipStatus(ctx context.Context, status models.MembershipStatusType) ([]*models.Member, error)
}

type memberRepository struct {
	db DB
}

func NewMemberRepository(db DB) MemberRepository {
	return &memberRepository{db: db}
}

/* ---------- Create ---------- */

// Create inserts m and fills in the stored timestamps. Callers normalise the
// email first; a second insert for the same email fails with a unique
// violation on ConstraintMemberEmail.
func (r *memberRepository) Create(ctx context.Context, m *models.Member) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.MembershipStatus == "" {
		m.MembershipStatus = models.MembershipStatusPending
	}

	err := conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO members (
			id,full_name,email,membership_status,phone_number,created_at,updated_at
		) VALUES ($1,$2,$3,$4,$5,NOW(),NOW())
		RETURNING created_at,updated_at`,
		m.ID, m.FullName, m.Email, string(m.MembershipStatus), m.PhoneNumber,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	return classify(err)
}

/* ---------- Reads ---------- */

func (r *memberRepository) GetByEmail(ctx context.Context, email string) (*models.Member, error) {
	row := conn(ctx, r.db).QueryRow(ctx, baseSelectMember()+" WHERE email=$1", email)
	return scanMember(row)
}

func (r *memberRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	row := conn(ctx, r.db).QueryRow(ctx, baseSelectMember()+" WHERE id=$1", id)
	return scanMember(row)
}

func (r *memberRepository) ListByMembershipStatus(
	ctx context.Context,
	status models.MembershipStatusType,
) ([]*models.Member, error) {
	rows, err := conn(ctx, r.db).Query(ctx,
		baseSelectMember()+" WHERE membership_status=$1 ORDER BY full_name ASC", string(status))
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	members := []*models.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, classify(rows.Err())
}

/* ---------- internals ---------- */

func baseSelectMember() string {
	return `
		SELECT id,full_name,email,membership_status,phone_number,created_at,updated_at
		FROM members`
}

// scanMember returns (nil, nil) when the row does not exist.
func scanMember(row pgx.Row) (*models.Member, error) {
	var m models.Member
	var status string
	err := row.Scan(
		&m.ID, &m.FullName, &m.Email, &status, &m.PhoneNumber, &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err)
	}
	m.MembershipStatus = models.MembershipStatusType(status)
	return &m, nil
}
