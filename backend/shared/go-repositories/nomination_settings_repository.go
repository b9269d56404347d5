package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/Arshie13/FAPRNA-sub000/backend/shared/go-models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
)

type NominationSettingsRepository interface {
	GetByYear(ctx context.Context, year int) (*models.NominationSettings, error)
	List(ctx context.Context) ([]*models.NominationSettings, error)

	// Create inserts a closed row for s.Year. A second row for the same year
	// fails with a unique violation on ConstraintNominationSettingsYear.
	Create(ctx context.Context, s *models.NominationSettings) error

	// UpsertOpenState sets the open flag for year in a single statement,
	// creating the row when it does not exist yet.
	UpsertOpenState(ctx context.Context, year int, isOpen bool, now time.Time) (*models.NominationSettings, error)
}

type nominationSettingsRepository struct {
	db DB
}

func NewNominationSettingsRepository(db DB) NominationSettingsRepository {
	return &nominationSettingsRepository{db: db}
}

func (r *nominationSettingsRepository) GetByYear(ctx context.Context, year int) (*models.NominationSettings, error) {
	row := conn(ctx, r.db).QueryRow(ctx, baseSelectSettings()+" WHERE year=$1", year)
	return scanSettings(row)
}

func (r *nominationSettingsRepository) List(ctx context.Context) ([]*models.NominationSettings, error) {
	rows, err := conn(ctx, r.db).Query(ctx, baseSelectSettings()+" ORDER BY year DESC")
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	list := []*models.NominationSettings{}
	for rows.Next() {
		s, err := scanSettings(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, classify(rows.Err())
}

func (r *nominationSettingsRepository) Create(ctx context.Context, s *models.NominationSettings) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	err := conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO nomination_settings (
			id,year,is_nomination_open,nomination_start_date,nomination_end_date,
			created_at,updated_at
		) VALUES ($1,$2,$3,$4,$5,NOW(),NOW())
		RETURNING created_at,updated_at`,
		s.ID, s.Year, s.IsNominationOpen, s.NominationStartDate, s.NominationEndDate,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	return classify(err)
}

// UpsertOpenState opens with start=now and end cleared, or closes with
// end=now and start cleared.
func (r *nominationSettingsRepository) UpsertOpenState(
	ctx context.Context,
	year int,
	isOpen bool,
	now time.Time,
) (*models.NominationSettings, error) {
	var start, end *time.Time
	if isOpen {
		start = &now
	} else {
		end = &now
	}

	row := conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO nomination_settings (
			id,year,is_nomination_open,nomination_start_date,nomination_end_date,
			created_at,updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$6)
		ON CONFLICT (year) DO UPDATE SET
			is_nomination_open    = EXCLUDED.is_nomination_open,
			nomination_start_date = EXCLUDED.nomination_start_date,
			nomination_end_date   = EXCLUDED.nomination_end_date,
			updated_at            = EXCLUDED.updated_at
		RETURNING id,year,is_nomination_open,nomination_start_date,nomination_end_date,
		          created_at,updated_at`,
		uuid.New(), year, isOpen, start, end, now,
	)
	s, err := scanSettings(row)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, classify(errors.New("upsert returned no row"))
	}
	return s, nil
}

func baseSelectSettings() string {
	return `
		SELECT id,year,is_nomination_open,nomination_start_date,nomination_end_date,
		       created_at,updated_at
		FROM nomination_settings`
}

// scanSettings returns (nil, nil) when the row does not exist.
func scanSettings(row pgx.Row) (*models.NominationSettings, error) {
	var s models.NominationSettings
	err := row.Scan(
		&s.ID, &s.Year, &s.IsNominationOpen, &s.NominationStartDate, &s.NominationEndDate,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err)
	}
	return &s, nil
}
