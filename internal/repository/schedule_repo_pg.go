package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ScheduleRepository interface {
	Create(ctx context.Context, schedule *domain.Schedule) error
	ListByRef(ctx context.Context, kind domain.ScheduleKind, refID int64) ([]domain.Schedule, error)
	GetByID(ctx context.Context, id int64) (*domain.Schedule, error)
	Update(ctx context.Context, schedule *domain.Schedule, expectedVersion int64) (*domain.Schedule, error)
}

type PGScheduleRepository struct {
	db *pgxpool.Pool
}

func NewScheduleRepository(db *pgxpool.Pool) ScheduleRepository {
	return &PGScheduleRepository{db: db}
}

const scheduleColumns = `id, kind, ref_id, start_at, end_at, max_participants, current_booked,
	adult_price, children_price, original_price, notes, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (*domain.Schedule, error) {
	var (
		s        domain.Schedule
		adult    int64
		children int64
		original *int64
	)
	if err := row.Scan(&s.ID, &s.Kind, &s.RefID, &s.StartAt, &s.EndAt, &s.MaxParticipants, &s.CurrentBooked,
		&adult, &children, &original, &s.Notes, &s.Version, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	s.AdultPrice = domain.Money(adult)
	s.ChildrenPrice = domain.Money(children)
	if original != nil {
		m := domain.Money(*original)
		s.OriginalPrice = &m
	}
	return &s, nil
}

func nullableMoney(m *domain.Money) *int64 {
	if m == nil {
		return nil
	}
	v := int64(*m)
	return &v
}

func (r *PGScheduleRepository) Create(ctx context.Context, s *domain.Schedule) error {
	row := r.db.QueryRow(ctx, `INSERT INTO schedules (kind, ref_id, start_at, end_at, max_participants, current_booked,
			adult_price, children_price, original_price, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, version, created_at, updated_at`,
		string(s.Kind), s.RefID, s.StartAt, s.EndAt, s.MaxParticipants, s.CurrentBooked,
		int64(s.AdultPrice), int64(s.ChildrenPrice), nullableMoney(s.OriginalPrice), s.Notes)
	return row.Scan(&s.ID, &s.Version, &s.CreatedAt, &s.UpdatedAt)
}

func (r *PGScheduleRepository) ListByRef(ctx context.Context, kind domain.ScheduleKind, refID int64) ([]domain.Schedule, error) {
	rows, err := r.db.Query(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE kind=$1 AND ref_id=$2 ORDER BY start_at`, string(kind), refID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := make([]domain.Schedule, 0)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *s)
	}
	return schedules, rows.Err()
}

func (r *PGScheduleRepository) GetByID(ctx context.Context, id int64) (*domain.Schedule, error) {
	return scanSchedule(r.db.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id=$1`, id))
}

// Update writes the editable fields only when the stored version still equals
// expectedVersion and the new capacity still covers current bookings.
func (r *PGScheduleRepository) Update(ctx context.Context, s *domain.Schedule, expectedVersion int64) (*domain.Schedule, error) {
	updated, err := scanSchedule(r.db.QueryRow(ctx, `UPDATE schedules SET
			start_at=$3, end_at=$4, max_participants=$5, adult_price=$6, children_price=$7,
			original_price=$8, notes=$9, version=version+1, updated_at=now()
		WHERE id=$1 AND version=$2 AND current_booked <= $5
		RETURNING `+scheduleColumns,
		s.ID, expectedVersion, s.StartAt, s.EndAt, s.MaxParticipants, int64(s.AdultPrice), int64(s.ChildrenPrice),
		nullableMoney(s.OriginalPrice), s.Notes))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	current, getErr := r.GetByID(ctx, s.ID)
	if getErr != nil {
		return nil, getErr
	}
	if current.Version != expectedVersion {
		return nil, fmt.Errorf("%w: expected version %d, found %d", domain.ErrStaleSchedule, expectedVersion, current.Version)
	}
	return nil, fmt.Errorf("%w: max participants %d is below current bookings %d", domain.ErrValidation, s.MaxParticipants, current.CurrentBooked)
}

var _ ScheduleRepository = (*PGScheduleRepository)(nil)
