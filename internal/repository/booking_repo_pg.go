package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateKey is returned when a booking with the same idempotency key already exists.
var ErrDuplicateKey = errors.New("booking with this idempotency key already exists")

const uniqueViolation = "23505"

type BookingRepository interface {
	NextReference(ctx context.Context, prefix string) (string, error)
	CreatePending(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Booking, error)
	ListByEmail(ctx context.Context, email string) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus, at time.Time) (*domain.Booking, error)
	CancelPending(ctx context.Context, id string, at time.Time) (*domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, reference, idempotency_key, schedule_id, adults, children, customer,
	special_requests, pricing, status, created_at, updated_at`

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		b        domain.Booking
		customer []byte
		pricing  []byte
	)
	if err := row.Scan(&b.ID, &b.Reference, &b.IdempotencyKey, &b.ScheduleID, &b.Guests.Adults, &b.Guests.Children,
		&customer, &b.SpecialRequests, &pricing, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(customer, &b.Customer); err != nil {
		return nil, fmt.Errorf("decode customer: %w", err)
	}
	if err := json.Unmarshal(pricing, &b.Pricing); err != nil {
		return nil, fmt.Errorf("decode pricing: %w", err)
	}
	return &b, nil
}

func (r *PGBookingRepository) NextReference(ctx context.Context, prefix string) (string, error) {
	var seq int64
	if err := r.db.QueryRow(ctx, `SELECT nextval('booking_reference_seq')`).Scan(&seq); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%06d", prefix, seq), nil
}

// CreatePending reserves the guests on the schedule and inserts the booking in
// one transaction. A schedule without enough room fails with ErrCapacityExceeded.
func (r *PGBookingRepository) CreatePending(ctx context.Context, booking *domain.Booking) error {
	customer, err := json.Marshal(booking.Customer)
	if err != nil {
		return fmt.Errorf("encode customer: %w", err)
	}
	pricing, err := json.Marshal(booking.Pricing)
	if err != nil {
		return fmt.Errorf("encode pricing: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var booked, capacity int
	err = tx.QueryRow(ctx, `UPDATE schedules SET current_booked = current_booked + $2, updated_at = now()
		WHERE id=$1 AND current_booked + $2 <= max_participants
		RETURNING current_booked, max_participants`, booking.ScheduleID, booking.Guests.Total()).Scan(&booked, &capacity)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: not enough places left on schedule %d", domain.ErrCapacityExceeded, booking.ScheduleID)
	}
	if err != nil {
		return err
	}

	booking.Status = domain.BookingStatusPendingPayment
	_, err = tx.Exec(ctx, `INSERT INTO bookings (id, reference, idempotency_key, schedule_id, adults, children,
			customer, email, special_requests, pricing, total, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		booking.ID, booking.Reference, booking.IdempotencyKey, booking.ScheduleID, booking.Guests.Adults, booking.Guests.Children,
		customer, booking.Customer.Email, booking.SpecialRequests, pricing, int64(booking.Pricing.Total),
		string(booking.Status), booking.CreatedAt, booking.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == "bookings_idempotency_key_key" {
			return ErrDuplicateKey
		}
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
}

func (r *PGBookingRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE idempotency_key=$1`, key))
}

func (r *PGBookingRepository) ListByEmail(ctx context.Context, email string) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE email=$1 ORDER BY created_at DESC`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// UpdateStatus moves a booking from one status to another. A booking that is
// no longer in from fails with ErrInvalidTransition.
func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id string, from, to domain.BookingStatus, at time.Time) (*domain.Booking, error) {
	return updateStatus(ctx, r.db, id, from, to, at)
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func updateStatus(ctx context.Context, q queryRower, id string, from, to domain.BookingStatus, at time.Time) (*domain.Booking, error) {
	updated, err := scanBooking(q.QueryRow(ctx, `UPDATE bookings SET status=$3, updated_at=$4
		WHERE id=$1 AND status=$2 RETURNING `+bookingColumns, id, string(from), string(to), at))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	current, getErr := scanBooking(q.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("%w: booking %s is %s", domain.ErrInvalidTransition, id, current.Status)
}

// CancelPending cancels a pending booking and gives its places back to the schedule.
func (r *PGBookingRepository) CancelPending(ctx context.Context, id string, at time.Time) (*domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	cancelled, err := updateStatus(ctx, tx, id, domain.BookingStatusPendingPayment, domain.BookingStatusCancelled, at)
	if err != nil {
		return nil, err
	}

	cmd, err := tx.Exec(ctx, `UPDATE schedules SET current_booked = GREATEST(current_booked - $2, 0), updated_at = now()
		WHERE id = $1`, cancelled.ScheduleID, cancelled.Guests.Total())
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, fmt.Errorf("release capacity: schedule %d: %w", cancelled.ScheduleID, domain.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return cancelled, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
