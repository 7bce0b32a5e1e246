package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/Domenick1991/tourbooking/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduleRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewScheduleRepository(pool)
	assert.NotNil(t, repo)
}

func seedSchedule(t *testing.T, repo ScheduleRepository, max, booked int) *domain.Schedule {
	t.Helper()
	original := domain.Money(650000)
	s := &domain.Schedule{
		Kind:            domain.ScheduleKindTour,
		RefID:           42,
		StartAt:         time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second),
		MaxParticipants: max,
		CurrentBooked:   booked,
		AdultPrice:      500000,
		ChildrenPrice:   350000,
		OriginalPrice:   &original,
		Notes:           "pickup at hotel lobby",
	}
	require.NoError(t, repo.Create(context.Background(), s))
	return s
}

func TestPGScheduleRepository_RoundTrip(t *testing.T) {
	repo := NewScheduleRepository(testutil.NewPool(t))
	ctx := context.Background()

	created := seedSchedule(t, repo, 10, 8)
	assert.NotZero(t, created.ID)
	assert.Equal(t, int64(1), created.Version)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(500000), got.AdultPrice)
	require.NotNil(t, got.OriginalPrice)
	assert.Equal(t, domain.Money(650000), *got.OriginalPrice)
	assert.Nil(t, got.EndAt)

	list, err := repo.ListByRef(ctx, domain.ScheduleKindTour, 42)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = repo.GetByID(ctx, created.ID+1000)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPGScheduleRepository_Update(t *testing.T) {
	repo := NewScheduleRepository(testutil.NewPool(t))
	ctx := context.Background()
	s := seedSchedule(t, repo, 10, 8)

	edit := *s
	edit.AdultPrice = 550000
	updated, err := repo.Update(ctx, &edit, s.Version)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(550000), updated.AdultPrice)
	assert.Equal(t, s.Version+1, updated.Version)

	_, err = repo.Update(ctx, &edit, s.Version)
	assert.ErrorIs(t, err, domain.ErrStaleSchedule)

	shrink := *updated
	shrink.MaxParticipants = 5
	_, err = repo.Update(ctx, &shrink, updated.Version)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
