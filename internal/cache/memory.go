package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Domenick1991/tourbooking/internal/domain"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e entry[T]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryCache is a process-local stand-in for RedisCache, used when redis is
// not configured. It is not shared between instances.
type MemoryCache struct {
	mu            sync.Mutex
	now           func() time.Time
	schedulesTTL  time.Duration
	projectionTTL time.Duration
	schedules     map[string]entry[[]domain.Schedule]
	locks         map[string]entry[struct{}]
	projections   map[string]entry[[]domain.Booking]
}

func NewMemoryCache(schedulesTTL, projectionTTL time.Duration) *MemoryCache {
	return &MemoryCache{
		now:           time.Now,
		schedulesTTL:  schedulesTTL,
		projectionTTL: projectionTTL,
		schedules:     make(map[string]entry[[]domain.Schedule]),
		locks:         make(map[string]entry[struct{}]),
		projections:   make(map[string]entry[[]domain.Booking]),
	}
}

func (c *MemoryCache) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(ttl)
}

func (c *MemoryCache) GetSchedules(_ context.Context, kind domain.ScheduleKind, refID int64) ([]domain.Schedule, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.schedules[schedulesKey(kind, refID)]
	if !ok || e.expired(c.now()) {
		return nil, nil
	}
	return append([]domain.Schedule(nil), e.value...), nil
}

func (c *MemoryCache) SetSchedules(_ context.Context, kind domain.ScheduleKind, refID int64, schedules []domain.Schedule) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	copied := append(make([]domain.Schedule, 0, len(schedules)), schedules...)
	c.schedules[schedulesKey(kind, refID)] = entry[[]domain.Schedule]{value: copied, expiresAt: c.deadline(c.schedulesTTL)}
	return nil
}

func (c *MemoryCache) InvalidateSchedules(_ context.Context, kind domain.ScheduleKind, refID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.schedules, schedulesKey(kind, refID))
	return nil
}

func (c *MemoryCache) AcquireSubmissionLock(_ context.Context, idempotencyKey string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := submissionLockKey(idempotencyKey)
	if e, ok := c.locks[key]; ok && !e.expired(c.now()) {
		return false, nil
	}
	c.locks[key] = entry[struct{}]{expiresAt: c.deadline(ttl)}
	return true, nil
}

func (c *MemoryCache) ReleaseSubmissionLock(_ context.Context, idempotencyKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.locks, submissionLockKey(idempotencyKey))
	return nil
}

func (c *MemoryCache) CustomerBookings(_ context.Context, email string) ([]domain.Booking, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.projections[customerBookingsKey(email)]
	if !ok || e.expired(c.now()) {
		return nil, false, nil
	}
	out := append(make([]domain.Booking, 0, len(e.value)), e.value...)
	domain.SortNewestFirst(out)
	return out, true, nil
}

func (c *MemoryCache) StoreCustomerBookings(_ context.Context, email string, bookings []domain.Booking) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	copied := append(make([]domain.Booking, 0, len(bookings)), bookings...)
	c.projections[customerBookingsKey(email)] = entry[[]domain.Booking]{value: copied, expiresAt: c.deadline(c.projectionTTL)}
	return nil
}

func (c *MemoryCache) AppendCustomerBooking(_ context.Context, email string, booking domain.Booking) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := customerBookingsKey(email)
	e, ok := c.projections[key]
	if !ok || e.expired(c.now()) {
		return nil
	}
	e.value = append(e.value, booking)
	c.projections[key] = e
	return nil
}

func (c *MemoryCache) InvalidateCustomerBookings(_ context.Context, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.projections, customerBookingsKey(email))
	return nil
}
