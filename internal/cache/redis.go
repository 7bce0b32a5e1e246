package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/tourbooking/config"
	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

// projectionHead is the first element of every projection list so that an
// empty projection can be told apart from a missing one.
const projectionHead = "#"

type RedisCache struct {
	client        *redis.Client
	schedulesTTL  time.Duration
	projectionTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, schedulesTTL, projectionTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		schedulesTTL, projectionTTL,
	)
}

func NewRedisCacheWithClient(client *redis.Client, schedulesTTL, projectionTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, schedulesTTL: schedulesTTL, projectionTTL: projectionTTL}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) GetSchedules(ctx context.Context, kind domain.ScheduleKind, refID int64) ([]domain.Schedule, error) {
	data, err := c.client.Get(ctx, schedulesKey(kind, refID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var schedules []domain.Schedule
	if err := json.Unmarshal(data, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

func (c *RedisCache) SetSchedules(ctx context.Context, kind domain.ScheduleKind, refID int64, schedules []domain.Schedule) error {
	if schedules == nil {
		schedules = []domain.Schedule{}
	}
	payload, err := json.Marshal(schedules)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, schedulesKey(kind, refID), payload, c.schedulesTTL).Err()
}

func (c *RedisCache) InvalidateSchedules(ctx context.Context, kind domain.ScheduleKind, refID int64) error {
	return c.client.Del(ctx, schedulesKey(kind, refID)).Err()
}

func (c *RedisCache) AcquireSubmissionLock(ctx context.Context, idempotencyKey string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, submissionLockKey(idempotencyKey), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseSubmissionLock(ctx context.Context, idempotencyKey string) error {
	return c.client.Del(ctx, submissionLockKey(idempotencyKey)).Err()
}

// CustomerBookings returns the cached projection newest first. ok is false
// when nothing is cached for email.
func (c *RedisCache) CustomerBookings(ctx context.Context, email string) ([]domain.Booking, bool, error) {
	items, err := c.client.LRange(ctx, customerBookingsKey(email), 0, -1).Result()
	if err != nil {
		return nil, false, err
	}
	if len(items) == 0 || items[0] != projectionHead {
		return nil, false, nil
	}

	bookings := make([]domain.Booking, 0, len(items)-1)
	for _, item := range items[1:] {
		var b domain.Booking
		if err := json.Unmarshal([]byte(item), &b); err != nil {
			return nil, false, fmt.Errorf("decode projected booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	domain.SortNewestFirst(bookings)
	return bookings, true, nil
}

func (c *RedisCache) StoreCustomerBookings(ctx context.Context, email string, bookings []domain.Booking) error {
	values := make([]any, 0, len(bookings)+1)
	values = append(values, projectionHead)
	for _, b := range bookings {
		payload, err := json.Marshal(b)
		if err != nil {
			return err
		}
		values = append(values, payload)
	}

	key := customerBookingsKey(email)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.RPush(ctx, key, values...)
		pipe.Expire(ctx, key, c.projectionTTL)
		return nil
	})
	return err
}

// AppendCustomerBooking only extends an existing projection. A missing one is
// rebuilt from the store on the next read.
func (c *RedisCache) AppendCustomerBooking(ctx context.Context, email string, booking domain.Booking) error {
	payload, err := json.Marshal(booking)
	if err != nil {
		return err
	}
	return c.client.RPushX(ctx, customerBookingsKey(email), payload).Err()
}

func (c *RedisCache) InvalidateCustomerBookings(ctx context.Context, email string) error {
	return c.client.Del(ctx, customerBookingsKey(email)).Err()
}

func schedulesKey(kind domain.ScheduleKind, refID int64) string {
	return fmt.Sprintf("cache:schedules:%s:%d", kind, refID)
}

func submissionLockKey(idempotencyKey string) string {
	return "lock:submission:" + idempotencyKey
}

func customerBookingsKey(email string) string {
	return "projection:bookings:" + strings.ToLower(strings.TrimSpace(email))
}
