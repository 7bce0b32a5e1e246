package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/tourbooking/api"
	"github.com/Domenick1991/tourbooking/config"
	"github.com/Domenick1991/tourbooking/internal/bootstrap"
	"github.com/Domenick1991/tourbooking/internal/cache"
	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/Domenick1991/tourbooking/internal/kafka"
	"github.com/Domenick1991/tourbooking/internal/logger"
	"github.com/Domenick1991/tourbooking/internal/pricing"
	"github.com/Domenick1991/tourbooking/internal/repository"
	"github.com/Domenick1991/tourbooking/internal/service/booking"
	"github.com/Domenick1991/tourbooking/internal/service/schedules"
	"github.com/Domenick1991/tourbooking/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// Store is the cache surface shared by both services.
type Store interface {
	schedules.ScheduleCache
	booking.Cache
	booking.Projection
}

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		slog.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		db := stdlib.OpenDBFromPool(pool)
		applied, err := migrations.Up(ctx, db)
		_ = db.Close()
		if err != nil {
			slog.Error("migrate", "error", err)
			os.Exit(1)
		}
		slog.Info("migrations applied", "versions", applied)
	}

	checks := map[string]api.Pinger{"postgres": pool}

	var store Store
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.SchedulesTTL(), cfg.Booking.ProjectionTTL())
		defer redisCache.Close()
		store = redisCache
		checks["redis"] = redisCache
	} else {
		slog.Warn("redis is not configured, using in-process cache")
		store = cache.NewMemoryCache(cfg.Booking.SchedulesTTL(), cfg.Booking.ProjectionTTL())
	}

	var producer booking.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer kafkaProducer.Close()
		if err := kafkaProducer.CheckConnection(ctx); err != nil {
			slog.Warn("kafka is unreachable, events will be retried per publish", "error", err)
		}
		producer = kafkaProducer
	}

	scheduleRepo := repository.NewScheduleRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	calculator := pricing.NewCalculator(pricing.ServiceFeePolicy{
		Flat:        domain.Money(cfg.Booking.ServiceFeeFlat),
		BasisPoints: cfg.Booking.ServiceFeeBasisPoints,
	})

	scheduleService := schedules.NewScheduleService(scheduleRepo, store)
	bookingService := booking.NewBookingService(
		bookingRepo,
		scheduleRepo,
		calculator,
		store,
		store,
		producer,
		cfg.Kafka.BookingEventsTopic,
		cfg.Booking.HoldTTL(),
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithReferencePrefix(cfg.Booking.ReferencePrefix),
		booking.WithGuideDayRate(domain.Money(cfg.Booking.TourGuideDayRate)),
	)

	if err := bootstrap.Run(ctx, cfg, scheduleService, bookingService, checks); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
