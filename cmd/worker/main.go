package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Domenick1991/tourbooking/config"
	"github.com/Domenick1991/tourbooking/internal/cache"
	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/Domenick1991/tourbooking/internal/email"
	"github.com/Domenick1991/tourbooking/internal/kafka"
	"github.com/Domenick1991/tourbooking/internal/logger"
	"github.com/Domenick1991/tourbooking/internal/pricing"
	"github.com/Domenick1991/tourbooking/internal/repository"
	"github.com/Domenick1991/tourbooking/internal/service/booking"
	"github.com/jackc/pgx/v5/pgxpool"
	kafkaGo "github.com/segmentio/kafka-go"
)

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
	log := logger.Setup(cfg.Log.Level)

	if len(cfg.Kafka.Brokers) == 0 {
		log.Error("kafka.brokers is required for the worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	var store interface {
		booking.Cache
		booking.Projection
	}
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.SchedulesTTL(), cfg.Booking.ProjectionTTL())
		defer redisCache.Close()
		store = redisCache
	} else {
		store = cache.NewMemoryCache(cfg.Booking.SchedulesTTL(), cfg.Booking.ProjectionTTL())
	}

	bookingService := booking.NewBookingService(
		repository.NewBookingRepository(pool),
		repository.NewScheduleRepository(pool),
		pricing.NewCalculator(pricing.ServiceFeePolicy{
			Flat:        domain.Money(cfg.Booking.ServiceFeeFlat),
			BasisPoints: cfg.Booking.ServiceFeeBasisPoints,
		}),
		store,
		store,
		producer,
		cfg.Kafka.BookingEventsTopic,
		cfg.Booking.HoldTTL(),
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)
	emailSender := email.NewSender(log)

	var wg sync.WaitGroup
	run := func(name, topic string, handler func(context.Context, kafkaGo.Message) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID+"-"+name, topic)
			defer consumer.Close()
			if err := consumer.Consume(ctx, handler); err != nil {
				log.Error("consumer stopped", "consumer", name, "error", err)
				stop()
			}
		}()
	}

	run("notifications", cfg.Kafka.NotificationsTopic, func(ctx context.Context, msg kafkaGo.Message) error {
		event, err := kafka.DecodeBookingEvent(msg.Value)
		if err != nil {
			log.Warn("skip malformed notification", "offset", msg.Offset, "error", err)
			return nil
		}
		if err := emailSender.Send(ctx, event); err != nil {
			log.Warn("skip notification", "booking_id", event.BookingID, "error", err)
		}
		return nil
	})

	concurrency := max(cfg.Worker.Concurrency, 1)
	for i := 0; i < concurrency; i++ {
		run("payments", cfg.Kafka.PaymentsTopic, func(ctx context.Context, msg kafkaGo.Message) error {
			return handlePayment(ctx, log, bookingService, msg)
		})
	}

	log.Info("worker started", "payments_consumers", concurrency)
	wg.Wait()
	log.Info("worker stopped")
}

// handlePayment returns an error only for failures worth redelivering.
// Events that can never apply are logged and committed.
func handlePayment(ctx context.Context, log *slog.Logger, svc booking.BookingUseCase, msg kafkaGo.Message) error {
	event, err := kafka.DecodePaymentEvent(msg.Value)
	if err != nil {
		log.Warn("skip malformed payment event", "offset", msg.Offset, "error", err)
		return nil
	}

	updated, err := svc.ApplyPaymentEvent(ctx, event)
	switch {
	case err == nil:
		log.Info("payment applied", "booking_id", updated.ID, "status", updated.Status)
		return nil
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrValidation):
		log.Warn("payment event rejected", "booking_id", event.BookingID, "outcome", event.Outcome, "error", err)
		return nil
	default:
		return err
	}
}
