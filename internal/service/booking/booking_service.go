package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/Domenick1991/tourbooking/internal/kafka"
	"github.com/Domenick1991/tourbooking/internal/pricing"
	"github.com/Domenick1991/tourbooking/internal/repository"
	"github.com/google/uuid"
)

type BookingUseCase interface {
	Quote(ctx context.Context, input QuoteInput) (*pricing.Quote, error)
	CreateDraft(ctx context.Context, input CreateDraftInput) (*domain.Booking, error)
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	MarkPaid(ctx context.Context, id string) (*domain.Booking, error)
	Cancel(ctx context.Context, id string) (*domain.Booking, error)
	ListCustomerBookings(ctx context.Context, email string) ([]domain.Booking, error)
	ApplyPaymentEvent(ctx context.Context, event kafka.PaymentEvent) (*domain.Booking, error)
}

type Cache interface {
	AcquireSubmissionLock(ctx context.Context, idempotencyKey string, ttl time.Duration) (bool, error)
	ReleaseSubmissionLock(ctx context.Context, idempotencyKey string) error
	InvalidateSchedules(ctx context.Context, kind domain.ScheduleKind, refID int64) error
}

// Projection is the per-customer "my bookings" list. It is a convenience
// copy; the repository stays the source of truth.
type Projection interface {
	CustomerBookings(ctx context.Context, email string) ([]domain.Booking, bool, error)
	StoreCustomerBookings(ctx context.Context, email string, bookings []domain.Booking) error
	AppendCustomerBooking(ctx context.Context, email string, booking domain.Booking) error
	InvalidateCustomerBookings(ctx context.Context, email string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	schedules          repository.ScheduleRepository
	calculator         *pricing.Calculator
	cache              Cache
	projection         Projection
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	holdTTL            time.Duration
	referencePrefix    string
	guideDayRate       domain.Money
	now                func() time.Time
}

type QuoteInput struct {
	ScheduleID int64                   `json:"schedule_id"`
	Guests     domain.GuestComposition `json:"guests"`
	GuideDays  int                     `json:"guide_days"`
}

type CreateDraftInput struct {
	ScheduleID      int64                   `json:"schedule_id"`
	Guests          domain.GuestComposition `json:"guests"`
	Customer        domain.CustomerInfo     `json:"customer"`
	SpecialRequests string                  `json:"special_requests"`
	GuideDays       int                     `json:"guide_days"`
	IdempotencyKey  string                  `json:"-"`
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func WithReferencePrefix(prefix string) BookingServiceOption {
	return func(s *BookingService) {
		s.referencePrefix = prefix
	}
}

// WithGuideDayRate enables the tour guide add-on. Requests asking for guide
// days are priced without it while the rate is zero.
func WithGuideDayRate(rate domain.Money) BookingServiceOption {
	return func(s *BookingService) {
		s.guideDayRate = rate
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	schedules repository.ScheduleRepository,
	calculator *pricing.Calculator,
	cache Cache,
	projection Projection,
	producer Producer,
	bookingTopic string,
	holdTTL time.Duration,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:        bookings,
		schedules:       schedules,
		calculator:      calculator,
		cache:           cache,
		projection:      projection,
		producer:        producer,
		bookingTopic:    bookingTopic,
		holdTTL:         holdTTL,
		referencePrefix: "BK",
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) addOns(guideDays int) []domain.AddOn {
	if guideDays <= 0 || s.guideDayRate <= 0 {
		return nil
	}
	return []domain.AddOn{pricing.TourGuideAddOn(s.guideDayRate, guideDays)}
}

func (s *BookingService) Quote(ctx context.Context, input QuoteInput) (*pricing.Quote, error) {
	if input.GuideDays < 0 {
		return nil, fmt.Errorf("%w: guide days must not be negative", domain.ErrValidation)
	}
	schedule, err := s.schedules.GetByID(ctx, input.ScheduleID)
	if err != nil {
		return nil, err
	}
	quote, err := s.calculator.Quote(*schedule, input.Guests, s.addOns(input.GuideDays), s.now())
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// CreateDraft validates and prices the request before touching any shared
// state, so a rejected draft leaves no lock, reservation or projection entry.
func (s *BookingService) CreateDraft(ctx context.Context, input CreateDraftInput) (*domain.Booking, error) {
	input.Customer.FullName = strings.TrimSpace(input.Customer.FullName)
	input.Customer.Email = normalizeEmail(input.Customer.Email)
	if err := input.Customer.Validate(); err != nil {
		return nil, err
	}
	if err := input.Guests.Validate(); err != nil {
		return nil, err
	}
	if input.GuideDays < 0 {
		return nil, fmt.Errorf("%w: guide days must not be negative", domain.ErrValidation)
	}

	if input.IdempotencyKey != "" {
		existing, err := s.bookings.GetByIdempotencyKey(ctx, input.IdempotencyKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	schedule, err := s.schedules.GetByID(ctx, input.ScheduleID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := domain.CheckBookable(*schedule, input.Guests, now); err != nil {
		return nil, err
	}
	price, err := s.calculator.Price(*schedule, input.Guests, s.addOns(input.GuideDays))
	if err != nil {
		return nil, err
	}

	key := input.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}

	if s.cache != nil {
		ok, err := s.cache.AcquireSubmissionLock(ctx, key, s.holdTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: idempotency key %s", domain.ErrDuplicateSubmission, key)
		}
		defer func() {
			if err := s.cache.ReleaseSubmissionLock(ctx, key); err != nil {
				slog.WarnContext(ctx, "failed to release submission lock", "key", key, "error", err)
			}
		}()
	}

	reference, err := s.bookings.NextReference(ctx, s.referencePrefix)
	if err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		ID:              uuid.NewString(),
		Reference:       reference,
		IdempotencyKey:  key,
		ScheduleID:      schedule.ID,
		Guests:          input.Guests,
		Customer:        input.Customer,
		SpecialRequests: strings.TrimSpace(input.SpecialRequests),
		Pricing:         price,
		Status:          domain.BookingStatusPendingPayment,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.bookings.CreatePending(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return s.bookings.GetByIdempotencyKey(ctx, key)
		}
		return nil, err
	}

	if s.projection != nil {
		if err := s.projection.AppendCustomerBooking(ctx, booking.Customer.Email, *booking); err != nil {
			slog.WarnContext(ctx, "failed to update customer bookings projection", "booking_id", booking.ID, "error", err)
		}
	}
	s.invalidateSchedules(ctx, schedule.Kind, schedule.RefID)
	s.publish(ctx, kafka.EventBookingCreated, booking)
	return booking, nil
}

func (s *BookingService) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

// MarkPaid is idempotent for bookings that are already paid so that a
// redelivered payment event is harmless.
func (s *BookingService) MarkPaid(ctx context.Context, id string) (*domain.Booking, error) {
	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.BookingStatusPaid {
		return current, nil
	}
	if !domain.CanTransition(current.Status, domain.BookingStatusPaid) {
		return nil, fmt.Errorf("%w: booking %s is %s", domain.ErrInvalidTransition, id, current.Status)
	}

	updated, err := s.bookings.UpdateStatus(ctx, id, domain.BookingStatusPendingPayment, domain.BookingStatusPaid, s.now())
	if err != nil {
		return nil, err
	}
	s.invalidateProjection(ctx, updated.Customer.Email)
	s.publish(ctx, kafka.EventBookingPaid, updated)
	return updated, nil
}

func (s *BookingService) Cancel(ctx context.Context, id string) (*domain.Booking, error) {
	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == domain.BookingStatusCancelled {
		return current, nil
	}
	if !domain.CanTransition(current.Status, domain.BookingStatusCancelled) {
		return nil, fmt.Errorf("%w: booking %s is %s", domain.ErrInvalidTransition, id, current.Status)
	}

	cancelled, err := s.bookings.CancelPending(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	s.invalidateProjection(ctx, cancelled.Customer.Email)
	if schedule, err := s.schedules.GetByID(ctx, cancelled.ScheduleID); err == nil {
		s.invalidateSchedules(ctx, schedule.Kind, schedule.RefID)
	}
	s.publish(ctx, kafka.EventBookingCancelled, cancelled)
	return cancelled, nil
}

// ListCustomerBookings serves the projection when it is warm and rebuilds it
// from the repository otherwise. The result is always newest first.
func (s *BookingService) ListCustomerBookings(ctx context.Context, email string) ([]domain.Booking, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrValidation)
	}

	if s.projection != nil {
		cached, ok, err := s.projection.CustomerBookings(ctx, email)
		if err == nil && ok {
			return cached, nil
		}
		if err != nil {
			slog.WarnContext(ctx, "customer bookings projection unavailable", "error", err)
		}
	}

	bookings, err := s.bookings.ListByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	domain.SortNewestFirst(bookings)

	if s.projection != nil {
		if err := s.projection.StoreCustomerBookings(ctx, email, bookings); err != nil {
			slog.WarnContext(ctx, "failed to store customer bookings projection", "error", err)
		}
	}
	return bookings, nil
}

func (s *BookingService) ApplyPaymentEvent(ctx context.Context, event kafka.PaymentEvent) (*domain.Booking, error) {
	switch event.Outcome {
	case kafka.PaymentOutcomePaid:
		return s.MarkPaid(ctx, event.BookingID)
	case kafka.PaymentOutcomeCancelled:
		return s.Cancel(ctx, event.BookingID)
	default:
		return nil, fmt.Errorf("%w: unknown payment outcome %q", domain.ErrValidation, event.Outcome)
	}
}

func (s *BookingService) invalidateProjection(ctx context.Context, email string) {
	if s.projection == nil {
		return
	}
	if err := s.projection.InvalidateCustomerBookings(ctx, email); err != nil {
		slog.WarnContext(ctx, "failed to invalidate customer bookings projection", "error", err)
	}
}

func (s *BookingService) invalidateSchedules(ctx context.Context, kind domain.ScheduleKind, refID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSchedules(ctx, kind, refID); err != nil {
		slog.WarnContext(ctx, "failed to invalidate schedules cache", "kind", kind, "ref_id", refID, "error", err)
	}
}

// publish is best effort. A broker outage must not fail a stored booking.
func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.NewBookingEvent(eventType, booking, s.now())
	if err := s.producer.Publish(ctx, s.bookingTopic, booking.ID, event); err != nil {
		slog.WarnContext(ctx, "failed to publish booking event", "type", eventType, "booking_id", booking.ID, "error", err)
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, booking.ID, event); err != nil {
			slog.WarnContext(ctx, "failed to publish notification", "type", eventType, "booking_id", booking.ID, "error", err)
		}
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ BookingUseCase = (*BookingService)(nil)
