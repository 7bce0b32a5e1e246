package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/tourbooking/internal/domain"
)

const (
	EventBookingCreated   = "booking_created"
	EventBookingPaid      = "booking_paid"
	EventBookingCancelled = "booking_cancelled"
)

type BookingEvent struct {
	Type       string                  `json:"type"`
	BookingID  string                  `json:"booking_id"`
	Reference  string                  `json:"reference"`
	ScheduleID int64                   `json:"schedule_id"`
	Guests     domain.GuestComposition `json:"guests"`
	FullName   string                  `json:"full_name"`
	Email      string                  `json:"email"`
	Status     string                  `json:"status"`
	Total      domain.Money            `json:"total"`
	OccurredAt time.Time               `json:"occurred_at"`
}

func NewBookingEvent(eventType string, b *domain.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:       eventType,
		BookingID:  b.ID,
		Reference:  b.Reference,
		ScheduleID: b.ScheduleID,
		Guests:     b.Guests,
		FullName:   b.Customer.FullName,
		Email:      b.Customer.Email,
		Status:     string(b.Status),
		Total:      b.Pricing.Total,
		OccurredAt: at,
	}
}

type PaymentOutcome string

const (
	PaymentOutcomePaid      PaymentOutcome = "paid"
	PaymentOutcomeCancelled PaymentOutcome = "cancelled"
)

// PaymentEvent comes from the payment provider integration.
type PaymentEvent struct {
	BookingID string         `json:"booking_id"`
	Outcome   PaymentOutcome `json:"outcome"`
	Provider  string         `json:"provider,omitempty"`
}

func DecodePaymentEvent(data []byte) (PaymentEvent, error) {
	var event PaymentEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return PaymentEvent{}, fmt.Errorf("decode payment event: %w", err)
	}
	if event.BookingID == "" {
		return PaymentEvent{}, fmt.Errorf("decode payment event: booking_id is required")
	}
	switch event.Outcome {
	case PaymentOutcomePaid, PaymentOutcomeCancelled:
	default:
		return PaymentEvent{}, fmt.Errorf("decode payment event: unknown outcome %q", event.Outcome)
	}
	return event, nil
}

func DecodeBookingEvent(data []byte) (BookingEvent, error) {
	var event BookingEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return BookingEvent{}, fmt.Errorf("decode booking event: %w", err)
	}
	return event, nil
}
