package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/Domenick1991/tourbooking/internal/kafka"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender only logs the rendered message. Delivery is left to the mail relay
// that tails the worker logs.
type Sender struct {
	logger *slog.Logger
}

func NewSender(logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{logger: logger}
}

func Compose(event kafka.BookingEvent) (Message, error) {
	if event.Email == "" {
		return Message{}, fmt.Errorf("%w: notification for %s has no recipient", domain.ErrValidation, event.Reference)
	}

	var subject, lead string
	switch event.Type {
	case kafka.EventBookingCreated:
		subject = "Booking " + event.Reference + " received"
		lead = "We have reserved your places. Please complete the payment to confirm the booking."
	case kafka.EventBookingPaid:
		subject = "Booking " + event.Reference + " confirmed"
		lead = "Your payment was received and the booking is confirmed."
	case kafka.EventBookingCancelled:
		subject = "Booking " + event.Reference + " cancelled"
		lead = "Your booking was cancelled and the places were released."
	default:
		return Message{}, fmt.Errorf("%w: unknown event type %q", domain.ErrValidation, event.Type)
	}

	name := event.FullName
	if name == "" {
		name = "traveller"
	}
	body := fmt.Sprintf("Hello %s,\n\n%s\n\nReference: %s\nGuests: %d adult(s), %d child(ren)\nTotal: %s\n",
		name, lead, event.Reference, event.Guests.Adults, event.Guests.Children, domain.Format(event.Total))

	return Message{To: event.Email, Subject: subject, Body: body}, nil
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	msg, err := Compose(event)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "send email", "to", msg.To, "subject", msg.Subject, "booking_id", event.BookingID)
	return nil
}
