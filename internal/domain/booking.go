package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingStatusPendingPayment BookingStatus = "pending_payment"
	BookingStatusPaid           BookingStatus = "paid"
	BookingStatusCancelled      BookingStatus = "cancelled"
)

func (s BookingStatus) Terminal() bool {
	return s == BookingStatusPaid || s == BookingStatusCancelled
}

// CanTransition allows only pending_payment -> paid and pending_payment -> cancelled.
func CanTransition(from, to BookingStatus) bool {
	return from == BookingStatusPendingPayment && (to == BookingStatusPaid || to == BookingStatusCancelled)
}

type CustomerInfo struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

func (c CustomerInfo) Validate() error {
	if strings.TrimSpace(c.FullName) == "" {
		return fmt.Errorf("%w: full name is required", ErrValidation)
	}
	email := strings.TrimSpace(c.Email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email is malformed", ErrValidation)
	}
	return nil
}

type LineItem struct {
	Category  string `json:"category"`
	Quantity  int    `json:"quantity"`
	UnitPrice Money  `json:"unit_price"`
	Amount    Money  `json:"amount"`
}

type AddOn struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
}

// Pricing is derived from a schedule and never edited directly.
type Pricing struct {
	Lines      []LineItem `json:"lines"`
	AddOns     []AddOn    `json:"add_ons,omitempty"`
	Subtotal   Money      `json:"subtotal"`
	ServiceFee Money      `json:"service_fee"`
	AddOnTotal Money      `json:"add_on_total"`
	Total      Money      `json:"total"`
}

type Booking struct {
	ID              string           `json:"id"`
	Reference       string           `json:"reference"`
	IdempotencyKey  string           `json:"idempotency_key"`
	ScheduleID      int64            `json:"schedule_id"`
	Guests          GuestComposition `json:"guests"`
	Customer        CustomerInfo     `json:"customer"`
	SpecialRequests string           `json:"special_requests,omitempty"`
	Pricing         Pricing          `json:"pricing"`
	Status          BookingStatus    `json:"status"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func (b *Booking) Transition(to BookingStatus, at time.Time) error {
	if !CanTransition(b.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, to)
	}
	b.Status = to
	b.UpdatedAt = at
	return nil
}

// SortNewestFirst orders bookings by CreatedAt descending, keeping insertion
// order for equal timestamps.
func SortNewestFirst(bookings []Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
}
