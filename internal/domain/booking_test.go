package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(BookingStatusPendingPayment, BookingStatusPaid))
	assert.True(t, CanTransition(BookingStatusPendingPayment, BookingStatusCancelled))

	assert.False(t, CanTransition(BookingStatusPaid, BookingStatusCancelled))
	assert.False(t, CanTransition(BookingStatusCancelled, BookingStatusPaid))
	assert.False(t, CanTransition(BookingStatusPaid, BookingStatusPendingPayment))
	assert.False(t, CanTransition(BookingStatusPendingPayment, BookingStatusPendingPayment))
}

func TestBooking_Transition(t *testing.T) {
	at := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	b := &Booking{Status: BookingStatusPendingPayment}

	assert.NoError(t, b.Transition(BookingStatusPaid, at))
	assert.Equal(t, BookingStatusPaid, b.Status)
	assert.Equal(t, at, b.UpdatedAt)

	err := b.Transition(BookingStatusCancelled, at.Add(time.Minute))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, BookingStatusPaid, b.Status)
	assert.Equal(t, at, b.UpdatedAt)
}

func TestCustomerInfo_Validate(t *testing.T) {
	valid := CustomerInfo{FullName: "Nguyen Van A", Email: "a@example.com", Phone: "0900000000"}
	assert.NoError(t, valid.Validate())

	noName := valid
	noName.FullName = "  "
	assert.ErrorIs(t, noName.Validate(), ErrValidation)

	noEmail := valid
	noEmail.Email = ""
	assert.ErrorIs(t, noEmail.Validate(), ErrValidation)

	badEmail := valid
	badEmail.Email = "not-an-email"
	assert.ErrorIs(t, badEmail.Validate(), ErrValidation)
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bookings := []Booking{
		{ID: "a", CreatedAt: base},
		{ID: "c", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "b", CreatedAt: base.Add(time.Hour)},
		{ID: "b2", CreatedAt: base.Add(time.Hour)},
	}
	SortNewestFirst(bookings)

	ids := make([]string, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"c", "b", "b2", "a"}, ids)
}
