package domain

import (
	"fmt"
	"time"
)

type ScheduleKind string

const (
	ScheduleKindTour     ScheduleKind = "tour"
	ScheduleKindWorkshop ScheduleKind = "workshop"
)

func (k ScheduleKind) Valid() bool {
	return k == ScheduleKindTour || k == ScheduleKindWorkshop
}

// Schedule is a bookable tour departure or workshop time slot.
type Schedule struct {
	ID              int64        `json:"id"`
	Kind            ScheduleKind `json:"kind"`
	RefID           int64        `json:"ref_id"`
	StartAt         time.Time    `json:"start_at"`
	EndAt           *time.Time   `json:"end_at,omitempty"`
	MaxParticipants int          `json:"max_participants"`
	CurrentBooked   int          `json:"current_booked"`
	AdultPrice      Money        `json:"adult_price"`
	ChildrenPrice   Money        `json:"children_price"`
	OriginalPrice   *Money       `json:"original_price,omitempty"`
	Notes           string       `json:"notes,omitempty"`
	Version         int64        `json:"version"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func (s Schedule) Validate() error {
	if s.MaxParticipants <= 0 {
		return fmt.Errorf("%w: max participants must be positive", ErrValidation)
	}
	if s.CurrentBooked < 0 || s.CurrentBooked > s.MaxParticipants {
		return fmt.Errorf("%w: current booked must be between 0 and %d", ErrValidation, s.MaxParticipants)
	}
	if s.AdultPrice < 0 || s.ChildrenPrice < 0 {
		return fmt.Errorf("%w: prices must not be negative", ErrValidation)
	}
	if s.OriginalPrice != nil && *s.OriginalPrice < 0 {
		return fmt.Errorf("%w: original price must not be negative", ErrValidation)
	}
	if s.StartAt.IsZero() {
		return fmt.Errorf("%w: start time is required", ErrValidation)
	}
	if s.EndAt != nil && !s.EndAt.After(s.StartAt) {
		return fmt.Errorf("%w: end time must be after start time", ErrValidation)
	}
	return nil
}

type GuestComposition struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
}

func (g GuestComposition) Total() int {
	return g.Adults + g.Children
}

func (g GuestComposition) Validate() error {
	if g.Adults < 1 {
		return fmt.Errorf("%w: at least one adult is required", ErrInvalidGuestComposition)
	}
	if g.Children < 0 {
		return fmt.Errorf("%w: children must not be negative", ErrInvalidGuestComposition)
	}
	return nil
}

// RemainingCapacity never reports a negative number of free places.
func RemainingCapacity(s Schedule) int {
	remaining := s.MaxParticipants - s.CurrentBooked
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsBookable is advisory. The store re-checks capacity when the booking is created.
func IsBookable(s Schedule, requested int, now time.Time) bool {
	if requested < 1 {
		return false
	}
	if s.StartAt.Before(now) {
		return false
	}
	return requested <= RemainingCapacity(s)
}

// CheckBookable reports why a guest composition cannot be booked on s.
func CheckBookable(s Schedule, g GuestComposition, now time.Time) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if s.StartAt.Before(now) {
		return fmt.Errorf("%w: schedule %d started at %s", ErrScheduleDeparted, s.ID, s.StartAt.Format(time.RFC3339))
	}
	if remaining := RemainingCapacity(s); g.Total() > remaining {
		return fmt.Errorf("%w: requested %d, remaining %d", ErrCapacityExceeded, g.Total(), remaining)
	}
	return nil
}
