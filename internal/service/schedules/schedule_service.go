package schedules

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/Domenick1991/tourbooking/internal/repository"
)

type ScheduleUseCase interface {
	Create(ctx context.Context, input CreateScheduleInput) (*domain.Schedule, error)
	ListByRef(ctx context.Context, kind domain.ScheduleKind, refID int64) ([]domain.Schedule, error)
	GetByID(ctx context.Context, id int64) (*domain.Schedule, error)
	Update(ctx context.Context, input UpdateScheduleInput) (*domain.Schedule, error)
}

type ScheduleCache interface {
	GetSchedules(ctx context.Context, kind domain.ScheduleKind, refID int64) ([]domain.Schedule, error)
	SetSchedules(ctx context.Context, kind domain.ScheduleKind, refID int64, schedules []domain.Schedule) error
	InvalidateSchedules(ctx context.Context, kind domain.ScheduleKind, refID int64) error
}

type ScheduleService struct {
	repo  repository.ScheduleRepository
	cache ScheduleCache
}

type CreateScheduleInput struct {
	Kind            domain.ScheduleKind `json:"kind"`
	RefID           int64               `json:"ref_id"`
	StartAt         time.Time           `json:"start_at"`
	EndAt           *time.Time          `json:"end_at"`
	MaxParticipants int                 `json:"max_participants"`
	AdultPrice      domain.Money        `json:"adult_price"`
	ChildrenPrice   domain.Money        `json:"children_price"`
	OriginalPrice   *domain.Money       `json:"original_price"`
	Notes           string              `json:"notes"`
}

// UpdateScheduleInput carries the full editable state of a schedule and the
// version it was read at.
type UpdateScheduleInput struct {
	ID              int64         `json:"-"`
	Version         int64         `json:"version"`
	StartAt         time.Time     `json:"start_at"`
	EndAt           *time.Time    `json:"end_at"`
	MaxParticipants int           `json:"max_participants"`
	AdultPrice      domain.Money  `json:"adult_price"`
	ChildrenPrice   domain.Money  `json:"children_price"`
	OriginalPrice   *domain.Money `json:"original_price"`
	Notes           string        `json:"notes"`
}

func NewScheduleService(repo repository.ScheduleRepository, cache ScheduleCache) *ScheduleService {
	return &ScheduleService{repo: repo, cache: cache}
}

func (s *ScheduleService) Create(ctx context.Context, input CreateScheduleInput) (*domain.Schedule, error) {
	if !input.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown schedule kind %q", domain.ErrValidation, input.Kind)
	}
	if input.RefID <= 0 {
		return nil, fmt.Errorf("%w: ref_id must be positive", domain.ErrValidation)
	}
	schedule := &domain.Schedule{
		Kind:            input.Kind,
		RefID:           input.RefID,
		StartAt:         input.StartAt,
		EndAt:           input.EndAt,
		MaxParticipants: input.MaxParticipants,
		AdultPrice:      input.AdultPrice,
		ChildrenPrice:   input.ChildrenPrice,
		OriginalPrice:   input.OriginalPrice,
		Notes:           input.Notes,
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, err
	}
	s.invalidate(ctx, schedule.Kind, schedule.RefID)
	return schedule, nil
}

func (s *ScheduleService) ListByRef(ctx context.Context, kind domain.ScheduleKind, refID int64) ([]domain.Schedule, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown schedule kind %q", domain.ErrValidation, kind)
	}
	if s.cache != nil {
		if cached, err := s.cache.GetSchedules(ctx, kind, refID); err == nil && cached != nil {
			return cached, nil
		}
	}

	schedules, err := s.repo.ListByRef(ctx, kind, refID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetSchedules(ctx, kind, refID, schedules); err != nil {
			slog.WarnContext(ctx, "failed to cache schedules", "kind", kind, "ref_id", refID, "error", err)
		}
	}
	return schedules, nil
}

func (s *ScheduleService) GetByID(ctx context.Context, id int64) (*domain.Schedule, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies an edit made against input.Version. The current booked count
// is never taken from the caller.
func (s *ScheduleService) Update(ctx context.Context, input UpdateScheduleInput) (*domain.Schedule, error) {
	current, err := s.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if current.Version != input.Version {
		return nil, fmt.Errorf("%w: expected version %d, found %d", domain.ErrStaleSchedule, input.Version, current.Version)
	}

	edited := *current
	edited.StartAt = input.StartAt
	edited.EndAt = input.EndAt
	edited.MaxParticipants = input.MaxParticipants
	edited.AdultPrice = input.AdultPrice
	edited.ChildrenPrice = input.ChildrenPrice
	edited.OriginalPrice = input.OriginalPrice
	edited.Notes = input.Notes
	if err := edited.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, &edited, input.Version)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, updated.Kind, updated.RefID)
	return updated, nil
}

func (s *ScheduleService) invalidate(ctx context.Context, kind domain.ScheduleKind, refID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSchedules(ctx, kind, refID); err != nil {
		slog.WarnContext(ctx, "failed to invalidate schedules cache", "kind", kind, "ref_id", refID, "error", err)
	}
}

var _ ScheduleUseCase = (*ScheduleService)(nil)
