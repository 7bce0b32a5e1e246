package client

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

type SubmissionState int

const (
	SubmissionIdle SubmissionState = iota
	SubmissionPending
	SubmissionSucceeded
	SubmissionFailed
)

func (s SubmissionState) String() string {
	switch s {
	case SubmissionPending:
		return "pending"
	case SubmissionSucceeded:
		return "succeeded"
	case SubmissionFailed:
		return "failed"
	default:
		return "idle"
	}
}

var ErrSubmissionInFlight = errors.New("submission already in flight")

// Submission tracks one booking attempt. Each form owns its own Submission,
// so one pending request never blocks another. Resubmitting after a failure
// sends the same draft under the same idempotency key.
type Submission struct {
	mu     sync.Mutex
	draft  DraftRequest
	key    string
	state  SubmissionState
	result *BookingResponse
	err    error
}

func NewSubmission(draft DraftRequest) *Submission {
	return &Submission{draft: draft, key: uuid.NewString()}
}

func (s *Submission) IdempotencyKey() string {
	return s.key
}

// State reports the current state with the last result or error.
func (s *Submission) State() (SubmissionState, *BookingResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.result, s.err
}

func (s *Submission) Submit(ctx context.Context, c *Client) (*BookingResponse, error) {
	s.mu.Lock()
	switch s.state {
	case SubmissionPending:
		s.mu.Unlock()
		return nil, ErrSubmissionInFlight
	case SubmissionSucceeded:
		result := s.result
		s.mu.Unlock()
		return result, nil
	}
	s.state = SubmissionPending
	s.err = nil
	draft, key := s.draft, s.key
	s.mu.Unlock()

	result, err := c.SubmitDraft(ctx, draft, key)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = SubmissionFailed
		s.err = err
		return nil, err
	}
	s.state = SubmissionSucceeded
	s.result = result
	return result, nil
}
