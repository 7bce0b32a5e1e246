// Package client is a Go client for the booking HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Domenick1991/tourbooking/internal/domain"
)

const idempotencyKeyHeader = "Idempotency-Key"

// ErrNetworkFailure wraps every transport level failure. The request may or
// may not have reached the server.
var ErrNetworkFailure = errors.New("network failure")

// APIError is a rejection reported by the booking API. Message is the
// server's text unchanged.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("booking api: %d %s: %s", e.Status, e.Code, e.Message)
}

var codeErrors = map[string]error{
	"invalid_guest_composition": domain.ErrInvalidGuestComposition,
	"capacity_exceeded":         domain.ErrCapacityExceeded,
	"schedule_departed":         domain.ErrScheduleDeparted,
	"duplicate_submission":      domain.ErrDuplicateSubmission,
	"stale_schedule":            domain.ErrStaleSchedule,
	"invalid_transition":        domain.ErrInvalidTransition,
	"validation_error":          domain.ErrValidation,
	"not_found":                 domain.ErrNotFound,
}

// Unwrap lets callers match API errors against the domain sentinels.
func (e *APIError) Unwrap() error {
	return codeErrors[e.Code]
}

type DraftRequest struct {
	ScheduleID      int64                   `json:"schedule_id"`
	Guests          domain.GuestComposition `json:"guests"`
	Customer        domain.CustomerInfo     `json:"customer"`
	SpecialRequests string                  `json:"special_requests,omitempty"`
	GuideDays       int                     `json:"guide_days,omitempty"`
}

type BookingResponse struct {
	domain.Booking
	TotalText string `json:"total_text"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitDraft posts a draft once. It never retries on its own; retrying with
// the same idempotencyKey returns the booking created by the first attempt.
func (c *Client) SubmitDraft(ctx context.Context, draft DraftRequest, idempotencyKey string) (*BookingResponse, error) {
	var out BookingResponse
	header := http.Header{}
	if idempotencyKey != "" {
		header.Set(idempotencyKeyHeader, idempotencyKey)
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/bookings", header, draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetBooking(ctx context.Context, id string) (*BookingResponse, error) {
	var out BookingResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/bookings/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListBookings(ctx context.Context, email string) ([]BookingResponse, error) {
	var out []BookingResponse
	path := "/api/v1/bookings?" + url.Values{"email": {email}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, header http.Header, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrNetworkFailure, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrNetworkFailure, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, data []byte) error {
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil || body.Error.Code == "" {
		return &APIError{Status: status, Code: "unknown", Message: strings.TrimSpace(string(data))}
	}
	return &APIError{Status: status, Code: body.Error.Code, Message: body.Error.Message}
}
