package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDraft() DraftRequest {
	return DraftRequest{
		ScheduleID: 7,
		Guests:     domain.GuestComposition{Adults: 2, Children: 1},
		Customer:   domain.CustomerInfo{FullName: "Nguyen Van A", Email: "a@example.com"},
	}
}

func TestClient_SubmitDraft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/bookings", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("Idempotency-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var draft DraftRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&draft))
		assert.Equal(t, 2, draft.Guests.Adults)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"b-1","reference":"BK-000001","status":"pending_payment","pricing":{"total":2700000},"total_text":"2.700.000 ₫"}`))
	}))
	defer srv.Close()

	resp, err := New(srv.URL+"/").SubmitDraft(context.Background(), sampleDraft(), "key-1")

	require.NoError(t, err)
	assert.Equal(t, "BK-000001", resp.Reference)
	assert.Equal(t, domain.BookingStatusPendingPayment, resp.Status)
	assert.Equal(t, domain.Money(2700000), resp.Pricing.Total)
	assert.Equal(t, "2.700.000 ₫", resp.TotalText)
}

func TestClient_SubmitDraft_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":{"code":"capacity_exceeded","message":"capacity exceeded: requested 5, remaining 4"}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).SubmitDraft(context.Background(), sampleDraft(), "key-1")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "capacity_exceeded", apiErr.Code)
	assert.Equal(t, "capacity exceeded: requested 5, remaining 4", apiErr.Message)
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
	assert.NotErrorIs(t, err, ErrNetworkFailure)
}

func TestClient_SubmitDraft_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).SubmitDraft(context.Background(), sampleDraft(), "")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "unknown", apiErr.Code)
	assert.Equal(t, "bad gateway", apiErr.Message)
}

func TestClient_SubmitDraft_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url).SubmitDraft(context.Background(), sampleDraft(), "key-1")

	assert.ErrorIs(t, err, ErrNetworkFailure)
}

func TestClient_ListBookings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "a+b@example.com", r.URL.Query().Get("email"))
		_, _ = w.Write([]byte(`[{"id":"b-2"},{"id":"b-1"}]`))
	}))
	defer srv.Close()

	list, err := New(srv.URL).ListBookings(context.Background(), "a+b@example.com")

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b-2", list[0].ID)
}

func TestSubmission_RetryReusesKey(t *testing.T) {
	var calls atomic.Int32
	var keys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"code":"internal","message":"internal server error"}}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"b-1","status":"pending_payment"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	sub := NewSubmission(sampleDraft())
	state, _, _ := sub.State()
	assert.Equal(t, SubmissionIdle, state)

	_, err := sub.Submit(context.Background(), c)
	require.Error(t, err)
	state, _, lastErr := sub.State()
	assert.Equal(t, SubmissionFailed, state)
	assert.Equal(t, err, lastErr)

	resp, err := sub.Submit(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "b-1", resp.ID)

	again, err := sub.Submit(context.Background(), c)
	require.NoError(t, err)
	assert.Same(t, resp, again)

	assert.Equal(t, int32(2), calls.Load())
	require.Len(t, keys, 2)
	assert.Equal(t, sub.IdempotencyKey(), keys[0])
	assert.Equal(t, keys[0], keys[1])
}

func TestSubmission_InFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"b-1"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	sub := NewSubmission(sampleDraft())
	done := make(chan error, 1)
	go func() {
		_, err := sub.Submit(context.Background(), c)
		done <- err
	}()

	<-started
	_, err := sub.Submit(context.Background(), c)
	assert.True(t, errors.Is(err, ErrSubmissionInFlight))
	state, _, _ := sub.State()
	assert.Equal(t, SubmissionPending, state)

	close(release)
	require.NoError(t, <-done)
}
