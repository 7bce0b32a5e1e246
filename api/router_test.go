package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/Domenick1991/tourbooking/internal/pricing"
	"github.com/Domenick1991/tourbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestRouter(bookings *MockBookingUseCase, schedules *MockScheduleUseCase, checks map[string]Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterConfig{Swagger: true}, schedules, bookings, checks)
}

func TestRouter_Quote(t *testing.T) {
	bookings := &MockBookingUseCase{}
	router := newTestRouter(bookings, &MockScheduleUseCase{}, nil)

	input := booking.QuoteInput{ScheduleID: 7, Guests: domain.GuestComposition{Adults: 2, Children: 1}}
	percent := 20
	bookings.On("Quote", mock.Anything, input).Return(&pricing.Quote{
		ScheduleID: 7,
		Guests:     input.Guests,
		Pricing:    domain.Pricing{Subtotal: 2700000, Total: 2700000},
		Discount:   &percent,
		Remaining:  4,
		Bookable:   true,
	}, nil)

	body, _ := json.Marshal(input)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	var response quoteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "2.700.000 ₫", response.TotalText)
	assert.True(t, response.Bookable)
	require.NotNil(t, response.Discount)
	assert.Equal(t, 20, *response.Discount)
	bookings.AssertExpectations(t)
}

func TestRouter_BookingRoutes(t *testing.T) {
	bookings := &MockBookingUseCase{}
	router := newTestRouter(bookings, &MockScheduleUseCase{}, nil)

	bookings.On("GetByID", mock.Anything, "b-1").Return(pendingBooking(), nil)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/b-1", nil)
	r.Header.Set(requestIDHeader, "req-42")
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", w.Header().Get(requestIDHeader))
	bookings.AssertExpectations(t)
}

func TestRouter_InternalErrorHidesDetail(t *testing.T) {
	bookings := &MockBookingUseCase{}
	router := newTestRouter(bookings, &MockScheduleUseCase{}, nil)

	bookings.On("MarkPaid", mock.Anything, "b-1").Return(nil, errors.New("connection reset by peer"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/v1/bookings/b-1/pay", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"internal"`)
	assert.NotContains(t, w.Body.String(), "connection reset")
}

func TestRouter_Healthz(t *testing.T) {
	router := newTestRouter(&MockBookingUseCase{}, &MockScheduleUseCase{}, map[string]Pinger{
		"postgres": pingFunc(func(context.Context) error { return nil }),
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"postgres":"ok"`)

	router = newTestRouter(&MockBookingUseCase{}, &MockScheduleUseCase{}, map[string]Pinger{
		"redis": pingFunc(func(context.Context) error { return errors.New("dial tcp: refused") }),
	})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_SwaggerDoc(t *testing.T) {
	router := newTestRouter(&MockBookingUseCase{}, &MockScheduleUseCase{}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"/bookings/{id}/pay"`)
}

func TestStatusFor(t *testing.T) {
	status, code := statusFor(errors.Join(errors.New("ctx"), domain.ErrValidation))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "validation_error", code)

	status, code = statusFor(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal", code)
}
