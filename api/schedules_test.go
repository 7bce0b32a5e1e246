package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/Domenick1991/tourbooking/internal/service/schedules"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func discountedSchedule() domain.Schedule {
	original := domain.Money(1200000)
	return domain.Schedule{
		ID:              5,
		Kind:            domain.ScheduleKindTour,
		RefID:           2,
		StartAt:         time.Date(2026, 12, 1, 6, 0, 0, 0, time.UTC),
		MaxParticipants: 10,
		CurrentBooked:   12,
		AdultPrice:      1000000,
		ChildrenPrice:   700000,
		OriginalPrice:   &original,
		Version:         4,
	}
}

func TestScheduleHandler_list(t *testing.T) {
	mockService := &MockScheduleUseCase{}
	handler := NewScheduleHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/schedules?kind=tour&ref_id=2", nil)

	mockService.On("ListByRef", c.Request.Context(), domain.ScheduleKindTour, int64(2)).Return([]domain.Schedule{discountedSchedule()}, nil)

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response []scheduleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Equal(t, 0, response[0].Remaining)
	require.NotNil(t, response[0].DiscountPercent)
	assert.Equal(t, 17, *response[0].DiscountPercent)
	assert.Equal(t, "1.000.000 ₫", response[0].AdultPriceText)

	mockService.AssertExpectations(t)
}

func TestScheduleHandler_list_BadRef(t *testing.T) {
	handler := NewScheduleHandler(&MockScheduleUseCase{})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/schedules?ref_id=abc", nil)

	handler.list(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandler_get_NotFound(t *testing.T) {
	mockService := &MockScheduleUseCase{}
	handler := NewScheduleHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "999"}}
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/schedules/999", nil)

	mockService.On("GetByID", c.Request.Context(), int64(999)).Return(nil, domain.ErrNotFound)

	handler.get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockService.AssertExpectations(t)
}

func TestScheduleHandler_update_Stale(t *testing.T) {
	mockService := &MockScheduleUseCase{}
	handler := NewScheduleHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "5"}}
	body := `{"version":3,"start_at":"2026-12-01T06:00:00Z","max_participants":12,"adult_price":1000000,"children_price":700000}`
	c.Request = httptest.NewRequest(http.MethodPut, "/api/v1/schedules/5", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("Update", c.Request.Context(), mock.MatchedBy(func(in schedules.UpdateScheduleInput) bool {
		return in.ID == 5 && in.Version == 3 && in.MaxParticipants == 12
	})).Return(nil, domain.ErrStaleSchedule)

	handler.update(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"stale_schedule"`)
	mockService.AssertExpectations(t)
}

func TestScheduleHandler_update_InvalidID(t *testing.T) {
	handler := NewScheduleHandler(&MockScheduleUseCase{})

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "-1"}}
	c.Request = httptest.NewRequest(http.MethodPut, "/api/v1/schedules/-1", bytes.NewBufferString(`{}`))

	handler.update(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
