package api

import (
	"net/http"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/Domenick1991/tourbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

// IdempotencyKeyHeader lets a client retry a draft submission safely.
const IdempotencyKeyHeader = "Idempotency-Key"

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	ScheduleID      int64                   `json:"schedule_id"`
	Guests          domain.GuestComposition `json:"guests"`
	Customer        domain.CustomerInfo     `json:"customer"`
	SpecialRequests string                  `json:"special_requests"`
	GuideDays       int                     `json:"guide_days"`
}

type bookingResponse struct {
	domain.Booking
	TotalText string `json:"total_text"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.listByEmail)
	router.GET("/:id", h.get)
	router.PUT("/:id/pay", h.pay)
	router.DELETE("/:id", h.cancel)
}

func newBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{Booking: *b, TotalText: domain.Format(b.Pricing.Total)}
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}

	created, err := h.service.CreateDraft(c.Request.Context(), booking.CreateDraftInput{
		ScheduleID:      req.ScheduleID,
		Guests:          req.Guests,
		Customer:        req.Customer,
		SpecialRequests: req.SpecialRequests,
		GuideDays:       req.GuideDays,
		IdempotencyKey:  c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header(IdempotencyKeyHeader, created.IdempotencyKey)
	c.JSON(http.StatusCreated, newBookingResponse(created))
}

func (h *BookingHandler) listByEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		writeBadRequest(c, "email query parameter is required")
		return
	}

	list, err := h.service.ListCustomerBookings(c.Request.Context(), email)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]bookingResponse, 0, len(list))
	for i := range list {
		out = append(out, newBookingResponse(&list[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *BookingHandler) get(c *gin.Context) {
	found, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBookingResponse(found))
}

func (h *BookingHandler) pay(c *gin.Context) {
	paid, err := h.service.MarkPaid(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBookingResponse(paid))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	cancelled, err := h.service.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBookingResponse(cancelled))
}
