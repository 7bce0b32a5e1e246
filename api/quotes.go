package api

import (
	"net/http"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/Domenick1991/tourbooking/internal/pricing"
	"github.com/Domenick1991/tourbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type QuoteHandler struct {
	service booking.BookingUseCase
}

type quoteResponse struct {
	pricing.Quote
	SubtotalText string `json:"subtotal_text"`
	TotalText    string `json:"total_text"`
}

func NewQuoteHandler(service booking.BookingUseCase) *QuoteHandler {
	return &QuoteHandler{service: service}
}

func (h *QuoteHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.quote)
}

func (h *QuoteHandler) quote(c *gin.Context) {
	var req booking.QuoteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}

	quote, err := h.service.Quote(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quoteResponse{
		Quote:        *quote,
		SubtotalText: domain.Format(quote.Pricing.Subtotal),
		TotalText:    domain.Format(quote.Pricing.Total),
	})
}
