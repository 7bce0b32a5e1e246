package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/Domenick1991/tourbooking/internal/pricing"
	"github.com/Domenick1991/tourbooking/internal/service/schedules"
	"github.com/gin-gonic/gin"
)

type ScheduleHandler struct {
	service schedules.ScheduleUseCase
}

// scheduleResponse adds the derived capacity and discount fields clients
// render next to a schedule.
type scheduleResponse struct {
	domain.Schedule
	Remaining       int    `json:"remaining"`
	DiscountPercent *int   `json:"discount_percent,omitempty"`
	AdultPriceText  string `json:"adult_price_text"`
}

func NewScheduleHandler(service schedules.ScheduleUseCase) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

func (h *ScheduleHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.POST("", h.create)
	router.GET("/:id", h.get)
	router.PUT("/:id", h.update)
}

func newScheduleResponse(s domain.Schedule) scheduleResponse {
	return scheduleResponse{
		Schedule:        s,
		Remaining:       domain.RemainingCapacity(s),
		DiscountPercent: discountPercent(s),
		AdultPriceText:  domain.Format(s.AdultPrice),
	}
}

func (h *ScheduleHandler) list(c *gin.Context) {
	kind := domain.ScheduleKind(c.DefaultQuery("kind", string(domain.ScheduleKindTour)))
	refID, err := strconv.ParseInt(c.Query("ref_id"), 10, 64)
	if err != nil {
		writeBadRequest(c, "invalid ref_id")
		return
	}

	list, err := h.service.ListByRef(c.Request.Context(), kind, refID)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]scheduleResponse, 0, len(list))
	for _, s := range list {
		out = append(out, newScheduleResponse(s))
	}
	c.JSON(http.StatusOK, out)
}

func (h *ScheduleHandler) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	schedule, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newScheduleResponse(*schedule))
}

func (h *ScheduleHandler) create(c *gin.Context) {
	var req schedules.CreateScheduleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}
	schedule, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newScheduleResponse(*schedule))
}

func (h *ScheduleHandler) update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req schedules.UpdateScheduleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, err.Error())
		return
	}
	req.ID = id

	schedule, err := h.service.Update(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newScheduleResponse(*schedule))
}

func discountPercent(s domain.Schedule) *int {
	if percent, ok := pricing.DiscountBadge(s.AdultPrice, s.OriginalPrice); ok {
		return &percent
	}
	return nil
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeBadRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}
