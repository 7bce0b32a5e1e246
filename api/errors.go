package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Domenick1991/tourbooking/internal/domain"
	"github.com/gin-gonic/gin"
)

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrInvalidGuestComposition, http.StatusUnprocessableEntity, "invalid_guest_composition"},
	{domain.ErrCapacityExceeded, http.StatusConflict, "capacity_exceeded"},
	{domain.ErrScheduleDeparted, http.StatusConflict, "schedule_departed"},
	{domain.ErrDuplicateSubmission, http.StatusConflict, "duplicate_submission"},
	{domain.ErrStaleSchedule, http.StatusConflict, "stale_schedule"},
	{domain.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{domain.ErrValidation, http.StatusUnprocessableEntity, "validation_error"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
}

// statusFor maps a service error to its HTTP status and error code. Unknown
// errors are internal.
func statusFor(err error) (int, string) {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.status, e.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

func writeError(c *gin.Context, err error) {
	status, code := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		message = "internal server error"
	}
	c.JSON(status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}

func writeBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: errorDetail{Code: "bad_request", Message: message}})
}
