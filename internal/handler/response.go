package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"parimarket/internal/service"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// ServiceError maps the typed admission/settlement failures onto HTTP
// statuses. Each kind keeps its own message so clients can tell apart why a
// bet was rejected.
func ServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEventNotFound),
		errors.Is(err, service.ErrUserNotFound):
		Error(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, service.ErrInvalidEntryFee),
		errors.Is(err, service.ErrInvalidPrediction),
		errors.Is(err, service.ErrInvalidOutcome):
		Error(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, service.ErrBettingClosed),
		errors.Is(err, service.ErrDuplicateEntry),
		errors.Is(err, service.ErrAlreadyResolved),
		errors.Is(err, service.ErrNoBets),
		errors.Is(err, service.ErrAlreadyClaimed),
		errors.Is(err, service.ErrUsernameTaken):
		Error(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, service.ErrInsufficientFunds):
		Error(c, http.StatusPaymentRequired, err.Error(), nil)
	default:
		Error(c, http.StatusInternalServerError, "internal error", nil)
	}
}
