package api

import (
	"errors"
	"net/http"

	"nutriplan/nutrition-app/internal/service"

	"github.com/gin-gonic/gin"
)

// Envelope is the uniform response shape of every endpoint.
type Envelope struct {
	Success bool        `json:"success"`
	Result  interface{} `json:"result,omitempty"`
	Message string      `json:"message,omitempty"`
}

func respondOK(c *gin.Context, status int, result interface{}) {
	c.JSON(status, Envelope{Success: true, Result: result})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Success: true, Message: message})
}

func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, Envelope{Success: false, Message: message})
}

// respondServiceError maps engine errors onto the HTTP taxonomy: validation
// 400, not found 404, ownership 403, conflicts and rejected transitions 409,
// everything else 500.
func respondServiceError(c *gin.Context, err error) {
	var transition *service.StateTransitionError

	switch {
	case errors.Is(err, service.ErrValidation):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrTemplateNotFound),
		errors.Is(err, service.ErrScheduleNotFound),
		errors.Is(err, service.ErrItemNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrScheduleAccessDenied),
		errors.Is(err, service.ErrTemplateAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrSlotConflict),
		errors.Is(err, service.ErrCrossScheduleSwap):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.As(err, &transition):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}
