package rest

import (
	"errors"
	"net/http"

	"github.com/Freeeeeet/consultation_scheduler/internal/schedule"
	"github.com/Freeeeeet/consultation_scheduler/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Типы ошибок в ответе
const (
	KindValidationFailed  = "ValidationFailed"
	KindNotFound          = "NotFound"
	KindForbidden         = "Forbidden"
	KindSlotAlreadyBooked = "SlotAlreadyBooked"
	KindConflict          = "Conflict"
	KindUnauthorized      = "Unauthorized"
	KindBadRequest        = "BadRequest"
	KindInternal          = "Internal"
)

type Response struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    any               `json:"data,omitempty"`
	Kind    string            `json:"kind,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func fail(c *gin.Context, status int, kind, message string) {
	c.AbortWithStatusJSON(status, Response{
		Success: false,
		Message: message,
		Kind:    kind,
	})
}

// respondError переводит ошибку сервиса в HTTP-статус и тип
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var verrs schedule.ValidationErrors
	if errors.As(err, &verrs) {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, Response{
			Success: false,
			Message: "Validation failed",
			Kind:    KindValidationFailed,
			Errors:  verrs,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidRange):
		fail(c, http.StatusUnprocessableEntity, KindValidationFailed, err.Error())
	case errors.Is(err, service.ErrRuleNotFound),
		errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrSlotNotFound):
		fail(c, http.StatusNotFound, KindNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		fail(c, http.StatusForbidden, KindForbidden, "You do not have access to this resource")
	case errors.Is(err, service.ErrSlotAlreadyBooked):
		fail(c, http.StatusConflict, KindSlotAlreadyBooked, "This slot has just been booked by someone else")
	case errors.Is(err, service.ErrRuleOverlap),
		errors.Is(err, service.ErrBookingNotActive):
		fail(c, http.StatusConflict, KindConflict, err.Error())
	default:
		logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		fail(c, http.StatusInternalServerError, KindInternal, "Internal server error")
	}
}
