package rest

import (
	"net/http"

	"github.com/Freeeeeet/consultation_scheduler/internal/schedule"
	"github.com/Freeeeeet/consultation_scheduler/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SlotHandler struct {
	slots  *service.SlotService
	logger *zap.Logger
}

func NewSlotHandler(slots *service.SlotService, logger *zap.Logger) *SlotHandler {
	return &SlotHandler{
		slots:  slots,
		logger: logger,
	}
}

// ListSlots возвращает слоты юриста за ?from=&to= (YYYY-MM-DD). Без границ
// окно с первого числа текущего месяца до последнего дня следующего.
func (h *SlotHandler) ListSlots(c *gin.Context) {
	lawyerID, ok := pathID(c, "id")
	if !ok {
		return
	}

	from, to := h.slots.DefaultWindow()
	errs := schedule.ValidationErrors{}
	if raw := c.Query("from"); raw != "" {
		d, err := schedule.ParseDate(raw)
		if err != nil {
			errs["from"] = "Must be a date in YYYY-MM-DD format"
		}
		from = d
	}
	if raw := c.Query("to"); raw != "" {
		d, err := schedule.ParseDate(raw)
		if err != nil {
			errs["to"] = "Must be a date in YYYY-MM-DD format"
		}
		to = d
	}
	if len(errs) > 0 {
		respondError(c, h.logger, errs)
		return
	}

	slots, err := h.slots.ListSlots(c.Request.Context(), lawyerID, from, to)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "", slots)
}
