package rest

import (
	"net/http"
	"strconv"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/schedule"
	"github.com/Freeeeeet/consultation_scheduler/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ScheduleHandler struct {
	schedules *service.ScheduleService
	logger    *zap.Logger
}

func NewScheduleHandler(schedules *service.ScheduleService, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		schedules: schedules,
		logger:    logger,
	}
}

type createRuleRequest struct {
	RuleData schedule.RuleInput `json:"ruleData"`
	Override bool               `json:"override"`
}

func (h *ScheduleHandler) CreateRule(c *gin.Context) {
	var req createRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, KindBadRequest, "Invalid request body")
		return
	}

	rule, err := h.schedules.Create(c.Request.Context(), currentUser(c), req.RuleData, req.Override)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusCreated, "Availability rule created", rule)
}

func (h *ScheduleHandler) UpdateRule(c *gin.Context) {
	ruleID, ok := pathID(c, "ruleId")
	if !ok {
		return
	}

	var patch schedule.RulePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, http.StatusBadRequest, KindBadRequest, "Invalid request body")
		return
	}

	override, _ := strconv.ParseBool(c.Query("override"))

	rule, err := h.schedules.Update(c.Request.Context(), currentUser(c), ruleID, patch, override)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Availability rule updated", rule)
}

func (h *ScheduleHandler) ListRules(c *gin.Context) {
	rules, err := h.schedules.List(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if rules == nil {
		rules = []*model.AvailabilityRule{}
	}
	respond(c, http.StatusOK, "", rules)
}

func (h *ScheduleHandler) DeleteRule(c *gin.Context) {
	ruleID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.schedules.Delete(c.Request.Context(), currentUser(c), ruleID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Availability rule deleted", nil)
}

// pathID разбирает uuid из пути. Некорректный id отвечает как ненайденный ресурс.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		fail(c, http.StatusNotFound, KindNotFound, "Resource not found")
		return uuid.Nil, false
	}
	return id, true
}
