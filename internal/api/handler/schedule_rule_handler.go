package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/dto"
	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/service"
	pkgerrors "github.com/CataloGlobe/cataloglobe-app-sub001/pkg/errors"
	"github.com/CataloGlobe/cataloglobe-app-sub001/pkg/response"
)

// ScheduleRuleHandler 排期规则模块 HTTP 处理器
type ScheduleRuleHandler struct {
	ruleSvc service.ScheduleRuleService
}

// NewScheduleRuleHandler 创建 ScheduleRuleHandler
func NewScheduleRuleHandler(ruleSvc service.ScheduleRuleService) *ScheduleRuleHandler {
	return &ScheduleRuleHandler{ruleSvc: ruleSvc}
}

// ListRules 获取商户排期规则列表
// GET /api/v1/businesses/:id/schedule-rules?slot=&page=&page_size=
func (h *ScheduleRuleHandler) ListRules(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.ScheduleRuleListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	rules, total, err := h.ruleSvc.List(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleRuleError(c, err)
		return
	}

	response.OKPage(c, rules, total, req.GetPage(), req.GetPageSize())
}

// CreateRule 创建排期规则
// POST /api/v1/businesses/:id/schedule-rules
func (h *ScheduleRuleHandler) CreateRule(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.CreateScheduleRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	rule, err := h.ruleSvc.Create(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleRuleError(c, err)
		return
	}

	response.Created(c, rule)
}

// GetRule 获取排期规则详情
// GET /api/v1/schedule-rules/:id
func (h *ScheduleRuleHandler) GetRule(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	rule, err := h.ruleSvc.GetByID(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleRuleError(c, err)
		return
	}

	response.OK(c, rule)
}

// UpdateRule 部分更新排期规则，需携带当前 version
// PUT /api/v1/schedule-rules/:id
func (h *ScheduleRuleHandler) UpdateRule(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	var req dto.UpdateScheduleRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	rule, err := h.ruleSvc.Update(c.Request.Context(), caller, c.Param("id"), &req)
	if err != nil {
		h.handleRuleError(c, err)
		return
	}

	response.OK(c, rule)
}

// DeleteRule 删除排期规则（软删除）
// DELETE /api/v1/schedule-rules/:id
func (h *ScheduleRuleHandler) DeleteRule(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.ruleSvc.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		h.handleRuleError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleRuleError 统一处理排期规则模块业务错误
func (h *ScheduleRuleHandler) handleRuleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrScheduleRuleNotFound):
		response.NotFound(c, response.CodeRule, "排期规则不存在")
	case errors.Is(err, service.ErrBusinessNotFound):
		response.NotFound(c, response.CodeBusiness, "商户不存在")
	case errors.Is(err, service.ErrCollectionNotFound):
		response.NotFound(c, response.CodeCollection, "目录不存在或不属于该商户")
	case errors.Is(err, service.ErrInvalidSlot):
		response.BadRequest(c, response.CodeInvalidSlot, err.Error())
	case errors.Is(err, service.ErrInvalidTimeOfDay):
		response.BadRequest(c, response.CodeInvalidTime, err.Error())
	case errors.Is(err, service.ErrInvalidDaysOfWeek):
		response.BadRequest(c, response.CodeInvalidDays, err.Error())
	case errors.Is(err, pkgerrors.ErrBusinessForbidden):
		response.Forbidden(c, "无权操作该商户")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, err.Error())
	default:
		response.InternalError(c)
	}
}
