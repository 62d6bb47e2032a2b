package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxfrank76/5s-system/internal/dto"
	"github.com/maxfrank76/5s-system/internal/service"
	"github.com/maxfrank76/5s-system/pkg/response"
)

// AuditScheduleHandler 审核计划模块 HTTP 处理器
type AuditScheduleHandler struct {
	scheduleSvc service.AuditScheduleService
}

// NewAuditScheduleHandler 创建 AuditScheduleHandler
func NewAuditScheduleHandler(scheduleSvc service.AuditScheduleService) *AuditScheduleHandler {
	return &AuditScheduleHandler{scheduleSvc: scheduleSvc}
}

// CreateSchedule 创建审核计划
// POST /api/v1/audit-schedules
func (h *AuditScheduleHandler) CreateSchedule(c *gin.Context) {
	var req dto.CreateAuditScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	sched, err := h.scheduleSvc.Create(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.Created(c, sched)
}

// ListSchedules 审核计划列表
// GET /api/v1/audit-schedules?from=&to=&department_id=&auditor_id=&status=
func (h *AuditScheduleHandler) ListSchedules(c *gin.Context) {
	var req dto.AuditScheduleListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.scheduleSvc.List(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetSchedule 审核计划详情
// GET /api/v1/audit-schedules/:id
func (h *AuditScheduleHandler) GetSchedule(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	sched, err := h.scheduleSvc.GetByID(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, sched)
}

// UpdateSchedule 更新审核计划
// PUT /api/v1/audit-schedules/:id
func (h *AuditScheduleHandler) UpdateSchedule(c *gin.Context) {
	var req dto.UpdateAuditScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	sched, err := h.scheduleSvc.Update(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, sched)
}

// CancelSchedule 取消审核计划
// POST /api/v1/audit-schedules/:id/cancel
func (h *AuditScheduleHandler) CancelSchedule(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.scheduleSvc.Cancel(c.Request.Context(), c.Param("id"), caller); err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, nil)
}

// Calendar iCalendar 订阅源
// GET /api/v1/audit-schedules/calendar.ics
func (h *AuditScheduleHandler) Calendar(c *gin.Context) {
	var req dto.AuditScheduleListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	data, err := h.scheduleSvc.Calendar(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="audit-schedules.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

// handleScheduleError 统一处理审核计划模块业务错误
func (h *AuditScheduleHandler) handleScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrScheduleNotFound):
		response.NotFound(c, 19001, "审核计划不存在")
	case errors.Is(err, service.ErrScheduleClosed):
		response.BadRequest(c, 19002, "审核计划已完成或已取消，不能修改")
	case errors.Is(err, service.ErrScheduleDateRange):
		response.BadRequest(c, 19003, "开始日期不能晚于结束日期")
	case errors.Is(err, service.ErrScheduleInvalidRole):
		response.BadRequest(c, 19004, "指定的用户不是审核员")
	case errors.Is(err, service.ErrAuditorNotFound):
		response.BadRequest(c, 19005, "审核员不存在或已停用")
	case errors.Is(err, service.ErrChecklistTypeMismatch):
		response.BadRequest(c, 19006, "检查清单类型不匹配")
	case errors.Is(err, service.ErrChecklistNotFound):
		response.BadRequest(c, 19007, "检查清单不存在")
	case errors.Is(err, service.ErrDepartmentNotFound):
		response.BadRequest(c, 19008, "部门不存在")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 19009, "日期格式错误，应为 YYYY-MM-DD")
	case errors.Is(err, service.ErrNoPermission), errors.Is(err, service.ErrDepartmentOutsideScope):
		response.Forbidden(c, 10003, "无权操作")
	default:
		response.InternalError(c)
	}
}
