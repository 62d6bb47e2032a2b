package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/maxfrank76/5s-system/internal/dto"
	"github.com/maxfrank76/5s-system/internal/service"
	"github.com/maxfrank76/5s-system/pkg/response"
	"github.com/maxfrank76/5s-system/pkg/scoring"
)

// AuditHandler 审核模块 HTTP 处理器
type AuditHandler struct {
	auditSvc service.AuditService
}

// NewAuditHandler 创建 AuditHandler
func NewAuditHandler(auditSvc service.AuditService) *AuditHandler {
	return &AuditHandler{auditSvc: auditSvc}
}

// CreateAudit 创建审核
// POST /api/v1/audits
func (h *AuditHandler) CreateAudit(c *gin.Context) {
	var req dto.CreateAuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	audit, err := h.auditSvc.Create(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleAuditError(c, err)
		return
	}

	response.Created(c, audit)
}

// SaveAnswers 保存评分（按准则覆盖）
// PUT /api/v1/audits/:id/answers
func (h *AuditHandler) SaveAnswers(c *gin.Context) {
	var req dto.SaveAuditAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	audit, err := h.auditSvc.SaveAnswers(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		h.handleAuditError(c, err)
		return
	}

	response.OK(c, audit)
}

// CompleteAudit 完成审核并计算得分
// POST /api/v1/audits/:id/complete
func (h *AuditHandler) CompleteAudit(c *gin.Context) {
	var req dto.CompleteAuditRequest
	// 请求体可为空
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "参数校验失败")
			return
		}
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.auditSvc.Complete(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		h.handleAuditError(c, err)
		return
	}

	response.OK(c, result)
}

// GetAudit 审核详情（含评分与问题）
// GET /api/v1/audits/:id
func (h *AuditHandler) GetAudit(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	audit, err := h.auditSvc.GetByID(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		h.handleAuditError(c, err)
		return
	}

	response.OK(c, audit)
}

// ListAudits 审核列表
// GET /api/v1/audits
func (h *AuditHandler) ListAudits(c *gin.Context) {
	var req dto.AuditListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, total, err := h.auditSvc.List(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleAuditError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// DeleteAudit 删除未完成的审核
// DELETE /api/v1/audits/:id
func (h *AuditHandler) DeleteAudit(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.auditSvc.Delete(c.Request.Context(), c.Param("id"), caller); err != nil {
		h.handleAuditError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleAuditError 统一处理审核模块业务错误
func (h *AuditHandler) handleAuditError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAuditNotFound):
		response.NotFound(c, 16001, "审核不存在")
	case errors.Is(err, service.ErrAuditCompleted):
		response.BadRequest(c, 16002, "审核已完成，不能修改")
	case errors.Is(err, service.ErrAuditNoAnswers):
		response.BadRequest(c, 16003, "审核尚无评分，不能完成")
	case errors.Is(err, service.ErrChecklistTypeMismatch):
		response.BadRequest(c, 16004, "检查清单类型不匹配")
	case errors.Is(err, service.ErrScheduleNotFound):
		response.BadRequest(c, 16005, "审核计划不存在")
	case errors.Is(err, service.ErrScheduleNotOpen):
		response.BadRequest(c, 16006, "审核计划不是待执行状态")
	case errors.Is(err, service.ErrScheduleDeptMismatch):
		response.BadRequest(c, 16013, "审核部门与审核计划不一致")
	case errors.Is(err, service.ErrDepartmentNotFound):
		response.BadRequest(c, 16007, "部门不存在")
	case errors.Is(err, service.ErrChecklistNotFound):
		response.NotFound(c, 16008, "未找到适用的审核清单")
	case errors.Is(err, service.ErrEmptyAnswers):
		response.BadRequest(c, 16012, "评分不能为空")
	case errors.Is(err, service.ErrCriterionNotInChecklist):
		response.BadRequest(c, 16009, "准则不属于该检查清单")
	case errors.Is(err, service.ErrDuplicateCriterion):
		response.BadRequest(c, 16010, "同一准则重复评分")
	case errors.Is(err, scoring.ErrScoreOutOfRange):
		response.BadRequest(c, 16011, "评分必须在 1-5 之间")
	case errors.Is(err, service.ErrNoPermission), errors.Is(err, service.ErrDepartmentOutsideScope):
		response.Forbidden(c, 10003, "无权操作")
	default:
		response.InternalError(c)
	}
}
