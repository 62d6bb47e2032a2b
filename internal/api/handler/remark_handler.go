package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/maxfrank76/5s-system/internal/dto"
	"github.com/maxfrank76/5s-system/internal/service"
	pkgerrors "github.com/maxfrank76/5s-system/pkg/errors"
	"github.com/maxfrank76/5s-system/pkg/response"
)

// RemarkHandler 问题（整改项）模块 HTTP 处理器
type RemarkHandler struct {
	remarkSvc service.RemarkService
}

// NewRemarkHandler 创建 RemarkHandler
func NewRemarkHandler(remarkSvc service.RemarkService) *RemarkHandler {
	return &RemarkHandler{remarkSvc: remarkSvc}
}

// CreateRemark 在审核中登记问题
// POST /api/v1/audits/:id/remarks
func (h *RemarkHandler) CreateRemark(c *gin.Context) {
	var req dto.CreateRemarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	remark, err := h.remarkSvc.Create(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		h.handleRemarkError(c, err)
		return
	}

	response.Created(c, remark)
}

// ListRemarks 问题列表
// GET /api/v1/remarks
func (h *RemarkHandler) ListRemarks(c *gin.Context) {
	var req dto.RemarkListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, total, err := h.remarkSvc.List(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleRemarkError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetRemark 问题详情（含照片）
// GET /api/v1/remarks/:id
func (h *RemarkHandler) GetRemark(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	remark, err := h.remarkSvc.GetByID(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		h.handleRemarkError(c, err)
		return
	}

	response.OK(c, remark)
}

// Assign identified → assigned
// PUT /api/v1/remarks/:id/assign
func (h *RemarkHandler) Assign(c *gin.Context) {
	var req dto.AssignRemarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	remark, err := h.remarkSvc.Assign(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		h.handleRemarkError(c, err)
		return
	}

	response.OK(c, remark)
}

// Resolve assigned → resolved
// PUT /api/v1/remarks/:id/resolve
func (h *RemarkHandler) Resolve(c *gin.Context) {
	var req dto.ResolveRemarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	remark, err := h.remarkSvc.Resolve(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		h.handleRemarkError(c, err)
		return
	}

	response.OK(c, remark)
}

// Close resolved → closed
// PUT /api/v1/remarks/:id/close
func (h *RemarkHandler) Close(c *gin.Context) {
	h.transition(c, h.remarkSvc.Close)
}

// Reopen resolved → assigned
// PUT /api/v1/remarks/:id/reopen
func (h *RemarkHandler) Reopen(c *gin.Context) {
	h.transition(c, h.remarkSvc.Reopen)
}

type remarkTransition func(ctx context.Context, id string, req *dto.RemarkTransitionRequest, caller service.Caller) (*dto.RemarkResponse, error)

// transition 关闭与重开共用：请求体只有可选的 version
func (h *RemarkHandler) transition(c *gin.Context, fn remarkTransition) {
	var req dto.RemarkTransitionRequest
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

	remark, err := fn(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		h.handleRemarkError(c, err)
		return
	}

	response.OK(c, remark)
}

// handleRemarkError 统一处理问题模块业务错误
func (h *RemarkHandler) handleRemarkError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRemarkNotFound):
		response.NotFound(c, 17001, "问题不存在")
	case errors.Is(err, service.ErrInvalidTransition):
		response.BadRequest(c, 17002, "当前状态不允许该操作")
	case errors.Is(err, service.ErrAssigneeNotFound):
		response.BadRequest(c, 17003, "被指派人不存在或已停用")
	case errors.Is(err, service.ErrCriterionNotInAudit):
		response.BadRequest(c, 17004, "准则不属于该审核的检查清单")
	case errors.Is(err, service.ErrDueDateInPast):
		response.BadRequest(c, 17005, "整改期限不能早于今天")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 17006, "日期格式错误，应为 YYYY-MM-DD")
	case errors.Is(err, service.ErrAuditNotFound):
		response.NotFound(c, 17007, "审核不存在")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 17009, err.Error())
	case errors.Is(err, service.ErrNoPermission), errors.Is(err, service.ErrDepartmentOutsideScope):
		response.Forbidden(c, 10003, "无权操作")
	default:
		response.InternalError(c)
	}
}
