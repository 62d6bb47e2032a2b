package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/maxfrank76/5s-system/internal/dto"
	"github.com/maxfrank76/5s-system/internal/service"
	"github.com/maxfrank76/5s-system/pkg/response"
	"github.com/maxfrank76/5s-system/pkg/scoring"
)

// SelfCheckHandler 自查模块 HTTP 处理器
type SelfCheckHandler struct {
	selfCheckSvc service.SelfCheckService
}

// NewSelfCheckHandler 创建 SelfCheckHandler
func NewSelfCheckHandler(selfCheckSvc service.SelfCheckService) *SelfCheckHandler {
	return &SelfCheckHandler{selfCheckSvc: selfCheckSvc}
}

// GetChecklist 当前用户适用的自查清单
// GET /api/v1/self-checks/checklist
func (h *SelfCheckHandler) GetChecklist(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	cl, err := h.selfCheckSvc.CurrentChecklist(c.Request.Context(), caller)
	if err != nil {
		h.handleSelfCheckError(c, err)
		return
	}

	response.OK(c, cl)
}

// Start 开始自查
// POST /api/v1/self-checks/start
func (h *SelfCheckHandler) Start(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	sc, err := h.selfCheckSvc.Start(c.Request.Context(), caller)
	if err != nil {
		h.handleSelfCheckError(c, err)
		return
	}

	response.Created(c, sc)
}

// Submit 提交自查评分
// POST /api/v1/self-checks/:id/submit
func (h *SelfCheckHandler) Submit(c *gin.Context) {
	var req dto.SubmitSelfCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	result, err := h.selfCheckSvc.Submit(c.Request.Context(), c.Param("id"), &req, caller)
	if err != nil {
		h.handleSelfCheckError(c, err)
		return
	}

	response.OK(c, result)
}

// History 本人自查历史
// GET /api/v1/self-checks/history
func (h *SelfCheckHandler) History(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, err := h.selfCheckSvc.History(c.Request.Context(), caller)
	if err != nil {
		h.handleSelfCheckError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Active 本人未完成的自查，没有时 data 为 null
// GET /api/v1/self-checks/active
func (h *SelfCheckHandler) Active(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	sc, err := h.selfCheckSvc.Active(c.Request.Context(), caller)
	if err != nil {
		h.handleSelfCheckError(c, err)
		return
	}

	response.OK(c, sc)
}

// Cancel 取消未完成的自查
// DELETE /api/v1/self-checks/:id
func (h *SelfCheckHandler) Cancel(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	if err := h.selfCheckSvc.Cancel(c.Request.Context(), c.Param("id"), caller); err != nil {
		h.handleSelfCheckError(c, err)
		return
	}

	response.OK(c, nil)
}

// GetSelfCheck 自查详情
// GET /api/v1/self-checks/:id
func (h *SelfCheckHandler) GetSelfCheck(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	sc, err := h.selfCheckSvc.GetByID(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		h.handleSelfCheckError(c, err)
		return
	}

	response.OK(c, sc)
}

// ListSelfChecks 自查管理列表（manager 及以上）
// GET /api/v1/self-checks
func (h *SelfCheckHandler) ListSelfChecks(c *gin.Context) {
	var req dto.SelfCheckListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	list, total, err := h.selfCheckSvc.List(c.Request.Context(), &req, caller)
	if err != nil {
		h.handleSelfCheckError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// handleSelfCheckError 统一处理自查模块业务错误
func (h *SelfCheckHandler) handleSelfCheckError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSelfCheckNotFound):
		response.NotFound(c, 15001, "自查记录不存在")
	case errors.Is(err, service.ErrUserHasNoDepartment):
		response.BadRequest(c, 15002, "用户未分配部门")
	case errors.Is(err, service.ErrChecklistNotFound):
		response.NotFound(c, 15003, "未找到适用的自查清单")
	case errors.Is(err, service.ErrSelfCheckInProgress):
		response.BadRequest(c, 15004, "存在未完成的自查，请先提交或取消")
	case errors.Is(err, service.ErrSelfCheckCompleted):
		response.BadRequest(c, 15005, "自查已完成，不能修改")
	case errors.Is(err, service.ErrEmptyAnswers):
		response.BadRequest(c, 15006, "评分不能为空")
	case errors.Is(err, service.ErrCriterionNotInChecklist):
		response.BadRequest(c, 15007, "准则不属于该检查清单")
	case errors.Is(err, service.ErrDuplicateCriterion):
		response.BadRequest(c, 15008, "同一准则重复评分")
	case errors.Is(err, scoring.ErrScoreOutOfRange):
		response.BadRequest(c, 15009, "评分必须在 1-5 之间")
	case errors.Is(err, service.ErrNoPermission), errors.Is(err, service.ErrDepartmentOutsideScope):
		response.Forbidden(c, 10003, "无权操作")
	default:
		response.InternalError(c)
	}
}
