package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/maxfrank76/5s-system/internal/dto"
	"github.com/maxfrank76/5s-system/internal/service"
	"github.com/maxfrank76/5s-system/pkg/response"
)

// ChecklistHandler 检查清单模块 HTTP 处理器
type ChecklistHandler struct {
	checklistSvc service.ChecklistService
}

// NewChecklistHandler 创建 ChecklistHandler
func NewChecklistHandler(checklistSvc service.ChecklistService) *ChecklistHandler {
	return &ChecklistHandler{checklistSvc: checklistSvc}
}

// ListChecklists 清单列表
// GET /api/v1/checklists
func (h *ChecklistHandler) ListChecklists(c *gin.Context) {
	var req dto.ChecklistListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, err := h.checklistSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetChecklist 清单详情（含分组与准则）
// GET /api/v1/checklists/:id
func (h *ChecklistHandler) GetChecklist(c *gin.Context) {
	cl, err := h.checklistSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleChecklistError(c, err)
		return
	}

	response.OK(c, cl)
}

// CreateChecklist 创建清单
// POST /api/v1/checklists
func (h *ChecklistHandler) CreateChecklist(c *gin.Context) {
	var req dto.CreateChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	cl, err := h.checklistSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleChecklistError(c, err)
		return
	}

	response.Created(c, cl)
}

// UpdateChecklist 更新清单头信息
// PUT /api/v1/checklists/:id
func (h *ChecklistHandler) UpdateChecklist(c *gin.Context) {
	var req dto.UpdateChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	cl, err := h.checklistSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleChecklistError(c, err)
		return
	}

	response.OK(c, cl)
}

// DeleteChecklist 删除清单（软删除）
// DELETE /api/v1/checklists/:id
func (h *ChecklistHandler) DeleteChecklist(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.checklistSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleChecklistError(c, err)
		return
	}

	response.OK(c, nil)
}

// AddGroup 新增准则分组
// POST /api/v1/checklists/:id/groups
func (h *ChecklistHandler) AddGroup(c *gin.Context) {
	var req dto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	group, err := h.checklistSvc.AddGroup(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleChecklistError(c, err)
		return
	}

	response.Created(c, group)
}

// AddCriterion 向分组新增准则
// POST /api/v1/checklist-groups/:id/criteria
func (h *ChecklistHandler) AddCriterion(c *gin.Context) {
	var req dto.CreateCriterionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	criterion, err := h.checklistSvc.AddCriterion(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleChecklistError(c, err)
		return
	}

	response.Created(c, criterion)
}

// DeleteCriterion 删除准则
// DELETE /api/v1/criteria/:id
func (h *ChecklistHandler) DeleteCriterion(c *gin.Context) {
	if err := h.checklistSvc.DeleteCriterion(c.Request.Context(), c.Param("id")); err != nil {
		h.handleChecklistError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleChecklistError 统一处理检查清单模块业务错误
func (h *ChecklistHandler) handleChecklistError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrChecklistNotFound):
		response.NotFound(c, 14001, "检查清单不存在")
	case errors.Is(err, service.ErrGroupNotFound):
		response.NotFound(c, 14002, "准则分组不存在")
	case errors.Is(err, service.ErrCriterionNotFound):
		response.NotFound(c, 14003, "准则不存在")
	case errors.Is(err, service.ErrCriterionInUse):
		response.BadRequest(c, 14004, "准则已被评分记录引用，无法删除")
	default:
		response.InternalError(c)
	}
}
