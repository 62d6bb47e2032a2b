package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/maxfrank76/5s-system/internal/service"
	"github.com/maxfrank76/5s-system/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportDepartmentStats 导出部门统计表
// GET /api/v1/export/department-stats
func (h *ExportHandler) ExportDepartmentStats(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportDepartmentStats(c.Request.Context(), caller)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, filename, xlsxContentType, buf.Bytes())
}

// ExportAudit 导出审核报告
// GET /api/v1/export/audits/:id
func (h *ExportHandler) ExportAudit(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportAudit(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, filename, xlsxContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAuditNotFound):
		response.NotFound(c, 20101, "审核不存在")
	case errors.Is(err, service.ErrChecklistNotFound):
		response.NotFound(c, 20102, "检查清单不存在")
	case errors.Is(err, service.ErrNoPermission), errors.Is(err, service.ErrDepartmentOutsideScope):
		response.Forbidden(c, 10003, "无权操作")
	default:
		response.InternalError(c)
	}
}
