package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/maxfrank76/5s-system/internal/service"
	"github.com/maxfrank76/5s-system/pkg/response"
)

// DashboardHandler 仪表盘模块 HTTP 处理器
// 数据范围由 Service 按调用者角色裁剪，这里不做额外判断
type DashboardHandler struct {
	dashboardSvc service.DashboardService
}

// NewDashboardHandler 创建 DashboardHandler
func NewDashboardHandler(dashboardSvc service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardSvc: dashboardSvc}
}

// Stats 汇总计数
// GET /api/v1/dashboard/stats
func (h *DashboardHandler) Stats(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	stats, err := h.dashboardSvc.Stats(c.Request.Context(), caller)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, stats)
}

// Departments 部门维度统计
// GET /api/v1/dashboard/departments
func (h *DashboardHandler) Departments(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	stats, err := h.dashboardSvc.Departments(c.Request.Context(), caller)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": stats})
}

// Recent 最近完成的自查与审核
// GET /api/v1/dashboard/recent
func (h *DashboardHandler) Recent(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	recent, err := h.dashboardSvc.Recent(c.Request.Context(), caller)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, recent)
}
