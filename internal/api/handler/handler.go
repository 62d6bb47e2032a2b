package handler

import "github.com/maxfrank76/5s-system/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth          *AuthHandler
	User          *UserHandler
	Department    *DepartmentHandler
	Checklist     *ChecklistHandler
	SelfCheck     *SelfCheckHandler
	Audit         *AuditHandler
	Remark        *RemarkHandler
	Photo         *PhotoHandler
	AuditSchedule *AuditScheduleHandler
	Dashboard     *DashboardHandler
	Export        *ExportHandler
	SystemConfig  *SystemConfigHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:          NewAuthHandler(svc.Auth),
		User:          NewUserHandler(svc.User),
		Department:    NewDepartmentHandler(svc.Department),
		Checklist:     NewChecklistHandler(svc.Checklist),
		SelfCheck:     NewSelfCheckHandler(svc.SelfCheck),
		Audit:         NewAuditHandler(svc.Audit),
		Remark:        NewRemarkHandler(svc.Remark),
		Photo:         NewPhotoHandler(svc.Photo),
		AuditSchedule: NewAuditScheduleHandler(svc.AuditSchedule),
		Dashboard:     NewDashboardHandler(svc.Dashboard),
		Export:        NewExportHandler(svc.Export),
		SystemConfig:  NewSystemConfigHandler(svc.SystemConfig),
	}
}
