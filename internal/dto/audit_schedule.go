package dto

// ── 审核计划模块 DTO ──

// CreateAuditScheduleRequest 创建审核计划
type CreateAuditScheduleRequest struct {
	DepartmentID  string  `json:"department_id"  binding:"required,uuid"`
	AuditorID     *string `json:"auditor_id"     binding:"omitempty,uuid"`
	ChecklistID   *string `json:"checklist_id"   binding:"omitempty,uuid"`
	ScheduledDate string  `json:"scheduled_date" binding:"required,fives_date"`
	AuditType     string  `json:"audit_type"     binding:"omitempty,oneof=planned unscheduled"`
	Notes         string  `json:"notes"          binding:"omitempty,max=2000"`
}

// UpdateAuditScheduleRequest 更新审核计划
type UpdateAuditScheduleRequest struct {
	DepartmentID  *string `json:"department_id"  binding:"omitempty,uuid"`
	AuditorID     *string `json:"auditor_id"     binding:"omitempty,uuid"`
	ChecklistID   *string `json:"checklist_id"   binding:"omitempty,uuid"`
	ScheduledDate *string `json:"scheduled_date" binding:"omitempty,fives_date"`
	AuditType     *string `json:"audit_type"     binding:"omitempty,oneof=planned unscheduled"`
	Notes         *string `json:"notes"          binding:"omitempty,max=2000"`
}

// AuditScheduleListRequest 审核计划查询参数（日期均为 YYYY-MM-DD，To 含当天）
type AuditScheduleListRequest struct {
	From         string `form:"from"          binding:"omitempty,fives_date"`
	To           string `form:"to"            binding:"omitempty,fives_date"`
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
	AuditorID    string `form:"auditor_id"    binding:"omitempty,uuid"`
	Status       string `form:"status"        binding:"omitempty,oneof=scheduled in_progress completed cancelled"`
}

// AuditScheduleResponse 审核计划响应
type AuditScheduleResponse struct {
	ID             string  `json:"id"`
	DepartmentID   string  `json:"department_id"`
	DepartmentName string  `json:"department_name,omitempty"`
	AuditorID      *string `json:"auditor_id,omitempty"`
	AuditorName    string  `json:"auditor_name,omitempty"`
	ChecklistID    *string `json:"checklist_id,omitempty"`
	ScheduledDate  string  `json:"scheduled_date"`
	AuditType      string  `json:"audit_type"`
	Status         string  `json:"status"`
	Notes          string  `json:"notes,omitempty"`
	CreatedAt      string  `json:"created_at"`
}
