package dto

// ── 审核模块 DTO ──

// CreateAuditRequest 创建审核
// ChecklistID 为空时按部门类型自动匹配审核清单
type CreateAuditRequest struct {
	DepartmentID string  `json:"department_id" binding:"required,uuid"`
	ChecklistID  *string `json:"checklist_id"  binding:"omitempty,uuid"`
	AuditType    string  `json:"audit_type"    binding:"omitempty,oneof=planned unscheduled"`
	ScheduleID   *string `json:"schedule_id"   binding:"omitempty,uuid"`
	Comments     string  `json:"comments"      binding:"omitempty,max=2000"`
}

// SaveAuditAnswersRequest 保存审核评分（可多次提交，按准则覆盖）
type SaveAuditAnswersRequest struct {
	Answers []AnswerRequest `json:"answers" binding:"required,min=1,dive"`
}

// CompleteAuditRequest 完成审核
type CompleteAuditRequest struct {
	Comments *string `json:"comments" binding:"omitempty,max=2000"`
}

// AuditListRequest 审核列表查询参数
type AuditListRequest struct {
	PaginationRequest
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
	Status       string `form:"status"        binding:"omitempty,oneof=draft in_progress completed"`
	AuditorID    string `form:"auditor_id"    binding:"omitempty,uuid"`
}

// AuditResponse 审核响应（详情时包含评分与问题）
type AuditResponse struct {
	ID             string           `json:"id"`
	AuditorID      string           `json:"auditor_id"`
	AuditorName    string           `json:"auditor_name,omitempty"`
	DepartmentID   string           `json:"department_id"`
	DepartmentName string           `json:"department_name,omitempty"`
	ChecklistID    string           `json:"checklist_id"`
	ChecklistName  string           `json:"checklist_name,omitempty"`
	ScheduleID     *string          `json:"schedule_id,omitempty"`
	AuditType      string           `json:"audit_type"`
	Status         string           `json:"status"`
	AuditDate      string           `json:"audit_date"`
	CompletedAt    *string          `json:"completed_at,omitempty"`
	TotalScore     *float64         `json:"total_score,omitempty"`
	MaxScore       *float64         `json:"max_score,omitempty"`
	ScorePercent   *float64         `json:"score_percent,omitempty"`
	Grade          string           `json:"grade,omitempty"`
	Comments       string           `json:"comments,omitempty"`
	Answers        []AnswerResponse `json:"answers,omitempty"`
	Remarks        []RemarkResponse `json:"remarks,omitempty"`
}

// CompleteAuditResponse 完成审核结果
type CompleteAuditResponse struct {
	AuditID      string  `json:"audit_id"`
	TotalScore   float64 `json:"total_score"`
	MaxScore     float64 `json:"max_score"`
	ScorePercent float64 `json:"score_percent"`
	Grade        string  `json:"grade"`
	Passed       bool    `json:"passed"`
}
