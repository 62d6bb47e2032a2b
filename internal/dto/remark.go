package dto

// ── 问题模块 DTO ──

// CreateRemarkRequest 在审核中登记问题
type CreateRemarkRequest struct {
	CriterionID  *string `json:"criterion_id"   binding:"omitempty,uuid"`
	Description  string  `json:"description"    binding:"required,max=2000"`
	AssignedToID *string `json:"assigned_to_id" binding:"omitempty,uuid"`
	DueDate      string  `json:"due_date"       binding:"omitempty,fives_date"`
}

// AssignRemarkRequest 指派问题
type AssignRemarkRequest struct {
	AssignedToID string `json:"assigned_to_id" binding:"required,uuid"`
	DueDate      string `json:"due_date"       binding:"omitempty,fives_date"`
	Version      int    `json:"version"        binding:"omitempty,min=1"`
}

// ResolveRemarkRequest 标记问题已解决
type ResolveRemarkRequest struct {
	ResolutionNote string `json:"resolution_note" binding:"required,max=2000"`
	Version        int    `json:"version"         binding:"omitempty,min=1"`
}

// RemarkTransitionRequest 关闭 / 重开问题
type RemarkTransitionRequest struct {
	Version int `json:"version" binding:"omitempty,min=1"`
}

// RemarkListRequest 问题列表查询参数
type RemarkListRequest struct {
	PaginationRequest
	Status       string `form:"status"         binding:"omitempty,oneof=identified assigned resolved closed"`
	DepartmentID string `form:"department_id"  binding:"omitempty,uuid"`
	AuditID      string `form:"audit_id"       binding:"omitempty,uuid"`
	AssignedToMe bool   `form:"assigned_to_me"`
	Overdue      bool   `form:"overdue"`
}

// RemarkResponse 问题响应
type RemarkResponse struct {
	ID                   string          `json:"id"`
	AuditID              string          `json:"audit_id"`
	DepartmentID         string          `json:"department_id"`
	CriterionID          *string         `json:"criterion_id,omitempty"`
	CriterionDescription string          `json:"criterion_description,omitempty"`
	Description          string          `json:"description"`
	Status               string          `json:"status"`
	CreatedByID          string          `json:"created_by_id"`
	CreatedByName        string          `json:"created_by_name,omitempty"`
	AssignedToID         *string         `json:"assigned_to_id,omitempty"`
	AssignedToName       string          `json:"assigned_to_name,omitempty"`
	DueDate              *string         `json:"due_date,omitempty"`
	AssignedAt           *string         `json:"assigned_at,omitempty"`
	ResolvedAt           *string         `json:"resolved_at,omitempty"`
	ClosedAt             *string         `json:"closed_at,omitempty"`
	ResolutionNote       string          `json:"resolution_note,omitempty"`
	IsOverdue            bool            `json:"is_overdue"`
	Version              int             `json:"version"`
	CreatedAt            string          `json:"created_at"`
	Photos               []PhotoResponse `json:"photos,omitempty"`
}
