package dto

// ── 自查模块 DTO ──

// AnswerRequest 单条准则评分
type AnswerRequest struct {
	CriterionID string `json:"criterion_id" binding:"required,uuid"`
	Score       int    `json:"score"        binding:"required,fives_score"`
	Notes       string `json:"notes"        binding:"omitempty,max=2000"`
}

// SubmitSelfCheckRequest 提交自查
type SubmitSelfCheckRequest struct {
	Answers []AnswerRequest `json:"answers" binding:"required,min=1,dive"`
}

// SelfCheckListRequest 自查管理列表查询参数
type SelfCheckListRequest struct {
	PaginationRequest
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
	UserID       string `form:"user_id"       binding:"omitempty,uuid"`
	IsCompleted  *bool  `form:"is_completed"`
}

// SelfCheckResponse 自查响应
type SelfCheckResponse struct {
	ID             string           `json:"id"`
	UserID         string           `json:"user_id"`
	UserName       string           `json:"user_name,omitempty"`
	DepartmentID   string           `json:"department_id"`
	DepartmentName string           `json:"department_name,omitempty"`
	ChecklistID    string           `json:"checklist_id"`
	ChecklistName  string           `json:"checklist_name,omitempty"`
	CheckDate      string           `json:"check_date"`
	CompletedAt    *string          `json:"completed_at,omitempty"`
	TotalScore     *float64         `json:"total_score,omitempty"`
	Grade          string           `json:"grade,omitempty"`
	IsCompleted    bool             `json:"is_completed"`
	Answers        []AnswerResponse `json:"answers,omitempty"`
}

// AnswerResponse 评分响应（自查与审核共用）
type AnswerResponse struct {
	ID                   string          `json:"id"`
	CriterionID          string          `json:"criterion_id"`
	CriterionDescription string          `json:"criterion_description,omitempty"`
	Score                int             `json:"score"`
	Notes                string          `json:"notes,omitempty"`
	Photos               []PhotoResponse `json:"photos,omitempty"`
}

// SubmitSelfCheckResponse 提交结果
type SubmitSelfCheckResponse struct {
	SelfCheckID string  `json:"self_check_id"`
	TotalScore  float64 `json:"total_score"`
	Grade       string  `json:"grade"`
	Passed      bool    `json:"passed"`
	PassPercent int     `json:"pass_percent"`
}
