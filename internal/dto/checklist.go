package dto

// ── 检查清单模块 DTO ──

// CreateCriterionRequest 新建准则
// OrderIndex 为空时按数组位置排序
type CreateCriterionRequest struct {
	Description string `json:"description" binding:"required,max=1000"`
	OrderIndex  *int   `json:"order_index" binding:"omitempty,min=0"`
}

// CreateGroupRequest 新建准则分组
type CreateGroupRequest struct {
	Name       string                   `json:"name"        binding:"required,max=200"`
	OrderIndex *int                     `json:"order_index" binding:"omitempty,min=0"`
	Criteria   []CreateCriterionRequest `json:"criteria"    binding:"omitempty,dive"`
}

// CreateChecklistRequest 创建检查清单（可嵌套分组与准则）
type CreateChecklistRequest struct {
	Name           string               `json:"name"            binding:"required,max=200"`
	Description    string               `json:"description"     binding:"omitempty,max=2000"`
	ChecklistType  string               `json:"checklist_type"  binding:"required,oneof=self_check audit"`
	DepartmentType string               `json:"department_type" binding:"required,oneof=production warehouse quality office"`
	Groups         []CreateGroupRequest `json:"groups"          binding:"omitempty,dive"`
}

// UpdateChecklistRequest 更新清单头信息
type UpdateChecklistRequest struct {
	Name           *string `json:"name"            binding:"omitempty,max=200"`
	Description    *string `json:"description"     binding:"omitempty,max=2000"`
	DepartmentType *string `json:"department_type" binding:"omitempty,oneof=production warehouse quality office"`
	IsActive       *bool   `json:"is_active"`
}

// ChecklistListRequest 清单列表查询参数
type ChecklistListRequest struct {
	ChecklistType   string `form:"checklist_type"  binding:"omitempty,oneof=self_check audit"`
	DepartmentType  string `form:"department_type" binding:"omitempty,max=50"`
	IncludeInactive bool   `form:"include_inactive"`
}

// ChecklistResponse 清单响应（详情时包含 Groups）
type ChecklistResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	ChecklistType  string          `json:"checklist_type"`
	DepartmentType string          `json:"department_type"`
	IsActive       bool            `json:"is_active"`
	CriteriaCount  int             `json:"criteria_count"`
	CreatedAt      string          `json:"created_at"`
	Groups         []GroupResponse `json:"groups,omitempty"`
}

// GroupResponse 分组响应
type GroupResponse struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	OrderIndex int                 `json:"order_index"`
	Criteria   []CriterionResponse `json:"criteria"`
}

// CriterionResponse 准则响应
type CriterionResponse struct {
	ID          string `json:"id"`
	GroupID     string `json:"group_id"`
	Description string `json:"description"`
	OrderIndex  int    `json:"order_index"`
}
