package dto

// ── 部门模块 DTO ──

// CreateDepartmentRequest 创建部门请求
type CreateDepartmentRequest struct {
	Name           string  `json:"name"            binding:"required,min=2,max=100"`
	Description    string  `json:"description"     binding:"omitempty,max=500"`
	DepartmentType string  `json:"department_type" binding:"omitempty,oneof=production warehouse quality office"`
	ParentID       *string `json:"parent_id"       binding:"omitempty,uuid"`
}

// UpdateDepartmentRequest 更新部门请求
// ParentID 传空字符串表示移到顶级
type UpdateDepartmentRequest struct {
	Name           *string `json:"name"            binding:"omitempty,min=2,max=100"`
	Description    *string `json:"description"     binding:"omitempty,max=500"`
	DepartmentType *string `json:"department_type" binding:"omitempty,oneof=production warehouse quality office"`
	ParentID       *string `json:"parent_id"       binding:"omitempty,uuid"`
	IsActive       *bool   `json:"is_active"`
	Version        int     `json:"version"         binding:"omitempty,min=1"`
}

// DepartmentListRequest 部门列表查询参数
type DepartmentListRequest struct {
	IncludeInactive bool `form:"include_inactive"`
}

// DepartmentDetailResponse 部门详细信息响应
type DepartmentDetailResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	DepartmentType string  `json:"department_type,omitempty"`
	ParentID       *string `json:"parent_id,omitempty"`
	IsActive       bool    `json:"is_active"`
	MemberCount    int64   `json:"member_count"`
	Version        int     `json:"version"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// DepartmentTreeNode 部门树节点
type DepartmentTreeNode struct {
	ID             string                `json:"id"`
	Name           string                `json:"name"`
	DepartmentType string                `json:"department_type,omitempty"`
	IsActive       bool                  `json:"is_active"`
	Children       []*DepartmentTreeNode `json:"children"`
}

// DepartmentMemberResponse 部门成员响应
type DepartmentMemberResponse struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Position    string `json:"position"`
	Role        string `json:"role"`
	RoleDisplay string `json:"role_display"`
	IsActive    bool   `json:"is_active"`
}
