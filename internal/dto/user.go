package dto

// ── 用户模块 DTO ──

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
	Role         string `form:"role"          binding:"omitempty,fives_role"`
	Keyword      string `form:"keyword"       binding:"omitempty,max=50"`
	IsActive     *bool  `form:"is_active"`
}

// CreateUserRequest 管理员创建用户请求
type CreateUserRequest struct {
	Username     string  `json:"username"      binding:"required,min=3,max=80"`
	Email        string  `json:"email"         binding:"required,email,max=120"`
	Password     string  `json:"password"      binding:"required,min=6,max=64"`
	FirstName    string  `json:"first_name"    binding:"omitempty,max=100"`
	LastName     string  `json:"last_name"     binding:"omitempty,max=100"`
	Position     string  `json:"position"      binding:"omitempty,max=100"`
	Role         string  `json:"role"          binding:"required,fives_role"`
	DepartmentID *string `json:"department_id" binding:"omitempty,uuid"`
}

// UpdateUserRequest 更新用户信息请求
type UpdateUserRequest struct {
	Email        *string `json:"email"         binding:"omitempty,email,max=120"`
	FirstName    *string `json:"first_name"    binding:"omitempty,max=100"`
	LastName     *string `json:"last_name"     binding:"omitempty,max=100"`
	Position     *string `json:"position"      binding:"omitempty,max=100"`
	DepartmentID *string `json:"department_id" binding:"omitempty,uuid"`
	IsActive     *bool   `json:"is_active"`
}

// AssignRoleRequest 分配角色请求
type AssignRoleRequest struct {
	Role string `json:"role" binding:"required,fives_role"`
}

// ResetPasswordResponse 重置密码响应
type ResetPasswordResponse struct {
	TempPassword string `json:"temp_password"`
}

// ImportUserResponse 批量导入用户响应
type ImportUserResponse struct {
	Total   int               `json:"total"`
	Success int               `json:"success"`
	Failed  int               `json:"failed"`
	Errors  []ImportUserError `json:"errors,omitempty"`
}

// ImportUserError 导入错误详情
type ImportUserError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}
