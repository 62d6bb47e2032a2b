package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求（username 也可填写邮箱）
type LoginRequest struct {
	Username   string `json:"username"    binding:"required,max=120"`
	Password   string `json:"password"    binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=64"`
}

// UpdateProfileRequest 修改个人资料请求
type UpdateProfileRequest struct {
	Email     *string `json:"email"      binding:"omitempty,email,max=120"`
	FirstName *string `json:"first_name" binding:"omitempty,max=100"`
	LastName  *string `json:"last_name"  binding:"omitempty,max=100"`
	Position  *string `json:"position"   binding:"omitempty,max=100"`
}
