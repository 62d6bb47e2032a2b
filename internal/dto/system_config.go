package dto

// ── 系统配置模块 DTO ──

// UpdateSystemConfigRequest 更新系统配置请求
type UpdateSystemConfigRequest struct {
	RemarkDueDays        *int `json:"remark_due_days"         binding:"omitempty,min=1,max=365"`
	SelfCheckPassPercent *int `json:"self_check_pass_percent" binding:"omitempty,min=0,max=100"`
	AuditPassPercent     *int `json:"audit_pass_percent"      binding:"omitempty,min=0,max=100"`
}

// SystemConfigResponse 系统配置响应
type SystemConfigResponse struct {
	RemarkDueDays        int    `json:"remark_due_days"`
	SelfCheckPassPercent int    `json:"self_check_pass_percent"`
	AuditPassPercent     int    `json:"audit_pass_percent"`
	UpdatedAt            string `json:"updated_at"`
}
