package dto

// ── 仪表盘模块 DTO ──

// DashboardStatsResponse 汇总统计
type DashboardStatsResponse struct {
	SelfChecks          int64 `json:"self_checks"`
	CompletedSelfChecks int64 `json:"completed_self_checks"`
	Audits              int64 `json:"audits"`
	CompletedAudits     int64 `json:"completed_audits"`
	Remarks             int64 `json:"remarks"`
	ResolvedRemarks     int64 `json:"resolved_remarks"`
	OpenRemarks         int64 `json:"open_remarks"`
	OverdueRemarks      int64 `json:"overdue_remarks"`
}

// DepartmentStatResponse 部门维度统计
type DepartmentStatResponse struct {
	DepartmentID     string   `json:"department_id"`
	DepartmentName   string   `json:"department_name"`
	DepartmentType   string   `json:"department_type,omitempty"`
	SelfCheckCount   int64    `json:"self_check_count"`
	SelfCheckAverage *float64 `json:"self_check_average"`
	AuditCount       int64    `json:"audit_count"`
	AuditAverage     *float64 `json:"audit_average"`
	OpenRemarks      int64    `json:"open_remarks"`
}

// RecentActivityResponse 最近完成的自查与审核
type RecentActivityResponse struct {
	SelfChecks []SelfCheckResponse `json:"self_checks"`
	Audits     []AuditResponse     `json:"audits"`
}
