package model

// SystemConfig 系统配置表，对应 system_config（单行强类型）
type SystemConfig struct {
	Singleton            bool `gorm:"primaryKey;default:true" json:"-"`
	RemarkDueDays        int  `gorm:"not null;default:7"      json:"remark_due_days"`
	SelfCheckPassPercent int  `gorm:"not null;default:80"     json:"self_check_pass_percent"`
	AuditPassPercent     int  `gorm:"not null;default:80"     json:"audit_pass_percent"`
	BaseModel
}

// TableName 指定表名
func (SystemConfig) TableName() string { return "system_config" }

// DefaultSystemConfig 未初始化时使用的默认配置
func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		Singleton:            true,
		RemarkDueDays:        7,
		SelfCheckPassPercent: 80,
		AuditPassPercent:     80,
	}
}
