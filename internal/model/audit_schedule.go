package model

import (
	"time"

	"gorm.io/gorm"
)

// 审核计划状态
const (
	ScheduleStatusScheduled  = "scheduled"
	ScheduleStatusInProgress = "in_progress"
	ScheduleStatusCompleted  = "completed"
	ScheduleStatusCancelled  = "cancelled"
)

// AuditSchedule 审核计划表，对应 audit_schedules
type AuditSchedule struct {
	ScheduleID    string    `gorm:"type:uuid;primaryKey"                          json:"schedule_id"`
	DepartmentID  string    `gorm:"type:uuid;not null;index"                      json:"department_id"`
	AuditorID     *string   `gorm:"type:uuid;index"                               json:"auditor_id,omitempty"`
	ChecklistID   *string   `gorm:"type:uuid"                                     json:"checklist_id,omitempty"`
	ScheduledDate time.Time `gorm:"not null;index"                                json:"scheduled_date"`
	AuditType     string    `gorm:"type:varchar(20);not null;default:'planned'"   json:"audit_type"`
	Status        string    `gorm:"type:varchar(20);not null;default:'scheduled'" json:"status"`
	Notes         string    `gorm:"type:text"                                     json:"notes,omitempty"`
	SoftDeleteModel

	// 关联
	Department *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
	Auditor    *User       `gorm:"foreignKey:AuditorID;references:UserID"          json:"auditor,omitempty"`
}

// TableName 指定表名
func (AuditSchedule) TableName() string { return "audit_schedules" }

// BeforeCreate 生成主键
func (s *AuditSchedule) BeforeCreate(_ *gorm.DB) error {
	ensureID(&s.ScheduleID)
	return nil
}

// AllModels 按依赖顺序列出所有模型（供 AutoMigrate 使用）
func AllModels() []interface{} {
	return []interface{}{
		&Department{},
		&User{},
		&Checklist{},
		&CriteriaGroup{},
		&Criterion{},
		&SelfCheck{},
		&SelfCheckAnswer{},
		&Audit{},
		&AuditAnswer{},
		&Remark{},
		&Photo{},
		&AuditSchedule{},
		&SystemConfig{},
	}
}
