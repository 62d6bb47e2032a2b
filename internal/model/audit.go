package model

import (
	"time"

	"gorm.io/gorm"
)

// 审核类型
const (
	AuditTypePlanned     = "planned"
	AuditTypeUnscheduled = "unscheduled"
)

// 审核状态
const (
	AuditStatusDraft      = "draft"
	AuditStatusInProgress = "in_progress"
	AuditStatusCompleted  = "completed"
)

// Audit 审核主表，对应 audits
type Audit struct {
	AuditID      string     `gorm:"type:uuid;primaryKey"                      json:"audit_id"`
	AuditorID    string     `gorm:"type:uuid;not null;index"                  json:"auditor_id"`
	DepartmentID string     `gorm:"type:uuid;not null;index"                  json:"department_id"`
	ChecklistID  string     `gorm:"type:uuid;not null"                        json:"checklist_id"`
	ScheduleID   *string    `gorm:"type:uuid"                                 json:"schedule_id,omitempty"`
	AuditType    string     `gorm:"type:varchar(20);not null;default:'planned'" json:"audit_type"`
	Status       string     `gorm:"type:varchar(20);not null;default:'draft'"   json:"status"`
	AuditDate    time.Time  `gorm:"not null"                                  json:"audit_date"`
	CompletedAt  *time.Time `                                                 json:"completed_at,omitempty"`
	TotalScore   *float64   `                                                 json:"total_score,omitempty"`
	MaxScore     *float64   `                                                 json:"max_score,omitempty"`
	ScorePercent *float64   `                                                 json:"score_percent,omitempty"`
	Comments     string     `gorm:"type:text"                                 json:"comments,omitempty"`
	SoftDeleteModel

	// 关联
	Auditor    *User         `gorm:"foreignKey:AuditorID;references:UserID"          json:"auditor,omitempty"`
	Department *Department   `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
	Checklist  *Checklist    `gorm:"foreignKey:ChecklistID;references:ChecklistID"   json:"checklist,omitempty"`
	Answers    []AuditAnswer `gorm:"foreignKey:AuditID;references:AuditID"           json:"answers,omitempty"`
	Remarks    []Remark      `gorm:"foreignKey:AuditID;references:AuditID"           json:"remarks,omitempty"`
}

// TableName 指定表名
func (Audit) TableName() string { return "audits" }

// BeforeCreate 生成主键
func (a *Audit) BeforeCreate(_ *gorm.DB) error {
	ensureID(&a.AuditID)
	return nil
}

// IsCompleted 审核是否已完成
func (a *Audit) IsCompleted() bool { return a.Status == AuditStatusCompleted }

// AuditAnswer 审核逐条评分，对应 criterion_answers
type AuditAnswer struct {
	AnswerID    string `gorm:"type:uuid;primaryKey"                          json:"answer_id"`
	AuditID     string `gorm:"type:uuid;not null;uniqueIndex:uk_audit_crit" json:"audit_id"`
	CriterionID string `gorm:"type:uuid;not null;uniqueIndex:uk_audit_crit" json:"criterion_id"`
	Score       int    `gorm:"not null"                                      json:"score"` // 1-5
	Notes       string `gorm:"type:text"                                     json:"notes,omitempty"`
	BaseModel

	Criterion *Criterion `gorm:"foreignKey:CriterionID;references:CriterionID" json:"criterion,omitempty"`
	Photos    []Photo    `gorm:"foreignKey:AnswerID;references:AnswerID"       json:"photos,omitempty"`
}

// TableName 指定表名
func (AuditAnswer) TableName() string { return "criterion_answers" }

// BeforeCreate 生成主键
func (a *AuditAnswer) BeforeCreate(_ *gorm.DB) error {
	ensureID(&a.AnswerID)
	return nil
}
