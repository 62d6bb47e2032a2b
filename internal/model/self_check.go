package model

import (
	"time"

	"gorm.io/gorm"
)

// SelfCheck 自查主表，对应 self_checks
type SelfCheck struct {
	SelfCheckID  string     `gorm:"type:uuid;primaryKey"     json:"self_check_id"`
	UserID       string     `gorm:"type:uuid;not null;index" json:"user_id"`
	DepartmentID string     `gorm:"type:uuid;not null;index" json:"department_id"`
	ChecklistID  string     `gorm:"type:uuid;not null"       json:"checklist_id"`
	CheckDate    time.Time  `gorm:"not null"                 json:"check_date"`
	CompletedAt  *time.Time `                                json:"completed_at,omitempty"`
	TotalScore   *float64   `                                json:"total_score,omitempty"` // 百分比 0-100
	IsCompleted  bool       `gorm:"not null;default:false"   json:"is_completed"`
	BaseModel

	// 关联
	User       *User             `gorm:"foreignKey:UserID;references:UserID"             json:"user,omitempty"`
	Department *Department       `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
	Checklist  *Checklist        `gorm:"foreignKey:ChecklistID;references:ChecklistID"   json:"checklist,omitempty"`
	Answers    []SelfCheckAnswer `gorm:"foreignKey:SelfCheckID;references:SelfCheckID"   json:"answers,omitempty"`
}

// TableName 指定表名
func (SelfCheck) TableName() string { return "self_checks" }

// BeforeCreate 生成主键
func (s *SelfCheck) BeforeCreate(_ *gorm.DB) error {
	ensureID(&s.SelfCheckID)
	return nil
}

// SelfCheckAnswer 自查逐条评分，对应 self_check_answers
type SelfCheckAnswer struct {
	AnswerID    string `gorm:"type:uuid;primaryKey"                              json:"answer_id"`
	SelfCheckID string `gorm:"type:uuid;not null;uniqueIndex:uk_self_check_crit" json:"self_check_id"`
	CriterionID string `gorm:"type:uuid;not null;uniqueIndex:uk_self_check_crit" json:"criterion_id"`
	Score       int    `gorm:"not null"                                          json:"score"` // 1-5
	Notes       string `gorm:"type:text"                                         json:"notes,omitempty"`
	BaseModel

	Criterion *Criterion `gorm:"foreignKey:CriterionID;references:CriterionID" json:"criterion,omitempty"`
}

// TableName 指定表名
func (SelfCheckAnswer) TableName() string { return "self_check_answers" }

// BeforeCreate 生成主键
func (a *SelfCheckAnswer) BeforeCreate(_ *gorm.DB) error {
	ensureID(&a.AnswerID)
	return nil
}
