package model

import (
	"time"

	"gorm.io/gorm"
)

// 问题状态：identified → assigned → resolved → closed（resolved 可退回 assigned）
const (
	RemarkStatusIdentified = "identified"
	RemarkStatusAssigned   = "assigned"
	RemarkStatusResolved   = "resolved"
	RemarkStatusClosed     = "closed"
)

// Remark 审核发现的问题，对应 remarks
type Remark struct {
	RemarkID       string     `gorm:"type:uuid;primaryKey"                             json:"remark_id"`
	AuditID        string     `gorm:"type:uuid;not null;index"                         json:"audit_id"`
	DepartmentID   string     `gorm:"type:uuid;not null;index"                         json:"department_id"`
	CriterionID    *string    `gorm:"type:uuid"                                        json:"criterion_id,omitempty"`
	Description    string     `gorm:"type:text;not null"                               json:"description"`
	CreatedByID    string     `gorm:"type:uuid;not null"                               json:"created_by_id"`
	AssignedToID   *string    `gorm:"type:uuid;index"                                  json:"assigned_to_id,omitempty"`
	Status         string     `gorm:"type:varchar(20);not null;default:'identified';index" json:"status"`
	DueDate        *time.Time `                                                        json:"due_date,omitempty"`
	AssignedAt     *time.Time `                                                        json:"assigned_at,omitempty"`
	ResolvedAt     *time.Time `                                                        json:"resolved_at,omitempty"`
	ClosedAt       *time.Time `                                                        json:"closed_at,omitempty"`
	ResolutionNote string     `gorm:"type:text"                                        json:"resolution_note,omitempty"`
	VersionedModel

	// 关联
	Criterion  *Criterion `gorm:"foreignKey:CriterionID;references:CriterionID" json:"criterion,omitempty"`
	Creator    *User      `gorm:"foreignKey:CreatedByID;references:UserID"      json:"creator,omitempty"`
	AssignedTo *User      `gorm:"foreignKey:AssignedToID;references:UserID"     json:"assigned_to,omitempty"`
	Photos     []Photo    `gorm:"foreignKey:RemarkID;references:RemarkID"       json:"photos,omitempty"`
}

// TableName 指定表名
func (Remark) TableName() string { return "remarks" }

// BeforeCreate 生成主键
func (r *Remark) BeforeCreate(_ *gorm.DB) error {
	ensureID(&r.RemarkID)
	r.initVersion()
	return nil
}

// IsOpen 问题是否尚未解决
func (r *Remark) IsOpen() bool {
	return r.Status == RemarkStatusIdentified || r.Status == RemarkStatusAssigned
}

// IsOverdue 在 now 时刻是否已逾期
func (r *Remark) IsOverdue(now time.Time) bool {
	return r.IsOpen() && r.DueDate != nil && r.DueDate.Before(now)
}
