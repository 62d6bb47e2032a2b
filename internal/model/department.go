package model

import "gorm.io/gorm"

// 部门类型（决定适用的检查清单）
const (
	DepartmentTypeProduction = "production"
	DepartmentTypeWarehouse  = "warehouse"
	DepartmentTypeQuality    = "quality"
	DepartmentTypeOffice     = "office"
)

// Department 部门表，对应 departments（树形结构）
type Department struct {
	DepartmentID   string  `gorm:"type:uuid;primaryKey"       json:"department_id"`
	Name           string  `gorm:"type:varchar(100);not null" json:"name"`
	Description    string  `gorm:"type:text"                  json:"description,omitempty"`
	DepartmentType string  `gorm:"type:varchar(50);index"     json:"department_type"`
	ParentID       *string `gorm:"type:uuid;index"            json:"parent_id,omitempty"`
	IsActive       bool    `gorm:"not null;default:true"      json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (Department) TableName() string { return "departments" }

// BeforeCreate 生成主键
func (d *Department) BeforeCreate(_ *gorm.DB) error {
	ensureID(&d.DepartmentID)
	d.initVersion()
	return nil
}
