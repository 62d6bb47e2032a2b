package model

import "gorm.io/gorm"

// 检查清单类型
const (
	ChecklistTypeSelfCheck = "self_check"
	ChecklistTypeAudit     = "audit"
)

// Checklist 检查清单表，对应 checklists
type Checklist struct {
	ChecklistID    string `gorm:"type:uuid;primaryKey"       json:"checklist_id"`
	Name           string `gorm:"type:varchar(200);not null" json:"name"`
	Description    string `gorm:"type:text"                  json:"description,omitempty"`
	ChecklistType  string `gorm:"type:varchar(20);not null;index:idx_checklist_resolve" json:"checklist_type"`
	DepartmentType string `gorm:"type:varchar(50);index:idx_checklist_resolve"          json:"department_type"`
	IsActive       bool   `gorm:"not null;default:true"      json:"is_active"`
	SoftDeleteModel

	// 关联
	Groups []CriteriaGroup `gorm:"foreignKey:ChecklistID;references:ChecklistID" json:"groups,omitempty"`
}

// TableName 指定表名
func (Checklist) TableName() string { return "checklists" }

// BeforeCreate 生成主键
func (c *Checklist) BeforeCreate(_ *gorm.DB) error {
	ensureID(&c.ChecklistID)
	return nil
}

// CriterionIDs 清单下所有准则 ID（需已预加载 Groups.Criteria）
func (c *Checklist) CriterionIDs() map[string]bool {
	ids := make(map[string]bool)
	for _, g := range c.Groups {
		for _, cr := range g.Criteria {
			ids[cr.CriterionID] = true
		}
	}
	return ids
}

// CriteriaGroup 准则分组表，对应 criteria_groups（5S 的每个 S 一组）
type CriteriaGroup struct {
	GroupID     string `gorm:"type:uuid;primaryKey"       json:"group_id"`
	ChecklistID string `gorm:"type:uuid;not null;index"   json:"checklist_id"`
	Name        string `gorm:"type:varchar(200);not null" json:"name"`
	OrderIndex  int    `gorm:"not null;default:0"         json:"order_index"`
	BaseModel

	// 关联
	Criteria []Criterion `gorm:"foreignKey:GroupID;references:GroupID" json:"criteria,omitempty"`
}

// TableName 指定表名
func (CriteriaGroup) TableName() string { return "criteria_groups" }

// BeforeCreate 生成主键
func (g *CriteriaGroup) BeforeCreate(_ *gorm.DB) error {
	ensureID(&g.GroupID)
	return nil
}

// Criterion 准则表，对应 criteria
type Criterion struct {
	CriterionID string `gorm:"type:uuid;primaryKey"     json:"criterion_id"`
	GroupID     string `gorm:"type:uuid;not null;index" json:"group_id"`
	Description string `gorm:"type:text;not null"       json:"description"`
	OrderIndex  int    `gorm:"not null;default:0"       json:"order_index"`
	BaseModel
}

// TableName 指定表名
func (Criterion) TableName() string { return "criteria" }

// BeforeCreate 生成主键
func (c *Criterion) BeforeCreate(_ *gorm.DB) error {
	ensureID(&c.CriterionID)
	return nil
}
