package model

import (
	"time"

	"gorm.io/gorm"
)

// 角色常量
const (
	RoleWorker             = "worker"
	RoleAuditor            = "auditor"
	RoleManager            = "manager"
	RoleAdmin              = "admin"
	RoleQualityDirector    = "quality_director"
	RoleProductionDirector = "production_director"
)

// roleDisplay 角色展示名
var roleDisplay = map[string]string{
	RoleAdmin:              "精益生产专员",
	RoleManager:            "部门负责人",
	RoleAuditor:            "审核员",
	RoleWorker:             "员工",
	RoleQualityDirector:    "质量总监",
	RoleProductionDirector: "生产总监",
}

// User 用户表，对应 users
type User struct {
	UserID       string     `gorm:"type:uuid;primaryKey"                       json:"user_id"`
	Username     string     `gorm:"type:varchar(80);not null;uniqueIndex"      json:"username"`
	Email        string     `gorm:"type:varchar(120);not null;uniqueIndex"     json:"email"`
	PasswordHash string     `gorm:"type:varchar(255);not null"                 json:"-"`
	FirstName    string     `gorm:"type:varchar(100)"                          json:"first_name"`
	LastName     string     `gorm:"type:varchar(100)"                          json:"last_name"`
	Position     string     `gorm:"type:varchar(100)"                          json:"position"`
	Role         string     `gorm:"type:varchar(50);not null;default:'worker'" json:"role"`
	DepartmentID *string    `gorm:"type:uuid;index"                            json:"department_id,omitempty"`
	IsActive     bool       `gorm:"not null;default:true"                      json:"is_active"`
	LastLoginAt  *time.Time `                                                  json:"last_login_at,omitempty"`
	VersionedModel

	// 关联
	Department *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// BeforeCreate 生成主键
func (u *User) BeforeCreate(_ *gorm.DB) error {
	ensureID(&u.UserID)
	u.initVersion()
	return nil
}

// RoleDisplay 角色展示名（未知角色原样返回）
func (u *User) RoleDisplay() string {
	return RoleDisplayName(u.Role)
}

// HasRole 判断用户是否具备指定角色之一；admin 视为具备所有角色
func (u *User) HasRole(roles ...string) bool {
	return HasRole(u.Role, roles...)
}

// FullName 姓名（为空时退回用户名）
func (u *User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}

// RoleDisplayName 角色展示名
func RoleDisplayName(role string) string {
	if d, ok := roleDisplay[role]; ok {
		return d
	}
	return role
}

// IsValidRole 是否为系统已知角色
func IsValidRole(role string) bool {
	_, ok := roleDisplay[role]
	return ok
}

// HasRole 角色判断，admin 通过所有检查
func HasRole(role string, roles ...string) bool {
	if role == RoleAdmin {
		return true
	}
	for _, r := range roles {
		if role == r {
			return true
		}
	}
	return false
}
