// Package testutil 测试辅助：内存 SQLite 数据库与常用夹具
package testutil

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/maxfrank76/5s-system/internal/model"
)

// NewDB 创建独立的内存 SQLite 数据库并完成 AutoMigrate
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("打开 SQLite 失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取 sql.DB 失败: %v", err)
	}
	// 内存库按连接隔离，单连接保证同一测试内共享数据
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		t.Fatalf("AutoMigrate 失败: %v", err)
	}
	return db
}

// ── 夹具 ──

// CreateDepartment 创建部门
func CreateDepartment(t *testing.T, db *gorm.DB, name, deptType string, parentID *string) *model.Department {
	t.Helper()
	d := &model.Department{Name: name, DepartmentType: deptType, ParentID: parentID, IsActive: true}
	if err := db.Create(d).Error; err != nil {
		t.Fatalf("创建部门失败: %v", err)
	}
	return d
}

// CreateUser 创建用户，密码为 username+"123"
func CreateUser(t *testing.T, db *gorm.DB, username, role string, deptID *string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(username+"123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("生成密码哈希失败: %v", err)
	}
	u := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		FirstName:    username,
		Role:         role,
		DepartmentID: deptID,
		IsActive:     true,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	return u
}

// CreateChecklist 创建 groups×perGroup 结构的检查清单
func CreateChecklist(t *testing.T, db *gorm.DB, checklistType, deptType string, groups, perGroup int) *model.Checklist {
	t.Helper()
	cl := &model.Checklist{
		Name:           checklistType + "-" + deptType,
		ChecklistType:  checklistType,
		DepartmentType: deptType,
		IsActive:       true,
	}
	for g := 0; g < groups; g++ {
		grp := model.CriteriaGroup{Name: "S" + string(rune('1'+g)), OrderIndex: g}
		for c := 0; c < perGroup; c++ {
			grp.Criteria = append(grp.Criteria, model.Criterion{
				Description: grp.Name + "-准则" + string(rune('1'+c)),
				OrderIndex:  c,
			})
		}
		cl.Groups = append(cl.Groups, grp)
	}
	if err := db.Create(cl).Error; err != nil {
		t.Fatalf("创建检查清单失败: %v", err)
	}
	return cl
}

// CriterionIDs 按顺序返回清单下的准则 ID
func CriterionIDs(cl *model.Checklist) []string {
	var ids []string
	for _, g := range cl.Groups {
		for _, c := range g.Criteria {
			ids = append(ids, c.CriterionID)
		}
	}
	return ids
}
