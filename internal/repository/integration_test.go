//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/maxfrank76/5s-system/internal/model"
	"github.com/maxfrank76/5s-system/internal/repository"
	"github.com/maxfrank76/5s-system/pkg/database"
	pkgerrors "github.com/maxfrank76/5s-system/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=fives password=fives_password dbname=fives_test sslmode=disable TimeZone=Europe/Moscow"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 使用正式迁移脚本建表
	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "迁移失败: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// setupPGData 创建部门、审核员与审核清单，返回清理函数
func setupPGData(t *testing.T) (dept *model.Department, auditor *model.User, cl *model.Checklist, cleanup func()) {
	t.Helper()
	ctx := context.Background()
	suffix := time.Now().UnixNano()

	dept = &model.Department{Name: fmt.Sprintf("测试部门-%d", suffix), DepartmentType: model.DepartmentTypeProduction, IsActive: true}
	if err := testDB.WithContext(ctx).Create(dept).Error; err != nil {
		t.Fatalf("创建部门失败: %v", err)
	}

	auditor = &model.User{
		Username:     fmt.Sprintf("auditor%d", suffix),
		Email:        fmt.Sprintf("auditor%d@example.com", suffix),
		PasswordHash: "$2a$10$placeholder",
		Role:         model.RoleAuditor,
		IsActive:     true,
	}
	if err := testDB.WithContext(ctx).Create(auditor).Error; err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}

	cl = &model.Checklist{
		Name:           fmt.Sprintf("清单-%d", suffix),
		ChecklistType:  model.ChecklistTypeAudit,
		DepartmentType: model.DepartmentTypeProduction,
		IsActive:       true,
		Groups: []model.CriteriaGroup{{
			Name:     "Сортировка",
			Criteria: []model.Criterion{{Description: "Нет лишних предметов"}},
		}},
	}
	if err := testDB.WithContext(ctx).Create(cl).Error; err != nil {
		t.Fatalf("创建清单失败: %v", err)
	}

	cleanup = func() {
		testDB.Exec("DELETE FROM photos WHERE uploaded_by = ?", auditor.UserID)
		testDB.Exec("DELETE FROM remarks WHERE created_by_id = ?", auditor.UserID)
		testDB.Exec("DELETE FROM audits WHERE auditor_id = ?", auditor.UserID)
		testDB.Exec("DELETE FROM checklists WHERE checklist_id = ?", cl.ChecklistID)
		testDB.Unscoped().Where("user_id = ?", auditor.UserID).Delete(&model.User{})
		testDB.Unscoped().Where("department_id = ?", dept.DepartmentID).Delete(&model.Department{})
	}
	return
}

func newAudit(dept *model.Department, auditor *model.User, cl *model.Checklist) *model.Audit {
	return &model.Audit{
		AuditorID:    auditor.UserID,
		DepartmentID: dept.DepartmentID,
		ChecklistID:  cl.ChecklistID,
		AuditType:    model.AuditTypePlanned,
		Status:       model.AuditStatusDraft,
		AuditDate:    time.Now(),
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Transaction
// ═══════════════════════════════════════════════════════════

func TestPG_TransactionRollback(t *testing.T) {
	dept, auditor, cl, cleanup := setupPGData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	if err != nil {
		t.Fatalf("BeginTx 失败: %v", err)
	}
	audit := newAudit(dept, auditor, cl)
	if err := repo.WithTx(tx).Audit.Create(ctx, audit); err != nil {
		tx.Rollback()
		t.Fatalf("事务内创建审核失败: %v", err)
	}
	tx.Rollback()

	if _, err := repo.Audit.GetByID(ctx, audit.AuditID); err == nil {
		t.Fatal("期望回滚后查不到审核，但实际查到了")
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Upsert & Optimistic Lock
// ═══════════════════════════════════════════════════════════

func TestPG_UpsertAnswers(t *testing.T) {
	dept, auditor, cl, cleanup := setupPGData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	audit := newAudit(dept, auditor, cl)
	if err := repo.Audit.Create(ctx, audit); err != nil {
		t.Fatalf("创建审核失败: %v", err)
	}
	critID := cl.Groups[0].Criteria[0].CriterionID

	for _, score := range []int{2, 4} {
		if err := repo.Audit.UpsertAnswers(ctx, []model.AuditAnswer{{AuditID: audit.AuditID, CriterionID: critID, Score: score}}); err != nil {
			t.Fatalf("UpsertAnswers 失败: %v", err)
		}
	}

	answers, err := repo.Audit.ListAnswers(ctx, audit.AuditID)
	if err != nil {
		t.Fatalf("ListAnswers 失败: %v", err)
	}
	if len(answers) != 1 || answers[0].Score != 4 {
		t.Errorf("期望 1 条评分且分数为 4，实际: %+v", answers)
	}
}

func TestPG_RemarkOptimisticLock(t *testing.T) {
	dept, auditor, cl, cleanup := setupPGData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	audit := newAudit(dept, auditor, cl)
	if err := repo.Audit.Create(ctx, audit); err != nil {
		t.Fatalf("创建审核失败: %v", err)
	}
	remark := &model.Remark{
		AuditID:      audit.AuditID,
		DepartmentID: dept.DepartmentID,
		Description:  "Проход загромождён",
		CreatedByID:  auditor.UserID,
		Status:       model.RemarkStatusIdentified,
	}
	if err := repo.Remark.Create(ctx, remark); err != nil {
		t.Fatalf("创建问题失败: %v", err)
	}

	copy1, _ := repo.Remark.GetByID(ctx, remark.RemarkID)
	copy2, _ := repo.Remark.GetByID(ctx, remark.RemarkID)

	copy1.Status = model.RemarkStatusAssigned
	copy1.AssignedToID = &auditor.UserID
	if err := repo.Remark.Update(ctx, copy1); err != nil {
		t.Fatalf("第一次更新应成功: %v", err)
	}

	copy2.Status = model.RemarkStatusClosed
	if err := repo.Remark.Update(ctx, copy2); err != pkgerrors.ErrOptimisticLock {
		t.Errorf("期望 ErrOptimisticLock，得到: %v", err)
	}
}

func TestPG_PhotoOwnerConstraint(t *testing.T) {
	_, auditor, _, cleanup := setupPGData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	// 未挂在任何对象上的照片应被 CHECK 约束拒绝
	err := repo.Photo.Create(context.Background(), &model.Photo{
		Filename:   "a.jpg",
		FilePath:   "/tmp/a.jpg",
		UploadedBy: auditor.UserID,
	})
	if err == nil {
		t.Error("期望 chk_photo_owner 约束报错")
	}
}

func TestPG_MigrationsIdempotent(t *testing.T) {
	sqlDB, err := testDB.DB()
	if err != nil {
		t.Fatalf("获取 sql.DB 失败: %v", err)
	}
	// TestMain 已迁移到最新，再次执行应无变更且不报错
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		t.Fatalf("重复迁移失败: %v", err)
	}

	var version int
	var dirty bool
	if err := testDB.Raw("SELECT version, dirty FROM fives_schema_migrations").Row().Scan(&version, &dirty); err != nil {
		t.Fatalf("读取迁移版本表失败: %v", err)
	}
	if version < 1 || dirty {
		t.Errorf("version=%d dirty=%v, want >=1 and clean", version, dirty)
	}
}
