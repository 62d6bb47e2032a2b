package service

import (
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/maxfrank76/5s-system/internal/model"
	"github.com/maxfrank76/5s-system/internal/repository"
	"github.com/maxfrank76/5s-system/internal/testutil"
)

// testEnv 单个测试用例的数据库与仓储
type testEnv struct {
	db     *gorm.DB
	repo   *repository.Repository
	logger *zap.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	return &testEnv{db: db, repo: repository.NewRepository(db), logger: zap.NewNop()}
}

func callerOf(u *model.User) Caller {
	c := Caller{UserID: u.UserID, Role: u.Role}
	if u.DepartmentID != nil {
		c.DepartmentID = *u.DepartmentID
	}
	return c
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func boolPtr(b bool) *bool { return &b }
