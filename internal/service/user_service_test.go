package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/maxfrank76/5s-system/internal/dto"
	"github.com/maxfrank76/5s-system/internal/model"
	"github.com/maxfrank76/5s-system/internal/testutil"
)

func TestUserCreate(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateUser(t, env.db, "admin", model.RoleAdmin, nil)
	dept := testutil.CreateDepartment(t, env.db, "仓库", model.DepartmentTypeWarehouse, nil)
	svc := NewUserService(env.repo, env.logger)
	ctx := context.Background()

	resp, err := svc.Create(ctx, &dto.CreateUserRequest{
		Username:     "worker2",
		Email:        "worker2@example.com",
		Password:     "secret1",
		FirstName:    "芳",
		Role:         model.RoleWorker,
		DepartmentID: &dept.DepartmentID,
	}, admin.UserID)
	require.NoError(t, err)
	assert.Equal(t, "worker2", resp.Username)
	require.NotNil(t, resp.Department)
	assert.Equal(t, "仓库", resp.Department.Name)

	_, err = svc.Create(ctx, &dto.CreateUserRequest{
		Username: "worker2", Email: "other@example.com", Password: "secret1", Role: model.RoleWorker,
	}, admin.UserID)
	assert.ErrorIs(t, err, ErrUsernameExists)

	_, err = svc.Create(ctx, &dto.CreateUserRequest{
		Username: "worker3", Email: "worker2@example.com", Password: "secret1", Role: model.RoleWorker,
	}, admin.UserID)
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = svc.Create(ctx, &dto.CreateUserRequest{
		Username: "worker4", Email: "w4@example.com", Password: "secret1", Role: model.RoleWorker,
		DepartmentID: strPtr("00000000-0000-0000-0000-000000000000"),
	}, admin.UserID)
	assert.ErrorIs(t, err, ErrDepartmentNotFound)
}

func TestUserDeleteAndRole(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateUser(t, env.db, "admin", model.RoleAdmin, nil)
	worker := testutil.CreateUser(t, env.db, "worker1", model.RoleWorker, nil)
	svc := NewUserService(env.repo, env.logger)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, admin.UserID, admin.UserID), ErrUserSelfDelete)
	assert.ErrorIs(t, svc.AssignRole(ctx, admin.UserID, &dto.AssignRoleRequest{Role: model.RoleWorker}, admin.UserID), ErrUserSelfRoleChange)
	assert.ErrorIs(t, svc.AssignRole(ctx, worker.UserID, &dto.AssignRoleRequest{Role: "boss"}, admin.UserID), ErrInvalidRole)

	require.NoError(t, svc.AssignRole(ctx, worker.UserID, &dto.AssignRoleRequest{Role: model.RoleAuditor}, admin.UserID))
	require.NoError(t, svc.Delete(ctx, worker.UserID, admin.UserID))

	got, err := svc.GetByID(ctx, worker.UserID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAuditor, got.Role)
	assert.False(t, got.IsActive, "删除即停用，记录保留")
}

func TestUserResetPassword(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateUser(t, env.db, "admin", model.RoleAdmin, nil)
	worker := testutil.CreateUser(t, env.db, "worker1", model.RoleWorker, nil)
	svc := NewUserService(env.repo, env.logger)

	resp, err := svc.ResetPassword(context.Background(), worker.UserID, admin.UserID)
	require.NoError(t, err)
	assert.Len(t, resp.TempPassword, 8)

	auth := newTestAuthService(env)
	_, err = auth.Login(context.Background(), &dto.LoginRequest{Username: "worker1", Password: resp.TempPassword})
	assert.NoError(t, err)
}

func buildImportFile(t *testing.T, rows [][]string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		for j, v := range row {
			name, _ := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, f.SetCellValue("Sheet1", name, v))
		}
	}
	buf := new(bytes.Buffer)
	require.NoError(t, f.Write(buf))
	return buf
}

func TestUserImport(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateUser(t, env.db, "admin", model.RoleAdmin, nil)
	testutil.CreateUser(t, env.db, "taken", model.RoleWorker, nil)
	testutil.CreateDepartment(t, env.db, "生产车间", model.DepartmentTypeProduction, nil)
	svc := NewUserService(env.repo, env.logger)
	ctx := context.Background()

	file := buildImportFile(t, [][]string{
		{"用户名", "邮箱", "名", "角色", "部门"},
		{"ivan", "ivan@example.com", "Ivan", "", "生产车间"},
		{"petr", "petr@example.com", "Petr", "auditor", ""},
		{"taken", "taken2@example.com", "", "", ""},
		{"olga", "olga@example.com", "", "boss", ""},
		{"anna", "anna@example.com", "", "", "不存在的部门"},
		{"", "", "", "", ""},
	})

	rows, err := svc.ParseImportFile(file)
	require.NoError(t, err)
	require.Len(t, rows, 5, "全空行应被跳过")

	resp, err := svc.ImportUsers(ctx, rows, admin.UserID)
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Total)
	assert.Equal(t, 2, resp.Success)
	assert.Equal(t, 3, resp.Failed)

	auth := newTestAuthService(env)
	login, err := auth.Login(ctx, &dto.LoginRequest{Username: "ivan", Password: "ivan123"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleWorker, login.User.Role)
	require.NotNil(t, login.User.Department)
	assert.Equal(t, "生产车间", login.User.Department.Name)
}

func TestUserImport_BadHeader(t *testing.T) {
	env := newTestEnv(t)
	svc := NewUserService(env.repo, env.logger)

	_, err := svc.ParseImportFile(buildImportFile(t, [][]string{{"姓名", "电话"}, {"a", "b"}}))
	assert.ErrorIs(t, err, ErrImportBadHeader)

	_, err = svc.ParseImportFile(buildImportFile(t, [][]string{{"username", "email"}}))
	assert.ErrorIs(t, err, ErrImportNoData)
}
