package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxfrank76/5s-system/internal/dto"
	"github.com/maxfrank76/5s-system/internal/model"
	"github.com/maxfrank76/5s-system/internal/testutil"
	pkgerrors "github.com/maxfrank76/5s-system/pkg/errors"
)

func newRemarkFixture(t *testing.T) (*auditFixture, RemarkService, *dto.AuditResponse) {
	t.Helper()
	f := newAuditFixture(t)
	audit, err := f.auditService().Create(context.Background(),
		&dto.CreateAuditRequest{DepartmentID: f.dept.DepartmentID}, callerOf(f.auditor))
	require.NoError(t, err)
	return f, NewRemarkService(f.env.repo, nil, "http://localhost:8080", f.env.logger), audit
}

func TestRemarkLifecycle(t *testing.T) {
	f, svc, audit := newRemarkFixture(t)
	ctx := context.Background()
	ids := testutil.CriterionIDs(f.checklist)

	remark, err := svc.Create(ctx, audit.ID, &dto.CreateRemarkRequest{
		CriterionID: &ids[0],
		Description: "通道堆放杂物",
	}, callerOf(f.auditor))
	require.NoError(t, err)
	assert.Equal(t, model.RemarkStatusIdentified, remark.Status)
	assert.Equal(t, 1, remark.Version)
	require.NotNil(t, remark.DueDate)
	assert.Equal(t, time.Now().AddDate(0, 0, 7).Format(dateLayout), *remark.DueDate)

	// 只能由 identified 指派
	_, err = svc.Resolve(ctx, remark.ID, &dto.ResolveRemarkRequest{ResolutionNote: "x"}, callerOf(f.manager))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = svc.Assign(ctx, remark.ID, &dto.AssignRemarkRequest{AssignedToID: f.worker.UserID}, callerOf(f.worker))
	assert.ErrorIs(t, err, ErrNoPermission)

	remark, err = svc.Assign(ctx, remark.ID, &dto.AssignRemarkRequest{AssignedToID: f.worker.UserID}, callerOf(f.manager))
	require.NoError(t, err)
	assert.Equal(t, model.RemarkStatusAssigned, remark.Status)
	assert.Equal(t, 2, remark.Version)
	require.NotNil(t, remark.AssignedToID)
	assert.Equal(t, f.worker.UserID, *remark.AssignedToID)
	assert.NotNil(t, remark.AssignedAt)

	_, err = svc.Assign(ctx, remark.ID, &dto.AssignRemarkRequest{AssignedToID: f.worker.UserID}, callerOf(f.manager))
	assert.ErrorIs(t, err, ErrInvalidTransition)

	remark, err = svc.Resolve(ctx, remark.ID, &dto.ResolveRemarkRequest{ResolutionNote: "已清理"}, callerOf(f.worker))
	require.NoError(t, err)
	assert.Equal(t, model.RemarkStatusResolved, remark.Status)
	assert.NotNil(t, remark.ResolvedAt)

	// worker 不能验证关闭
	_, err = svc.Close(ctx, remark.ID, &dto.RemarkTransitionRequest{}, callerOf(f.worker))
	assert.ErrorIs(t, err, ErrNoPermission)

	remark, err = svc.Reopen(ctx, remark.ID, &dto.RemarkTransitionRequest{}, callerOf(f.auditor))
	require.NoError(t, err)
	assert.Equal(t, model.RemarkStatusAssigned, remark.Status)
	assert.Nil(t, remark.ResolvedAt)

	_, err = svc.Resolve(ctx, remark.ID, &dto.ResolveRemarkRequest{ResolutionNote: "再次清理"}, callerOf(f.worker))
	require.NoError(t, err)
	remark, err = svc.Close(ctx, remark.ID, &dto.RemarkTransitionRequest{}, callerOf(f.auditor))
	require.NoError(t, err)
	assert.Equal(t, model.RemarkStatusClosed, remark.Status)
	assert.NotNil(t, remark.ClosedAt)
	assert.Equal(t, 6, remark.Version)

	_, err = svc.Reopen(ctx, remark.ID, &dto.RemarkTransitionRequest{}, callerOf(f.auditor))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRemarkCreate_Validation(t *testing.T) {
	f, svc, audit := newRemarkFixture(t)
	ctx := context.Background()

	otherCl := testutil.CreateChecklist(t, f.env.db, model.ChecklistTypeAudit, model.DepartmentTypeWarehouse, 1, 1)
	foreign := testutil.CriterionIDs(otherCl)[0]
	_, err := svc.Create(ctx, audit.ID, &dto.CreateRemarkRequest{CriterionID: &foreign, Description: "x"}, callerOf(f.auditor))
	assert.ErrorIs(t, err, ErrCriterionNotInAudit)

	_, err = svc.Create(ctx, audit.ID, &dto.CreateRemarkRequest{Description: "x", DueDate: "2000-01-01"}, callerOf(f.auditor))
	assert.ErrorIs(t, err, ErrDueDateInPast)

	_, err = svc.Create(ctx, audit.ID, &dto.CreateRemarkRequest{
		Description:  "x",
		AssignedToID: strPtr("00000000-0000-0000-0000-000000000000"),
	}, callerOf(f.auditor))
	assert.ErrorIs(t, err, ErrAssigneeNotFound)

	_, err = svc.Create(ctx, "00000000-0000-0000-0000-000000000000", &dto.CreateRemarkRequest{Description: "x"}, callerOf(f.auditor))
	assert.ErrorIs(t, err, ErrAuditNotFound)

	// 创建时直接指派
	due := time.Now().AddDate(0, 0, 3).Format(dateLayout)
	remark, err := svc.Create(ctx, audit.ID, &dto.CreateRemarkRequest{
		Description:  "标识缺失",
		AssignedToID: &f.worker.UserID,
		DueDate:      due,
	}, callerOf(f.auditor))
	require.NoError(t, err)
	assert.Equal(t, model.RemarkStatusAssigned, remark.Status)
	assert.Equal(t, due, *remark.DueDate)
}

func TestRemarkOptimisticLock(t *testing.T) {
	f, svc, audit := newRemarkFixture(t)
	ctx := context.Background()

	remark, err := svc.Create(ctx, audit.ID, &dto.CreateRemarkRequest{Description: "地面油污"}, callerOf(f.auditor))
	require.NoError(t, err)
	stale := remark.Version

	_, err = svc.Assign(ctx, remark.ID, &dto.AssignRemarkRequest{AssignedToID: f.worker.UserID, Version: stale}, callerOf(f.manager))
	require.NoError(t, err)

	// 另一个客户端持有旧版本
	_, err = svc.Assign(ctx, remark.ID, &dto.AssignRemarkRequest{AssignedToID: f.worker.UserID, Version: stale}, callerOf(f.auditor))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = svc.Resolve(ctx, remark.ID, &dto.ResolveRemarkRequest{ResolutionNote: "x", Version: stale}, callerOf(f.worker))
	assert.ErrorIs(t, err, pkgerrors.ErrOptimisticLock)
}

func TestRemarkList(t *testing.T) {
	f, svc, audit := newRemarkFixture(t)
	ctx := context.Background()

	assigned, err := svc.Create(ctx, audit.ID, &dto.CreateRemarkRequest{
		Description:  "工具未归位",
		AssignedToID: &f.worker.UserID,
	}, callerOf(f.auditor))
	require.NoError(t, err)
	_, err = svc.Create(ctx, audit.ID, &dto.CreateRemarkRequest{Description: "灯具损坏"}, callerOf(f.auditor))
	require.NoError(t, err)

	// 人为制造逾期
	require.NoError(t, f.env.db.Model(&model.Remark{}).
		Where("remark_id = ?", assigned.ID).
		Update("due_date", time.Now().AddDate(0, 0, -2)).Error)

	list, total, err := svc.List(ctx, &dto.RemarkListRequest{}, callerOf(f.manager))
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 2)

	list, total, err = svc.List(ctx, &dto.RemarkListRequest{}, callerOf(f.worker))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, assigned.ID, list[0].ID)

	list, total, err = svc.List(ctx, &dto.RemarkListRequest{Overdue: true}, callerOf(f.auditor))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.True(t, list[0].IsOverdue)

	_, total, err = svc.List(ctx, &dto.RemarkListRequest{Status: model.RemarkStatusIdentified}, callerOf(f.auditor))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	_, total, err = svc.List(ctx, &dto.RemarkListRequest{AssignedToMe: true}, callerOf(f.manager))
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)

	got, err := svc.GetByID(ctx, assigned.ID, callerOf(f.worker))
	require.NoError(t, err)
	assert.True(t, got.IsOverdue)
}
