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
	"github.com/maxfrank76/5s-system/pkg/scoring"
)

// auditFixture 一个生产部门、审核员、经理、工人与 1×4 审核清单
type auditFixture struct {
	env       *testEnv
	dept      *model.Department
	auditor   *model.User
	manager   *model.User
	worker    *model.User
	checklist *model.Checklist
}

func newAuditFixture(t *testing.T) *auditFixture {
	t.Helper()
	env := newTestEnv(t)
	dept := testutil.CreateDepartment(t, env.db, "装配车间", model.DepartmentTypeProduction, nil)
	return &auditFixture{
		env:       env,
		dept:      dept,
		auditor:   testutil.CreateUser(t, env.db, "auditor1", model.RoleAuditor, nil),
		manager:   testutil.CreateUser(t, env.db, "manager1", model.RoleManager, &dept.DepartmentID),
		worker:    testutil.CreateUser(t, env.db, "worker1", model.RoleWorker, &dept.DepartmentID),
		checklist: testutil.CreateChecklist(t, env.db, model.ChecklistTypeAudit, model.DepartmentTypeProduction, 1, 4),
	}
}

func (f *auditFixture) auditService() AuditService {
	return NewAuditService(f.env.repo, nil, "http://localhost:8080", f.env.logger)
}

func (f *auditFixture) scheduleStatus(t *testing.T, id string) string {
	t.Helper()
	var sched model.AuditSchedule
	require.NoError(t, f.env.db.Where("schedule_id = ?", id).First(&sched).Error)
	return sched.Status
}

func TestAuditCreate_ResolvesChecklist(t *testing.T) {
	f := newAuditFixture(t)
	svc := f.auditService()
	ctx := context.Background()

	audit, err := svc.Create(ctx, &dto.CreateAuditRequest{DepartmentID: f.dept.DepartmentID}, callerOf(f.auditor))
	require.NoError(t, err)
	assert.Equal(t, f.checklist.ChecklistID, audit.ChecklistID)
	assert.Equal(t, model.AuditStatusDraft, audit.Status)
	assert.Equal(t, model.AuditTypePlanned, audit.AuditType)

	selfCl := testutil.CreateChecklist(t, f.env.db, model.ChecklistTypeSelfCheck, model.DepartmentTypeProduction, 1, 1)
	_, err = svc.Create(ctx, &dto.CreateAuditRequest{
		DepartmentID: f.dept.DepartmentID,
		ChecklistID:  &selfCl.ChecklistID,
	}, callerOf(f.auditor))
	assert.ErrorIs(t, err, ErrChecklistTypeMismatch)

	office := testutil.CreateDepartment(t, f.env.db, "行政部", model.DepartmentTypeOffice, nil)
	_, err = svc.Create(ctx, &dto.CreateAuditRequest{DepartmentID: office.DepartmentID}, callerOf(f.auditor))
	assert.ErrorIs(t, err, ErrChecklistNotFound)

	// worker 没有部门范围
	_, err = svc.Create(ctx, &dto.CreateAuditRequest{DepartmentID: f.dept.DepartmentID}, callerOf(f.worker))
	assert.ErrorIs(t, err, ErrDepartmentOutsideScope)
}

func TestAuditSaveAndComplete(t *testing.T) {
	f := newAuditFixture(t)
	svc := f.auditService()
	ctx := context.Background()
	caller := callerOf(f.auditor)
	ids := testutil.CriterionIDs(f.checklist)

	audit, err := svc.Create(ctx, &dto.CreateAuditRequest{DepartmentID: f.dept.DepartmentID}, caller)
	require.NoError(t, err)

	_, err = svc.Complete(ctx, audit.ID, nil, caller)
	assert.ErrorIs(t, err, ErrAuditNoAnswers)

	saved, err := svc.SaveAnswers(ctx, audit.ID, &dto.SaveAuditAnswersRequest{Answers: answersFor(ids, 3, 3)}, caller)
	require.NoError(t, err)
	assert.Equal(t, model.AuditStatusInProgress, saved.Status)
	assert.Len(t, saved.Answers, 2)

	// 覆盖已有评分并补齐其余准则
	saved, err = svc.SaveAnswers(ctx, audit.ID, &dto.SaveAuditAnswersRequest{Answers: answersFor(ids, 5, 4, 5, 4)}, caller)
	require.NoError(t, err)
	assert.Len(t, saved.Answers, 4)

	_, err = svc.SaveAnswers(ctx, audit.ID, &dto.SaveAuditAnswersRequest{Answers: answersFor(ids, 5)}, callerOf(f.manager))
	assert.ErrorIs(t, err, ErrNoPermission)

	comments := "整体良好"
	result, err := svc.Complete(ctx, audit.ID, &dto.CompleteAuditRequest{Comments: &comments}, caller)
	require.NoError(t, err)
	assert.Equal(t, 18.0, result.TotalScore)
	assert.Equal(t, 20.0, result.MaxScore)
	assert.Equal(t, 90.0, result.ScorePercent)
	assert.Equal(t, scoring.GradeExcellent, result.Grade)
	assert.True(t, result.Passed)

	_, err = svc.SaveAnswers(ctx, audit.ID, &dto.SaveAuditAnswersRequest{Answers: answersFor(ids, 1)}, caller)
	assert.ErrorIs(t, err, ErrAuditCompleted)
	assert.ErrorIs(t, svc.Delete(ctx, audit.ID, caller), ErrAuditCompleted)

	got, err := svc.GetByID(ctx, audit.ID, callerOf(f.manager))
	require.NoError(t, err)
	assert.Equal(t, model.AuditStatusCompleted, got.Status)
	assert.Equal(t, "整体良好", got.Comments)
	require.NotNil(t, got.ScorePercent)
	assert.Equal(t, 90.0, *got.ScorePercent)

	_, err = svc.GetByID(ctx, audit.ID, callerOf(f.worker))
	assert.ErrorIs(t, err, ErrDepartmentOutsideScope)
}

func TestAuditScheduleLifecycle(t *testing.T) {
	f := newAuditFixture(t)
	svc := f.auditService()
	ctx := context.Background()
	caller := callerOf(f.auditor)
	ids := testutil.CriterionIDs(f.checklist)

	sched := &model.AuditSchedule{
		DepartmentID:  f.dept.DepartmentID,
		AuditorID:     &f.auditor.UserID,
		ScheduledDate: time.Now(),
		AuditType:     model.AuditTypePlanned,
		Status:        model.ScheduleStatusScheduled,
	}
	require.NoError(t, f.env.db.Create(sched).Error)

	audit, err := svc.Create(ctx, &dto.CreateAuditRequest{
		DepartmentID: f.dept.DepartmentID,
		ScheduleID:   &sched.ScheduleID,
	}, caller)
	require.NoError(t, err)
	assert.Equal(t, model.ScheduleStatusInProgress, f.scheduleStatus(t, sched.ScheduleID))

	// 进行中的计划不能再挂第二次审核
	_, err = svc.Create(ctx, &dto.CreateAuditRequest{
		DepartmentID: f.dept.DepartmentID,
		ScheduleID:   &sched.ScheduleID,
	}, caller)
	assert.ErrorIs(t, err, ErrScheduleNotOpen)

	// 删除审核后计划退回待执行
	require.NoError(t, svc.Delete(ctx, audit.ID, caller))
	assert.Equal(t, model.ScheduleStatusScheduled, f.scheduleStatus(t, sched.ScheduleID))
	_, err = svc.GetByID(ctx, audit.ID, caller)
	assert.ErrorIs(t, err, ErrAuditNotFound)

	// 审核部门必须与计划一致
	other := testutil.CreateDepartment(t, f.env.db, "二号车间", model.DepartmentTypeProduction, nil)
	_, err = svc.Create(ctx, &dto.CreateAuditRequest{
		DepartmentID: other.DepartmentID,
		ScheduleID:   &sched.ScheduleID,
	}, caller)
	assert.ErrorIs(t, err, ErrScheduleDeptMismatch)
	assert.Equal(t, model.ScheduleStatusScheduled, f.scheduleStatus(t, sched.ScheduleID))

	audit, err = svc.Create(ctx, &dto.CreateAuditRequest{
		DepartmentID: f.dept.DepartmentID,
		ScheduleID:   &sched.ScheduleID,
	}, caller)
	require.NoError(t, err)
	_, err = svc.SaveAnswers(ctx, audit.ID, &dto.SaveAuditAnswersRequest{Answers: answersFor(ids, 2, 2, 2, 2)}, caller)
	require.NoError(t, err)
	result, err := svc.Complete(ctx, audit.ID, nil, caller)
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Equal(t, model.ScheduleStatusCompleted, f.scheduleStatus(t, sched.ScheduleID))

	_, err = svc.Create(ctx, &dto.CreateAuditRequest{
		DepartmentID: f.dept.DepartmentID,
		ScheduleID:   &sched.ScheduleID,
	}, caller)
	assert.ErrorIs(t, err, ErrScheduleNotOpen)
}

func TestAuditList_Scope(t *testing.T) {
	f := newAuditFixture(t)
	svc := f.auditService()
	ctx := context.Background()

	other := testutil.CreateDepartment(t, f.env.db, "二号车间", model.DepartmentTypeProduction, nil)
	_, err := svc.Create(ctx, &dto.CreateAuditRequest{DepartmentID: f.dept.DepartmentID}, callerOf(f.auditor))
	require.NoError(t, err)
	_, err = svc.Create(ctx, &dto.CreateAuditRequest{DepartmentID: other.DepartmentID}, callerOf(f.auditor))
	require.NoError(t, err)

	_, total, err := svc.List(ctx, &dto.AuditListRequest{}, callerOf(f.auditor))
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	list, total, err := svc.List(ctx, &dto.AuditListRequest{}, callerOf(f.manager))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, f.dept.DepartmentID, list[0].DepartmentID)

	_, _, err = svc.List(ctx, &dto.AuditListRequest{DepartmentID: other.DepartmentID}, callerOf(f.manager))
	assert.ErrorIs(t, err, ErrDepartmentOutsideScope)

	// worker 只能看到自己执行的审核
	_, total, err = svc.List(ctx, &dto.AuditListRequest{}, callerOf(f.worker))
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}
