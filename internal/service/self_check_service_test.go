package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxfrank76/5s-system/internal/dto"
	"github.com/maxfrank76/5s-system/internal/model"
	"github.com/maxfrank76/5s-system/internal/testutil"
	"github.com/maxfrank76/5s-system/pkg/scoring"
)

// selfCheckFixture 生产车间 + 工人 + 2×2 自查清单
type selfCheckFixture struct {
	env       *testEnv
	svc       SelfCheckService
	dept      *model.Department
	worker    *model.User
	checklist *model.Checklist
}

func newSelfCheckFixture(t *testing.T) *selfCheckFixture {
	t.Helper()
	env := newTestEnv(t)
	dept := testutil.CreateDepartment(t, env.db, "装配车间", model.DepartmentTypeProduction, nil)
	worker := testutil.CreateUser(t, env.db, "worker1", model.RoleWorker, &dept.DepartmentID)
	cl := testutil.CreateChecklist(t, env.db, model.ChecklistTypeSelfCheck, model.DepartmentTypeProduction, 2, 2)
	return &selfCheckFixture{
		env:       env,
		svc:       NewSelfCheckService(env.repo, nil, env.logger),
		dept:      dept,
		worker:    worker,
		checklist: cl,
	}
}

func answersFor(ids []string, scores ...int) []dto.AnswerRequest {
	answers := make([]dto.AnswerRequest, 0, len(scores))
	for i, s := range scores {
		answers = append(answers, dto.AnswerRequest{CriterionID: ids[i], Score: s})
	}
	return answers
}

func TestSelfCheckStartAndSubmit(t *testing.T) {
	f := newSelfCheckFixture(t)
	ctx := context.Background()
	caller := callerOf(f.worker)

	current, err := f.svc.CurrentChecklist(ctx, caller)
	require.NoError(t, err)
	assert.Equal(t, f.checklist.ChecklistID, current.ID)
	assert.Equal(t, 4, current.CriteriaCount)

	sc, err := f.svc.Start(ctx, caller)
	require.NoError(t, err)
	assert.False(t, sc.IsCompleted)
	assert.Equal(t, f.dept.DepartmentID, sc.DepartmentID)

	_, err = f.svc.Start(ctx, caller)
	assert.ErrorIs(t, err, ErrSelfCheckInProgress)

	active, err := f.svc.Active(ctx, caller)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, sc.ID, active.ID)

	ids := testutil.CriterionIDs(f.checklist)
	result, err := f.svc.Submit(ctx, sc.ID, &dto.SubmitSelfCheckRequest{Answers: answersFor(ids, 5, 4, 3, 4)}, caller)
	require.NoError(t, err)
	assert.Equal(t, 80.0, result.TotalScore)
	assert.Equal(t, scoring.GradeGood, result.Grade)
	assert.True(t, result.Passed)
	assert.Equal(t, 80, result.PassPercent)

	_, err = f.svc.Submit(ctx, sc.ID, &dto.SubmitSelfCheckRequest{Answers: answersFor(ids, 5)}, caller)
	assert.ErrorIs(t, err, ErrSelfCheckCompleted)

	active, err = f.svc.Active(ctx, caller)
	require.NoError(t, err)
	assert.Nil(t, active)

	got, err := f.svc.GetByID(ctx, sc.ID, caller)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)
	require.NotNil(t, got.TotalScore)
	assert.Equal(t, 80.0, *got.TotalScore)
	assert.Len(t, got.Answers, 4)

	history, err := f.svc.History(ctx, caller)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSelfCheckSubmit_Validation(t *testing.T) {
	f := newSelfCheckFixture(t)
	ctx := context.Background()
	caller := callerOf(f.worker)

	sc, err := f.svc.Start(ctx, caller)
	require.NoError(t, err)
	ids := testutil.CriterionIDs(f.checklist)

	_, err = f.svc.Submit(ctx, sc.ID, &dto.SubmitSelfCheckRequest{}, caller)
	assert.ErrorIs(t, err, ErrEmptyAnswers)

	_, err = f.svc.Submit(ctx, sc.ID, &dto.SubmitSelfCheckRequest{Answers: []dto.AnswerRequest{
		{CriterionID: ids[0], Score: 6},
	}}, caller)
	assert.ErrorIs(t, err, scoring.ErrScoreOutOfRange)

	_, err = f.svc.Submit(ctx, sc.ID, &dto.SubmitSelfCheckRequest{Answers: []dto.AnswerRequest{
		{CriterionID: ids[0], Score: 3},
		{CriterionID: ids[0], Score: 4},
	}}, caller)
	assert.ErrorIs(t, err, ErrDuplicateCriterion)

	_, err = f.svc.Submit(ctx, sc.ID, &dto.SubmitSelfCheckRequest{Answers: []dto.AnswerRequest{
		{CriterionID: "00000000-0000-0000-0000-000000000000", Score: 3},
	}}, caller)
	assert.ErrorIs(t, err, ErrCriterionNotInChecklist)

	other := testutil.CreateUser(t, f.env.db, "worker2", model.RoleWorker, &f.dept.DepartmentID)
	_, err = f.svc.Submit(ctx, sc.ID, &dto.SubmitSelfCheckRequest{Answers: answersFor(ids, 5)}, callerOf(other))
	assert.ErrorIs(t, err, ErrNoPermission)

	// 部分评分允许提交，低于阈值不通过
	result, err := f.svc.Submit(ctx, sc.ID, &dto.SubmitSelfCheckRequest{Answers: answersFor(ids, 2, 3)}, caller)
	require.NoError(t, err)
	assert.Equal(t, 50.0, result.TotalScore)
	assert.Equal(t, scoring.GradeUnsatisfactory, result.Grade)
	assert.False(t, result.Passed)
}

func TestSelfCheckCancel(t *testing.T) {
	f := newSelfCheckFixture(t)
	ctx := context.Background()
	caller := callerOf(f.worker)

	sc, err := f.svc.Start(ctx, caller)
	require.NoError(t, err)

	other := testutil.CreateUser(t, f.env.db, "worker2", model.RoleWorker, &f.dept.DepartmentID)
	assert.ErrorIs(t, f.svc.Cancel(ctx, sc.ID, callerOf(other)), ErrNoPermission)

	require.NoError(t, f.svc.Cancel(ctx, sc.ID, caller))
	_, err = f.svc.GetByID(ctx, sc.ID, caller)
	assert.ErrorIs(t, err, ErrSelfCheckNotFound)

	// 取消后可以重新开始
	_, err = f.svc.Start(ctx, caller)
	assert.NoError(t, err)
}

func TestSelfCheckStart_NoDepartmentOrChecklist(t *testing.T) {
	f := newSelfCheckFixture(t)
	ctx := context.Background()

	loner := testutil.CreateUser(t, f.env.db, "loner", model.RoleWorker, nil)
	_, err := f.svc.Start(ctx, callerOf(loner))
	assert.ErrorIs(t, err, ErrUserHasNoDepartment)

	office := testutil.CreateDepartment(t, f.env.db, "行政部", model.DepartmentTypeOffice, nil)
	clerk := testutil.CreateUser(t, f.env.db, "clerk", model.RoleWorker, &office.DepartmentID)
	_, err = f.svc.Start(ctx, callerOf(clerk))
	assert.ErrorIs(t, err, ErrChecklistNotFound)
}

func TestSelfCheckList_Scope(t *testing.T) {
	f := newSelfCheckFixture(t)
	ctx := context.Background()
	ids := testutil.CriterionIDs(f.checklist)

	sub := testutil.CreateDepartment(t, f.env.db, "焊接班组", model.DepartmentTypeProduction, &f.dept.DepartmentID)
	other := testutil.CreateDepartment(t, f.env.db, "二号车间", model.DepartmentTypeProduction, nil)
	w2 := testutil.CreateUser(t, f.env.db, "worker2", model.RoleWorker, &sub.DepartmentID)
	w3 := testutil.CreateUser(t, f.env.db, "worker3", model.RoleWorker, &other.DepartmentID)
	manager := testutil.CreateUser(t, f.env.db, "manager1", model.RoleManager, &f.dept.DepartmentID)
	auditor := testutil.CreateUser(t, f.env.db, "auditor1", model.RoleAuditor, nil)

	var w3Check string
	for _, u := range []*model.User{f.worker, w2, w3} {
		sc, err := f.svc.Start(ctx, callerOf(u))
		require.NoError(t, err)
		_, err = f.svc.Submit(ctx, sc.ID, &dto.SubmitSelfCheckRequest{Answers: answersFor(ids, 4, 4)}, callerOf(u))
		require.NoError(t, err)
		if u == w3 {
			w3Check = sc.ID
		}
	}

	list, total, err := f.svc.List(ctx, &dto.SelfCheckListRequest{}, callerOf(manager))
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 2)

	_, _, err = f.svc.List(ctx, &dto.SelfCheckListRequest{DepartmentID: other.DepartmentID}, callerOf(manager))
	assert.ErrorIs(t, err, ErrNoPermission)

	_, err = f.svc.GetByID(ctx, w3Check, callerOf(manager))
	assert.ErrorIs(t, err, ErrNoPermission)

	_, total, err = f.svc.List(ctx, &dto.SelfCheckListRequest{}, callerOf(auditor))
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	// worker 只能看到本人记录
	_, total, err = f.svc.List(ctx, &dto.SelfCheckListRequest{UserID: w3.UserID}, callerOf(f.worker))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}
