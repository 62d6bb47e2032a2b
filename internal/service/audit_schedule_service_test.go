package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxfrank76/5s-system/internal/dto"
	"github.com/maxfrank76/5s-system/internal/model"
	"github.com/maxfrank76/5s-system/internal/testutil"
)

func TestAuditScheduleCreateAndValidate(t *testing.T) {
	f := newAuditFixture(t)
	svc := NewAuditScheduleService(f.env.repo, "http://localhost:8080", f.env.logger)
	ctx := context.Background()
	admin := testutil.CreateUser(t, f.env.db, "admin", model.RoleAdmin, nil)

	sched, err := svc.Create(ctx, &dto.CreateAuditScheduleRequest{
		DepartmentID:  f.dept.DepartmentID,
		AuditorID:     &f.auditor.UserID,
		ChecklistID:   &f.checklist.ChecklistID,
		ScheduledDate: "2026-11-02",
		Notes:         "<script>x</script>季度审核",
	}, callerOf(admin))
	require.NoError(t, err)
	assert.Equal(t, "2026-11-02", sched.ScheduledDate)
	assert.Equal(t, model.ScheduleStatusScheduled, sched.Status)
	assert.Equal(t, model.AuditTypePlanned, sched.AuditType)
	assert.NotContains(t, sched.Notes, "<script>")

	_, err = svc.Create(ctx, &dto.CreateAuditScheduleRequest{
		DepartmentID:  f.dept.DepartmentID,
		AuditorID:     &f.worker.UserID,
		ScheduledDate: "2026-11-02",
	}, callerOf(admin))
	assert.ErrorIs(t, err, ErrScheduleInvalidRole)

	selfCl := testutil.CreateChecklist(t, f.env.db, model.ChecklistTypeSelfCheck, model.DepartmentTypeProduction, 1, 1)
	_, err = svc.Create(ctx, &dto.CreateAuditScheduleRequest{
		DepartmentID:  f.dept.DepartmentID,
		ChecklistID:   &selfCl.ChecklistID,
		ScheduledDate: "2026-11-02",
	}, callerOf(admin))
	assert.ErrorIs(t, err, ErrChecklistTypeMismatch)

	_, err = svc.Create(ctx, &dto.CreateAuditScheduleRequest{
		DepartmentID:  f.dept.DepartmentID,
		ScheduledDate: "02.11.2026",
	}, callerOf(admin))
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = svc.Create(ctx, &dto.CreateAuditScheduleRequest{
		DepartmentID:  "00000000-0000-0000-0000-000000000000",
		ScheduledDate: "2026-11-02",
	}, callerOf(admin))
	assert.ErrorIs(t, err, ErrDepartmentNotFound)
}

func TestAuditScheduleListRangeAndCancel(t *testing.T) {
	f := newAuditFixture(t)
	svc := NewAuditScheduleService(f.env.repo, "http://localhost:8080", f.env.logger)
	ctx := context.Background()
	caller := callerOf(f.auditor)

	var ids []string
	for _, date := range []string{"2026-11-01", "2026-11-15", "2026-11-30", "2026-12-01"} {
		sched, err := svc.Create(ctx, &dto.CreateAuditScheduleRequest{
			DepartmentID:  f.dept.DepartmentID,
			AuditorID:     &f.auditor.UserID,
			ScheduledDate: date,
		}, caller)
		require.NoError(t, err)
		ids = append(ids, sched.ID)
	}

	// To 含当天
	list, err := svc.List(ctx, &dto.AuditScheduleListRequest{From: "2026-11-01", To: "2026-11-30"}, caller)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	_, err = svc.List(ctx, &dto.AuditScheduleListRequest{From: "2026-12-01", To: "2026-11-01"}, caller)
	assert.ErrorIs(t, err, ErrScheduleDateRange)

	require.NoError(t, svc.Cancel(ctx, ids[1], caller))
	assert.ErrorIs(t, svc.Cancel(ctx, ids[1], caller), ErrScheduleClosed)
	_, err = svc.Update(ctx, ids[1], &dto.UpdateAuditScheduleRequest{Notes: strPtr("x")}, caller)
	assert.ErrorIs(t, err, ErrScheduleClosed)

	list, err = svc.List(ctx, &dto.AuditScheduleListRequest{Status: model.ScheduleStatusCancelled}, caller)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ids[1], list[0].ID)

	updated, err := svc.Update(ctx, ids[0], &dto.UpdateAuditScheduleRequest{
		ScheduledDate: strPtr("2026-11-03"),
		AuditType:     strPtr(model.AuditTypeUnscheduled),
	}, caller)
	require.NoError(t, err)
	assert.Equal(t, "2026-11-03", updated.ScheduledDate)
	assert.Equal(t, model.AuditTypeUnscheduled, updated.AuditType)

	// 其他部门的经理看不到
	other := testutil.CreateDepartment(t, f.env.db, "二号车间", model.DepartmentTypeProduction, nil)
	otherManager := testutil.CreateUser(t, f.env.db, "manager2", model.RoleManager, &other.DepartmentID)
	_, err = svc.GetByID(ctx, ids[0], callerOf(otherManager))
	assert.ErrorIs(t, err, ErrNoPermission)
	list, err = svc.List(ctx, &dto.AuditScheduleListRequest{}, callerOf(otherManager))
	require.NoError(t, err)
	assert.Empty(t, list)

	got, err := svc.GetByID(ctx, ids[0], callerOf(f.manager))
	require.NoError(t, err)
	assert.Equal(t, f.dept.Name, got.DepartmentName)
}

func TestAuditScheduleCalendar(t *testing.T) {
	f := newAuditFixture(t)
	svc := NewAuditScheduleService(f.env.repo, "http://localhost:8080", f.env.logger)
	ctx := context.Background()
	caller := callerOf(f.auditor)

	kept, err := svc.Create(ctx, &dto.CreateAuditScheduleRequest{
		DepartmentID:  f.dept.DepartmentID,
		AuditorID:     &f.auditor.UserID,
		ScheduledDate: "2026-11-05",
	}, caller)
	require.NoError(t, err)
	cancelled, err := svc.Create(ctx, &dto.CreateAuditScheduleRequest{
		DepartmentID:  f.dept.DepartmentID,
		ScheduledDate: "2026-11-06",
	}, caller)
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, cancelled.ID, caller))

	data, err := svc.Calendar(ctx, &dto.AuditScheduleListRequest{}, caller)
	require.NoError(t, err)
	ics := string(data)

	assert.True(t, strings.HasPrefix(ics, "BEGIN:VCALENDAR"))
	assert.Equal(t, 1, strings.Count(ics, "BEGIN:VEVENT"))
	assert.Contains(t, ics, kept.ID+"@5s-system")
	assert.NotContains(t, ics, cancelled.ID)
	assert.Contains(t, ics, "20261105")
	assert.Contains(t, ics, "装配车间")
}
