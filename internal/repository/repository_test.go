package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxfrank76/5s-system/internal/model"
	"github.com/maxfrank76/5s-system/internal/repository"
	"github.com/maxfrank76/5s-system/internal/testutil"
	pkgerrors "github.com/maxfrank76/5s-system/pkg/errors"
)

func TestDepartment_SubtreeIDs(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewRepository(db)
	ctx := context.Background()

	root := testutil.CreateDepartment(t, db, "Завод", model.DepartmentTypeProduction, nil)
	shop := testutil.CreateDepartment(t, db, "Цех 1", model.DepartmentTypeProduction, &root.DepartmentID)
	line := testutil.CreateDepartment(t, db, "Линия A", model.DepartmentTypeProduction, &shop.DepartmentID)
	other := testutil.CreateDepartment(t, db, "Склад", model.DepartmentTypeWarehouse, nil)

	ids, err := repo.Department.SubtreeIDs(ctx, root.DepartmentID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{root.DepartmentID, shop.DepartmentID, line.DepartmentID}, ids)
	assert.NotContains(t, ids, other.DepartmentID)

	n, err := repo.Department.CountChildren(ctx, root.DepartmentID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestDepartment_OptimisticLock(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewRepository(db)
	ctx := context.Background()

	d := testutil.CreateDepartment(t, db, "Цех", model.DepartmentTypeProduction, nil)
	copy1, _ := repo.Department.GetByID(ctx, d.DepartmentID)
	copy2, _ := repo.Department.GetByID(ctx, d.DepartmentID)
	require.Equal(t, 1, copy1.Version)

	copy1.Name = "Цех 2"
	require.NoError(t, repo.Department.Update(ctx, copy1))
	assert.Equal(t, 2, copy1.Version)

	copy2.Name = "Цех 3"
	assert.ErrorIs(t, repo.Department.Update(ctx, copy2), pkgerrors.ErrOptimisticLock)
}

func TestChecklist_ResolveNewestActive(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewRepository(db)
	ctx := context.Background()

	older := testutil.CreateChecklist(t, db, model.ChecklistTypeSelfCheck, model.DepartmentTypeProduction, 2, 2)
	time.Sleep(5 * time.Millisecond)
	newer := testutil.CreateChecklist(t, db, model.ChecklistTypeSelfCheck, model.DepartmentTypeProduction, 5, 4)
	testutil.CreateChecklist(t, db, model.ChecklistTypeAudit, model.DepartmentTypeProduction, 1, 1)

	got, err := repo.Checklist.Resolve(ctx, model.ChecklistTypeSelfCheck, model.DepartmentTypeProduction)
	require.NoError(t, err)
	assert.Equal(t, newer.ChecklistID, got.ChecklistID)
	require.Len(t, got.Groups, 5)
	for i, g := range got.Groups {
		assert.Equal(t, i, g.OrderIndex)
		require.Len(t, g.Criteria, 4)
		for j, c := range g.Criteria {
			assert.Equal(t, j, c.OrderIndex)
		}
	}

	// 停用最新清单后回退到旧清单
	require.NoError(t, repo.Checklist.UpdateFields(ctx, newer.ChecklistID, map[string]interface{}{"is_active": false}))
	got, err = repo.Checklist.Resolve(ctx, model.ChecklistTypeSelfCheck, model.DepartmentTypeProduction)
	require.NoError(t, err)
	assert.Equal(t, older.ChecklistID, got.ChecklistID)

	_, err = repo.Checklist.Resolve(ctx, model.ChecklistTypeSelfCheck, model.DepartmentTypeOffice)
	assert.Error(t, err)
}

func TestChecklist_NextOrder(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewRepository(db)
	ctx := context.Background()

	cl := testutil.CreateChecklist(t, db, model.ChecklistTypeAudit, model.DepartmentTypeQuality, 3, 2)
	n, err := repo.Checklist.NextGroupOrder(ctx, cl.ChecklistID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = repo.Checklist.NextCriterionOrder(ctx, cl.Groups[0].GroupID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.Checklist.NextGroupOrder(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestAudit_UpsertAnswers(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewRepository(db)
	ctx := context.Background()

	dept := testutil.CreateDepartment(t, db, "Цех", model.DepartmentTypeProduction, nil)
	auditor := testutil.CreateUser(t, db, "auditor1", model.RoleAuditor, nil)
	cl := testutil.CreateChecklist(t, db, model.ChecklistTypeAudit, model.DepartmentTypeProduction, 1, 2)
	crit := testutil.CriterionIDs(cl)

	audit := &model.Audit{
		AuditorID:    auditor.UserID,
		DepartmentID: dept.DepartmentID,
		ChecklistID:  cl.ChecklistID,
		AuditType:    model.AuditTypePlanned,
		Status:       model.AuditStatusDraft,
		AuditDate:    time.Now(),
	}
	require.NoError(t, repo.Audit.Create(ctx, audit))

	require.NoError(t, repo.Audit.UpsertAnswers(ctx, []model.AuditAnswer{
		{AuditID: audit.AuditID, CriterionID: crit[0], Score: 2},
		{AuditID: audit.AuditID, CriterionID: crit[1], Score: 3},
	}))
	require.NoError(t, repo.Audit.UpsertAnswers(ctx, []model.AuditAnswer{
		{AuditID: audit.AuditID, CriterionID: crit[0], Score: 5, Notes: "исправлено"},
	}))

	answers, err := repo.Audit.ListAnswers(ctx, audit.AuditID)
	require.NoError(t, err)
	require.Len(t, answers, 2)
	scores := map[string]int{}
	for _, a := range answers {
		scores[a.CriterionID] = a.Score
	}
	assert.Equal(t, 5, scores[crit[0]])
	assert.Equal(t, 3, scores[crit[1]])
}

func TestRemark_OptimisticLockAndOverdue(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewRepository(db)
	ctx := context.Background()

	dept := testutil.CreateDepartment(t, db, "Цех", model.DepartmentTypeProduction, nil)
	auditor := testutil.CreateUser(t, db, "auditor1", model.RoleAuditor, nil)

	past := time.Now().Add(-48 * time.Hour)
	future := time.Now().Add(48 * time.Hour)
	overdue := &model.Remark{AuditID: "a1", DepartmentID: dept.DepartmentID, Description: "грязь",
		CreatedByID: auditor.UserID, Status: model.RemarkStatusIdentified, DueDate: &past}
	fresh := &model.Remark{AuditID: "a1", DepartmentID: dept.DepartmentID, Description: "мусор",
		CreatedByID: auditor.UserID, Status: model.RemarkStatusIdentified, DueDate: &future}
	require.NoError(t, repo.Remark.Create(ctx, overdue))
	require.NoError(t, repo.Remark.Create(ctx, fresh))

	now := time.Now()
	list, total, err := repo.Remark.List(ctx, repository.RemarkFilter{OverdueAt: &now}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, overdue.RemarkID, list[0].RemarkID)

	c1, _ := repo.Remark.GetByID(ctx, fresh.RemarkID)
	c2, _ := repo.Remark.GetByID(ctx, fresh.RemarkID)
	c1.Status = model.RemarkStatusAssigned
	require.NoError(t, repo.Remark.Update(ctx, c1))
	c2.Status = model.RemarkStatusClosed
	assert.ErrorIs(t, repo.Remark.Update(ctx, c2), pkgerrors.ErrOptimisticLock)
}

func TestDashboard_Counts(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewRepository(db)
	ctx := context.Background()

	d1 := testutil.CreateDepartment(t, db, "Цех", model.DepartmentTypeProduction, nil)
	d2 := testutil.CreateDepartment(t, db, "Склад", model.DepartmentTypeWarehouse, nil)
	worker := testutil.CreateUser(t, db, "worker1", model.RoleWorker, &d1.DepartmentID)

	score := 80.0
	done := time.Now()
	require.NoError(t, db.Create(&model.SelfCheck{UserID: worker.UserID, DepartmentID: d1.DepartmentID,
		ChecklistID: "c", CheckDate: done, IsCompleted: true, TotalScore: &score, CompletedAt: &done}).Error)
	require.NoError(t, db.Create(&model.SelfCheck{UserID: worker.UserID, DepartmentID: d2.DepartmentID,
		ChecklistID: "c", CheckDate: done}).Error)
	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Create(&model.Remark{AuditID: "a", DepartmentID: d1.DepartmentID, Description: "x",
		CreatedByID: worker.UserID, Status: model.RemarkStatusAssigned, DueDate: &past}).Error)
	require.NoError(t, db.Create(&model.Remark{AuditID: "a", DepartmentID: d1.DepartmentID, Description: "y",
		CreatedByID: worker.UserID, Status: model.RemarkStatusClosed}).Error)

	all, err := repo.Dashboard.Counts(ctx, nil, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 2, all.SelfChecks)
	assert.EqualValues(t, 1, all.CompletedSelfChecks)
	assert.EqualValues(t, 2, all.Remarks)
	assert.EqualValues(t, 1, all.ResolvedRemarks)
	assert.EqualValues(t, 1, all.OpenRemarks)
	assert.EqualValues(t, 1, all.OverdueRemarks)

	scoped, err := repo.Dashboard.Counts(ctx, []string{d2.DepartmentID}, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, scoped.SelfChecks)
	assert.EqualValues(t, 0, scoped.Remarks)

	aggs, err := repo.Dashboard.SelfCheckAggregates(ctx)
	require.NoError(t, err)
	require.Len(t, aggs, 2)
	for _, a := range aggs {
		if a.DepartmentID == d1.DepartmentID {
			assert.EqualValues(t, 1, a.Count)
			require.NotNil(t, a.Average)
			assert.InDelta(t, 80.0, *a.Average, 0.001)
		} else {
			// 未完成的自查不计数
			assert.EqualValues(t, 0, a.Count)
			assert.Nil(t, a.Average)
		}
	}
}

func TestRepository_TransactionRollback(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewRepository(db)
	ctx := context.Background()

	var createdID string
	err := repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		d := &model.Department{Name: "Временный", IsActive: true}
		if err := txRepo.Department.Create(ctx, d); err != nil {
			return err
		}
		createdID = d.DepartmentID
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	_, err = repo.Department.GetByID(ctx, createdID)
	assert.Error(t, err)
}
