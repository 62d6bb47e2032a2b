package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/maxfrank76/5s-system/internal/model"
)

// DashboardCounts 仪表盘汇总计数
type DashboardCounts struct {
	SelfChecks          int64 `json:"self_checks"`
	CompletedSelfChecks int64 `json:"completed_self_checks"`
	Audits              int64 `json:"audits"`
	CompletedAudits     int64 `json:"completed_audits"`
	Remarks             int64 `json:"remarks"`
	ResolvedRemarks     int64 `json:"resolved_remarks"`
	OpenRemarks         int64 `json:"open_remarks"`
	OverdueRemarks      int64 `json:"overdue_remarks"`
}

// DepartmentAggregate 单个部门的统计聚合（按 department_id 分组的原始结果）
// 自查与审核的 Count、Average 都只计已完成的记录
type DepartmentAggregate struct {
	DepartmentID string
	Count        int64
	Average      *float64
}

// DashboardRepository 仪表盘统计查询接口
type DashboardRepository interface {
	Counts(ctx context.Context, departmentIDs []string, now time.Time) (*DashboardCounts, error)
	SelfCheckAggregates(ctx context.Context) ([]DepartmentAggregate, error)
	AuditAggregates(ctx context.Context) ([]DepartmentAggregate, error)
	OpenRemarkCounts(ctx context.Context) (map[string]int64, error)
	RecentSelfChecks(ctx context.Context, departmentIDs []string, limit int) ([]model.SelfCheck, error)
	RecentAudits(ctx context.Context, departmentIDs []string, limit int) ([]model.Audit, error)
}

type dashboardRepo struct {
	db *gorm.DB
}

// NewDashboardRepo 创建 DashboardRepository 实例
func NewDashboardRepo(db *gorm.DB) DashboardRepository {
	return &dashboardRepo{db: db}
}

var openRemarkStatuses = []string{model.RemarkStatusIdentified, model.RemarkStatusAssigned}

func scopeDepartments(ids []string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(ids) == 0 {
			return db
		}
		return db.Where("department_id IN ?", ids)
	}
}

func (r *dashboardRepo) count(ctx context.Context, m interface{}, ids []string, query string, args ...interface{}) (int64, error) {
	var n int64
	db := r.db.WithContext(ctx).Model(m).Scopes(scopeDepartments(ids))
	if query != "" {
		db = db.Where(query, args...)
	}
	err := db.Count(&n).Error
	return n, err
}

func (r *dashboardRepo) Counts(ctx context.Context, ids []string, now time.Time) (*DashboardCounts, error) {
	var c DashboardCounts
	steps := []struct {
		dst   *int64
		model interface{}
		query string
		args  []interface{}
	}{
		{&c.SelfChecks, &model.SelfCheck{}, "", nil},
		{&c.CompletedSelfChecks, &model.SelfCheck{}, "is_completed = ?", []interface{}{true}},
		{&c.Audits, &model.Audit{}, "", nil},
		{&c.CompletedAudits, &model.Audit{}, "status = ?", []interface{}{model.AuditStatusCompleted}},
		{&c.Remarks, &model.Remark{}, "", nil},
		{&c.ResolvedRemarks, &model.Remark{}, "status IN ?", []interface{}{[]string{model.RemarkStatusResolved, model.RemarkStatusClosed}}},
		{&c.OpenRemarks, &model.Remark{}, "status IN ?", []interface{}{openRemarkStatuses}},
		{&c.OverdueRemarks, &model.Remark{}, "status IN ? AND due_date IS NOT NULL AND due_date < ?", []interface{}{openRemarkStatuses, now}},
	}
	for _, s := range steps {
		n, err := r.count(ctx, s.model, ids, s.query, s.args...)
		if err != nil {
			return nil, err
		}
		*s.dst = n
	}
	return &c, nil
}

func (r *dashboardRepo) SelfCheckAggregates(ctx context.Context) ([]DepartmentAggregate, error) {
	var rows []DepartmentAggregate
	err := r.db.WithContext(ctx).
		Model(&model.SelfCheck{}).
		Select("department_id, COUNT(total_score) AS count, AVG(total_score) AS average").
		Group("department_id").
		Scan(&rows).Error
	return rows, err
}

func (r *dashboardRepo) AuditAggregates(ctx context.Context) ([]DepartmentAggregate, error) {
	var rows []DepartmentAggregate
	err := r.db.WithContext(ctx).
		Model(&model.Audit{}).
		Select("department_id, COUNT(score_percent) AS count, AVG(score_percent) AS average").
		Group("department_id").
		Scan(&rows).Error
	return rows, err
}

func (r *dashboardRepo) OpenRemarkCounts(ctx context.Context) (map[string]int64, error) {
	var rows []DepartmentAggregate
	err := r.db.WithContext(ctx).
		Model(&model.Remark{}).
		Select("department_id, COUNT(*) AS count").
		Where("status IN ?", openRemarkStatuses).
		Group("department_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.DepartmentID] = row.Count
	}
	return out, nil
}

func (r *dashboardRepo) RecentSelfChecks(ctx context.Context, ids []string, limit int) ([]model.SelfCheck, error) {
	var list []model.SelfCheck
	err := r.db.WithContext(ctx).
		Scopes(scopeDepartments(ids)).
		Preload("User").
		Preload("Department").
		Where("is_completed = ?", true).
		Order("completed_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *dashboardRepo) RecentAudits(ctx context.Context, ids []string, limit int) ([]model.Audit, error) {
	var list []model.Audit
	err := r.db.WithContext(ctx).
		Scopes(scopeDepartments(ids)).
		Preload("Auditor").
		Preload("Department").
		Where("status = ?", model.AuditStatusCompleted).
		Order("completed_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}
