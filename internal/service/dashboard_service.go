package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/maxfrank76/5s-system/internal/dto"
	"github.com/maxfrank76/5s-system/internal/repository"
	"github.com/maxfrank76/5s-system/pkg/metrics"
	"github.com/maxfrank76/5s-system/pkg/redis"
	"github.com/maxfrank76/5s-system/pkg/scoring"
)

const (
	dashboardCachePrefix = "dashboard:"
	recentActivityLimit  = 5
)

// DashboardService 仪表盘统计接口
type DashboardService interface {
	Stats(ctx context.Context, caller Caller) (*dto.DashboardStatsResponse, error)
	Departments(ctx context.Context, caller Caller) ([]dto.DepartmentStatResponse, error)
	Recent(ctx context.Context, caller Caller) (*dto.RecentActivityResponse, error)
}

type dashboardService struct {
	repo     *repository.Repository
	rdb      *redis.Client // 可为 nil，此时不缓存
	cacheTTL time.Duration
	baseURL  string
	logger   *zap.Logger
}

// NewDashboardService 创建 DashboardService 实例
func NewDashboardService(repo *repository.Repository, rdb *redis.Client, cacheTTL time.Duration, baseURL string, logger *zap.Logger) DashboardService {
	return &dashboardService{repo: repo, rdb: rdb, cacheTTL: cacheTTL, baseURL: baseURL, logger: logger}
}

// invalidateDashboard 数据变更后清除全部仪表盘缓存，失败只记录日志
func invalidateDashboard(ctx context.Context, rdb *redis.Client, logger *zap.Logger) {
	if rdb == nil {
		return
	}
	if err := rdb.DeleteByPrefix(ctx, dashboardCachePrefix); err != nil {
		logger.Warn("清除仪表盘缓存失败", zap.Error(err))
	}
}

// ────────────────────── Stats ──────────────────────

func (s *dashboardService) Stats(ctx context.Context, caller Caller) (*dto.DashboardStatsResponse, error) {
	ids, empty, err := s.departmentIDs(ctx, caller)
	if err != nil {
		return nil, err
	}
	if empty {
		return &dto.DashboardStatsResponse{}, nil
	}

	key := dashboardCachePrefix + "stats:" + scopeKey(ids)
	if s.rdb != nil && s.cacheTTL > 0 {
		var cached dto.DashboardStatsResponse
		err := s.rdb.GetJSON(ctx, key, &cached)
		if err == nil {
			metrics.DashboardCache.WithLabelValues("hit").Inc()
			return &cached, nil
		}
		if !errors.Is(err, redis.ErrCacheMiss) {
			s.logger.Warn("读取仪表盘缓存失败", zap.Error(err))
		}
		metrics.DashboardCache.WithLabelValues("miss").Inc()
	}

	counts, err := s.repo.Dashboard.Counts(ctx, ids, time.Now())
	if err != nil {
		s.logger.Error("统计仪表盘数据失败", zap.Error(err))
		return nil, err
	}
	resp := dto.DashboardStatsResponse(*counts)

	if s.rdb != nil && s.cacheTTL > 0 {
		if err := s.rdb.SetJSON(ctx, key, resp, s.cacheTTL); err != nil {
			s.logger.Warn("写入仪表盘缓存失败", zap.Error(err))
		}
	}
	return &resp, nil
}

// ────────────────────── Departments ──────────────────────

func (s *dashboardService) Departments(ctx context.Context, caller Caller) ([]dto.DepartmentStatResponse, error) {
	ids, empty, err := s.departmentIDs(ctx, caller)
	if err != nil {
		return nil, err
	}
	if empty {
		return []dto.DepartmentStatResponse{}, nil
	}
	return departmentStats(ctx, s.repo, s.logger, ids)
}

// departmentStats 按部门合并自查、审核与未关闭问题的聚合；ids 为空表示全部部门
func departmentStats(ctx context.Context, repo *repository.Repository, logger *zap.Logger, ids []string) ([]dto.DepartmentStatResponse, error) {
	depts, err := repo.Department.List(ctx)
	if err != nil {
		logger.Error("列出部门失败", zap.Error(err))
		return nil, err
	}
	selfChecks, err := repo.Dashboard.SelfCheckAggregates(ctx)
	if err != nil {
		logger.Error("统计自查数据失败", zap.Error(err))
		return nil, err
	}
	audits, err := repo.Dashboard.AuditAggregates(ctx)
	if err != nil {
		logger.Error("统计审核数据失败", zap.Error(err))
		return nil, err
	}
	openRemarks, err := repo.Dashboard.OpenRemarkCounts(ctx)
	if err != nil {
		logger.Error("统计未关闭问题失败", zap.Error(err))
		return nil, err
	}

	allowed := make(map[string]bool, len(ids))
	for _, id := range ids {
		allowed[id] = true
	}
	scIndex := indexAggregates(selfChecks)
	auditIndex := indexAggregates(audits)

	result := make([]dto.DepartmentStatResponse, 0, len(depts))
	for _, d := range depts {
		if len(ids) > 0 && !allowed[d.DepartmentID] {
			continue
		}
		item := dto.DepartmentStatResponse{
			DepartmentID:   d.DepartmentID,
			DepartmentName: d.Name,
			DepartmentType: d.DepartmentType,
			OpenRemarks:    openRemarks[d.DepartmentID],
		}
		if agg, ok := scIndex[d.DepartmentID]; ok {
			item.SelfCheckCount = agg.Count
			item.SelfCheckAverage = roundPtr(agg.Average)
		}
		if agg, ok := auditIndex[d.DepartmentID]; ok {
			item.AuditCount = agg.Count
			item.AuditAverage = roundPtr(agg.Average)
		}
		result = append(result, item)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].DepartmentName < result[j].DepartmentName })
	return result, nil
}

func indexAggregates(rows []repository.DepartmentAggregate) map[string]repository.DepartmentAggregate {
	out := make(map[string]repository.DepartmentAggregate, len(rows))
	for _, row := range rows {
		out[row.DepartmentID] = row
	}
	return out
}

func roundPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := scoring.Round2(*v)
	return &r
}

// ────────────────────── Recent ──────────────────────

func (s *dashboardService) Recent(ctx context.Context, caller Caller) (*dto.RecentActivityResponse, error) {
	resp := &dto.RecentActivityResponse{
		SelfChecks: []dto.SelfCheckResponse{},
		Audits:     []dto.AuditResponse{},
	}
	ids, empty, err := s.departmentIDs(ctx, caller)
	if err != nil {
		return nil, err
	}
	if empty {
		return resp, nil
	}

	selfChecks, err := s.repo.Dashboard.RecentSelfChecks(ctx, ids, recentActivityLimit)
	if err != nil {
		s.logger.Error("查询最近自查失败", zap.Error(err))
		return nil, err
	}
	audits, err := s.repo.Dashboard.RecentAudits(ctx, ids, recentActivityLimit)
	if err != nil {
		s.logger.Error("查询最近审核失败", zap.Error(err))
		return nil, err
	}

	now := time.Now()
	for i := range selfChecks {
		resp.SelfChecks = append(resp.SelfChecks, *toSelfCheckResponse(&selfChecks[i]))
	}
	for i := range audits {
		resp.Audits = append(resp.Audits, *toAuditResponse(&audits[i], s.baseURL, now))
	}
	return resp, nil
}

// ── 内部辅助方法 ──

// departmentIDs 仪表盘的部门范围：nil 表示全部；worker 按本部门统计，
// 未分配部门的 worker 返回 empty=true
func (s *dashboardService) departmentIDs(ctx context.Context, caller Caller) (ids []string, empty bool, err error) {
	scope, err := resolveScope(ctx, s.repo, caller)
	if err != nil {
		s.logger.Error("计算数据范围失败", zap.Error(err))
		return nil, false, err
	}
	switch {
	case scope.All:
		return nil, false, nil
	case len(scope.DepartmentIDs) > 0:
		return scope.DepartmentIDs, false, nil
	case caller.DepartmentID != "":
		return []string{caller.DepartmentID}, false, nil
	default:
		return nil, true, nil
	}
}

func scopeKey(ids []string) string {
	if len(ids) == 0 {
		return "all"
	}
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}
