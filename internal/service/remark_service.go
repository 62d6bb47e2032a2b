package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/maxfrank76/5s-system/internal/dto"
	"github.com/maxfrank76/5s-system/internal/model"
	"github.com/maxfrank76/5s-system/internal/repository"
	"github.com/maxfrank76/5s-system/pkg/metrics"
	"github.com/maxfrank76/5s-system/pkg/redis"
	"github.com/maxfrank76/5s-system/pkg/sanitize"
)

// ── 问题模块业务错误 ──

var (
	ErrRemarkNotFound      = errors.New("问题不存在")
	ErrInvalidTransition   = errors.New("当前状态不允许该操作")
	ErrAssigneeNotFound    = errors.New("被指派人不存在或已停用")
	ErrCriterionNotInAudit = errors.New("准则不属于该审核的检查清单")
	ErrDueDateInPast       = errors.New("整改期限不能早于今天")
)

// RemarkService 问题业务接口
type RemarkService interface {
	Create(ctx context.Context, auditID string, req *dto.CreateRemarkRequest, caller Caller) (*dto.RemarkResponse, error)
	GetByID(ctx context.Context, id string, caller Caller) (*dto.RemarkResponse, error)
	List(ctx context.Context, req *dto.RemarkListRequest, caller Caller) ([]dto.RemarkResponse, int64, error)

	// 状态流转：identified → assigned → resolved → closed，resolved 可退回 assigned
	Assign(ctx context.Context, id string, req *dto.AssignRemarkRequest, caller Caller) (*dto.RemarkResponse, error)
	Resolve(ctx context.Context, id string, req *dto.ResolveRemarkRequest, caller Caller) (*dto.RemarkResponse, error)
	Close(ctx context.Context, id string, req *dto.RemarkTransitionRequest, caller Caller) (*dto.RemarkResponse, error)
	Reopen(ctx context.Context, id string, req *dto.RemarkTransitionRequest, caller Caller) (*dto.RemarkResponse, error)
}

type remarkService struct {
	repo    *repository.Repository
	rdb     *redis.Client
	baseURL string
	logger  *zap.Logger
}

// NewRemarkService 创建 RemarkService 实例
func NewRemarkService(repo *repository.Repository, rdb *redis.Client, baseURL string, logger *zap.Logger) RemarkService {
	return &remarkService{repo: repo, rdb: rdb, baseURL: baseURL, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *remarkService) Create(ctx context.Context, auditID string, req *dto.CreateRemarkRequest, caller Caller) (*dto.RemarkResponse, error) {
	audit, err := s.repo.Audit.GetByID(ctx, auditID)
	if err != nil {
		return nil, notFound(s.logger, err, ErrAuditNotFound, "查询审核失败", zap.String("id", auditID))
	}
	if audit.AuditorID != caller.UserID {
		if err := s.checkDepartmentScope(ctx, caller, audit.DepartmentID); err != nil {
			return nil, err
		}
	}

	if req.CriterionID != nil {
		cl, err := s.repo.Checklist.GetIncludingDeleted(ctx, audit.ChecklistID)
		if err != nil {
			return nil, notFound(s.logger, err, ErrChecklistNotFound, "查询检查清单失败", zap.String("id", audit.ChecklistID))
		}
		if !cl.CriterionIDs()[*req.CriterionID] {
			return nil, ErrCriterionNotInAudit
		}
	}

	now := time.Now()
	due, err := s.dueDate(ctx, req.DueDate, now)
	if err != nil {
		return nil, err
	}

	remark := &model.Remark{
		AuditID:      audit.AuditID,
		DepartmentID: audit.DepartmentID,
		CriterionID:  req.CriterionID,
		Description:  sanitize.Text(req.Description),
		CreatedByID:  caller.UserID,
		Status:       model.RemarkStatusIdentified,
		DueDate:      &due,
	}
	if req.AssignedToID != nil {
		if err := s.checkAssignee(ctx, *req.AssignedToID); err != nil {
			return nil, err
		}
		remark.AssignedToID = req.AssignedToID
		remark.AssignedAt = &now
		remark.Status = model.RemarkStatusAssigned
	}
	remark.CreatedBy = &caller.UserID
	remark.UpdatedBy = &caller.UserID

	if err := s.repo.Remark.Create(ctx, remark); err != nil {
		s.logger.Error("创建问题失败", zap.String("audit_id", auditID), zap.Error(err))
		return nil, err
	}
	metrics.RemarkTransitions.WithLabelValues(remark.Status).Inc()
	invalidateDashboard(ctx, s.rdb, s.logger)

	return s.reload(ctx, remark.RemarkID)
}

// ────────────────────── GetByID / List ──────────────────────

func (s *remarkService) GetByID(ctx context.Context, id string, caller Caller) (*dto.RemarkResponse, error) {
	remark, err := s.repo.Remark.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(s.logger, err, ErrRemarkNotFound, "查询问题失败", zap.String("id", id))
	}
	if !s.canView(ctx, remark, caller) {
		return nil, ErrNoPermission
	}
	return toRemarkResponse(remark, s.baseURL, time.Now()), nil
}

func (s *remarkService) List(ctx context.Context, req *dto.RemarkListRequest, caller Caller) ([]dto.RemarkResponse, int64, error) {
	scope, err := resolveScope(ctx, s.repo, caller)
	if err != nil {
		s.logger.Error("计算数据范围失败", zap.Error(err))
		return nil, 0, err
	}

	now := time.Now()
	filter := repository.RemarkFilter{
		Status:  req.Status,
		AuditID: req.AuditID,
	}
	if req.AssignedToMe || scope.UserID != "" {
		// worker 只能看到指派给自己的问题
		filter.AssignedToID = caller.UserID
	}
	if scope.UserID == "" {
		ids, ok := scope.narrow(req.DepartmentID)
		if !ok {
			return nil, 0, ErrDepartmentOutsideScope
		}
		filter.DepartmentIDs = ids
	}
	if req.Overdue {
		filter.OverdueAt = &now
	}

	list, total, err := s.repo.Remark.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出问题失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.RemarkResponse, 0, len(list))
	for i := range list {
		result = append(result, *toRemarkResponse(&list[i], s.baseURL, now))
	}
	return result, total, nil
}

// ────────────────────── 状态流转 ──────────────────────

func (s *remarkService) Assign(ctx context.Context, id string, req *dto.AssignRemarkRequest, caller Caller) (*dto.RemarkResponse, error) {
	remark, err := s.load(ctx, id, req.Version)
	if err != nil {
		return nil, err
	}
	if !caller.Is(model.RoleManager, model.RoleAuditor) {
		return nil, ErrNoPermission
	}
	if !s.canView(ctx, remark, caller) {
		return nil, ErrNoPermission
	}
	if remark.Status != model.RemarkStatusIdentified {
		return nil, ErrInvalidTransition
	}
	if err := s.checkAssignee(ctx, req.AssignedToID); err != nil {
		return nil, err
	}

	now := time.Now()
	if req.DueDate != "" {
		due, err := s.dueDate(ctx, req.DueDate, now)
		if err != nil {
			return nil, err
		}
		remark.DueDate = &due
	}
	assignee := req.AssignedToID
	remark.AssignedToID = &assignee
	remark.AssignedAt = &now
	remark.Status = model.RemarkStatusAssigned

	return s.save(ctx, remark, caller)
}

func (s *remarkService) Resolve(ctx context.Context, id string, req *dto.ResolveRemarkRequest, caller Caller) (*dto.RemarkResponse, error) {
	remark, err := s.load(ctx, id, req.Version)
	if err != nil {
		return nil, err
	}
	isAssignee := remark.AssignedToID != nil && *remark.AssignedToID == caller.UserID
	if !isAssignee && !(caller.Is(model.RoleManager) && s.canView(ctx, remark, caller)) {
		return nil, ErrNoPermission
	}
	if remark.Status != model.RemarkStatusAssigned {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	remark.ResolvedAt = &now
	remark.ResolutionNote = sanitize.Text(req.ResolutionNote)
	remark.Status = model.RemarkStatusResolved

	return s.save(ctx, remark, caller)
}

func (s *remarkService) Close(ctx context.Context, id string, req *dto.RemarkTransitionRequest, caller Caller) (*dto.RemarkResponse, error) {
	remark, err := s.load(ctx, id, req.Version)
	if err != nil {
		return nil, err
	}
	if !s.canVerify(remark, caller) {
		return nil, ErrNoPermission
	}
	if remark.Status != model.RemarkStatusResolved {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	remark.ClosedAt = &now
	remark.Status = model.RemarkStatusClosed

	return s.save(ctx, remark, caller)
}

func (s *remarkService) Reopen(ctx context.Context, id string, req *dto.RemarkTransitionRequest, caller Caller) (*dto.RemarkResponse, error) {
	remark, err := s.load(ctx, id, req.Version)
	if err != nil {
		return nil, err
	}
	if !s.canVerify(remark, caller) {
		return nil, ErrNoPermission
	}
	if remark.Status != model.RemarkStatusResolved {
		return nil, ErrInvalidTransition
	}

	remark.ResolvedAt = nil
	remark.Status = model.RemarkStatusAssigned

	return s.save(ctx, remark, caller)
}

// ── 内部辅助方法 ──

// load 读取问题；客户端携带 version 时以其为准参与乐观锁
func (s *remarkService) load(ctx context.Context, id string, version int) (*model.Remark, error) {
	remark, err := s.repo.Remark.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(s.logger, err, ErrRemarkNotFound, "查询问题失败", zap.String("id", id))
	}
	if version > 0 {
		remark.Version = version
	}
	return remark, nil
}

func (s *remarkService) save(ctx context.Context, remark *model.Remark, caller Caller) (*dto.RemarkResponse, error) {
	remark.UpdatedBy = &caller.UserID
	if err := s.repo.Remark.Update(ctx, remark); err != nil {
		s.logger.Warn("更新问题失败", zap.String("id", remark.RemarkID), zap.Error(err))
		return nil, err
	}
	metrics.RemarkTransitions.WithLabelValues(remark.Status).Inc()
	invalidateDashboard(ctx, s.rdb, s.logger)
	return s.reload(ctx, remark.RemarkID)
}

func (s *remarkService) reload(ctx context.Context, id string) (*dto.RemarkResponse, error) {
	remark, err := s.repo.Remark.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(s.logger, err, ErrRemarkNotFound, "查询问题失败", zap.String("id", id))
	}
	return toRemarkResponse(remark, s.baseURL, time.Now()), nil
}

// canView 创建人、被指派人或部门范围内的调用者可见
func (s *remarkService) canView(ctx context.Context, remark *model.Remark, caller Caller) bool {
	if remark.CreatedByID == caller.UserID {
		return true
	}
	if remark.AssignedToID != nil && *remark.AssignedToID == caller.UserID {
		return true
	}
	scope, err := resolveScope(ctx, s.repo, caller)
	if err != nil {
		s.logger.Error("计算数据范围失败", zap.Error(err))
		return false
	}
	return scope.allowsDepartment(remark.DepartmentID)
}

// canVerify 关闭或退回由审核员或问题创建人执行
func (s *remarkService) canVerify(remark *model.Remark, caller Caller) bool {
	return remark.CreatedByID == caller.UserID || caller.Is(model.RoleAuditor)
}

func (s *remarkService) checkAssignee(ctx context.Context, userID string) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		return notFound(s.logger, err, ErrAssigneeNotFound, "查询被指派人失败", zap.String("user_id", userID))
	}
	if !user.IsActive {
		return ErrAssigneeNotFound
	}
	return nil
}

func (s *remarkService) checkDepartmentScope(ctx context.Context, caller Caller, departmentID string) error {
	scope, err := resolveScope(ctx, s.repo, caller)
	if err != nil {
		s.logger.Error("计算数据范围失败", zap.Error(err))
		return err
	}
	if !scope.allowsDepartment(departmentID) {
		return ErrDepartmentOutsideScope
	}
	return nil
}

// dueDate 未指定时取 now + remark_due_days
func (s *remarkService) dueDate(ctx context.Context, raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		cfg := loadSystemConfig(ctx, s.repo, s.logger)
		return now.AddDate(0, 0, cfg.RemarkDueDays), nil
	}
	due, err := parseDate(raw)
	if err != nil {
		return time.Time{}, err
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	if due.Before(today) {
		return time.Time{}, ErrDueDateInPast
	}
	return due, nil
}
