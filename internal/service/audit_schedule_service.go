package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/maxfrank76/5s-system/internal/dto"
	"github.com/maxfrank76/5s-system/internal/model"
	"github.com/maxfrank76/5s-system/internal/repository"
	"github.com/maxfrank76/5s-system/pkg/sanitize"
)

// ── 审核计划模块业务错误 ──

var (
	ErrAuditorNotFound     = errors.New("审核员不存在或已停用")
	ErrScheduleClosed      = errors.New("审核计划已完成或已取消，不能修改")
	ErrScheduleDateRange   = errors.New("开始日期不能晚于结束日期")
	ErrScheduleInvalidRole = errors.New("指定的用户不是审核员")
)

// AuditScheduleService 审核计划业务接口
type AuditScheduleService interface {
	Create(ctx context.Context, req *dto.CreateAuditScheduleRequest, caller Caller) (*dto.AuditScheduleResponse, error)
	GetByID(ctx context.Context, id string, caller Caller) (*dto.AuditScheduleResponse, error)
	List(ctx context.Context, req *dto.AuditScheduleListRequest, caller Caller) ([]dto.AuditScheduleResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateAuditScheduleRequest, caller Caller) (*dto.AuditScheduleResponse, error)
	Cancel(ctx context.Context, id string, caller Caller) error
	// Calendar 生成未取消计划的 iCalendar 内容
	Calendar(ctx context.Context, req *dto.AuditScheduleListRequest, caller Caller) ([]byte, error)
}

type auditScheduleService struct {
	repo    *repository.Repository
	baseURL string
	logger  *zap.Logger
}

// NewAuditScheduleService 创建 AuditScheduleService 实例
func NewAuditScheduleService(repo *repository.Repository, baseURL string, logger *zap.Logger) AuditScheduleService {
	return &auditScheduleService{repo: repo, baseURL: baseURL, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *auditScheduleService) Create(ctx context.Context, req *dto.CreateAuditScheduleRequest, caller Caller) (*dto.AuditScheduleResponse, error) {
	date, err := parseDate(req.ScheduledDate)
	if err != nil {
		return nil, err
	}
	if err := s.checkDepartment(ctx, req.DepartmentID, caller); err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, req.AuditorID, req.ChecklistID); err != nil {
		return nil, err
	}

	auditType := req.AuditType
	if auditType == "" {
		auditType = model.AuditTypePlanned
	}

	sched := &model.AuditSchedule{
		DepartmentID:  req.DepartmentID,
		AuditorID:     req.AuditorID,
		ChecklistID:   req.ChecklistID,
		ScheduledDate: date,
		AuditType:     auditType,
		Status:        model.ScheduleStatusScheduled,
		Notes:         sanitize.Text(req.Notes),
	}
	sched.CreatedBy = &caller.UserID
	sched.UpdatedBy = &caller.UserID

	if err := s.repo.AuditSchedule.Create(ctx, sched); err != nil {
		s.logger.Error("创建审核计划失败", zap.Error(err))
		return nil, err
	}
	return s.reload(ctx, sched.ScheduleID)
}

// ────────────────────── GetByID / List ──────────────────────

func (s *auditScheduleService) GetByID(ctx context.Context, id string, caller Caller) (*dto.AuditScheduleResponse, error) {
	sched, err := s.repo.AuditSchedule.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(s.logger, err, ErrScheduleNotFound, "查询审核计划失败", zap.String("id", id))
	}
	if !s.visible(ctx, sched, caller) {
		return nil, ErrNoPermission
	}
	return toAuditScheduleResponse(sched), nil
}

func (s *auditScheduleService) List(ctx context.Context, req *dto.AuditScheduleListRequest, caller Caller) ([]dto.AuditScheduleResponse, error) {
	list, err := s.query(ctx, req, caller, false)
	if err != nil {
		return nil, err
	}
	result := make([]dto.AuditScheduleResponse, 0, len(list))
	for i := range list {
		result = append(result, *toAuditScheduleResponse(&list[i]))
	}
	return result, nil
}

// query 将日期区间（To 含当天）与数据范围转换为仓储筛选条件
func (s *auditScheduleService) query(ctx context.Context, req *dto.AuditScheduleListRequest, caller Caller, excludeCancelled bool) ([]model.AuditSchedule, error) {
	filter := repository.AuditScheduleFilter{
		AuditorID:        req.AuditorID,
		Status:           req.Status,
		ExcludeCancelled: excludeCancelled,
	}
	if req.From != "" {
		from, err := parseDate(req.From)
		if err != nil {
			return nil, err
		}
		filter.From = &from
	}
	if req.To != "" {
		to, err := parseDate(req.To)
		if err != nil {
			return nil, err
		}
		to = to.AddDate(0, 0, 1)
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, ErrScheduleDateRange
	}

	scope, err := resolveScope(ctx, s.repo, caller)
	if err != nil {
		s.logger.Error("计算数据范围失败", zap.Error(err))
		return nil, err
	}
	if scope.UserID != "" {
		// 无部门范围时只看分配给自己的计划
		filter.AuditorID = scope.UserID
	} else {
		ids, ok := scope.narrow(req.DepartmentID)
		if !ok {
			return nil, ErrDepartmentOutsideScope
		}
		filter.DepartmentIDs = ids
	}

	list, err := s.repo.AuditSchedule.List(ctx, filter)
	if err != nil {
		s.logger.Error("列出审核计划失败", zap.Error(err))
		return nil, err
	}
	return list, nil
}

// ────────────────────── Update / Cancel ──────────────────────

func (s *auditScheduleService) Update(ctx context.Context, id string, req *dto.UpdateAuditScheduleRequest, caller Caller) (*dto.AuditScheduleResponse, error) {
	sched, err := s.getOpen(ctx, id, caller)
	if err != nil {
		return nil, err
	}

	if req.DepartmentID != nil && *req.DepartmentID != sched.DepartmentID {
		if err := s.checkDepartment(ctx, *req.DepartmentID, caller); err != nil {
			return nil, err
		}
		sched.DepartmentID = *req.DepartmentID
	}
	if err := s.checkRefs(ctx, req.AuditorID, req.ChecklistID); err != nil {
		return nil, err
	}
	if req.AuditorID != nil {
		sched.AuditorID = req.AuditorID
	}
	if req.ChecklistID != nil {
		sched.ChecklistID = req.ChecklistID
	}
	if req.ScheduledDate != nil {
		date, err := parseDate(*req.ScheduledDate)
		if err != nil {
			return nil, err
		}
		sched.ScheduledDate = date
	}
	if req.AuditType != nil {
		sched.AuditType = *req.AuditType
	}
	if req.Notes != nil {
		sched.Notes = sanitize.Text(*req.Notes)
	}
	sched.UpdatedBy = &caller.UserID

	if err := s.repo.AuditSchedule.Update(ctx, sched); err != nil {
		s.logger.Error("更新审核计划失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.reload(ctx, id)
}

func (s *auditScheduleService) Cancel(ctx context.Context, id string, caller Caller) error {
	sched, err := s.getOpen(ctx, id, caller)
	if err != nil {
		return err
	}
	if err := s.repo.AuditSchedule.UpdateStatus(ctx, sched.ScheduleID, model.ScheduleStatusCancelled); err != nil {
		s.logger.Error("取消审核计划失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Calendar ──────────────────────

func (s *auditScheduleService) Calendar(ctx context.Context, req *dto.AuditScheduleListRequest, caller Caller) ([]byte, error) {
	list, err := s.query(ctx, req, caller, true)
	if err != nil {
		return nil, err
	}
	return []byte(buildScheduleCalendar(list, s.baseURL)), nil
}

// ── 内部辅助方法 ──

func (s *auditScheduleService) getOpen(ctx context.Context, id string, caller Caller) (*model.AuditSchedule, error) {
	sched, err := s.repo.AuditSchedule.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(s.logger, err, ErrScheduleNotFound, "查询审核计划失败", zap.String("id", id))
	}
	if !s.visible(ctx, sched, caller) {
		return nil, ErrNoPermission
	}
	if sched.Status == model.ScheduleStatusCompleted || sched.Status == model.ScheduleStatusCancelled {
		return nil, ErrScheduleClosed
	}
	return sched, nil
}

func (s *auditScheduleService) visible(ctx context.Context, sched *model.AuditSchedule, caller Caller) bool {
	if sched.AuditorID != nil && *sched.AuditorID == caller.UserID {
		return true
	}
	scope, err := resolveScope(ctx, s.repo, caller)
	if err != nil {
		s.logger.Error("计算数据范围失败", zap.Error(err))
		return false
	}
	return scope.allowsDepartment(sched.DepartmentID)
}

func (s *auditScheduleService) checkDepartment(ctx context.Context, departmentID string, caller Caller) error {
	if _, err := s.repo.Department.GetByID(ctx, departmentID); err != nil {
		return notFound(s.logger, err, ErrDepartmentNotFound, "查询部门失败", zap.String("id", departmentID))
	}
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

// checkRefs 审核员须为启用的 auditor（或 admin），清单须为审核清单
func (s *auditScheduleService) checkRefs(ctx context.Context, auditorID, checklistID *string) error {
	if auditorID != nil {
		user, err := s.repo.User.GetByID(ctx, *auditorID)
		if err != nil {
			return notFound(s.logger, err, ErrAuditorNotFound, "查询审核员失败", zap.String("user_id", *auditorID))
		}
		if !user.IsActive {
			return ErrAuditorNotFound
		}
		if !model.HasRole(user.Role, model.RoleAuditor) {
			return ErrScheduleInvalidRole
		}
	}
	if checklistID != nil {
		cl, err := s.repo.Checklist.GetByID(ctx, *checklistID)
		if err != nil {
			return notFound(s.logger, err, ErrChecklistNotFound, "查询检查清单失败", zap.String("id", *checklistID))
		}
		if cl.ChecklistType != model.ChecklistTypeAudit {
			return ErrChecklistTypeMismatch
		}
	}
	return nil
}

func (s *auditScheduleService) reload(ctx context.Context, id string) (*dto.AuditScheduleResponse, error) {
	sched, err := s.repo.AuditSchedule.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(s.logger, err, ErrScheduleNotFound, "查询审核计划失败", zap.String("id", id))
	}
	return toAuditScheduleResponse(sched), nil
}
