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
	"github.com/maxfrank76/5s-system/pkg/scoring"
)

// ── 审核模块业务错误 ──

var (
	ErrAuditNotFound          = errors.New("审核不存在")
	ErrAuditCompleted         = errors.New("审核已完成，不能修改")
	ErrAuditNoAnswers         = errors.New("审核尚无评分，不能完成")
	ErrChecklistTypeMismatch  = errors.New("检查清单类型不匹配")
	ErrScheduleNotFound       = errors.New("审核计划不存在")
	ErrScheduleNotOpen        = errors.New("审核计划不是待执行状态")
	ErrScheduleDeptMismatch   = errors.New("审核部门与审核计划不一致")
	ErrDepartmentOutsideScope = errors.New("无权访问该部门的数据")
)

// AuditService 审核业务接口
type AuditService interface {
	Create(ctx context.Context, req *dto.CreateAuditRequest, caller Caller) (*dto.AuditResponse, error)
	// SaveAnswers 按准则覆盖写入评分，可多次调用
	SaveAnswers(ctx context.Context, id string, req *dto.SaveAuditAnswersRequest, caller Caller) (*dto.AuditResponse, error)
	Complete(ctx context.Context, id string, req *dto.CompleteAuditRequest, caller Caller) (*dto.CompleteAuditResponse, error)
	GetByID(ctx context.Context, id string, caller Caller) (*dto.AuditResponse, error)
	List(ctx context.Context, req *dto.AuditListRequest, caller Caller) ([]dto.AuditResponse, int64, error)
	Delete(ctx context.Context, id string, caller Caller) error
}

type auditService struct {
	repo    *repository.Repository
	rdb     *redis.Client
	baseURL string
	logger  *zap.Logger
}

// NewAuditService 创建 AuditService 实例
func NewAuditService(repo *repository.Repository, rdb *redis.Client, baseURL string, logger *zap.Logger) AuditService {
	return &auditService{repo: repo, rdb: rdb, baseURL: baseURL, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *auditService) Create(ctx context.Context, req *dto.CreateAuditRequest, caller Caller) (*dto.AuditResponse, error) {
	dept, err := s.repo.Department.GetByID(ctx, req.DepartmentID)
	if err != nil {
		return nil, notFound(s.logger, err, ErrDepartmentNotFound, "查询部门失败", zap.String("id", req.DepartmentID))
	}
	if err := s.checkDepartmentScope(ctx, caller, dept.DepartmentID); err != nil {
		return nil, err
	}

	checklistID := req.ChecklistID
	if req.ScheduleID != nil {
		sched, err := s.repo.AuditSchedule.GetByID(ctx, *req.ScheduleID)
		if err != nil {
			return nil, notFound(s.logger, err, ErrScheduleNotFound, "查询审核计划失败", zap.String("id", *req.ScheduleID))
		}
		// 一个计划同一时间只对应一次进行中的审核
		if sched.Status != model.ScheduleStatusScheduled {
			return nil, ErrScheduleNotOpen
		}
		if sched.DepartmentID != dept.DepartmentID {
			return nil, ErrScheduleDeptMismatch
		}
		if checklistID == nil {
			checklistID = sched.ChecklistID
		}
	}

	// 清单：显式指定、计划指定或按部门类型匹配
	var cl *model.Checklist
	if checklistID != nil {
		cl, err = s.repo.Checklist.GetByID(ctx, *checklistID)
		if err != nil {
			return nil, notFound(s.logger, err, ErrChecklistNotFound, "查询检查清单失败", zap.String("id", *checklistID))
		}
		if cl.ChecklistType != model.ChecklistTypeAudit {
			return nil, ErrChecklistTypeMismatch
		}
	} else {
		cl, err = s.repo.Checklist.Resolve(ctx, model.ChecklistTypeAudit, dept.DepartmentType)
		if err != nil {
			return nil, notFound(s.logger, err, ErrChecklistNotFound, "匹配审核清单失败",
				zap.String("department_type", dept.DepartmentType))
		}
	}

	auditType := req.AuditType
	if auditType == "" {
		auditType = model.AuditTypePlanned
	}

	audit := &model.Audit{
		AuditorID:    caller.UserID,
		DepartmentID: dept.DepartmentID,
		ChecklistID:  cl.ChecklistID,
		ScheduleID:   req.ScheduleID,
		AuditType:    auditType,
		Status:       model.AuditStatusDraft,
		AuditDate:    time.Now(),
		Comments:     sanitize.Text(req.Comments),
	}
	audit.CreatedBy = &caller.UserID
	audit.UpdatedBy = &caller.UserID

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Audit.Create(ctx, audit); err != nil {
			return err
		}
		if audit.ScheduleID != nil {
			return txRepo.AuditSchedule.UpdateStatus(ctx, *audit.ScheduleID, model.ScheduleStatusInProgress)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("创建审核失败", zap.Error(err))
		return nil, err
	}
	invalidateDashboard(ctx, s.rdb, s.logger)

	return s.detail(ctx, audit.AuditID)
}

// ────────────────────── SaveAnswers ──────────────────────

func (s *auditService) SaveAnswers(ctx context.Context, id string, req *dto.SaveAuditAnswersRequest, caller Caller) (*dto.AuditResponse, error) {
	if len(req.Answers) == 0 {
		return nil, ErrEmptyAnswers
	}

	audit, err := s.getEditable(ctx, id, caller)
	if err != nil {
		return nil, err
	}

	cl, err := s.repo.Checklist.GetIncludingDeleted(ctx, audit.ChecklistID)
	if err != nil {
		return nil, notFound(s.logger, err, ErrChecklistNotFound, "查询检查清单失败", zap.String("id", audit.ChecklistID))
	}
	if _, err := validateAnswers(cl, req.Answers); err != nil {
		return nil, err
	}

	answers := make([]model.AuditAnswer, 0, len(req.Answers))
	for _, a := range req.Answers {
		ans := model.AuditAnswer{
			AuditID:     audit.AuditID,
			CriterionID: a.CriterionID,
			Score:       a.Score,
			Notes:       sanitize.Text(a.Notes),
		}
		ans.CreatedBy = &caller.UserID
		ans.UpdatedBy = &caller.UserID
		answers = append(answers, ans)
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Audit.UpsertAnswers(ctx, answers); err != nil {
			return err
		}
		if audit.Status == model.AuditStatusDraft {
			return txRepo.Audit.UpdateFields(ctx, audit.AuditID, map[string]interface{}{
				"status":     model.AuditStatusInProgress,
				"updated_by": caller.UserID,
			})
		}
		return nil
	})
	if err != nil {
		s.logger.Error("保存审核评分失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if audit.Status == model.AuditStatusDraft {
		invalidateDashboard(ctx, s.rdb, s.logger)
	}

	return s.detail(ctx, audit.AuditID)
}

// ────────────────────── Complete ──────────────────────

func (s *auditService) Complete(ctx context.Context, id string, req *dto.CompleteAuditRequest, caller Caller) (*dto.CompleteAuditResponse, error) {
	audit, err := s.getEditable(ctx, id, caller)
	if err != nil {
		return nil, err
	}

	answers, err := s.repo.Audit.ListAnswers(ctx, audit.AuditID)
	if err != nil {
		s.logger.Error("查询审核评分失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if len(answers) == 0 {
		return nil, ErrAuditNoAnswers
	}

	scores := make([]int, 0, len(answers))
	for _, a := range answers {
		scores = append(scores, a.Score)
	}
	percent, err := scoring.Percentage(scores)
	if err != nil {
		return nil, err
	}
	total := float64(scoring.Sum(scores))
	maxScore := float64(scoring.MaxScore(len(scores)))

	fields := map[string]interface{}{
		"status":        model.AuditStatusCompleted,
		"completed_at":  time.Now(),
		"total_score":   total,
		"max_score":     maxScore,
		"score_percent": percent,
		"updated_by":    caller.UserID,
	}
	if req != nil && req.Comments != nil {
		fields["comments"] = sanitize.Text(*req.Comments)
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Audit.UpdateFields(ctx, audit.AuditID, fields); err != nil {
			return err
		}
		if audit.ScheduleID != nil {
			return txRepo.AuditSchedule.UpdateStatus(ctx, *audit.ScheduleID, model.ScheduleStatusCompleted)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("完成审核失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	metrics.AuditsCompleted.Inc()
	invalidateDashboard(ctx, s.rdb, s.logger)

	cfg := loadSystemConfig(ctx, s.repo, s.logger)
	return &dto.CompleteAuditResponse{
		AuditID:      audit.AuditID,
		TotalScore:   total,
		MaxScore:     maxScore,
		ScorePercent: percent,
		Grade:        scoring.Grade(percent),
		Passed:       scoring.Passed(percent, cfg.AuditPassPercent),
	}, nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *auditService) GetByID(ctx context.Context, id string, caller Caller) (*dto.AuditResponse, error) {
	audit, err := s.repo.Audit.GetDetail(ctx, id)
	if err != nil {
		return nil, notFound(s.logger, err, ErrAuditNotFound, "查询审核失败", zap.String("id", id))
	}
	if audit.AuditorID != caller.UserID {
		if err := s.checkDepartmentScope(ctx, caller, audit.DepartmentID); err != nil {
			return nil, err
		}
	}
	return toAuditResponse(audit, s.baseURL, time.Now()), nil
}

func (s *auditService) List(ctx context.Context, req *dto.AuditListRequest, caller Caller) ([]dto.AuditResponse, int64, error) {
	scope, err := resolveScope(ctx, s.repo, caller)
	if err != nil {
		s.logger.Error("计算数据范围失败", zap.Error(err))
		return nil, 0, err
	}

	filter := repository.AuditFilter{
		Status:    req.Status,
		AuditorID: req.AuditorID,
	}
	if scope.UserID != "" {
		filter.AuditorID = scope.UserID
	} else {
		ids, ok := scope.narrow(req.DepartmentID)
		if !ok {
			return nil, 0, ErrDepartmentOutsideScope
		}
		filter.DepartmentIDs = ids
	}

	list, total, err := s.repo.Audit.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出审核失败", zap.Error(err))
		return nil, 0, err
	}

	now := time.Now()
	result := make([]dto.AuditResponse, 0, len(list))
	for i := range list {
		result = append(result, *toAuditResponse(&list[i], s.baseURL, now))
	}
	return result, total, nil
}

// ────────────────────── Delete ──────────────────────

func (s *auditService) Delete(ctx context.Context, id string, caller Caller) error {
	audit, err := s.getEditable(ctx, id, caller)
	if err != nil {
		return err
	}

	err = s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		if err := txRepo.Audit.Delete(ctx, audit.AuditID, caller.UserID); err != nil {
			return err
		}
		// 关联计划退回待执行
		if audit.ScheduleID != nil {
			return txRepo.AuditSchedule.UpdateStatus(ctx, *audit.ScheduleID, model.ScheduleStatusScheduled)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("删除审核失败", zap.String("id", id), zap.Error(err))
		return err
	}
	invalidateDashboard(ctx, s.rdb, s.logger)
	return nil
}

// ── 内部辅助方法 ──

// getEditable 仅审核员本人或 admin 可修改未完成的审核
func (s *auditService) getEditable(ctx context.Context, id string, caller Caller) (*model.Audit, error) {
	audit, err := s.repo.Audit.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(s.logger, err, ErrAuditNotFound, "查询审核失败", zap.String("id", id))
	}
	if audit.AuditorID != caller.UserID && !caller.IsAdmin() {
		return nil, ErrNoPermission
	}
	if audit.IsCompleted() {
		return nil, ErrAuditCompleted
	}
	return audit, nil
}

func (s *auditService) checkDepartmentScope(ctx context.Context, caller Caller, departmentID string) error {
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

func (s *auditService) detail(ctx context.Context, id string) (*dto.AuditResponse, error) {
	audit, err := s.repo.Audit.GetDetail(ctx, id)
	if err != nil {
		return nil, notFound(s.logger, err, ErrAuditNotFound, "查询审核失败", zap.String("id", id))
	}
	return toAuditResponse(audit, s.baseURL, time.Now()), nil
}
