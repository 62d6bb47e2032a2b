package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/maxfrank76/5s-system/internal/dto"
	"github.com/maxfrank76/5s-system/internal/model"
	"github.com/maxfrank76/5s-system/internal/repository"
	"github.com/maxfrank76/5s-system/pkg/metrics"
	"github.com/maxfrank76/5s-system/pkg/redis"
	"github.com/maxfrank76/5s-system/pkg/sanitize"
	"github.com/maxfrank76/5s-system/pkg/scoring"
)

// ── 自查模块业务错误 ──

var (
	ErrSelfCheckNotFound       = errors.New("自查记录不存在")
	ErrSelfCheckInProgress     = errors.New("存在未完成的自查，请先提交或取消")
	ErrSelfCheckCompleted      = errors.New("自查已完成，不能修改")
	ErrUserHasNoDepartment     = errors.New("用户未分配部门")
	ErrEmptyAnswers            = errors.New("评分不能为空")
	ErrCriterionNotInChecklist = errors.New("准则不属于该检查清单")
	ErrDuplicateCriterion      = errors.New("同一准则重复评分")
)

// SelfCheckService 自查业务接口
type SelfCheckService interface {
	// CurrentChecklist 按调用者所在部门类型匹配自查清单
	CurrentChecklist(ctx context.Context, caller Caller) (*dto.ChecklistResponse, error)
	Start(ctx context.Context, caller Caller) (*dto.SelfCheckResponse, error)
	Submit(ctx context.Context, id string, req *dto.SubmitSelfCheckRequest, caller Caller) (*dto.SubmitSelfCheckResponse, error)
	History(ctx context.Context, caller Caller) ([]dto.SelfCheckResponse, error)
	// Active 未完成的自查，没有时返回 nil
	Active(ctx context.Context, caller Caller) (*dto.SelfCheckResponse, error)
	Cancel(ctx context.Context, id string, caller Caller) error
	GetByID(ctx context.Context, id string, caller Caller) (*dto.SelfCheckResponse, error)
	List(ctx context.Context, req *dto.SelfCheckListRequest, caller Caller) ([]dto.SelfCheckResponse, int64, error)
}

type selfCheckService struct {
	repo   *repository.Repository
	rdb    *redis.Client
	logger *zap.Logger
}

// NewSelfCheckService 创建 SelfCheckService 实例
func NewSelfCheckService(repo *repository.Repository, rdb *redis.Client, logger *zap.Logger) SelfCheckService {
	return &selfCheckService{repo: repo, rdb: rdb, logger: logger}
}

// ────────────────────── CurrentChecklist / Start ──────────────────────

func (s *selfCheckService) CurrentChecklist(ctx context.Context, caller Caller) (*dto.ChecklistResponse, error) {
	_, cl, err := s.resolveForUser(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	return toChecklistResponse(cl, true), nil
}

func (s *selfCheckService) Start(ctx context.Context, caller Caller) (*dto.SelfCheckResponse, error) {
	if _, err := s.repo.SelfCheck.GetActiveByUser(ctx, caller.UserID); err == nil {
		return nil, ErrSelfCheckInProgress
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询未完成自查失败", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}

	user, cl, err := s.resolveForUser(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}

	sc := &model.SelfCheck{
		UserID:       user.UserID,
		DepartmentID: *user.DepartmentID,
		ChecklistID:  cl.ChecklistID,
		CheckDate:    time.Now(),
	}
	sc.CreatedBy = &caller.UserID
	sc.UpdatedBy = &caller.UserID

	if err := s.repo.SelfCheck.Create(ctx, sc); err != nil {
		s.logger.Error("创建自查失败", zap.Error(err))
		return nil, err
	}
	invalidateDashboard(ctx, s.rdb, s.logger)

	sc.Checklist = cl
	sc.Department = user.Department
	sc.User = user
	return toSelfCheckResponse(sc), nil
}

// resolveForUser 用户 → 部门类型 → 启用的自查清单
func (s *selfCheckService) resolveForUser(ctx context.Context, userID string) (*model.User, *model.Checklist, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, notFound(s.logger, err, ErrUserNotFound, "查询用户失败", zap.String("user_id", userID))
	}
	if user.DepartmentID == nil || user.Department == nil {
		return nil, nil, ErrUserHasNoDepartment
	}

	cl, err := s.repo.Checklist.Resolve(ctx, model.ChecklistTypeSelfCheck, user.Department.DepartmentType)
	if err != nil {
		return nil, nil, notFound(s.logger, err, ErrChecklistNotFound, "匹配自查清单失败",
			zap.String("department_type", user.Department.DepartmentType))
	}
	return user, cl, nil
}

// ────────────────────── Submit ──────────────────────

func (s *selfCheckService) Submit(ctx context.Context, id string, req *dto.SubmitSelfCheckRequest, caller Caller) (*dto.SubmitSelfCheckResponse, error) {
	if len(req.Answers) == 0 {
		return nil, ErrEmptyAnswers
	}

	sc, err := s.repo.SelfCheck.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(s.logger, err, ErrSelfCheckNotFound, "查询自查失败", zap.String("id", id))
	}
	if sc.UserID != caller.UserID {
		return nil, ErrNoPermission
	}
	if sc.IsCompleted {
		return nil, ErrSelfCheckCompleted
	}

	cl, err := s.repo.Checklist.GetIncludingDeleted(ctx, sc.ChecklistID)
	if err != nil {
		return nil, notFound(s.logger, err, ErrChecklistNotFound, "查询检查清单失败", zap.String("id", sc.ChecklistID))
	}

	scores, err := validateAnswers(cl, req.Answers)
	if err != nil {
		return nil, err
	}
	percent, err := scoring.Percentage(scores)
	if err != nil {
		return nil, err
	}

	answers := make([]model.SelfCheckAnswer, 0, len(req.Answers))
	for _, a := range req.Answers {
		ans := model.SelfCheckAnswer{
			SelfCheckID: sc.SelfCheckID,
			CriterionID: a.CriterionID,
			Score:       a.Score,
			Notes:       sanitize.Text(a.Notes),
		}
		ans.CreatedBy = &caller.UserID
		answers = append(answers, ans)
	}

	now := time.Now()
	sc.TotalScore = &percent
	sc.CompletedAt = &now
	sc.IsCompleted = true
	sc.UpdatedBy = &caller.UserID

	if err := s.repo.SelfCheck.Complete(ctx, sc, answers); err != nil {
		s.logger.Error("提交自查失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	metrics.SelfChecksCompleted.Inc()
	invalidateDashboard(ctx, s.rdb, s.logger)

	cfg := loadSystemConfig(ctx, s.repo, s.logger)
	return &dto.SubmitSelfCheckResponse{
		SelfCheckID: sc.SelfCheckID,
		TotalScore:  percent,
		Grade:       scoring.Grade(percent),
		Passed:      scoring.Passed(percent, cfg.SelfCheckPassPercent),
		PassPercent: cfg.SelfCheckPassPercent,
	}, nil
}

// validateAnswers 校验准则归属、重复与分值范围，返回分值列表
func validateAnswers(cl *model.Checklist, answers []dto.AnswerRequest) ([]int, error) {
	valid := cl.CriterionIDs()
	seen := make(map[string]bool, len(answers))
	scores := make([]int, 0, len(answers))
	for _, a := range answers {
		if !valid[a.CriterionID] {
			return nil, ErrCriterionNotInChecklist
		}
		if seen[a.CriterionID] {
			return nil, ErrDuplicateCriterion
		}
		seen[a.CriterionID] = true
		scores = append(scores, a.Score)
	}
	if err := scoring.ValidateAll(scores); err != nil {
		return nil, err
	}
	return scores, nil
}

// ────────────────────── History / Active / Cancel ──────────────────────

func (s *selfCheckService) History(ctx context.Context, caller Caller) ([]dto.SelfCheckResponse, error) {
	list, err := s.repo.SelfCheck.ListByUser(ctx, caller.UserID)
	if err != nil {
		s.logger.Error("查询自查历史失败", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.SelfCheckResponse, 0, len(list))
	for i := range list {
		result = append(result, *toSelfCheckResponse(&list[i]))
	}
	return result, nil
}

func (s *selfCheckService) Active(ctx context.Context, caller Caller) (*dto.SelfCheckResponse, error) {
	sc, err := s.repo.SelfCheck.GetActiveByUser(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.logger.Error("查询未完成自查失败", zap.String("user_id", caller.UserID), zap.Error(err))
		return nil, err
	}
	return toSelfCheckResponse(sc), nil
}

func (s *selfCheckService) Cancel(ctx context.Context, id string, caller Caller) error {
	sc, err := s.repo.SelfCheck.GetByID(ctx, id)
	if err != nil {
		return notFound(s.logger, err, ErrSelfCheckNotFound, "查询自查失败", zap.String("id", id))
	}
	if sc.UserID != caller.UserID {
		return ErrNoPermission
	}
	if sc.IsCompleted {
		return ErrSelfCheckCompleted
	}
	if err := s.repo.SelfCheck.Delete(ctx, id); err != nil {
		s.logger.Error("取消自查失败", zap.String("id", id), zap.Error(err))
		return err
	}
	invalidateDashboard(ctx, s.rdb, s.logger)
	return nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *selfCheckService) GetByID(ctx context.Context, id string, caller Caller) (*dto.SelfCheckResponse, error) {
	sc, err := s.repo.SelfCheck.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(s.logger, err, ErrSelfCheckNotFound, "查询自查失败", zap.String("id", id))
	}

	if sc.UserID != caller.UserID {
		scope, err := resolveScope(ctx, s.repo, caller)
		if err != nil {
			s.logger.Error("计算数据范围失败", zap.Error(err))
			return nil, err
		}
		if !scope.allowsDepartment(sc.DepartmentID) {
			return nil, ErrNoPermission
		}
	}
	return toSelfCheckResponse(sc), nil
}

func (s *selfCheckService) List(ctx context.Context, req *dto.SelfCheckListRequest, caller Caller) ([]dto.SelfCheckResponse, int64, error) {
	scope, err := resolveScope(ctx, s.repo, caller)
	if err != nil {
		s.logger.Error("计算数据范围失败", zap.Error(err))
		return nil, 0, err
	}

	filter := repository.SelfCheckFilter{
		UserID:      req.UserID,
		IsCompleted: req.IsCompleted,
	}
	if scope.UserID != "" {
		filter.UserID = scope.UserID
	} else {
		ids, ok := scope.narrow(req.DepartmentID)
		if !ok {
			return nil, 0, ErrNoPermission
		}
		filter.DepartmentIDs = ids
	}

	list, total, err := s.repo.SelfCheck.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出自查失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.SelfCheckResponse, 0, len(list))
	for i := range list {
		result = append(result, *toSelfCheckResponse(&list[i]))
	}
	return result, total, nil
}
