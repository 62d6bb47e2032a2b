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

// ── 检查清单模块业务错误 ──

var (
	ErrChecklistNotFound = errors.New("检查清单不存在")
	ErrGroupNotFound     = errors.New("准则分组不存在")
	ErrCriterionNotFound = errors.New("准则不存在")
	ErrCriterionInUse    = errors.New("准则已被评分记录引用，无法删除")
)

// ChecklistService 检查清单业务接口
type ChecklistService interface {
	Create(ctx context.Context, req *dto.CreateChecklistRequest, callerID string) (*dto.ChecklistResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ChecklistResponse, error)
	List(ctx context.Context, req *dto.ChecklistListRequest) ([]dto.ChecklistResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateChecklistRequest, callerID string) (*dto.ChecklistResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	AddGroup(ctx context.Context, checklistID string, req *dto.CreateGroupRequest, callerID string) (*dto.GroupResponse, error)
	AddCriterion(ctx context.Context, groupID string, req *dto.CreateCriterionRequest, callerID string) (*dto.CriterionResponse, error)
	DeleteCriterion(ctx context.Context, criterionID string) error
	// Resolve 按清单类型与部门类型匹配当前启用的清单
	Resolve(ctx context.Context, checklistType, departmentType string) (*model.Checklist, error)
}

type checklistService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewChecklistService 创建 ChecklistService 实例
func NewChecklistService(repo *repository.Repository, logger *zap.Logger) ChecklistService {
	return &checklistService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *checklistService) Create(ctx context.Context, req *dto.CreateChecklistRequest, callerID string) (*dto.ChecklistResponse, error) {
	cl := &model.Checklist{
		Name:           sanitize.Text(req.Name),
		Description:    sanitize.Text(req.Description),
		ChecklistType:  req.ChecklistType,
		DepartmentType: req.DepartmentType,
		IsActive:       true,
	}
	cl.CreatedBy = &callerID
	cl.UpdatedBy = &callerID

	for gi, g := range req.Groups {
		group := model.CriteriaGroup{
			Name:       sanitize.Text(g.Name),
			OrderIndex: orderOr(g.OrderIndex, gi),
		}
		group.CreatedBy = &callerID
		for ci, c := range g.Criteria {
			criterion := model.Criterion{
				Description: sanitize.Text(c.Description),
				OrderIndex:  orderOr(c.OrderIndex, ci),
			}
			criterion.CreatedBy = &callerID
			group.Criteria = append(group.Criteria, criterion)
		}
		cl.Groups = append(cl.Groups, group)
	}

	if err := s.repo.Checklist.Create(ctx, cl); err != nil {
		s.logger.Error("创建检查清单失败", zap.Error(err))
		return nil, err
	}

	return s.GetByID(ctx, cl.ChecklistID)
}

// orderOr 未显式指定顺序时使用数组位置
func orderOr(explicit *int, position int) int {
	if explicit != nil {
		return *explicit
	}
	return position
}

// ────────────────────── GetByID / List ──────────────────────

func (s *checklistService) GetByID(ctx context.Context, id string) (*dto.ChecklistResponse, error) {
	cl, err := s.repo.Checklist.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(s.logger, err, ErrChecklistNotFound, "查询检查清单失败", zap.String("id", id))
	}
	return toChecklistResponse(cl, true), nil
}

func (s *checklistService) List(ctx context.Context, req *dto.ChecklistListRequest) ([]dto.ChecklistResponse, error) {
	list, err := s.repo.Checklist.List(ctx, repository.ChecklistFilter{
		ChecklistType:   req.ChecklistType,
		DepartmentType:  req.DepartmentType,
		IncludeInactive: req.IncludeInactive,
	})
	if err != nil {
		s.logger.Error("列出检查清单失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ChecklistResponse, 0, len(list))
	for i := range list {
		result = append(result, *toChecklistResponse(&list[i], false))
	}
	return result, nil
}

// ────────────────────── Update / Delete ──────────────────────

func (s *checklistService) Update(ctx context.Context, id string, req *dto.UpdateChecklistRequest, callerID string) (*dto.ChecklistResponse, error) {
	if _, err := s.repo.Checklist.GetByID(ctx, id); err != nil {
		return nil, notFound(s.logger, err, ErrChecklistNotFound, "查询检查清单失败", zap.String("id", id))
	}

	fields := map[string]interface{}{"updated_by": callerID}
	if req.Name != nil {
		fields["name"] = sanitize.Text(*req.Name)
	}
	if req.Description != nil {
		fields["description"] = sanitize.Text(*req.Description)
	}
	if req.DepartmentType != nil {
		fields["department_type"] = *req.DepartmentType
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}

	if err := s.repo.Checklist.UpdateFields(ctx, id, fields); err != nil {
		s.logger.Error("更新检查清单失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *checklistService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.repo.Checklist.GetByID(ctx, id); err != nil {
		return notFound(s.logger, err, ErrChecklistNotFound, "查询检查清单失败", zap.String("id", id))
	}
	if err := s.repo.Checklist.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除检查清单失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── 分组与准则 ──────────────────────

func (s *checklistService) AddGroup(ctx context.Context, checklistID string, req *dto.CreateGroupRequest, callerID string) (*dto.GroupResponse, error) {
	if _, err := s.repo.Checklist.GetByID(ctx, checklistID); err != nil {
		return nil, notFound(s.logger, err, ErrChecklistNotFound, "查询检查清单失败", zap.String("id", checklistID))
	}

	order := 0
	if req.OrderIndex != nil {
		order = *req.OrderIndex
	} else {
		next, err := s.repo.Checklist.NextGroupOrder(ctx, checklistID)
		if err != nil {
			s.logger.Error("查询分组顺序失败", zap.Error(err))
			return nil, err
		}
		order = next
	}

	group := &model.CriteriaGroup{
		ChecklistID: checklistID,
		Name:        sanitize.Text(req.Name),
		OrderIndex:  order,
	}
	group.CreatedBy = &callerID
	for ci, c := range req.Criteria {
		criterion := model.Criterion{
			Description: sanitize.Text(c.Description),
			OrderIndex:  orderOr(c.OrderIndex, ci),
		}
		criterion.CreatedBy = &callerID
		group.Criteria = append(group.Criteria, criterion)
	}

	if err := s.repo.Checklist.CreateGroup(ctx, group); err != nil {
		s.logger.Error("创建准则分组失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.GroupResponse{
		ID:         group.GroupID,
		Name:       group.Name,
		OrderIndex: group.OrderIndex,
		Criteria:   make([]dto.CriterionResponse, 0, len(group.Criteria)),
	}
	for i := range group.Criteria {
		resp.Criteria = append(resp.Criteria, toCriterionResponse(&group.Criteria[i]))
	}
	return resp, nil
}

func (s *checklistService) AddCriterion(ctx context.Context, groupID string, req *dto.CreateCriterionRequest, callerID string) (*dto.CriterionResponse, error) {
	if _, err := s.repo.Checklist.GetGroup(ctx, groupID); err != nil {
		return nil, notFound(s.logger, err, ErrGroupNotFound, "查询准则分组失败", zap.String("group_id", groupID))
	}

	order := 0
	if req.OrderIndex != nil {
		order = *req.OrderIndex
	} else {
		next, err := s.repo.Checklist.NextCriterionOrder(ctx, groupID)
		if err != nil {
			s.logger.Error("查询准则顺序失败", zap.Error(err))
			return nil, err
		}
		order = next
	}

	c := &model.Criterion{
		GroupID:     groupID,
		Description: sanitize.Text(req.Description),
		OrderIndex:  order,
	}
	c.CreatedBy = &callerID

	if err := s.repo.Checklist.CreateCriterion(ctx, c); err != nil {
		s.logger.Error("创建准则失败", zap.Error(err))
		return nil, err
	}
	resp := toCriterionResponse(c)
	return &resp, nil
}

func (s *checklistService) DeleteCriterion(ctx context.Context, criterionID string) error {
	if _, err := s.repo.Checklist.GetCriterion(ctx, criterionID); err != nil {
		return notFound(s.logger, err, ErrCriterionNotFound, "查询准则失败", zap.String("criterion_id", criterionID))
	}

	used, err := s.repo.Checklist.CountCriterionAnswers(ctx, criterionID)
	if err != nil {
		s.logger.Error("查询准则引用失败", zap.Error(err))
		return err
	}
	if used > 0 {
		return ErrCriterionInUse
	}

	if err := s.repo.Checklist.DeleteCriterion(ctx, criterionID); err != nil {
		s.logger.Error("删除准则失败", zap.String("criterion_id", criterionID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Resolve ──────────────────────

func (s *checklistService) Resolve(ctx context.Context, checklistType, departmentType string) (*model.Checklist, error) {
	cl, err := s.repo.Checklist.Resolve(ctx, checklistType, departmentType)
	if err != nil {
		return nil, notFound(s.logger, err, ErrChecklistNotFound, "匹配检查清单失败",
			zap.String("checklist_type", checklistType), zap.String("department_type", departmentType))
	}
	return cl, nil
}
