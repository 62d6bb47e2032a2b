package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/maxfrank76/5s-system/internal/dto"
	"github.com/maxfrank76/5s-system/internal/model"
	"github.com/maxfrank76/5s-system/internal/repository"
	"github.com/maxfrank76/5s-system/pkg/sanitize"
)

// ── 部门模块业务错误 ──

var (
	ErrDepartmentNotFound    = errors.New("部门不存在")
	ErrDepartmentNameExists  = errors.New("同级部门名称已存在")
	ErrDepartmentHasMembers  = errors.New("部门下存在成员，无法删除")
	ErrDepartmentHasChildren = errors.New("部门下存在子部门，无法删除")
	ErrParentNotFound        = errors.New("上级部门不存在")
	ErrDepartmentCycle       = errors.New("不能将部门移动到自身或其下级部门之下")
)

// DepartmentService 部门业务接口
type DepartmentService interface {
	Create(ctx context.Context, req *dto.CreateDepartmentRequest, callerID string) (*dto.DepartmentDetailResponse, error)
	GetByID(ctx context.Context, id string) (*dto.DepartmentDetailResponse, error)
	List(ctx context.Context, req *dto.DepartmentListRequest) ([]dto.DepartmentDetailResponse, error)
	// Tree 以树形结构返回全部启用部门
	Tree(ctx context.Context) ([]*dto.DepartmentTreeNode, error)
	Update(ctx context.Context, id string, req *dto.UpdateDepartmentRequest, callerID string) (*dto.DepartmentDetailResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	GetMembers(ctx context.Context, departmentID string) ([]dto.DepartmentMemberResponse, error)
}

type departmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDepartmentService 创建 DepartmentService 实例
func NewDepartmentService(repo *repository.Repository, logger *zap.Logger) DepartmentService {
	return &departmentService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *departmentService) Create(ctx context.Context, req *dto.CreateDepartmentRequest, callerID string) (*dto.DepartmentDetailResponse, error) {
	if req.ParentID != nil {
		if _, err := s.repo.Department.GetByID(ctx, *req.ParentID); err != nil {
			return nil, notFound(s.logger, err, ErrParentNotFound, "查询上级部门失败", zap.String("parent_id", *req.ParentID))
		}
	}

	name := sanitize.Text(req.Name)
	if err := s.checkSiblingName(ctx, name, req.ParentID, ""); err != nil {
		return nil, err
	}

	dept := &model.Department{
		Name:           name,
		Description:    sanitize.Text(req.Description),
		DepartmentType: req.DepartmentType,
		ParentID:       req.ParentID,
		IsActive:       true,
	}
	dept.CreatedBy = &callerID
	dept.UpdatedBy = &callerID

	if err := s.repo.Department.Create(ctx, dept); err != nil {
		s.logger.Error("创建部门失败", zap.Error(err))
		return nil, err
	}

	return s.toDepartmentDetailResponse(ctx, dept), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *departmentService) GetByID(ctx context.Context, id string) (*dto.DepartmentDetailResponse, error) {
	dept, err := s.repo.Department.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(s.logger, err, ErrDepartmentNotFound, "查询部门失败", zap.String("id", id))
	}
	return s.toDepartmentDetailResponse(ctx, dept), nil
}

// ────────────────────── List / Tree ──────────────────────

func (s *departmentService) List(ctx context.Context, req *dto.DepartmentListRequest) ([]dto.DepartmentDetailResponse, error) {
	var depts []model.Department
	var err error

	if req.IncludeInactive {
		depts, err = s.repo.Department.ListAll(ctx)
	} else {
		depts, err = s.repo.Department.List(ctx)
	}
	if err != nil {
		s.logger.Error("列出部门失败", zap.Error(err))
		return nil, err
	}

	// 批量查询成员数，避免 N+1 查询问题
	ids := make([]string, 0, len(depts))
	for _, d := range depts {
		ids = append(ids, d.DepartmentID)
	}
	countMap, err := s.repo.Department.BatchCountMembers(ctx, ids)
	if err != nil {
		s.logger.Warn("批量查询成员数失败，回退为0", zap.Error(err))
		countMap = make(map[string]int64)
	}

	result := make([]dto.DepartmentDetailResponse, 0, len(depts))
	for i := range depts {
		item := toDepartmentDetail(&depts[i])
		item.MemberCount = countMap[depts[i].DepartmentID]
		result = append(result, item)
	}
	return result, nil
}

func (s *departmentService) Tree(ctx context.Context) ([]*dto.DepartmentTreeNode, error) {
	depts, err := s.repo.Department.List(ctx)
	if err != nil {
		s.logger.Error("列出部门失败", zap.Error(err))
		return nil, err
	}
	return buildDepartmentTree(depts), nil
}

// buildDepartmentTree 按 parent_id 组装森林；父部门不在列表中的节点视为根
func buildDepartmentTree(depts []model.Department) []*dto.DepartmentTreeNode {
	nodes := make(map[string]*dto.DepartmentTreeNode, len(depts))
	for _, d := range depts {
		nodes[d.DepartmentID] = &dto.DepartmentTreeNode{
			ID:             d.DepartmentID,
			Name:           d.Name,
			DepartmentType: d.DepartmentType,
			IsActive:       d.IsActive,
			Children:       []*dto.DepartmentTreeNode{},
		}
	}

	roots := make([]*dto.DepartmentTreeNode, 0)
	for _, d := range depts {
		node := nodes[d.DepartmentID]
		if d.ParentID != nil {
			if parent, ok := nodes[*d.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

// ────────────────────── Update ──────────────────────

func (s *departmentService) Update(ctx context.Context, id string, req *dto.UpdateDepartmentRequest, callerID string) (*dto.DepartmentDetailResponse, error) {
	dept, err := s.repo.Department.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(s.logger, err, ErrDepartmentNotFound, "查询部门失败", zap.String("id", id))
	}

	// 客户端携带 version 时以其为准，实现跨请求的乐观锁
	if req.Version > 0 {
		dept.Version = req.Version
	}

	if req.ParentID != nil {
		if *req.ParentID == "" {
			dept.ParentID = nil
		} else {
			if err := s.checkParent(ctx, id, *req.ParentID); err != nil {
				return nil, err
			}
			parentID := *req.ParentID
			dept.ParentID = &parentID
		}
	}

	if req.Name != nil {
		dept.Name = sanitize.Text(*req.Name)
	}
	if req.Name != nil || req.ParentID != nil {
		if err := s.checkSiblingName(ctx, dept.Name, dept.ParentID, id); err != nil {
			return nil, err
		}
	}
	if req.Description != nil {
		dept.Description = sanitize.Text(*req.Description)
	}
	if req.DepartmentType != nil {
		dept.DepartmentType = *req.DepartmentType
	}
	if req.IsActive != nil {
		dept.IsActive = *req.IsActive
	}
	dept.UpdatedBy = &callerID

	if err := s.repo.Department.Update(ctx, dept); err != nil {
		s.logger.Error("更新部门失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.toDepartmentDetailResponse(ctx, dept), nil
}

// ────────────────────── Delete ──────────────────────

func (s *departmentService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.repo.Department.GetByID(ctx, id); err != nil {
		return notFound(s.logger, err, ErrDepartmentNotFound, "查询部门失败", zap.String("id", id))
	}

	count, err := s.repo.Department.CountMembers(ctx, id)
	if err != nil {
		s.logger.Error("查询部门成员数失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if count > 0 {
		return ErrDepartmentHasMembers
	}

	children, err := s.repo.Department.CountChildren(ctx, id)
	if err != nil {
		s.logger.Error("查询子部门数失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if children > 0 {
		return ErrDepartmentHasChildren
	}

	if err := s.repo.Department.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除部门失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── GetMembers ──────────────────────

func (s *departmentService) GetMembers(ctx context.Context, departmentID string) ([]dto.DepartmentMemberResponse, error) {
	if _, err := s.repo.Department.GetByID(ctx, departmentID); err != nil {
		return nil, notFound(s.logger, err, ErrDepartmentNotFound, "查询部门失败", zap.String("id", departmentID))
	}

	users, err := s.repo.User.ListByDepartment(ctx, departmentID)
	if err != nil {
		s.logger.Error("查询部门成员失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.DepartmentMemberResponse, 0, len(users))
	for i := range users {
		u := &users[i]
		result = append(result, dto.DepartmentMemberResponse{
			UserID:      u.UserID,
			Username:    u.Username,
			FullName:    u.FullName(),
			Email:       u.Email,
			Position:    u.Position,
			Role:        u.Role,
			RoleDisplay: u.RoleDisplay(),
			IsActive:    u.IsActive,
		})
	}
	return result, nil
}

// ── 内部辅助方法 ──

// checkSiblingName 同一父部门下名称唯一
func (s *departmentService) checkSiblingName(ctx context.Context, name string, parentID *string, excludeID string) error {
	existing, err := s.repo.Department.GetByNameUnderParent(ctx, name, parentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		s.logger.Error("查询部门失败", zap.Error(err))
		return err
	}
	if existing.DepartmentID != excludeID {
		return ErrDepartmentNameExists
	}
	return nil
}

// checkParent 新上级必须存在，且不能是自身或自身的下级
func (s *departmentService) checkParent(ctx context.Context, id, parentID string) error {
	if _, err := s.repo.Department.GetByID(ctx, parentID); err != nil {
		return notFound(s.logger, err, ErrParentNotFound, "查询上级部门失败", zap.String("parent_id", parentID))
	}
	subtree, err := s.repo.Department.SubtreeIDs(ctx, id)
	if err != nil {
		s.logger.Error("查询下级部门失败", zap.String("id", id), zap.Error(err))
		return err
	}
	for _, sid := range subtree {
		if sid == parentID {
			return ErrDepartmentCycle
		}
	}
	return nil
}

func (s *departmentService) toDepartmentDetailResponse(ctx context.Context, dept *model.Department) *dto.DepartmentDetailResponse {
	resp := toDepartmentDetail(dept)
	memberCount, err := s.repo.Department.CountMembers(ctx, dept.DepartmentID)
	if err != nil {
		s.logger.Warn("查询部门成员数失败", zap.String("id", dept.DepartmentID), zap.Error(err))
	}
	resp.MemberCount = memberCount
	return &resp
}

func toDepartmentDetail(d *model.Department) dto.DepartmentDetailResponse {
	return dto.DepartmentDetailResponse{
		ID:             d.DepartmentID,
		Name:           d.Name,
		Description:    d.Description,
		DepartmentType: d.DepartmentType,
		ParentID:       d.ParentID,
		IsActive:       d.IsActive,
		Version:        d.Version,
		CreatedAt:      formatTime(d.CreatedAt),
		UpdatedAt:      formatTime(d.UpdatedAt),
	}
}
