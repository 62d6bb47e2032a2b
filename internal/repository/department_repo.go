package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/maxfrank76/5s-system/internal/model"
	pkgerrors "github.com/maxfrank76/5s-system/pkg/errors"
)

// DepartmentRepository 部门数据访问接口
type DepartmentRepository interface {
	Create(ctx context.Context, dept *model.Department) error
	GetByID(ctx context.Context, id string) (*model.Department, error)
	// GetByNameUnderParent 同一父部门下按名称查找（parentID 为 nil 表示顶级）
	GetByNameUnderParent(ctx context.Context, name string, parentID *string) (*model.Department, error)
	GetByName(ctx context.Context, name string) (*model.Department, error)
	List(ctx context.Context) ([]model.Department, error)
	ListAll(ctx context.Context) ([]model.Department, error)
	Update(ctx context.Context, dept *model.Department) error
	Delete(ctx context.Context, id string, deletedBy string) error
	CountMembers(ctx context.Context, departmentID string) (int64, error)
	// BatchCountMembers 批量统计启用成员数，返回 department_id -> count
	BatchCountMembers(ctx context.Context, departmentIDs []string) (map[string]int64, error)
	CountChildren(ctx context.Context, departmentID string) (int64, error)
	// SubtreeIDs 返回 rootID 及其全部后代部门 ID
	SubtreeIDs(ctx context.Context, rootID string) ([]string, error)
}

// departmentRepo DepartmentRepository 的 GORM 实现
type departmentRepo struct {
	db *gorm.DB
}

// NewDepartmentRepo 创建 DepartmentRepository 实例
func NewDepartmentRepo(db *gorm.DB) DepartmentRepository {
	return &departmentRepo{db: db}
}

func (r *departmentRepo) Create(ctx context.Context, dept *model.Department) error {
	return r.db.WithContext(ctx).Create(dept).Error
}

func (r *departmentRepo) GetByID(ctx context.Context, id string) (*model.Department, error) {
	var dept model.Department
	err := r.db.WithContext(ctx).
		Where("department_id = ?", id).
		First(&dept).Error
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepo) GetByNameUnderParent(ctx context.Context, name string, parentID *string) (*model.Department, error) {
	var dept model.Department
	db := r.db.WithContext(ctx).Where("name = ?", name)
	if parentID == nil {
		db = db.Where("parent_id IS NULL")
	} else {
		db = db.Where("parent_id = ?", *parentID)
	}
	if err := db.First(&dept).Error; err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepo) GetByName(ctx context.Context, name string) (*model.Department, error) {
	var dept model.Department
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&dept).Error
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *departmentRepo) List(ctx context.Context) ([]model.Department, error) {
	var depts []model.Department
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&depts).Error
	return depts, err
}

func (r *departmentRepo) ListAll(ctx context.Context) ([]model.Department, error) {
	var depts []model.Department
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&depts).Error
	return depts, err
}

// Update 基于 version 的乐观锁更新
func (r *departmentRepo) Update(ctx context.Context, dept *model.Department) error {
	oldVersion := dept.Version
	result := r.db.WithContext(ctx).
		Model(&model.Department{}).
		Where("department_id = ? AND version = ?", dept.DepartmentID, oldVersion).
		Updates(map[string]interface{}{
			"name":            dept.Name,
			"description":     dept.Description,
			"department_type": dept.DepartmentType,
			"parent_id":       dept.ParentID,
			"is_active":       dept.IsActive,
			"updated_by":      dept.UpdatedBy,
			"version":         oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	dept.Version = oldVersion + 1
	return nil
}

func (r *departmentRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Department{}).
		Where("department_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": time.Now(),
		}).Error
}

func (r *departmentRepo) CountMembers(ctx context.Context, departmentID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("department_id = ? AND is_active = ?", departmentID, true).
		Count(&count).Error
	return count, err
}

func (r *departmentRepo) BatchCountMembers(ctx context.Context, departmentIDs []string) (map[string]int64, error) {
	result := make(map[string]int64, len(departmentIDs))
	if len(departmentIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		DepartmentID string
		Count        int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Select("department_id, COUNT(*) AS count").
		Where("department_id IN ? AND is_active = ?", departmentIDs, true).
		Group("department_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.DepartmentID] = row.Count
	}
	return result, nil
}

func (r *departmentRepo) CountChildren(ctx context.Context, departmentID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Department{}).
		Where("parent_id = ?", departmentID).
		Count(&count).Error
	return count, err
}

func (r *departmentRepo) SubtreeIDs(ctx context.Context, rootID string) ([]string, error) {
	type node struct {
		DepartmentID string
		ParentID     *string
	}
	var nodes []node
	if err := r.db.WithContext(ctx).
		Model(&model.Department{}).
		Select("department_id, parent_id").
		Find(&nodes).Error; err != nil {
		return nil, err
	}

	children := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		if n.ParentID != nil {
			children[*n.ParentID] = append(children[*n.ParentID], n.DepartmentID)
		}
	}

	ids := []string{rootID}
	seen := map[string]bool{rootID: true}
	for i := 0; i < len(ids); i++ {
		for _, child := range children[ids[i]] {
			if !seen[child] {
				seen[child] = true
				ids = append(ids, child)
			}
		}
	}
	return ids, nil
}
