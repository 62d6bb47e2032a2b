package repository

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"

	"github.com/maxfrank76/5s-system/internal/model"
)

// ChecklistFilter 检查清单列表筛选条件
type ChecklistFilter struct {
	ChecklistType   string
	DepartmentType  string
	IncludeInactive bool
}

// ChecklistRepository 检查清单（含分组与准则）数据访问接口
type ChecklistRepository interface {
	// Create 连同 Groups/Criteria 一并创建
	Create(ctx context.Context, cl *model.Checklist) error
	// GetByID 返回完整结构，分组与准则按 order_index 排序
	GetByID(ctx context.Context, id string) (*model.Checklist, error)
	// GetIncludingDeleted 同 GetByID，但包含已软删除的清单（历史自查与审核仍引用它们）
	GetIncludingDeleted(ctx context.Context, id string) (*model.Checklist, error)
	List(ctx context.Context, filter ChecklistFilter) ([]model.Checklist, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string, deletedBy string) error
	// Resolve 指定类型与部门类型下最新的启用清单
	Resolve(ctx context.Context, checklistType, departmentType string) (*model.Checklist, error)

	CreateGroup(ctx context.Context, group *model.CriteriaGroup) error
	GetGroup(ctx context.Context, groupID string) (*model.CriteriaGroup, error)
	NextGroupOrder(ctx context.Context, checklistID string) (int, error)

	CreateCriterion(ctx context.Context, c *model.Criterion) error
	GetCriterion(ctx context.Context, criterionID string) (*model.Criterion, error)
	NextCriterionOrder(ctx context.Context, groupID string) (int, error)
	DeleteCriterion(ctx context.Context, criterionID string) error
	// CountCriterionAnswers 准则被自查或审核引用的次数
	CountCriterionAnswers(ctx context.Context, criterionID string) (int64, error)
}

type checklistRepo struct {
	db *gorm.DB
}

// NewChecklistRepo 创建 ChecklistRepository 实例
func NewChecklistRepo(db *gorm.DB) ChecklistRepository {
	return &checklistRepo{db: db}
}

// withDeleted 预加载时包含已软删除的清单
func withDeleted(tx *gorm.DB) *gorm.DB { return tx.Unscoped() }

func preloadStructure(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Groups", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("order_index ASC, created_at ASC")
		}).
		Preload("Groups.Criteria", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("order_index ASC, created_at ASC")
		})
}

func (r *checklistRepo) Create(ctx context.Context, cl *model.Checklist) error {
	return r.db.WithContext(ctx).Create(cl).Error
}

func (r *checklistRepo) GetByID(ctx context.Context, id string) (*model.Checklist, error) {
	var cl model.Checklist
	err := preloadStructure(r.db.WithContext(ctx)).
		Where("checklist_id = ?", id).
		First(&cl).Error
	if err != nil {
		return nil, err
	}
	return &cl, nil
}

func (r *checklistRepo) GetIncludingDeleted(ctx context.Context, id string) (*model.Checklist, error) {
	var cl model.Checklist
	err := preloadStructure(r.db.WithContext(ctx).Unscoped()).
		Where("checklist_id = ?", id).
		First(&cl).Error
	if err != nil {
		return nil, err
	}
	return &cl, nil
}

func (r *checklistRepo) List(ctx context.Context, filter ChecklistFilter) ([]model.Checklist, error) {
	var list []model.Checklist
	db := preloadStructure(r.db.WithContext(ctx)).Model(&model.Checklist{})
	if filter.ChecklistType != "" {
		db = db.Where("checklist_type = ?", filter.ChecklistType)
	}
	if filter.DepartmentType != "" {
		db = db.Where("department_type = ?", filter.DepartmentType)
	}
	if !filter.IncludeInactive {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("checklist_type ASC, department_type ASC, created_at DESC").Find(&list).Error
	return list, err
}

func (r *checklistRepo) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Checklist{}).
		Where("checklist_id = ?", id).
		Updates(fields).Error
}

func (r *checklistRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Checklist{}).
		Where("checklist_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": time.Now(),
		}).Error
}

func (r *checklistRepo) Resolve(ctx context.Context, checklistType, departmentType string) (*model.Checklist, error) {
	var cl model.Checklist
	err := preloadStructure(r.db.WithContext(ctx)).
		Where("checklist_type = ? AND department_type = ? AND is_active = ?", checklistType, departmentType, true).
		Order("created_at DESC").
		First(&cl).Error
	if err != nil {
		return nil, err
	}
	return &cl, nil
}

// ── 分组 ──

func (r *checklistRepo) CreateGroup(ctx context.Context, group *model.CriteriaGroup) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *checklistRepo) GetGroup(ctx context.Context, groupID string) (*model.CriteriaGroup, error) {
	var g model.CriteriaGroup
	err := r.db.WithContext(ctx).
		Preload("Criteria", func(tx *gorm.DB) *gorm.DB { return tx.Order("order_index ASC") }).
		Where("group_id = ?", groupID).
		First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *checklistRepo) NextGroupOrder(ctx context.Context, checklistID string) (int, error) {
	var max sql.NullInt64
	err := r.db.WithContext(ctx).
		Model(&model.CriteriaGroup{}).
		Where("checklist_id = ?", checklistID).
		Select("MAX(order_index)").
		Row().Scan(&max)
	if err != nil || !max.Valid {
		return 0, err
	}
	return int(max.Int64) + 1, nil
}

// ── 准则 ──

func (r *checklistRepo) CreateCriterion(ctx context.Context, c *model.Criterion) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *checklistRepo) GetCriterion(ctx context.Context, criterionID string) (*model.Criterion, error) {
	var c model.Criterion
	err := r.db.WithContext(ctx).
		Where("criterion_id = ?", criterionID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *checklistRepo) NextCriterionOrder(ctx context.Context, groupID string) (int, error) {
	var max sql.NullInt64
	err := r.db.WithContext(ctx).
		Model(&model.Criterion{}).
		Where("group_id = ?", groupID).
		Select("MAX(order_index)").
		Row().Scan(&max)
	if err != nil || !max.Valid {
		return 0, err
	}
	return int(max.Int64) + 1, nil
}

func (r *checklistRepo) DeleteCriterion(ctx context.Context, criterionID string) error {
	return r.db.WithContext(ctx).
		Where("criterion_id = ?", criterionID).
		Delete(&model.Criterion{}).Error
}

func (r *checklistRepo) CountCriterionAnswers(ctx context.Context, criterionID string) (int64, error) {
	var selfCount, auditCount int64
	if err := r.db.WithContext(ctx).
		Model(&model.SelfCheckAnswer{}).
		Where("criterion_id = ?", criterionID).
		Count(&selfCount).Error; err != nil {
		return 0, err
	}
	if err := r.db.WithContext(ctx).
		Model(&model.AuditAnswer{}).
		Where("criterion_id = ?", criterionID).
		Count(&auditCount).Error; err != nil {
		return 0, err
	}
	return selfCount + auditCount, nil
}
