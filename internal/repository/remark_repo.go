package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/maxfrank76/5s-system/internal/model"
	pkgerrors "github.com/maxfrank76/5s-system/pkg/errors"
)

// RemarkFilter 问题列表筛选条件
type RemarkFilter struct {
	DepartmentIDs []string
	Status        string
	AssignedToID  string
	AuditID       string
	OverdueAt     *time.Time // 非空时只返回在该时刻已逾期的未关闭问题
}

// RemarkRepository 问题数据访问接口
type RemarkRepository interface {
	Create(ctx context.Context, remark *model.Remark) error
	GetByID(ctx context.Context, id string) (*model.Remark, error)
	List(ctx context.Context, filter RemarkFilter, offset, limit int) ([]model.Remark, int64, error)
	// Update 基于 version 的乐观锁更新状态相关字段
	Update(ctx context.Context, remark *model.Remark) error
}

type remarkRepo struct {
	db *gorm.DB
}

// NewRemarkRepo 创建 RemarkRepository 实例
func NewRemarkRepo(db *gorm.DB) RemarkRepository {
	return &remarkRepo{db: db}
}

func (r *remarkRepo) Create(ctx context.Context, remark *model.Remark) error {
	return r.db.WithContext(ctx).Create(remark).Error
}

func (r *remarkRepo) GetByID(ctx context.Context, id string) (*model.Remark, error) {
	var remark model.Remark
	err := r.db.WithContext(ctx).
		Preload("Criterion").
		Preload("Creator").
		Preload("AssignedTo").
		Preload("Photos").
		Where("remark_id = ?", id).
		First(&remark).Error
	if err != nil {
		return nil, err
	}
	return &remark, nil
}

func (r *remarkRepo) List(ctx context.Context, filter RemarkFilter, offset, limit int) ([]model.Remark, int64, error) {
	var list []model.Remark
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Remark{})
	if len(filter.DepartmentIDs) > 0 {
		db = db.Where("department_id IN ?", filter.DepartmentIDs)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.AssignedToID != "" {
		db = db.Where("assigned_to_id = ?", filter.AssignedToID)
	}
	if filter.AuditID != "" {
		db = db.Where("audit_id = ?", filter.AuditID)
	}
	if filter.OverdueAt != nil {
		db = db.Where("status IN ? AND due_date IS NOT NULL AND due_date < ?",
			[]string{model.RemarkStatusIdentified, model.RemarkStatusAssigned}, *filter.OverdueAt)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Preload("AssignedTo").Preload("Creator").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *remarkRepo) Update(ctx context.Context, remark *model.Remark) error {
	oldVersion := remark.Version
	result := r.db.WithContext(ctx).
		Model(&model.Remark{}).
		Where("remark_id = ? AND version = ?", remark.RemarkID, oldVersion).
		Updates(map[string]interface{}{
			"status":          remark.Status,
			"assigned_to_id":  remark.AssignedToID,
			"due_date":        remark.DueDate,
			"assigned_at":     remark.AssignedAt,
			"resolved_at":     remark.ResolvedAt,
			"closed_at":       remark.ClosedAt,
			"resolution_note": remark.ResolutionNote,
			"updated_by":      remark.UpdatedBy,
			"version":         oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	remark.Version = oldVersion + 1
	return nil
}
