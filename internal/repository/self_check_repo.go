package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/maxfrank76/5s-system/internal/model"
)

// SelfCheckFilter 自查管理列表筛选条件
type SelfCheckFilter struct {
	DepartmentIDs []string // 为空表示不限部门
	UserID        string
	IsCompleted   *bool
}

// SelfCheckRepository 自查数据访问接口
type SelfCheckRepository interface {
	Create(ctx context.Context, sc *model.SelfCheck) error
	GetByID(ctx context.Context, id string) (*model.SelfCheck, error)
	// GetActiveByUser 用户未完成的自查，没有时返回 gorm.ErrRecordNotFound
	GetActiveByUser(ctx context.Context, userID string) (*model.SelfCheck, error)
	ListByUser(ctx context.Context, userID string) ([]model.SelfCheck, error)
	List(ctx context.Context, filter SelfCheckFilter, offset, limit int) ([]model.SelfCheck, int64, error)
	// Complete 事务内写入全部评分并标记完成
	Complete(ctx context.Context, sc *model.SelfCheck, answers []model.SelfCheckAnswer) error
	Delete(ctx context.Context, id string) error
}

type selfCheckRepo struct {
	db *gorm.DB
}

// NewSelfCheckRepo 创建 SelfCheckRepository 实例
func NewSelfCheckRepo(db *gorm.DB) SelfCheckRepository {
	return &selfCheckRepo{db: db}
}

func (r *selfCheckRepo) Create(ctx context.Context, sc *model.SelfCheck) error {
	return r.db.WithContext(ctx).Create(sc).Error
}

func (r *selfCheckRepo) GetByID(ctx context.Context, id string) (*model.SelfCheck, error) {
	var sc model.SelfCheck
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Department").
		Preload("Checklist", withDeleted).
		Preload("Answers.Criterion").
		Where("self_check_id = ?", id).
		First(&sc).Error
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

func (r *selfCheckRepo) GetActiveByUser(ctx context.Context, userID string) (*model.SelfCheck, error) {
	var sc model.SelfCheck
	err := r.db.WithContext(ctx).
		Preload("Checklist", withDeleted).
		Where("user_id = ? AND is_completed = ?", userID, false).
		Order("check_date DESC").
		First(&sc).Error
	if err != nil {
		return nil, err
	}
	return &sc, nil
}

func (r *selfCheckRepo) ListByUser(ctx context.Context, userID string) ([]model.SelfCheck, error) {
	var list []model.SelfCheck
	err := r.db.WithContext(ctx).
		Preload("Checklist", withDeleted).
		Preload("Department").
		Where("user_id = ?", userID).
		Order("check_date DESC").
		Find(&list).Error
	return list, err
}

func (r *selfCheckRepo) List(ctx context.Context, filter SelfCheckFilter, offset, limit int) ([]model.SelfCheck, int64, error) {
	var list []model.SelfCheck
	var total int64

	db := r.db.WithContext(ctx).Model(&model.SelfCheck{})
	if len(filter.DepartmentIDs) > 0 {
		db = db.Where("department_id IN ?", filter.DepartmentIDs)
	}
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}
	if filter.IsCompleted != nil {
		db = db.Where("is_completed = ?", *filter.IsCompleted)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Preload("User").Preload("Department").
		Offset(offset).Limit(limit).
		Order("check_date DESC").
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *selfCheckRepo) Complete(ctx context.Context, sc *model.SelfCheck, answers []model.SelfCheckAnswer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("self_check_id = ?", sc.SelfCheckID).
			Delete(&model.SelfCheckAnswer{}).Error; err != nil {
			return err
		}
		if len(answers) > 0 {
			if err := tx.Create(&answers).Error; err != nil {
				return err
			}
		}
		return tx.Model(&model.SelfCheck{}).
			Where("self_check_id = ?", sc.SelfCheckID).
			Updates(map[string]interface{}{
				"total_score":  sc.TotalScore,
				"is_completed": true,
				"completed_at": sc.CompletedAt,
				"updated_by":   sc.UpdatedBy,
			}).Error
	})
}

func (r *selfCheckRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("self_check_id = ?", id).
			Delete(&model.SelfCheckAnswer{}).Error; err != nil {
			return err
		}
		return tx.Where("self_check_id = ?", id).Delete(&model.SelfCheck{}).Error
	})
}
