package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/maxfrank76/5s-system/internal/model"
)

// AuditFilter 审核列表筛选条件
type AuditFilter struct {
	DepartmentIDs []string
	Status        string
	AuditorID     string
}

// AuditRepository 审核数据访问接口
type AuditRepository interface {
	Create(ctx context.Context, audit *model.Audit) error
	GetByID(ctx context.Context, id string) (*model.Audit, error)
	// GetDetail 含评分（按准则）、问题与照片
	GetDetail(ctx context.Context, id string) (*model.Audit, error)
	List(ctx context.Context, filter AuditFilter, offset, limit int) ([]model.Audit, int64, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string, deletedBy string) error

	// UpsertAnswers 按 (audit_id, criterion_id) 插入或覆盖评分
	UpsertAnswers(ctx context.Context, answers []model.AuditAnswer) error
	ListAnswers(ctx context.Context, auditID string) ([]model.AuditAnswer, error)
	GetAnswer(ctx context.Context, answerID string) (*model.AuditAnswer, error)
}

type auditRepo struct {
	db *gorm.DB
}

// NewAuditRepo 创建 AuditRepository 实例
func NewAuditRepo(db *gorm.DB) AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Create(ctx context.Context, audit *model.Audit) error {
	return r.db.WithContext(ctx).Create(audit).Error
}

func (r *auditRepo) GetByID(ctx context.Context, id string) (*model.Audit, error) {
	var a model.Audit
	err := r.db.WithContext(ctx).
		Where("audit_id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *auditRepo) GetDetail(ctx context.Context, id string) (*model.Audit, error) {
	var a model.Audit
	err := r.db.WithContext(ctx).
		Preload("Auditor").
		Preload("Department").
		Preload("Checklist", withDeleted).
		Preload("Answers.Criterion").
		Preload("Answers.Photos").
		Preload("Remarks", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC") }).
		Preload("Remarks.Photos").
		Preload("Remarks.AssignedTo").
		Where("audit_id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *auditRepo) List(ctx context.Context, filter AuditFilter, offset, limit int) ([]model.Audit, int64, error) {
	var list []model.Audit
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Audit{})
	if len(filter.DepartmentIDs) > 0 {
		db = db.Where("department_id IN ?", filter.DepartmentIDs)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.AuditorID != "" {
		db = db.Where("auditor_id = ?", filter.AuditorID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Preload("Auditor").Preload("Department").
		Offset(offset).Limit(limit).
		Order("audit_date DESC").
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *auditRepo) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Audit{}).
		Where("audit_id = ?", id).
		Updates(fields).Error
}

// Delete 软删除审核及其下的问题
func (r *auditRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	fields := map[string]interface{}{
		"deleted_by": deletedBy,
		"deleted_at": time.Now(),
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Remark{}).
			Where("audit_id = ?", id).
			Updates(fields).Error; err != nil {
			return err
		}
		return tx.Model(&model.Audit{}).
			Where("audit_id = ?", id).
			Updates(fields).Error
	})
}

// ── 评分 ──

func (r *auditRepo) UpsertAnswers(ctx context.Context, answers []model.AuditAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "audit_id"}, {Name: "criterion_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "notes", "updated_at", "updated_by"}),
		}).
		Create(&answers).Error
}

func (r *auditRepo) ListAnswers(ctx context.Context, auditID string) ([]model.AuditAnswer, error) {
	var answers []model.AuditAnswer
	err := r.db.WithContext(ctx).
		Where("audit_id = ?", auditID).
		Find(&answers).Error
	return answers, err
}

func (r *auditRepo) GetAnswer(ctx context.Context, answerID string) (*model.AuditAnswer, error) {
	var a model.AuditAnswer
	err := r.db.WithContext(ctx).
		Where("answer_id = ?", answerID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}
