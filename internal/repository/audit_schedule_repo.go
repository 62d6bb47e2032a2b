package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/maxfrank76/5s-system/internal/model"
)

// AuditScheduleFilter 审核计划筛选条件
type AuditScheduleFilter struct {
	From             *time.Time
	To               *time.Time
	DepartmentIDs    []string
	AuditorID        string
	Status           string
	ExcludeCancelled bool
}

// AuditScheduleRepository 审核计划数据访问接口
type AuditScheduleRepository interface {
	Create(ctx context.Context, s *model.AuditSchedule) error
	GetByID(ctx context.Context, id string) (*model.AuditSchedule, error)
	List(ctx context.Context, filter AuditScheduleFilter) ([]model.AuditSchedule, error)
	Update(ctx context.Context, s *model.AuditSchedule) error
	UpdateStatus(ctx context.Context, id, status string) error
}

type auditScheduleRepo struct {
	db *gorm.DB
}

// NewAuditScheduleRepo 创建 AuditScheduleRepository 实例
func NewAuditScheduleRepo(db *gorm.DB) AuditScheduleRepository {
	return &auditScheduleRepo{db: db}
}

func (r *auditScheduleRepo) Create(ctx context.Context, s *model.AuditSchedule) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *auditScheduleRepo) GetByID(ctx context.Context, id string) (*model.AuditSchedule, error) {
	var s model.AuditSchedule
	err := r.db.WithContext(ctx).
		Preload("Department").
		Preload("Auditor").
		Where("schedule_id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *auditScheduleRepo) List(ctx context.Context, filter AuditScheduleFilter) ([]model.AuditSchedule, error) {
	var list []model.AuditSchedule
	db := r.db.WithContext(ctx).Model(&model.AuditSchedule{})
	if filter.From != nil {
		db = db.Where("scheduled_date >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("scheduled_date < ?", *filter.To)
	}
	if len(filter.DepartmentIDs) > 0 {
		db = db.Where("department_id IN ?", filter.DepartmentIDs)
	}
	if filter.AuditorID != "" {
		db = db.Where("auditor_id = ?", filter.AuditorID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.ExcludeCancelled {
		db = db.Where("status <> ?", model.ScheduleStatusCancelled)
	}
	err := db.Preload("Department").Preload("Auditor").
		Order("scheduled_date ASC").
		Find(&list).Error
	return list, err
}

func (r *auditScheduleRepo) Update(ctx context.Context, s *model.AuditSchedule) error {
	return r.db.WithContext(ctx).
		Model(&model.AuditSchedule{}).
		Where("schedule_id = ?", s.ScheduleID).
		Updates(map[string]interface{}{
			"department_id":  s.DepartmentID,
			"auditor_id":     s.AuditorID,
			"checklist_id":   s.ChecklistID,
			"scheduled_date": s.ScheduledDate,
			"audit_type":     s.AuditType,
			"notes":          s.Notes,
			"updated_by":     s.UpdatedBy,
		}).Error
}

func (r *auditScheduleRepo) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.AuditSchedule{}).
		Where("schedule_id = ?", id).
		Update("status", status).Error
}
