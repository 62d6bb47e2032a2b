package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User          UserRepository
	Department    DepartmentRepository
	Checklist     ChecklistRepository
	SelfCheck     SelfCheckRepository
	Audit         AuditRepository
	Remark        RemarkRepository
	Photo         PhotoRepository
	AuditSchedule AuditScheduleRepository
	SystemConfig  SystemConfigRepository
	Dashboard     DashboardRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:            db,
		User:          NewUserRepo(db),
		Department:    NewDepartmentRepo(db),
		Checklist:     NewChecklistRepo(db),
		SelfCheck:     NewSelfCheckRepo(db),
		Audit:         NewAuditRepo(db),
		Remark:        NewRemarkRepo(db),
		Photo:         NewPhotoRepo(db),
		AuditSchedule: NewAuditScheduleRepo(db),
		SystemConfig:  NewSystemConfigRepo(db),
		Dashboard:     NewDashboardRepo(db),
	}
}

// BeginTx 开启事务
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx 返回绑定到事务的 Repository 副本
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction 在事务内执行 fn，fn 返回错误时回滚
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
