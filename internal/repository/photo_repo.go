package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/maxfrank76/5s-system/internal/model"
)

// PhotoRepository 照片数据访问接口
type PhotoRepository interface {
	Create(ctx context.Context, photo *model.Photo) error
	GetByID(ctx context.Context, id string) (*model.Photo, error)
	Delete(ctx context.Context, id string) error
}

type photoRepo struct {
	db *gorm.DB
}

// NewPhotoRepo 创建 PhotoRepository 实例
func NewPhotoRepo(db *gorm.DB) PhotoRepository {
	return &photoRepo{db: db}
}

func (r *photoRepo) Create(ctx context.Context, photo *model.Photo) error {
	return r.db.WithContext(ctx).Create(photo).Error
}

func (r *photoRepo) GetByID(ctx context.Context, id string) (*model.Photo, error) {
	var p model.Photo
	err := r.db.WithContext(ctx).
		Where("photo_id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *photoRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("photo_id = ?", id).
		Delete(&model.Photo{}).Error
}
