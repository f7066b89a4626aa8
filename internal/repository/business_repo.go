package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/model"
)

// BusinessRepository 商户数据访问接口（只读）
type BusinessRepository interface {
	GetByID(ctx context.Context, id string) (*model.Business, error)
}

type businessRepo struct {
	db *gorm.DB
}

// NewBusinessRepo 创建 BusinessRepository 实例
func NewBusinessRepo(db *gorm.DB) BusinessRepository {
	return &businessRepo{db: db}
}

func (r *businessRepo) GetByID(ctx context.Context, id string) (*model.Business, error) {
	var b model.Business
	err := r.db.WithContext(ctx).
		Where("business_id = ?", id).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}
