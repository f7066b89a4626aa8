package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/model"
)

// CollectionRepository 目录与目录条目数据访问接口（只读）
type CollectionRepository interface {
	GetByID(ctx context.Context, id string) (*model.Collection, error)
	ListVisibleItems(ctx context.Context, collectionID string) ([]model.CollectionItem, error)
}

type collectionRepo struct {
	db *gorm.DB
}

// NewCollectionRepo 创建 CollectionRepository 实例
func NewCollectionRepo(db *gorm.DB) CollectionRepository {
	return &collectionRepo{db: db}
}

func (r *collectionRepo) GetByID(ctx context.Context, id string) (*model.Collection, error) {
	var c model.Collection
	err := r.db.WithContext(ctx).
		Where("collection_id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *collectionRepo) ListVisibleItems(ctx context.Context, collectionID string) ([]model.CollectionItem, error) {
	var items []model.CollectionItem
	err := r.db.WithContext(ctx).
		Where("collection_id = ? AND is_visible = ?", collectionID, true).
		Order("position ASC, name ASC").
		Find(&items).Error
	return items, err
}
