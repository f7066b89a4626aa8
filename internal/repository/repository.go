package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Business     BusinessRepository
	Collection   CollectionRepository
	ScheduleRule ScheduleRuleRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Business:     NewBusinessRepo(db),
		Collection:   NewCollectionRepo(db),
		ScheduleRule: NewScheduleRuleRepo(db),
	}
}
