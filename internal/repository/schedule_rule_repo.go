package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/model"
	pkgerrors "github.com/CataloGlobe/cataloglobe-app-sub001/pkg/errors"
)

// ScheduleRuleRepository 排期规则数据访问接口
type ScheduleRuleRepository interface {
	Create(ctx context.Context, rule *model.ScheduleRule) error
	GetByID(ctx context.Context, id string) (*model.ScheduleRule, error)
	List(ctx context.Context, businessID, slot string, offset, limit int) ([]model.ScheduleRule, int64, error)
	ListEnabledByBusiness(ctx context.Context, businessID string) ([]model.ScheduleRule, error)
	Update(ctx context.Context, rule *model.ScheduleRule) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type scheduleRuleRepo struct {
	db *gorm.DB
}

// NewScheduleRuleRepo 创建 ScheduleRuleRepository 实例
func NewScheduleRuleRepo(db *gorm.DB) ScheduleRuleRepository {
	return &scheduleRuleRepo{db: db}
}

func (r *scheduleRuleRepo) Create(ctx context.Context, rule *model.ScheduleRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *scheduleRuleRepo) GetByID(ctx context.Context, id string) (*model.ScheduleRule, error) {
	var rule model.ScheduleRule
	err := r.db.WithContext(ctx).
		Where("rule_id = ?", id).
		First(&rule).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *scheduleRuleRepo) List(ctx context.Context, businessID, slot string, offset, limit int) ([]model.ScheduleRule, int64, error) {
	db := r.db.WithContext(ctx).
		Model(&model.ScheduleRule{}).
		Where("business_id = ?", businessID)
	if slot != "" {
		db = db.Where("slot = ?", slot)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rules []model.ScheduleRule
	err := db.Order("slot ASC, start_time ASC, created_at DESC").
		Offset(offset).Limit(limit).
		Find(&rules).Error
	return rules, total, err
}

// ListEnabledByBusiness 加载商户全部启用规则，作为解析快照
func (r *scheduleRuleRepo) ListEnabledByBusiness(ctx context.Context, businessID string) ([]model.ScheduleRule, error) {
	var rules []model.ScheduleRule
	err := r.db.WithContext(ctx).
		Where("business_id = ? AND is_active = ?", businessID, true).
		Order("created_at DESC, rule_id ASC").
		Find(&rules).Error
	return rules, err
}

// Update 按版本号更新，版本不匹配时返回 ErrOptimisticLock
func (r *scheduleRuleRepo) Update(ctx context.Context, rule *model.ScheduleRule) error {
	oldVersion := rule.Version
	result := r.db.WithContext(ctx).
		Model(rule).
		Where("rule_id = ? AND version = ?", rule.RuleID, oldVersion).
		Updates(map[string]interface{}{
			"collection_id": rule.CollectionID,
			"name":          rule.Name,
			"slot":          rule.Slot,
			"days_of_week":  rule.DaysOfWeek,
			"start_time":    rule.StartTime,
			"end_time":      rule.EndTime,
			"is_active":     rule.IsActive,
			"updated_by":    rule.UpdatedBy,
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	rule.Version = oldVersion + 1
	return nil
}

func (r *scheduleRuleRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.ScheduleRule{}).
		Where("rule_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
