package service

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/dto"
	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/model"
	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/repository"
	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/scheduler"
	pkgerrors "github.com/CataloGlobe/cataloglobe-app-sub001/pkg/errors"
)

// ── 排期规则模块业务错误 ──

var (
	ErrScheduleRuleNotFound = errors.New("排期规则不存在")
	ErrBusinessNotFound     = errors.New("商户不存在")
	ErrCollectionNotFound   = errors.New("目录不存在或不属于该商户")
	ErrInvalidSlot          = errors.New("slot 必须为 primary 或 overlay")
	ErrInvalidTimeOfDay     = errors.New("时间格式必须为 HH:MM 或 HH:MM:SS")
	ErrInvalidDaysOfWeek    = errors.New("days_of_week 不能为空且取值必须在 0-6 之间")
)

// ScheduleRuleService 排期规则业务接口
type ScheduleRuleService interface {
	List(ctx context.Context, caller Caller, businessID string, req *dto.ScheduleRuleListRequest) ([]dto.ScheduleRuleResponse, int64, error)
	Create(ctx context.Context, caller Caller, businessID string, req *dto.CreateScheduleRuleRequest) (*dto.ScheduleRuleResponse, error)
	GetByID(ctx context.Context, caller Caller, id string) (*dto.ScheduleRuleResponse, error)
	Update(ctx context.Context, caller Caller, id string, req *dto.UpdateScheduleRuleRequest) (*dto.ScheduleRuleResponse, error)
	Delete(ctx context.Context, caller Caller, id string) error
}

type scheduleRuleService struct {
	repo      *repository.Repository
	snapshots *snapshotLoader
	logger    *zap.Logger
}

// NewScheduleRuleService 创建 ScheduleRuleService 实例
func NewScheduleRuleService(repo *repository.Repository, snapshots *snapshotLoader, logger *zap.Logger) ScheduleRuleService {
	return &scheduleRuleService{repo: repo, snapshots: snapshots, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *scheduleRuleService) List(ctx context.Context, caller Caller, businessID string, req *dto.ScheduleRuleListRequest) ([]dto.ScheduleRuleResponse, int64, error) {
	if err := s.checkBusiness(ctx, caller, businessID); err != nil {
		return nil, 0, err
	}
	if req.Slot != "" {
		if _, ok := scheduler.ParseSlot(req.Slot); !ok {
			return nil, 0, ErrInvalidSlot
		}
	}

	rules, total, err := s.repo.ScheduleRule.List(ctx, businessID, req.Slot, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出排期规则失败", zap.String("business_id", businessID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ScheduleRuleResponse, 0, len(rules))
	for i := range rules {
		result = append(result, *toScheduleRuleResponse(&rules[i]))
	}
	return result, total, nil
}

// ────────────────────── Create ──────────────────────

func (s *scheduleRuleService) Create(ctx context.Context, caller Caller, businessID string, req *dto.CreateScheduleRuleRequest) (*dto.ScheduleRuleResponse, error) {
	if err := s.checkBusiness(ctx, caller, businessID); err != nil {
		return nil, err
	}

	slot, ok := scheduler.ParseSlot(req.Slot)
	if !ok {
		return nil, ErrInvalidSlot
	}
	days, err := normalizeDays(req.DaysOfWeek)
	if err != nil {
		return nil, err
	}
	start, ok := scheduler.NormalizeTimeOfDay(req.StartTime)
	if !ok {
		return nil, ErrInvalidTimeOfDay
	}
	end, ok := scheduler.NormalizeTimeOfDay(req.EndTime)
	if !ok {
		return nil, ErrInvalidTimeOfDay
	}
	if err := s.checkCollection(ctx, businessID, req.CollectionID); err != nil {
		return nil, err
	}

	rule := &model.ScheduleRule{
		BusinessID:   businessID,
		CollectionID: req.CollectionID,
		Name:         req.Name,
		Slot:         string(slot),
		DaysOfWeek:   days,
		StartTime:    model.TimeOfDay(start),
		EndTime:      model.TimeOfDay(end),
		IsActive:     true,
	}
	rule.Version = 1
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if caller.UserID != "" {
		rule.CreatedBy = &caller.UserID
		rule.UpdatedBy = &caller.UserID
	}

	if err := s.repo.ScheduleRule.Create(ctx, rule); err != nil {
		s.logger.Error("创建排期规则失败", zap.String("business_id", businessID), zap.Error(err))
		return nil, err
	}
	s.snapshots.Invalidate(ctx, businessID)

	s.logger.Info("排期规则已创建",
		zap.String("rule_id", rule.RuleID),
		zap.String("business_id", businessID),
		zap.String("slot", rule.Slot))
	return toScheduleRuleResponse(rule), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *scheduleRuleService) GetByID(ctx context.Context, caller Caller, id string) (*dto.ScheduleRuleResponse, error) {
	rule, err := s.loadRule(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return toScheduleRuleResponse(rule), nil
}

// ────────────────────── Update ──────────────────────

func (s *scheduleRuleService) Update(ctx context.Context, caller Caller, id string, req *dto.UpdateScheduleRuleRequest) (*dto.ScheduleRuleResponse, error) {
	rule, err := s.loadRule(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if req.Version != rule.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}

	if req.CollectionID != nil && *req.CollectionID != rule.CollectionID {
		if err := s.checkCollection(ctx, rule.BusinessID, *req.CollectionID); err != nil {
			return nil, err
		}
		rule.CollectionID = *req.CollectionID
	}
	if req.Name != nil {
		rule.Name = *req.Name
	}
	if req.Slot != nil {
		slot, ok := scheduler.ParseSlot(*req.Slot)
		if !ok {
			return nil, ErrInvalidSlot
		}
		rule.Slot = string(slot)
	}
	if req.DaysOfWeek != nil {
		days, err := normalizeDays(req.DaysOfWeek)
		if err != nil {
			return nil, err
		}
		rule.DaysOfWeek = days
	}
	if req.StartTime != nil {
		start, ok := scheduler.NormalizeTimeOfDay(*req.StartTime)
		if !ok {
			return nil, ErrInvalidTimeOfDay
		}
		rule.StartTime = model.TimeOfDay(start)
	}
	if req.EndTime != nil {
		end, ok := scheduler.NormalizeTimeOfDay(*req.EndTime)
		if !ok {
			return nil, ErrInvalidTimeOfDay
		}
		rule.EndTime = model.TimeOfDay(end)
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if caller.UserID != "" {
		rule.UpdatedBy = &caller.UserID
	}

	if err := s.repo.ScheduleRule.Update(ctx, rule); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新排期规则失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	s.snapshots.Invalidate(ctx, rule.BusinessID)

	return toScheduleRuleResponse(rule), nil
}

// ────────────────────── Delete ──────────────────────

func (s *scheduleRuleService) Delete(ctx context.Context, caller Caller, id string) error {
	rule, err := s.loadRule(ctx, caller, id)
	if err != nil {
		return err
	}

	if err := s.repo.ScheduleRule.Delete(ctx, id, caller.UserID); err != nil {
		s.logger.Error("删除排期规则失败", zap.String("id", id), zap.Error(err))
		return err
	}
	s.snapshots.Invalidate(ctx, rule.BusinessID)

	s.logger.Info("排期规则已删除", zap.String("rule_id", id), zap.String("business_id", rule.BusinessID))
	return nil
}

// ── 内部辅助方法 ──

// checkBusiness 校验调用方权限与商户存在性
func (s *scheduleRuleService) checkBusiness(ctx context.Context, caller Caller, businessID string) error {
	if !caller.CanManage(businessID) {
		return pkgerrors.ErrBusinessForbidden
	}
	if _, err := s.repo.Business.GetByID(ctx, businessID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBusinessNotFound
		}
		s.logger.Error("查询商户失败", zap.String("business_id", businessID), zap.Error(err))
		return err
	}
	return nil
}

// checkCollection 目录必须属于同一商户
func (s *scheduleRuleService) checkCollection(ctx context.Context, businessID, collectionID string) error {
	col, err := s.repo.Collection.GetByID(ctx, collectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCollectionNotFound
		}
		s.logger.Error("查询目录失败", zap.String("collection_id", collectionID), zap.Error(err))
		return err
	}
	if col.BusinessID != businessID {
		return ErrCollectionNotFound
	}
	return nil
}

func (s *scheduleRuleService) loadRule(ctx context.Context, caller Caller, id string) (*model.ScheduleRule, error) {
	rule, err := s.repo.ScheduleRule.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleRuleNotFound
		}
		s.logger.Error("查询排期规则失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if !caller.CanManage(rule.BusinessID) {
		return nil, pkgerrors.ErrBusinessForbidden
	}
	return rule, nil
}

// normalizeDays 去重、排序并校验星期取值
func normalizeDays(days []int) (model.IntArray, error) {
	if len(days) == 0 {
		return nil, ErrInvalidDaysOfWeek
	}
	var seen [7]bool
	out := make(model.IntArray, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 {
			return nil, ErrInvalidDaysOfWeek
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Ints(out)
	return out, nil
}

func toScheduleRuleResponse(rule *model.ScheduleRule) *dto.ScheduleRuleResponse {
	days := make([]int, len(rule.DaysOfWeek))
	copy(days, rule.DaysOfWeek)
	return &dto.ScheduleRuleResponse{
		ID:           rule.RuleID,
		BusinessID:   rule.BusinessID,
		CollectionID: rule.CollectionID,
		Name:         rule.Name,
		Slot:         rule.Slot,
		DaysOfWeek:   days,
		StartTime:    string(rule.StartTime),
		EndTime:      string(rule.EndTime),
		IsActive:     rule.IsActive,
		Version:      rule.Version,
		CreatedAt:    rule.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:    rule.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
