package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/dto"
	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/model"
	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/repository"
	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/scheduler"
	"github.com/CataloGlobe/cataloglobe-app-sub001/pkg/metrics"
)

// ── 目录解析模块业务错误 ──

var (
	ErrInvalidAt = errors.New("at 必须为 RFC3339 时间")
)

// ResolveService 公开目录解析接口
type ResolveService interface {
	// ActiveCollection 解析单个轨道当前应展示的目录
	ActiveCollection(ctx context.Context, businessID string, req *dto.ResolveRequest) (*dto.ActiveCollectionResponse, error)
	// Menu 解析主目录与叠加目录并附带可见条目
	Menu(ctx context.Context, businessID, at string) (*dto.MenuResponse, error)
}

type resolveService struct {
	repo      *repository.Repository
	snapshots *snapshotLoader
	locations *locationCache
	clock     scheduler.Clock
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewResolveService 创建 ResolveService 实例
func NewResolveService(
	repo *repository.Repository,
	snapshots *snapshotLoader,
	locations *locationCache,
	clock scheduler.Clock,
	m *metrics.Metrics,
	logger *zap.Logger,
) ResolveService {
	return &resolveService{
		repo:      repo,
		snapshots: snapshots,
		locations: locations,
		clock:     clock,
		metrics:   m,
		logger:    logger,
	}
}

// resolveInput 单次请求内共享的解析上下文
type resolveInput struct {
	business *model.Business
	loc      *time.Location
	now      time.Time // 商户本地时间
	rules    []scheduler.Rule
}

// ────────────────────── ActiveCollection ──────────────────────

func (s *resolveService) ActiveCollection(ctx context.Context, businessID string, req *dto.ResolveRequest) (*dto.ActiveCollectionResponse, error) {
	slot := scheduler.SlotPrimary
	if req.Slot != "" {
		var ok bool
		if slot, ok = scheduler.ParseSlot(req.Slot); !ok {
			return nil, ErrInvalidSlot
		}
	}

	in, err := s.prepare(ctx, businessID, req.At)
	if err != nil {
		return nil, err
	}
	res := s.resolve(in, slot)

	resp := &dto.ActiveCollectionResponse{
		BusinessID:   businessID,
		Slot:         string(slot),
		Source:       string(res.Source),
		FallbackStep: string(res.FallbackStep),
		DayOffset:    res.DayOffset,
		ResolvedAt:   in.now.Format(time.RFC3339),
		Timezone:     in.loc.String(),
	}
	if res.Rule != nil {
		resp.RuleID = res.Rule.ID
		resp.CollectionID = res.Rule.CollectionID
	}
	return resp, nil
}

// ────────────────────── Menu ──────────────────────

func (s *resolveService) Menu(ctx context.Context, businessID, at string) (*dto.MenuResponse, error) {
	in, err := s.prepare(ctx, businessID, at)
	if err != nil {
		return nil, err
	}

	resp := &dto.MenuResponse{
		BusinessID: businessID,
		Name:       in.business.Name,
		Timezone:   in.loc.String(),
		ResolvedAt: in.now.Format(time.RFC3339),
	}

	if resp.Primary, err = s.loadCollection(ctx, businessID, s.resolve(in, scheduler.SlotPrimary)); err != nil {
		return nil, err
	}
	if resp.Overlay, err = s.loadCollection(ctx, businessID, s.resolve(in, scheduler.SlotOverlay)); err != nil {
		return nil, err
	}
	return resp, nil
}

// ── 内部辅助方法 ──

// prepare 加载商户、时区与规则快照，并换算解析时刻
func (s *resolveService) prepare(ctx context.Context, businessID, at string) (*resolveInput, error) {
	instant := s.clock.Now()
	if at != "" {
		parsed, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return nil, ErrInvalidAt
		}
		instant = parsed
	}

	business, err := s.repo.Business.GetByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		s.logger.Error("查询商户失败", zap.String("business_id", businessID), zap.Error(err))
		return nil, err
	}
	if !business.IsActive {
		return nil, ErrBusinessNotFound
	}

	rules, err := s.snapshots.Load(ctx, businessID)
	if err != nil {
		s.logger.Error("加载规则快照失败", zap.String("business_id", businessID), zap.Error(err))
		return nil, err
	}

	loc := s.locations.Get(business.Timezone)
	return &resolveInput{
		business: business,
		loc:      loc,
		now:      instant.In(loc),
		rules:    rules,
	}, nil
}

func (s *resolveService) resolve(in *resolveInput, slot scheduler.Slot) scheduler.Resolution {
	start := time.Now()
	res := scheduler.Resolve(in.rules, slot, in.now)
	s.metrics.ObserveResolution(string(slot), string(res.Source), time.Since(start))

	if res.Source == scheduler.SourceNone && slot == scheduler.SlotPrimary {
		s.logger.Debug("商户无可用主目录",
			zap.String("business_id", in.business.BusinessID),
			zap.Int("rules", len(in.rules)))
	}
	return res
}

// loadCollection 加载解析出的目录；目录已被删除时按无结果处理
func (s *resolveService) loadCollection(ctx context.Context, businessID string, res scheduler.Resolution) (*dto.ResolvedCollection, error) {
	collectionID, ok := res.CollectionID()
	if !ok {
		return nil, nil
	}

	col, err := s.repo.Collection.GetByID(ctx, collectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("规则引用的目录不存在",
				zap.String("business_id", businessID),
				zap.String("rule_id", res.Rule.ID),
				zap.String("collection_id", collectionID))
			return nil, nil
		}
		s.logger.Error("查询目录失败", zap.String("collection_id", collectionID), zap.Error(err))
		return nil, err
	}

	items, err := s.repo.Collection.ListVisibleItems(ctx, collectionID)
	if err != nil {
		s.logger.Error("查询目录条目失败", zap.String("collection_id", collectionID), zap.Error(err))
		return nil, err
	}

	out := &dto.ResolvedCollection{
		CollectionID: col.CollectionID,
		Name:         col.Name,
		Kind:         col.Kind,
		Description:  col.Description,
		Source:       string(res.Source),
		FallbackStep: string(res.FallbackStep),
		DayOffset:    res.DayOffset,
		RuleID:       res.Rule.ID,
		Items:        make([]dto.CollectionItemResponse, 0, len(items)),
	}
	for _, it := range items {
		out.Items = append(out.Items, dto.CollectionItemResponse{
			ID:          it.ItemID,
			Name:        it.Name,
			Description: it.Description,
			PriceCents:  it.PriceCents,
			Currency:    it.Currency,
			Position:    it.Position,
		})
	}
	return out, nil
}
