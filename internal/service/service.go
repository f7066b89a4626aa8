package service

import (
	"go.uber.org/zap"

	"github.com/CataloGlobe/cataloglobe-app-sub001/config"
	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/repository"
	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/scheduler"
	"github.com/CataloGlobe/cataloglobe-app-sub001/pkg/jwt"
	"github.com/CataloGlobe/cataloglobe-app-sub001/pkg/metrics"
)

// Service 所有 Service 的聚合入口
type Service struct {
	ScheduleRule ScheduleRuleService
	Resolve      ResolveService
	Export       ExportService
}

// NewService 创建 Service 聚合
// cache 可为 nil，此时规则快照直接读数据库
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	cache SnapshotCache,
	clock scheduler.Clock,
	m *metrics.Metrics,
	logger *zap.Logger,
) (*Service, error) {
	snapshots := newSnapshotLoader(repo, cache, cfg.Schedule.SnapshotCacheTTL, m, logger)

	locations, err := newLocationCache(cfg.Schedule.LocationCacheSize, cfg.Schedule.DefaultTimezone, logger)
	if err != nil {
		return nil, err
	}

	resolve := NewResolveService(repo, snapshots, locations, clock, m, logger)
	return &Service{
		ScheduleRule: NewScheduleRuleService(repo, snapshots, logger),
		Resolve:      resolve,
		Export:       NewExportService(repo, resolve, snapshots, locations, clock, logger),
	}, nil
}

// Caller 当前请求的调用方身份，来自已校验的 JWT
type Caller struct {
	UserID     string
	BusinessID string
	Role       string
}

// CanManage 管理员可管理任意商户，商户所有者仅能管理自己的商户
func (c Caller) CanManage(businessID string) bool {
	switch c.Role {
	case jwt.RoleAdmin:
		return true
	case jwt.RoleOwner:
		return c.BusinessID != "" && c.BusinessID == businessID
	}
	return false
}
