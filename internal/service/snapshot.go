package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/repository"
	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/scheduler"
	"github.com/CataloGlobe/cataloglobe-app-sub001/pkg/metrics"
)

// SnapshotCache 规则快照缓存，由 pkg/redis.Client 实现
type SnapshotCache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

const snapshotKeyPrefix = "schedule:rules:"

func snapshotKey(businessID string) string {
	return snapshotKeyPrefix + businessID
}

// snapshotLoader 加载商户启用规则：缓存优先，未命中回源数据库
// 缓存不可用时降级为直接读库，不影响解析
type snapshotLoader struct {
	repo    *repository.Repository
	cache   SnapshotCache
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func newSnapshotLoader(repo *repository.Repository, cache SnapshotCache, ttl time.Duration, m *metrics.Metrics, logger *zap.Logger) *snapshotLoader {
	return &snapshotLoader{repo: repo, cache: cache, ttl: ttl, metrics: m, logger: logger}
}

// Load 返回商户当前的启用规则快照
func (l *snapshotLoader) Load(ctx context.Context, businessID string) ([]scheduler.Rule, error) {
	if l.cache != nil && l.ttl > 0 {
		var cached []scheduler.Rule
		found, err := l.cache.GetJSON(ctx, snapshotKey(businessID), &cached)
		switch {
		case err != nil:
			l.metrics.CacheLookup("error")
			l.logger.Warn("读取规则快照缓存失败，降级读库", zap.String("business_id", businessID), zap.Error(err))
		case found:
			l.metrics.CacheLookup("hit")
			return cached, nil
		default:
			l.metrics.CacheLookup("miss")
		}
	}

	rows, err := l.repo.ScheduleRule.ListEnabledByBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	rules := make([]scheduler.Rule, 0, len(rows))
	for i := range rows {
		rules = append(rules, rows[i].ToSchedulerRule())
	}

	if l.cache != nil && l.ttl > 0 {
		if err := l.cache.SetJSON(ctx, snapshotKey(businessID), rules, l.ttl); err != nil {
			l.logger.Warn("写入规则快照缓存失败", zap.String("business_id", businessID), zap.Error(err))
		}
	}
	return rules, nil
}

// Invalidate 规则变更后清除缓存，失败仅记录日志，快照最终会随 TTL 过期
//
// 写入前已未命中的并发读取可能在清除之后回填旧快照，该快照同样最长存活一个 TTL。
func (l *snapshotLoader) Invalidate(ctx context.Context, businessID string) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Delete(ctx, snapshotKey(businessID)); err != nil {
		l.logger.Warn("清除规则快照缓存失败", zap.String("business_id", businessID), zap.Error(err))
	}
}
