package service

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// locationCache 缓存 time.LoadLocation 结果，避免每次解析都读取时区数据库
type locationCache struct {
	cache    *lru.Cache[string, *time.Location]
	fallback *time.Location
	logger   *zap.Logger
}

func newLocationCache(size int, defaultTZ string, logger *zap.Logger) (*locationCache, error) {
	fallback, err := time.LoadLocation(defaultTZ)
	if err != nil {
		return nil, fmt.Errorf("默认时区无效: %w", err)
	}
	cache, err := lru.New[string, *time.Location](size)
	if err != nil {
		return nil, err
	}
	return &locationCache{cache: cache, fallback: fallback, logger: logger}, nil
}

// Get 返回商户时区；为空或无效时使用默认时区
func (c *locationCache) Get(name string) *time.Location {
	if name == "" {
		return c.fallback
	}
	if loc, ok := c.cache.Get(name); ok {
		return loc
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		c.logger.Warn("商户时区无效，使用默认时区",
			zap.String("timezone", name), zap.String("default", c.fallback.String()), zap.Error(err))
		loc = c.fallback
	}
	c.cache.Add(name, loc)
	return loc
}
