package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/CataloGlobe/cataloglobe-app-sub001/config"
	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/api/handler"
	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/api/middleware"
	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/api/validation"
	"github.com/CataloGlobe/cataloglobe-app-sub001/pkg/jwt"
	"github.com/CataloGlobe/cataloglobe-app-sub001/pkg/metrics"
	"github.com/CataloGlobe/cataloglobe-app-sub001/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时黑名单与限流降级放行
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, m *metrics.Metrics, logger *zap.Logger) (*gin.Engine, error) {
	if err := validation.Register(); err != nil {
		return nil, err
	}

	var (
		blacklist middleware.TokenBlacklist
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitBytes))

	// ── 运维端点 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 公开接口（无需认证，限流）
		public := v1.Group("/public")
		public.Use(middleware.RateLimit(limiter, cfg.RateLimit.PublicRequests, cfg.RateLimit.PublicWindow))
		{
			public.GET("/businesses/:id/active-collection", h.Public.GetActiveCollection)
			public.GET("/businesses/:id/menu", h.Public.GetMenu)
		}

		// 需要认证的路由：商户所有者或平台管理员（商户归属在 Service 层校验）
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist))
		authorized.Use(middleware.RoleAuth(jwt.RoleAdmin, jwt.RoleOwner))
		{
			businesses := authorized.Group("/businesses/:id")
			{
				businesses.GET("/schedule-rules", h.ScheduleRule.ListRules)
				businesses.POST("/schedule-rules", h.ScheduleRule.CreateRule)
				businesses.GET("/export/active-collection", h.Export.ExportActiveCollection)
				businesses.GET("/export/schedule.ics", h.Export.ExportScheduleICS)
			}

			scheduleRules := authorized.Group("/schedule-rules")
			{
				scheduleRules.GET("/:id", h.ScheduleRule.GetRule)
				scheduleRules.PUT("/:id", h.ScheduleRule.UpdateRule)
				scheduleRules.DELETE("/:id", h.ScheduleRule.DeleteRule)
			}
		}
	}

	return r, nil
}
