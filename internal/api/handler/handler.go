package handler

import "github.com/CataloGlobe/cataloglobe-app-sub001/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	ScheduleRule *ScheduleRuleHandler
	Public       *PublicHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		ScheduleRule: NewScheduleRuleHandler(svc.ScheduleRule),
		Public:       NewPublicHandler(svc.Resolve),
		Export:       NewExportHandler(svc.Export),
	}
}
