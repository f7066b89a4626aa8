package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/service"
	pkgerrors "github.com/CataloGlobe/cataloglobe-app-sub001/pkg/errors"
	"github.com/CataloGlobe/cataloglobe-app-sub001/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportActiveCollection 导出当前目录
// GET /api/v1/businesses/:id/export/active-collection?at=RFC3339
func (h *ExportHandler) ExportActiveCollection(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportActiveCollection(c.Request.Context(), caller, c.Param("id"), c.Query("at"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, filename, contentTypeXLSX, buf.Bytes())
}

// ExportScheduleICS 导出排期日历
// GET /api/v1/businesses/:id/export/schedule.ics
func (h *ExportHandler) ExportScheduleICS(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportScheduleICS(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, filename, contentTypeICS, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pkgerrors.ErrBusinessForbidden):
		response.Forbidden(c, "无权操作该商户")
	case errors.Is(err, service.ErrBusinessNotFound):
		response.NotFound(c, response.CodeBusiness, "商户不存在")
	case errors.Is(err, service.ErrInvalidAt):
		response.BadRequest(c, response.CodeInvalidAt, err.Error())
	default:
		response.InternalError(c)
	}
}
