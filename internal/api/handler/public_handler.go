package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/dto"
	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/service"
	"github.com/CataloGlobe/cataloglobe-app-sub001/pkg/response"
)

// PublicHandler 公开目录解析 HTTP 处理器（无需认证）
type PublicHandler struct {
	resolveSvc service.ResolveService
}

// NewPublicHandler 创建 PublicHandler
func NewPublicHandler(resolveSvc service.ResolveService) *PublicHandler {
	return &PublicHandler{resolveSvc: resolveSvc}
}

// GetActiveCollection 解析当前应展示的目录
// GET /api/v1/public/businesses/:id/active-collection?slot=primary|overlay&at=RFC3339
func (h *PublicHandler) GetActiveCollection(c *gin.Context) {
	var req dto.ResolveRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, response.CodeInvalidSlot, "slot 必须为 primary 或 overlay")
		return
	}

	result, err := h.resolveSvc.ActiveCollection(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleResolveError(c, err)
		return
	}

	response.OK(c, result)
}

// GetMenu 解析主目录与叠加目录并返回可见条目
// GET /api/v1/public/businesses/:id/menu?at=RFC3339
func (h *PublicHandler) GetMenu(c *gin.Context) {
	menu, err := h.resolveSvc.Menu(c.Request.Context(), c.Param("id"), c.Query("at"))
	if err != nil {
		h.handleResolveError(c, err)
		return
	}

	response.OK(c, menu)
}

func (h *PublicHandler) handleResolveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBusinessNotFound):
		response.NotFound(c, response.CodeBusiness, "商户不存在")
	case errors.Is(err, service.ErrInvalidSlot):
		response.BadRequest(c, response.CodeInvalidSlot, err.Error())
	case errors.Is(err, service.ErrInvalidAt):
		response.BadRequest(c, response.CodeInvalidAt, err.Error())
	default:
		response.InternalError(c)
	}
}
