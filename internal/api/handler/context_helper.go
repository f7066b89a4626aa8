package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CataloGlobe/cataloglobe-app-sub001/internal/service"
	"github.com/CataloGlobe/cataloglobe-app-sub001/pkg/response"
)

// MustGetCaller 从 Gin 上下文中提取调用方身份。
// JWT 中间件未注入 user_id 时写入 401 响应并返回 false，调用方应直接 return。
func MustGetCaller(c *gin.Context) (service.Caller, bool) {
	userID := c.GetString("user_id")
	role := c.GetString("role")
	if userID == "" || role == "" {
		response.Unauthorized(c, response.CodeUnauthorized, "未认证")
		return service.Caller{}, false
	}
	return service.Caller{
		UserID:     userID,
		BusinessID: c.GetString("business_id"),
		Role:       role,
	}, true
}

// respondBindError 请求体超限返回 413，其余按参数错误处理
func respondBindError(c *gin.Context, err error) {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodeBodyTooLarge, "请求体过大")
		return
	}
	response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeBadRequest, "参数校验失败", err.Error())
}
