package router

import (
	"zalo_outreach_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// registerQuotaRoutes 注册配额状态路由
func (rt *Router) registerQuotaRoutes(r *gin.Engine) {
	quotaGroup := r.Group("/quota")
	quotaGroup.Use(middleware.JWTAuth())
	{
		quotaGroup.GET("/status", rt.handlers.Quota.GetStatus)
	}
}
