package router

import (
	"zalo_outreach_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// registerDispatchRoutes 注册批派发相关路由
func (rt *Router) registerDispatchRoutes(r *gin.Engine) {
	dispatchGroup := r.Group("/dispatch")
	dispatchGroup.Use(middleware.JWTAuth())
	{
		dispatchGroup.POST("/scan", rt.handlers.Dispatch.DispatchScan)
		dispatchGroup.POST("/friendRequests", rt.handlers.Dispatch.DispatchFriendRequests)
		dispatchGroup.POST("/messages", rt.handlers.Dispatch.DispatchMessages)
		dispatchGroup.POST("/friendSync", rt.handlers.Dispatch.DispatchFriendSync)
		dispatchGroup.GET("/progress", rt.handlers.Dispatch.GetJobProgress)
	}
}
