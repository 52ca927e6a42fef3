package router

import (
	"zalo_outreach_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// registerTargetRoutes 注册外呼目标相关路由
func (rt *Router) registerTargetRoutes(r *gin.Engine) {
	targetGroup := r.Group("/target")
	targetGroup.Use(middleware.JWTAuth())
	{
		targetGroup.POST("/import", rt.handlers.Target.ImportTargets)
		targetGroup.POST("/create", rt.handlers.Target.CreateTarget)
		targetGroup.GET("/list", rt.handlers.Target.GetTargetList)
		targetGroup.POST("/scan", rt.handlers.Target.ManualScan)
		targetGroup.POST("/sendFriendRequest", rt.handlers.Target.SendFriendRequest)
		targetGroup.POST("/cancelFriendRequest", rt.handlers.Target.CancelFriendRequest)
		targetGroup.POST("/sendMessage", rt.handlers.Target.SendMessage)
	}
}
