package router

import (
	"zalo_outreach_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// registerUserRoutes 注册用户与认证相关路由
func (rt *Router) registerUserRoutes(r *gin.Engine) {
	// 公开接口 (无需认证)
	r.POST("/login", rt.handlers.User.Login)
	r.POST("/register", rt.handlers.User.Register)
	r.POST("/auth/refresh", rt.handlers.User.RefreshToken)

	// 需要认证的接口
	userGroup := r.Group("/user")
	userGroup.Use(middleware.JWTAuth())
	{
		userGroup.POST("/updateUserInfo", rt.handlers.User.UpdateUserInfo)
		userGroup.GET("/getUserInfo", rt.handlers.User.GetUserInfo)
	}
}
