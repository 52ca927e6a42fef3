package router

import (
	"zalo_outreach_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// registerAccountRoutes 注册账号与自动化设置相关路由
func (rt *Router) registerAccountRoutes(r *gin.Engine) {
	accountGroup := r.Group("/account")
	accountGroup.Use(middleware.JWTAuth())
	{
		accountGroup.POST("/create", rt.handlers.Account.CreateAccount)
		accountGroup.GET("/list", rt.handlers.Account.GetAccountList)
		accountGroup.GET("/info", rt.handlers.Account.GetAccountInfo)
		accountGroup.POST("/disable", rt.handlers.Account.DisableAccount)
		accountGroup.GET("/setting", rt.handlers.Account.GetSetting)
		accountGroup.POST("/updateSetting", rt.handlers.Account.UpdateSetting)
		accountGroup.POST("/updateDailyScanStatus", rt.handlers.Account.UpdateDailyScanStatus)
	}
}
