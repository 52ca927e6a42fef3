// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口，聚合所有子模块的路由
package router

import (
	"zalo_outreach_server/internal/handler"

	"github.com/gin-gonic/gin"
)

// Router 路由管理器
// 持有 Handler 聚合，按模块注册各个路由组
type Router struct {
	handlers *handler.Handlers
}

// NewRouter 创建路由管理器
func NewRouter(handlers *handler.Handlers) *Router {
	return &Router{handlers: handlers}
}

// RegisterRoutes 注册所有路由
// 在 https_server.Init() 中调用
func (rt *Router) RegisterRoutes(r *gin.Engine) {
	rt.registerUserRoutes(r)     // 用户与认证路由
	rt.registerAccountRoutes(r)  // 账号与自动化设置路由
	rt.registerTargetRoutes(r)   // 外呼目标路由
	rt.registerQuotaRoutes(r)    // 配额状态路由
	rt.registerDispatchRoutes(r) // 批派发路由
}
