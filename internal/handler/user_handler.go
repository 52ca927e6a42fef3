// Package handler 提供 HTTP 请求处理器
// 本文件处理运营用户和认证相关的 API 请求
package handler

import (
	"zalo_outreach_server/internal/dto/request"
	"zalo_outreach_server/internal/service"
	"zalo_outreach_server/internal/service/auth"
	"zalo_outreach_server/pkg/errorx"
	"zalo_outreach_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户请求处理器
// 通过构造函数注入 UserService，遵循依赖倒置原则
type UserHandler struct {
	userSvc service.UserService
	authSvc *auth.Service
}

// NewUserHandler 创建用户处理器实例
func NewUserHandler(userSvc service.UserService, authSvc *auth.Service) *UserHandler {
	return &UserHandler{userSvc: userSvc, authSvc: authSvc}
}

// Register 用户注册
// POST /register
// 请求体: request.RegisterRequest
// 响应: respond.RegisterRespond (用户信息)
func (h *UserHandler) Register(c *gin.Context) {
	// 1. 绑定并验证请求参数
	var req request.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}

	// 2. 调用 Service 层处理业务逻辑
	data, err := h.userSvc.Register(req)
	if err != nil {
		HandleError(c, err)
		return
	}

	// 3. 返回成功响应
	HandleSuccess(c, data)
}

// Login 用户登录（密码登录）
// POST /login
// 请求体: request.LoginRequest
// 响应: respond.LoginRespond (用户信息 + JWT Token)
func (h *UserHandler) Login(c *gin.Context) {
	var req request.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.userSvc.Login(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// RefreshToken 刷新 Access Token
// POST /auth/refresh
// 请求体: request.RefreshTokenRequest
// 响应: { access_token: string }
//
// 单点互踢机制:
//   - 用户登录时会在 Redis 中存储 Token ID
//   - 如果用户在其他设备登录，会覆盖旧的 Token ID
//   - 使用旧 Token ID 刷新时会被拒绝
func (h *UserHandler) RefreshToken(c *gin.Context) {
	var req request.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}

	// 1. 解析 Refresh Token
	claims, err := jwt.ParseToken(req.RefreshToken)
	if err != nil {
		HandleError(c, errorx.New(errorx.CodeUnauthorized, "Refresh Token 已过期或无效，请重新登录"))
		return
	}

	// 2. 验证是否为 Refresh Token（防止使用 Access Token 刷新）
	if claims.Subject != jwt.SubjectRefresh {
		HandleError(c, errorx.New(errorx.CodeUnauthorized, "请使用 Refresh Token"))
		return
	}

	// 3. 比对 Redis 中最新的 Token ID，实现单点互踢
	valid, err := h.authSvc.ValidateTokenID(claims.UserID, claims.TokenID)
	if err != nil {
		HandleError(c, errorx.New(errorx.CodeUnauthorized, "登录状态已失效，请重新登录"))
		return
	}
	if !valid {
		HandleError(c, errorx.New(errorx.CodeUnauthorized, "您的账号已在其他设备登录，请重新登录"))
		return
	}

	// 4. 生成新的 Access Token
	newAccessToken, err := jwt.GenerateAccessToken(claims.UserID)
	if err != nil {
		HandleError(c, errorx.ErrServerBusy)
		return
	}

	HandleSuccess(c, gin.H{
		"access_token": newAccessToken,
	})
}

// UpdateUserInfo 修改用户信息
// POST /user/updateUserInfo
// 请求体: request.UpdateUserInfoRequest
// 响应: nil (无返回数据)
func (h *UserHandler) UpdateUserInfo(c *gin.Context) {
	var req request.UpdateUserInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.userSvc.UpdateUserInfo(req); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// GetUserInfo 获取单个用户信息
// GET /user/getUserInfo?uuid=xxx
// 响应: respond.GetUserInfoRespond
func (h *UserHandler) GetUserInfo(c *gin.Context) {
	uuid := c.Query("uuid")
	if uuid == "" {
		HandleError(c, errorx.ErrInvalidParam)
		return
	}
	data, err := h.userSvc.GetUserInfo(uuid)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
