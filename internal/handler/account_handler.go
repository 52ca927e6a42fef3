// Package handler 提供 HTTP 请求处理器
// 本文件处理 Zalo 账号接入和自动化设置相关的 API 请求
package handler

import (
	"zalo_outreach_server/internal/dto/request"
	"zalo_outreach_server/internal/service"
	"zalo_outreach_server/pkg/errorx"

	"github.com/gin-gonic/gin"
)

// AccountHandler 账号请求处理器
type AccountHandler struct {
	accountSvc service.AccountService
}

// NewAccountHandler 创建账号处理器实例
func NewAccountHandler(accountSvc service.AccountService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc}
}

// CreateAccount 接入 Zalo 账号
// POST /account/create
// 请求体: request.CreateAccountRequest
// 响应: respond.AccountInfoRespond (不含凭证)
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req request.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.accountSvc.CreateAccount(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// GetAccountList 获取用户名下的账号列表
// GET /account/list?ownerUuid=xxx
// 响应: []respond.AccountInfoRespond
func (h *AccountHandler) GetAccountList(c *gin.Context) {
	ownerUuid := c.Query("ownerUuid")
	if ownerUuid == "" {
		HandleError(c, errorx.ErrInvalidParam)
		return
	}
	data, err := h.accountSvc.GetAccountList(ownerUuid)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// GetAccountInfo 获取账号信息
// GET /account/info?uuid=xxx
// 响应: respond.AccountInfoRespond
func (h *AccountHandler) GetAccountInfo(c *gin.Context) {
	uuid := c.Query("uuid")
	if uuid == "" {
		HandleError(c, errorx.ErrInvalidParam)
		return
	}
	data, err := h.accountSvc.GetAccountInfo(uuid)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// DisableAccount 禁用账号
// POST /account/disable
// 请求体: { uuid: string }
func (h *AccountHandler) DisableAccount(c *gin.Context) {
	var req struct {
		Uuid string `json:"uuid" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.accountSvc.DisableAccount(req.Uuid); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// GetSetting 获取自动化设置
// GET /account/setting?accountUuid=xxx
// 响应: respond.SettingRespond
func (h *AccountHandler) GetSetting(c *gin.Context) {
	accountUuid := c.Query("accountUuid")
	if accountUuid == "" {
		HandleError(c, errorx.ErrInvalidParam)
		return
	}
	data, err := h.accountSvc.GetSetting(accountUuid)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// UpdateSetting 更新自动化设置
// POST /account/updateSetting
// 请求体: request.UpdateSettingRequest (指针字段为 nil 表示不修改)
func (h *AccountHandler) UpdateSetting(c *gin.Context) {
	var req request.UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.accountSvc.UpdateSetting(req); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// UpdateDailyScanStatus 翻转当日扫描开关
// POST /account/updateDailyScanStatus
// 请求体: request.UpdateDailyScanStatusRequest
// 账号设置和当日跟踪记录里的开关镜像一起翻转
func (h *AccountHandler) UpdateDailyScanStatus(c *gin.Context) {
	var req request.UpdateDailyScanStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.accountSvc.UpdateDailyScanStatus(req.AccountUuid, *req.Enabled); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}
