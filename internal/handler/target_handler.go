// Package handler 提供 HTTP 请求处理器
// 本文件处理外呼目标相关的 API 请求
// 批量导入走队列异步落库，手动单项操作同步调网关
package handler

import (
	"zalo_outreach_server/internal/dto/request"
	"zalo_outreach_server/internal/service"

	"github.com/gin-gonic/gin"
)

// TargetHandler 目标请求处理器
type TargetHandler struct {
	targetSvc service.TargetService
}

// NewTargetHandler 创建目标处理器实例
func NewTargetHandler(targetSvc service.TargetService) *TargetHandler {
	return &TargetHandler{targetSvc: targetSvc}
}

// ImportTargets 批量导入目标
// POST /target/import
// 请求体: request.ImportTargetsRequest
// 响应: respond.ImportRespond (派发批次和任务 id)
func (h *TargetHandler) ImportTargets(c *gin.Context) {
	var req request.ImportTargetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	req.UserUuid = c.GetString("user_id")
	data, err := h.targetSvc.ImportTargets(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// CreateTarget 单个创建目标
// POST /target/create
// 请求体: request.CreateTargetRequest
func (h *TargetHandler) CreateTarget(c *gin.Context) {
	var req request.CreateTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.targetSvc.CreateTarget(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// GetTargetList 分页查询目标
// GET /target/list?accountUuid=xxx&page=1&pageSize=50
// 查询参数: request.TargetListRequest
// 响应: respond.TargetListRespond
func (h *TargetHandler) GetTargetList(c *gin.Context) {
	var req request.TargetListRequest
	// 使用 ShouldBindQuery 绑定 URL 查询参数
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.targetSvc.GetTargetList(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// ManualScan 手动扫描单个目标
// POST /target/scan
// 请求体: request.ManualScanRequest
// 配额用尽时返回 CodeQuotaExceeded
func (h *TargetHandler) ManualScan(c *gin.Context) {
	var req request.ManualScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.targetSvc.ManualScan(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// SendFriendRequest 手动发送好友申请
// POST /target/sendFriendRequest
// 请求体: request.ManualFriendRequestRequest
func (h *TargetHandler) SendFriendRequest(c *gin.Context) {
	var req request.ManualFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.targetSvc.ManualSendFriendRequest(req); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// CancelFriendRequest 手动撤回好友申请
// POST /target/cancelFriendRequest
// 请求体: request.ManualFriendRequestRequest
func (h *TargetHandler) CancelFriendRequest(c *gin.Context) {
	var req request.ManualFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	if err := h.targetSvc.ManualCancelFriendRequest(req); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// SendMessage 手动发送消息
// POST /target/sendMessage
// 请求体: request.ManualMessageRequest
// 响应: respond.ManualMessageRespond (成功时携带 msgId)
func (h *TargetHandler) SendMessage(c *gin.Context) {
	var req request.ManualMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.targetSvc.ManualSendMessage(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
