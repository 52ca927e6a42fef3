// Package handler 提供 HTTP 请求处理器
// 本文件处理手动触发批派发和任务进度查询
// 与巡检走同一条派发链路，只是 mode 记 manual
package handler

import (
	"context"

	myredis "zalo_outreach_server/internal/dao/redis"
	"zalo_outreach_server/internal/dto/request"
	"zalo_outreach_server/internal/dto/respond"
	"zalo_outreach_server/internal/model"
	"zalo_outreach_server/internal/service"
	"zalo_outreach_server/internal/service/dispatch"
	"zalo_outreach_server/pkg/errorx"

	"github.com/gin-gonic/gin"
)

// DispatchHandler 批派发请求处理器
type DispatchHandler struct {
	dispatchSvc *dispatch.Service
	accountSvc  service.AccountService
	cache       myredis.CacheService
}

// NewDispatchHandler 创建批派发处理器实例
func NewDispatchHandler(dispatchSvc *dispatch.Service, accountSvc service.AccountService,
	cache myredis.CacheService) *DispatchHandler {
	return &DispatchHandler{
		dispatchSvc: dispatchSvc,
		accountSvc:  accountSvc,
		cache:       cache,
	}
}

// DispatchScan 手动触发扫描批派发
// POST /dispatch/scan
// 请求体: request.DispatchRequest
// 响应: respond.DispatchRespond
func (h *DispatchHandler) DispatchScan(c *gin.Context) {
	var req request.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	jobIds, err := h.dispatchSvc.DispatchScan(c.Request.Context(), req.AccountUuid, model.ModeManual)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, &respond.DispatchRespond{Batches: len(jobIds), JobIds: jobIds})
}

// DispatchFriendRequests 手动触发好友申请批派发
// POST /dispatch/friendRequests
// 未决申请达到高水位时先派撤回批，再派发送批
func (h *DispatchHandler) DispatchFriendRequests(c *gin.Context) {
	var req request.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	jobIds, err := h.dispatchSvc.DispatchFriendRequests(c.Request.Context(), req.AccountUuid, model.ModeManual)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, &respond.DispatchRespond{Batches: len(jobIds), JobIds: jobIds})
}

// DispatchMessages 手动触发群发批派发
// POST /dispatch/messages
// 消息模板取自账号的自动化设置，未配置模板时拒绝派发
func (h *DispatchHandler) DispatchMessages(c *gin.Context) {
	var req request.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	setting, err := h.accountSvc.GetSetting(req.AccountUuid)
	if err != nil {
		HandleError(c, err)
		return
	}
	if setting.MessageTemplate == "" {
		HandleError(c, errorx.New(errorx.CodeInvalidParam, "账号未配置消息模板"))
		return
	}
	jobIds, err := h.dispatchSvc.DispatchMessages(c.Request.Context(), req.AccountUuid,
		setting.MessageTemplate, model.ModeManual)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, &respond.DispatchRespond{Batches: len(jobIds), JobIds: jobIds})
}

// DispatchFriendSync 手动触发好友关系同步
// POST /dispatch/friendSync
// 同一账号同一小时内重复触发会被去重，返回空 jobId
func (h *DispatchHandler) DispatchFriendSync(c *gin.Context) {
	var req request.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	jobId, err := h.dispatchSvc.DispatchFriendSync(c.Request.Context(), req.AccountUuid, c.GetString("user_id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	rsp := &respond.DispatchRespond{}
	if jobId != "" {
		rsp.Batches = 1
		rsp.JobIds = []string{jobId}
	}
	HandleSuccess(c, rsp)
}

// GetJobProgress 查询批任务进度
// GET /dispatch/progress?jobId=xxx
// 响应: { jobId: string, progress: string } progress 形如 "12/40"，任务结束后 10 分钟过期
func (h *DispatchHandler) GetJobProgress(c *gin.Context) {
	jobId := c.Query("jobId")
	if jobId == "" {
		HandleError(c, errorx.ErrInvalidParam)
		return
	}
	progress, err := h.cache.Get(context.Background(), "job_progress_"+jobId)
	if err != nil {
		HandleError(c, errorx.Wrap(err, errorx.CodeCacheError, "查询任务进度失败"))
		return
	}
	HandleSuccess(c, gin.H{
		"jobId":    jobId,
		"progress": progress,
	})
}
