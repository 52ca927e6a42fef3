// Package handler 提供 HTTP 请求处理器
// 本文件处理当日配额状态查询
package handler

import (
	"zalo_outreach_server/internal/dto/respond"
	"zalo_outreach_server/internal/model"
	"zalo_outreach_server/internal/service/quota"
	"zalo_outreach_server/pkg/caplist"
	"zalo_outreach_server/pkg/constants"
	"zalo_outreach_server/pkg/errorx"

	"github.com/gin-gonic/gin"
)

// QuotaHandler 配额请求处理器
type QuotaHandler struct {
	quotaSvc *quota.Service
}

// NewQuotaHandler 创建配额处理器实例
func NewQuotaHandler(quotaSvc *quota.Service) *QuotaHandler {
	return &QuotaHandler{quotaSvc: quotaSvc}
}

// GetStatus 查询账号当日配额状态
// GET /quota/status?accountUuid=xxx
// 响应: respond.QuotaStatusRespond (各项计数、剩余额度和明细列表)
func (h *QuotaHandler) GetStatus(c *gin.Context) {
	accountUuid := c.Query("accountUuid")
	if accountUuid == "" {
		HandleError(c, errorx.ErrInvalidParam)
		return
	}
	record, err := h.quotaSvc.Status(accountUuid)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, toQuotaStatusRespond(record))
}

// toQuotaStatusRespond 把跟踪记录组装为状态响应
// 明细列表从 JSON 列还原，剩余额度在这里统一算（不低于 0）
func toQuotaStatusRespond(record *model.DailyTracking) *respond.QuotaStatusRespond {
	rsp := &respond.QuotaStatusRespond{
		AccountUuid:  record.AccountUuid,
		TrackingDate: record.TrackingDate,

		ScanCountToday:   record.ScanCountToday,
		AutoScansToday:   record.AutoScansToday,
		ManualScansToday: record.ManualScansToday,
		TotalScans:       record.TotalScans,
		DailyScanLimit:   record.DailyScanLimit,
		ScanEnabled:      record.ScanEnabled,

		AutoRequestsSentToday:       record.AutoRequestsSentToday,
		ManualRequestsSentToday:     record.ManualRequestsSentToday,
		AutoRequestsCanceledToday:   record.AutoRequestsCanceledToday,
		ManualRequestsCanceledToday: record.ManualRequestsCanceledToday,
		FriendRequestDailyLimit:     record.FriendRequestDailyLimit,

		ManualMessagesToday:   record.ManualMessagesToday,
		AutoMessagesToday:     record.AutoMessagesToday,
		AutoMessageDailyLimit: record.AutoMessageDailyLimit,
	}

	rsp.WithInfoDetails = caplist.FromJSON(record.WithInfoDetails, constants.DETAIL_LIST_CAP).Entries()
	rsp.WithoutInfoDetails = caplist.FromJSON(record.WithoutInfoDetails, constants.DETAIL_LIST_CAP).Entries()
	rsp.RequestDetails = caplist.FromJSON(record.RequestDetails, constants.DETAIL_LIST_CAP).Entries()

	if record.ScanEnabled {
		rsp.ScanRemaining = clampRemaining(record.DailyScanLimit - record.ScanCountToday)
	}
	rsp.FriendRequestRemaining = clampRemaining(record.FriendRequestDailyLimit - record.AutoRequestsSentToday)
	rsp.MessageRemaining = clampRemaining(record.AutoMessageDailyLimit - record.AutoMessagesToday)
	return rsp
}

func clampRemaining(remaining int) int {
	if remaining < 0 {
		return 0
	}
	return remaining
}
