// Package target 提供外呼目标的业务逻辑
// 批量导入走队列，手动单项操作直接调网关并同步记账
package target

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"zalo_outreach_server/internal/dao/mysql/repository"
	"zalo_outreach_server/internal/dto/request"
	"zalo_outreach_server/internal/dto/respond"
	"zalo_outreach_server/internal/infrastructure/zalo"
	"zalo_outreach_server/internal/model"
	"zalo_outreach_server/internal/service/dispatch"
	"zalo_outreach_server/internal/service/quota"
	"zalo_outreach_server/pkg/errorx"
	"zalo_outreach_server/pkg/util/random"
	"zalo_outreach_server/pkg/util/snowflake"
)

const timeLayout = "2006-01-02 15:04:05"

// targetService 目标业务逻辑实现
type targetService struct {
	repos    *repository.Repositories
	client   zalo.Client
	quota    *quota.Service
	dispatch *dispatch.Service
}

// NewTargetService 构造函数，注入所有依赖
func NewTargetService(repos *repository.Repositories, client zalo.Client,
	quotaSvc *quota.Service, dispatchSvc *dispatch.Service) *targetService {
	return &targetService{
		repos:    repos,
		client:   client,
		quota:    quotaSvc,
		dispatch: dispatchSvc,
	}
}

// ImportTargets 批量导入目标
// 号码切成定长批次入队，由导入 worker 落库，重复号码静默跳过
func (t *targetService) ImportTargets(req request.ImportTargetsRequest) (*respond.ImportRespond, error) {
	jobIds, err := t.dispatch.DispatchImport(context.Background(), req.AccountUuid, req.UserUuid, req.Phones)
	if err != nil {
		zap.L().Error("导入派发失败", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	return &respond.ImportRespond{
		Total:    len(req.Phones),
		Batches:  len(jobIds),
		JobIds:   jobIds,
		Accepted: len(req.Phones),
	}, nil
}

// CreateTarget 单个创建目标
func (t *targetService) CreateTarget(req request.CreateTargetRequest) (*respond.TargetInfoRespond, error) {
	if _, err := t.repos.Target.FindByAccountAndPhone(req.AccountUuid, req.Phone); err == nil {
		return nil, errorx.New(errorx.CodeInvalidParam, "该号码已存在")
	} else if errorx.GetCode(err) != errorx.CodeNotFound {
		return nil, errorx.ErrServerBusy
	}

	target := &model.PhoneTarget{
		Uuid:        fmt.Sprintf("T%s", random.GetNowAndLenRandomString(11)),
		AccountUuid: req.AccountUuid,
		Phone:       req.Phone,
	}
	if err := t.repos.Target.Create(target); err != nil {
		zap.L().Error(err.Error())
		return nil, errorx.ErrServerBusy
	}
	return toTargetRespond(target), nil
}

// GetTargetList 分页查询目标
func (t *targetService) GetTargetList(req request.TargetListRequest) (*respond.TargetListRespond, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	targets, total, err := t.repos.Target.FindByAccountPaged(req.AccountUuid, (page-1)*pageSize, pageSize)
	if err != nil {
		zap.L().Error(err.Error())
		return nil, errorx.ErrServerBusy
	}
	rsp := &respond.TargetListRespond{Total: total}
	for i := range targets {
		rsp.Targets = append(rsp.Targets, *toTargetRespond(&targets[i]))
	}
	return rsp, nil
}

// ManualScan 手动扫描单个目标
// 和批扫描走同一条记账链路：比较后递增 + 明细去重，mode 记 manual
func (t *targetService) ManualScan(req request.ManualScanRequest) (*respond.ManualScanRespond, error) {
	remaining, err := t.quota.ScanRemaining(req.AccountUuid)
	if err != nil {
		return nil, errorx.ErrServerBusy
	}
	if remaining <= 0 {
		return nil, errorx.ErrQuotaExceeded
	}

	target, err := t.repos.Target.FindByUuid(req.TargetUuid)
	if err != nil {
		return nil, errorx.New(errorx.CodeNotFound, "目标不存在")
	}

	pre := target.ScanCount
	info, err := t.client.Scan(context.Background(), req.AccountUuid, target.Phone)
	if err != nil {
		zap.L().Warn("手动扫描失败", zap.String("target", target.Uuid), zap.Error(err))
		return nil, errorx.Wrap(err, errorx.CodeProviderError, "网关扫描失败")
	}

	hasInfo := info != nil
	if hasInfo {
		target.Uid = info.Uid
		target.ZaloName = info.ZaloName
		target.DisplayName = info.DisplayName
		target.Avatar = info.Avatar
		target.ProfileJSON = info.Raw
		target.HasScanInfo = true
	}
	target.LastScannedAt = sql.NullTime{Time: time.Now(), Valid: true}
	if err := t.repos.Target.Update(target); err != nil {
		return nil, errorx.ErrServerBusy
	}

	counted, err := t.repos.Target.CompareAndIncrementScanCount(target.Uuid, pre)
	if err != nil {
		return nil, errorx.ErrServerBusy
	}
	if counted {
		if err := t.quota.RecordScan(req.AccountUuid, target.Uuid, target.Phone, hasInfo, model.ModeManual); err != nil {
			return nil, errorx.ErrServerBusy
		}
	}

	target.ScanCount = pre + 1
	return &respond.ManualScanRespond{Found: hasInfo, Target: *toTargetRespond(target)}, nil
}

// ManualSendFriendRequest 手动发送好友申请
func (t *targetService) ManualSendFriendRequest(req request.ManualFriendRequestRequest) error {
	target, err := t.repos.Target.FindByUuid(req.TargetUuid)
	if err != nil {
		return errorx.New(errorx.CodeNotFound, "目标不存在")
	}
	if target.Uid == "" {
		return errorx.New(errorx.CodeInvalidParam, "目标尚未扫描到 uid")
	}
	if target.IsFriend {
		return errorx.New(errorx.CodeInvalidParam, "目标已是好友")
	}
	if target.HasSentFriendRequest {
		return errorx.New(errorx.CodeInvalidParam, "已有未决申请")
	}

	if err := t.client.SendFriendRequest(context.Background(), req.AccountUuid, target.Uid, req.Greeting); err != nil {
		return errorx.Wrap(err, errorx.CodeProviderError, "网关发送申请失败")
	}

	target.HasSentFriendRequest = true
	target.ManualRequestsSent++
	if err := t.repos.Target.Update(target); err != nil {
		return errorx.ErrServerBusy
	}
	if err := t.repos.Setting.AddPendingFriendRequests(req.AccountUuid, 1); err != nil {
		return errorx.ErrServerBusy
	}
	if err := t.repos.Setting.IncrementTotalFriendRequestsSent(req.AccountUuid); err != nil {
		return errorx.ErrServerBusy
	}
	return t.quota.RecordFriendRequestSent(req.AccountUuid, target.Uuid, target.Phone, model.ModeManual)
}

// ManualCancelFriendRequest 手动撤回好友申请
func (t *targetService) ManualCancelFriendRequest(req request.ManualFriendRequestRequest) error {
	target, err := t.repos.Target.FindByUuid(req.TargetUuid)
	if err != nil {
		return errorx.New(errorx.CodeNotFound, "目标不存在")
	}
	if !target.HasSentFriendRequest {
		return errorx.New(errorx.CodeInvalidParam, "目标没有未决申请")
	}

	if err := t.client.CancelFriendRequest(context.Background(), req.AccountUuid, target.Uid); err != nil {
		return errorx.Wrap(err, errorx.CodeProviderError, "网关撤回申请失败")
	}

	target.HasSentFriendRequest = false
	target.ManualRequestsCanceled++
	if err := t.repos.Target.Update(target); err != nil {
		return errorx.ErrServerBusy
	}
	if err := t.repos.Setting.AddPendingFriendRequests(req.AccountUuid, -1); err != nil {
		return errorx.ErrServerBusy
	}
	return t.quota.RecordFriendRequestCanceled(req.AccountUuid, target.Uuid, target.Phone, model.ModeManual)
}

// ManualSendMessage 手动发送消息
// 成功判定同批任务：msgId 为空按失败处理并打粘性标记
func (t *targetService) ManualSendMessage(req request.ManualMessageRequest) (*respond.ManualMessageRespond, error) {
	target, err := t.repos.Target.FindByUuid(req.TargetUuid)
	if err != nil {
		return nil, errorx.New(errorx.CodeNotFound, "目标不存在")
	}
	if target.Uid == "" {
		return nil, errorx.New(errorx.CodeInvalidParam, "目标尚未扫描到 uid")
	}

	result, sendErr := t.client.SendMessage(context.Background(), req.AccountUuid, target.Uid, req.Content)

	now := time.Now()
	target.LastMessageSentAt = sql.NullTime{Time: now, Valid: true}
	logEntry := &model.MessageLog{
		ID:          snowflake.GenerateID(),
		AccountUuid: req.AccountUuid,
		TargetUuid:  target.Uuid,
		Phone:       target.Phone,
		Content:     req.Content,
		Mode:        model.ModeManual,
		CreatedAt:   now,
	}

	rsp := &respond.ManualMessageRespond{}
	switch {
	case sendErr != nil:
		target.LastMessageSuccess = false
		if zalo.IsMessageBlockedError(sendErr) {
			target.HasMessageBlockedError = true
		}
		if zalo.IsStrangerBlockedError(sendErr) {
			target.HasStrangerBlockedError = true
		}
		logEntry.Status = model.MessageStatusFailed
		logEntry.ErrorMsg = sendErr.Error()
		rsp.Error = sendErr.Error()

	case result == nil || result.MsgId == "":
		target.LastMessageSuccess = false
		target.HasNoMsgIdError = true
		logEntry.Status = model.MessageStatusFailed
		logEntry.ErrorMsg = "gateway returned success without msgId"
		rsp.Error = logEntry.ErrorMsg

	default:
		target.MessagesSent++
		target.LastMessageSuccess = true
		target.HasMessageBlockedError = false
		target.HasNoMsgIdError = false
		logEntry.Status = model.MessageStatusSent
		logEntry.IsSuccess = true
		logEntry.MsgId = result.MsgId
		rsp.Success = true
		rsp.MsgId = result.MsgId
		if err := t.quota.RecordMessage(req.AccountUuid, model.ModeManual); err != nil {
			return nil, errorx.ErrServerBusy
		}
	}

	if err := t.repos.Target.Update(target); err != nil {
		return nil, errorx.ErrServerBusy
	}
	if err := t.repos.MessageLog.Create(logEntry); err != nil {
		return nil, errorx.ErrServerBusy
	}
	return rsp, nil
}

func toTargetRespond(target *model.PhoneTarget) *respond.TargetInfoRespond {
	rsp := &respond.TargetInfoRespond{
		Uuid:                    target.Uuid,
		AccountUuid:             target.AccountUuid,
		Phone:                   target.Phone,
		Uid:                     target.Uid,
		ZaloName:                target.ZaloName,
		DisplayName:             target.DisplayName,
		Avatar:                  target.Avatar,
		ScanCount:               target.ScanCount,
		HasScanInfo:             target.HasScanInfo,
		IsFriend:                target.IsFriend,
		HasSentFriendRequest:    target.HasSentFriendRequest,
		MessagesSent:            target.MessagesSent,
		LastMessageSuccess:      target.LastMessageSuccess,
		HasMessageBlockedError:  target.HasMessageBlockedError,
		HasStrangerBlockedError: target.HasStrangerBlockedError,
		HasNoMsgIdError:         target.HasNoMsgIdError,
	}
	if target.LastScannedAt.Valid {
		rsp.LastScannedAt = target.LastScannedAt.Time.Format(timeLayout)
	}
	if target.LastMessageSentAt.Valid {
		rsp.LastMessageSentAt = target.LastMessageSentAt.Time.Format(timeLayout)
	}
	return rsp
}
