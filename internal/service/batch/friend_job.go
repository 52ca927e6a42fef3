package batch

import (
	"context"

	"zalo_outreach_server/internal/infrastructure/mq"
	"zalo_outreach_server/internal/model"
	"zalo_outreach_server/pkg/constants"

	"go.uber.org/zap"
)

// HandleSendRequests 好友申请批任务
// 先处理撤回列表（腾出申请位），再处理发送列表；
// 每个动作同步更新目标、待处理计数和当日配额
func (w *Worker) HandleSendRequests(ctx context.Context, job *mq.Job) error {
	var payload mq.SendRequestsPayload
	if err := unmarshalPayload(job, &payload); err != nil {
		return err
	}

	total := len(payload.CancelUuids) + len(payload.SendUuids)
	done := 0

	// ==================== 撤回 ====================

	cancelTargets, err := w.repos.Target.FindByUuids(payload.CancelUuids)
	if err != nil {
		return err
	}
	for i := range cancelTargets {
		target := &cancelTargets[i]
		if !target.HasSentFriendRequest {
			// 任务重试或好友同步已经处理过，跳过
			done++
			continue
		}

		if err := w.client.CancelFriendRequest(ctx, payload.AccountUuid, target.Uid); err != nil {
			if ctx.Err() != nil {
				return err
			}
			zap.L().Warn("cancel friend request failed",
				zap.String("target", target.Uuid), zap.Error(err))
			done++
			continue
		}

		target.HasSentFriendRequest = false
		if payload.Mode == model.ModeAuto {
			target.AutoRequestsCanceled++
		} else {
			target.ManualRequestsCanceled++
		}
		if err := w.repos.Target.Update(target); err != nil {
			return err
		}
		if err := w.repos.Setting.AddPendingFriendRequests(payload.AccountUuid, -1); err != nil {
			return err
		}
		if err := w.quota.RecordFriendRequestCanceled(payload.AccountUuid, target.Uuid, target.Phone, payload.Mode); err != nil {
			return err
		}

		done++
		w.heartbeat(job.ID, done, total)
		if !sleepItem(ctx, constants.FRIEND_REQUEST_ITEM_DELAY) {
			return ctx.Err()
		}
	}

	// ==================== 发送 ====================

	sendTargets, err := w.repos.Target.FindByUuids(payload.SendUuids)
	if err != nil {
		return err
	}
	failures := 0
	var errs []string
	for i := range sendTargets {
		target := &sendTargets[i]
		if target.IsFriend || target.HasSentFriendRequest {
			done++
			continue
		}

		// 自动模式执行时二次校验配额
		if payload.Mode == model.ModeAuto {
			remaining, err := w.quota.FriendRequestRemaining(payload.AccountUuid)
			if err != nil {
				return err
			}
			if remaining <= 0 {
				zap.L().Info("friend request quota exhausted mid-batch, stopping",
					zap.String("job", job.ID))
				_ = w.alert.Notify("quota_friend_request_"+payload.AccountUuid,
					"friend request quota exhausted: "+payload.AccountUuid)
				break
			}
		}

		if err := w.client.SendFriendRequest(ctx, payload.AccountUuid, target.Uid, payload.Greeting); err != nil {
			if ctx.Err() != nil {
				return err
			}
			zap.L().Warn("send friend request failed",
				zap.String("target", target.Uuid), zap.Error(err))
			errs = appendBounded(errs, target.Phone+": "+err.Error())
			failures++
			done++
			if !sleepItem(ctx, constants.FRIEND_REQUEST_ITEM_DELAY) {
				return ctx.Err()
			}
			continue
		}

		target.HasSentFriendRequest = true
		if payload.Mode == model.ModeAuto {
			target.AutoRequestsSent++
		} else {
			target.ManualRequestsSent++
		}
		if err := w.repos.Target.Update(target); err != nil {
			return err
		}
		if err := w.repos.Setting.AddPendingFriendRequests(payload.AccountUuid, 1); err != nil {
			return err
		}
		if err := w.repos.Setting.IncrementTotalFriendRequestsSent(payload.AccountUuid); err != nil {
			return err
		}
		if err := w.quota.RecordFriendRequestSent(payload.AccountUuid, target.Uuid, target.Phone, payload.Mode); err != nil {
			return err
		}

		done++
		w.heartbeat(job.ID, done, total)
		if i < len(sendTargets)-1 && !sleepItem(ctx, constants.FRIEND_REQUEST_ITEM_DELAY) {
			return ctx.Err()
		}
	}

	// 整批发送全部失败通常意味着账号被风控，发告警（带限频）
	if len(sendTargets) > 0 && failures == len(sendTargets) {
		_ = w.alert.Notify("friend_request_"+payload.AccountUuid,
			"friend request batch all failed: "+payload.AccountUuid)
	}

	zap.L().Info("friend request batch done",
		zap.String("job", job.ID),
		zap.Int("canceled", len(cancelTargets)),
		zap.Int("sent", len(sendTargets)-failures),
		zap.Int("failures", failures),
		zap.Strings("errors", errs))
	return nil
}
