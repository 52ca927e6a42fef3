package batch

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"zalo_outreach_server/internal/infrastructure/mq"
	"zalo_outreach_server/internal/infrastructure/zalo"
	"zalo_outreach_server/internal/model"
	"zalo_outreach_server/internal/service/quota"
	"zalo_outreach_server/pkg/constants"
	"zalo_outreach_server/pkg/util/snowflake"

	"go.uber.org/zap"
)

// renderTemplate 渲染消息模板
// 支持 {name} 占位符，取展示名，缺省退回 Zalo 账号名
func renderTemplate(template string, target *model.PhoneTarget) string {
	name := target.DisplayName
	if name == "" {
		name = target.ZaloName
	}
	return strings.ReplaceAll(template, "{name}", name)
}

// HandleSendMessages 消息批任务
// 逐个目标发送模板消息，项间延时 30 秒
// 成功判定只看 msgId：网关声称成功但没有 msgId 的按失败处理并打粘性标记
func (w *Worker) HandleSendMessages(ctx context.Context, job *mq.Job) error {
	var payload mq.SendMessagesPayload
	if err := unmarshalPayload(job, &payload); err != nil {
		return err
	}

	targets, err := w.repos.Target.FindByUuids(payload.TargetUuids)
	if err != nil {
		return err
	}

	zap.L().Info("message batch started",
		zap.String("job", job.ID),
		zap.String("account", payload.AccountUuid),
		zap.Int("targets", len(targets)))

	startOfToday := quota.StartOfToday()
	failures := 0
	var errs []string
	for i := range targets {
		target := &targets[i]

		// 陌生人屏蔽是粘性标记，成为好友前发了也白发
		if target.HasStrangerBlockedError {
			continue
		}
		// 任务重试时跳过当日已尝试过的目标
		if target.LastMessageSentAt.Valid && !target.LastMessageSentAt.Time.Before(startOfToday) {
			continue
		}

		// 自动模式执行时二次校验配额
		if payload.Mode == model.ModeAuto {
			remaining, err := w.quota.AutoMessageRemaining(payload.AccountUuid)
			if err != nil {
				return err
			}
			if remaining <= 0 {
				zap.L().Info("message quota exhausted mid-batch, stopping",
					zap.String("job", job.ID))
				_ = w.alert.Notify("quota_message_"+payload.AccountUuid,
					"auto message quota exhausted: "+payload.AccountUuid)
				break
			}
		}

		content := renderTemplate(payload.Template, target)
		result, sendErr := w.client.SendMessage(ctx, payload.AccountUuid, target.Uid, content)
		if sendErr != nil && ctx.Err() != nil {
			return sendErr
		}

		now := time.Now()
		target.LastMessageSentAt = sql.NullTime{Time: now, Valid: true}

		logEntry := &model.MessageLog{
			ID:          snowflake.GenerateID(),
			AccountUuid: payload.AccountUuid,
			TargetUuid:  target.Uuid,
			Phone:       target.Phone,
			Content:     content,
			Mode:        payload.Mode,
			CreatedAt:   now,
		}

		switch {
		case sendErr != nil:
			failures++
			target.LastMessageSuccess = false
			// 按错误文案打粘性标记，保持到后续发送成功为止
			if zalo.IsMessageBlockedError(sendErr) {
				target.HasMessageBlockedError = true
			}
			if zalo.IsStrangerBlockedError(sendErr) {
				target.HasStrangerBlockedError = true
			}
			logEntry.Status = model.MessageStatusFailed
			logEntry.IsSuccess = false
			logEntry.ErrorMsg = truncateError(sendErr.Error())
			errs = appendBounded(errs, target.Phone+": "+sendErr.Error())
			zap.L().Warn("send message failed",
				zap.String("target", target.Uuid), zap.Error(sendErr))

		case result == nil || result.MsgId == "":
			// 网关声称成功但没有 msgId，按失败处理
			failures++
			target.LastMessageSuccess = false
			target.HasNoMsgIdError = true
			logEntry.Status = model.MessageStatusFailed
			logEntry.IsSuccess = false
			logEntry.ErrorMsg = "gateway returned success without msgId"
			zap.L().Warn("send message returned no msgId", zap.String("target", target.Uuid))

		default:
			target.MessagesSent++
			target.LastMessageSuccess = true
			// 发送成功，清除消息相关的粘性标记
			target.HasMessageBlockedError = false
			target.HasNoMsgIdError = false
			logEntry.Status = model.MessageStatusSent
			logEntry.IsSuccess = true
			logEntry.MsgId = result.MsgId
			if err := w.quota.RecordMessage(payload.AccountUuid, payload.Mode); err != nil {
				return err
			}
		}

		if err := w.repos.Target.Update(target); err != nil {
			return err
		}
		if err := w.repos.MessageLog.Create(logEntry); err != nil {
			return err
		}

		w.heartbeat(job.ID, i+1, len(targets))
		if i < len(targets)-1 && !sleepItem(ctx, constants.MESSAGE_ITEM_DELAY) {
			return ctx.Err()
		}
	}

	// 整批全部失败通常意味着账号被风控
	if len(targets) > 0 && failures == len(targets) {
		_ = w.alert.Notify("message_"+payload.AccountUuid,
			"message batch all failed: "+payload.AccountUuid)
	}

	zap.L().Info("message batch done",
		zap.String("job", job.ID),
		zap.Int("failures", failures),
		zap.Strings("errors", errs))
	return nil
}

// truncateError 失败原因按列宽截断
func truncateError(msg string) string {
	const maxLen = 500
	if len(msg) > maxLen {
		return msg[:maxLen]
	}
	return msg
}
