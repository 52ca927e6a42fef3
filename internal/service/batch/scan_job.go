package batch

import (
	"context"
	"database/sql"
	"time"

	"zalo_outreach_server/internal/infrastructure/mq"
	"zalo_outreach_server/pkg/constants"

	"go.uber.org/zap"
)

// HandleScanBatch 扫描批任务
// 逐个目标调网关查公开资料，项间延时节流
// 幂等性：比较后递增的基准取派发时快照的 scan_count，任务整批重放时
// 基准已过期，既不会重复计数也不会重复进明细
func (w *Worker) HandleScanBatch(ctx context.Context, job *mq.Job) error {
	var payload mq.ScanBatchPayload
	if err := unmarshalPayload(job, &payload); err != nil {
		return err
	}

	targets, err := w.repos.Target.FindByUuids(payload.TargetUuids)
	if err != nil {
		return err
	}

	zap.L().Info("scan batch started",
		zap.String("job", job.ID),
		zap.String("account", payload.AccountUuid),
		zap.Int("batchIndex", payload.BatchIndex),
		zap.Int("targets", len(targets)))

	// 派发后被删除的目标按失败项记账，不能让它悄悄消失
	requested := len(payload.TargetUuids)
	found := make(map[string]struct{}, len(targets))
	for i := range targets {
		found[targets[i].Uuid] = struct{}{}
	}
	var errs []string
	var succeeded, failed int
	for _, uuid := range payload.TargetUuids {
		if _, ok := found[uuid]; !ok {
			failed++
			errs = appendBounded(errs, uuid+": target missing")
		}
	}
	done := failed
	if done > 0 {
		w.heartbeat(job.ID, done, requested)
	}

	for i := range targets {
		target := &targets[i]

		// 派发后配额可能已被手动操作消耗，执行时二次校验
		remaining, err := w.quota.ScanRemaining(payload.AccountUuid)
		if err != nil {
			return err
		}
		if remaining <= 0 {
			zap.L().Info("scan quota exhausted mid-batch, stopping",
				zap.String("job", job.ID),
				zap.Int("processed", i))
			break
		}

		// 队列里的旧任务没有快照，退回到本次读到的值
		pre, ok := payload.PreScanCounts[target.Uuid]
		if !ok {
			pre = target.ScanCount
		}
		info, err := w.client.Scan(ctx, payload.AccountUuid, target.Phone)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			// 单个目标失败不中断批次，留给下一轮巡检；
			// 失败也是一次尝试，scan_count 照常比较后递增（不进明细）
			zap.L().Warn("scan target failed",
				zap.String("target", target.Uuid),
				zap.String("phone", target.Phone),
				zap.Error(err))
			if _, cerr := w.repos.Target.CompareAndIncrementScanCount(target.Uuid, pre); cerr != nil {
				return cerr
			}
			failed++
			errs = appendBounded(errs, target.Phone+": "+err.Error())
			done++
			w.heartbeat(job.ID, done, requested)
			if i < len(targets)-1 && !sleepItem(ctx, constants.SCAN_ITEM_DELAY) {
				return ctx.Err()
			}
			continue
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
		if err := w.repos.Target.Update(target); err != nil {
			return err
		}

		counted, err := w.repos.Target.CompareAndIncrementScanCount(target.Uuid, pre)
		if err != nil {
			return err
		}
		if counted {
			if err := w.quota.RecordScan(payload.AccountUuid, target.Uuid, target.Phone, hasInfo, payload.Mode); err != nil {
				return err
			}
		} else {
			zap.L().Debug("scan already counted, skipping quota",
				zap.String("target", target.Uuid))
		}

		succeeded++
		done++
		w.heartbeat(job.ID, done, requested)
		if i < len(targets)-1 && !sleepItem(ctx, constants.SCAN_ITEM_DELAY) {
			return ctx.Err()
		}
	}

	zap.L().Info("scan batch done",
		zap.String("job", job.ID),
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed),
		zap.Strings("errors", errs))
	return nil
}
