// Package batch 提供批任务的执行逻辑
// worker 从队列取任务后逐项串行处理：限速靠批内延时，
// 幂等靠比较后递增和明细去重，失败重试由队列层负责
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	myredis "zalo_outreach_server/internal/dao/redis"
	"zalo_outreach_server/internal/dao/mysql/repository"
	"zalo_outreach_server/internal/infrastructure/alert"
	"zalo_outreach_server/internal/infrastructure/mq"
	"zalo_outreach_server/internal/infrastructure/zalo"
	"zalo_outreach_server/internal/model"
	"zalo_outreach_server/internal/service/quota"
	"zalo_outreach_server/pkg/constants"
	"zalo_outreach_server/pkg/util/random"

	"go.uber.org/zap"
)

// progressTTL 批任务进度心跳的保留时长
const progressTTL = 10 * time.Minute

// Worker 批任务执行器
type Worker struct {
	repos  *repository.Repositories
	quota  *quota.Service
	client zalo.Client
	cache  myredis.AsyncCacheService
	alert  alert.AlertService
}

// NewWorker 创建批任务执行器
func NewWorker(repos *repository.Repositories, quotaSvc *quota.Service,
	client zalo.Client, cache myredis.AsyncCacheService, alertSvc alert.AlertService) *Worker {
	return &Worker{
		repos:  repos,
		quota:  quotaSvc,
		client: client,
		cache:  cache,
		alert:  alertSvc,
	}
}

// Register 把所有任务处理函数注册到消费端
func (w *Worker) Register(group *mq.ConsumerGroup) {
	group.Register(mq.KindScanBatch, w.HandleScanBatch)
	group.Register(mq.KindImportTargets, w.HandleImportTargets)
	group.Register(mq.KindSendRequests, w.HandleSendRequests)
	group.Register(mq.KindSendMessages, w.HandleSendMessages)
	group.Register(mq.KindSyncFriends, w.HandleSyncFriends)
}

// heartbeat 上报批任务进度
// 低价值写入走异步 Worker Pool，不阻塞批处理主循环
func (w *Worker) heartbeat(jobID string, done, total int) {
	value := fmt.Sprintf("%d/%d", done, total)
	w.cache.SubmitTask(func() {
		if err := w.cache.Set(context.Background(), "job_progress_"+jobID, value, progressTTL); err != nil {
			zap.L().Warn("write job progress failed", zap.String("job", jobID), zap.Error(err))
		}
	})
}

// appendBounded 收集批内失败原因，超出上限的只计数不留明细
func appendBounded(errs []string, msg string) []string {
	if len(errs) >= constants.BATCH_ERROR_LIST_CAP {
		return errs
	}
	return append(errs, msg)
}

// sleepItem 批内逐项延时，可被 ctx 打断
func sleepItem(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// HandleImportTargets 导入批任务
// 重复号码靠 (account, phone) 唯一键静默跳过，任务天然幂等
func (w *Worker) HandleImportTargets(ctx context.Context, job *mq.Job) error {
	var payload mq.ImportTargetsPayload
	if err := unmarshalPayload(job, &payload); err != nil {
		return err
	}

	targets := make([]model.PhoneTarget, 0, len(payload.Phones))
	for _, phone := range payload.Phones {
		targets = append(targets, model.PhoneTarget{
			Uuid:        fmt.Sprintf("T%s", random.GetNowAndLenRandomString(11)),
			AccountUuid: payload.AccountUuid,
			Phone:       phone,
		})
	}

	inserted, err := w.repos.Target.CreateSkipDuplicates(targets)
	if err != nil {
		return err
	}
	zap.L().Info("import batch done",
		zap.String("job", job.ID),
		zap.String("account", payload.AccountUuid),
		zap.String("user", payload.UserUuid),
		zap.Int("batchIndex", payload.BatchIndex),
		zap.Int("totalBatches", payload.TotalBatches),
		zap.Int("submitted", len(payload.Phones)),
		zap.Int64("inserted", inserted))
	w.heartbeat(job.ID, len(payload.Phones), len(payload.Phones))
	return nil
}

// HandleSyncFriends 好友同步任务
// 以网关为准全量对账：好友标记、未决申请标记、待处理申请计数
func (w *Worker) HandleSyncFriends(ctx context.Context, job *mq.Job) error {
	var payload mq.SyncFriendsPayload
	if err := unmarshalPayload(job, &payload); err != nil {
		return err
	}

	friends, err := w.client.ListFriends(ctx, payload.AccountUuid)
	if err != nil {
		return err
	}
	uids := make([]string, 0, len(friends))
	for _, f := range friends {
		uids = append(uids, f.Uid)
	}
	if err := w.repos.Target.SyncFriendUids(payload.AccountUuid, uids); err != nil {
		return err
	}

	pending, err := w.client.ListPendingRequests(ctx, payload.AccountUuid)
	if err != nil {
		return err
	}
	if err := w.repos.Setting.SetPendingFriendRequests(payload.AccountUuid, len(pending)); err != nil {
		return err
	}

	zap.L().Info("friend sync done",
		zap.String("account", payload.AccountUuid),
		zap.Int("friends", len(uids)),
		zap.Int("pending", len(pending)))
	return nil
}

// unmarshalPayload 解析任务参数
func unmarshalPayload(job *mq.Job, v any) error {
	if err := json.Unmarshal(job.Payload, v); err != nil {
		zap.L().Error("bad job payload", zap.String("job", job.ID), zap.Error(err))
		return err
	}
	return nil
}
