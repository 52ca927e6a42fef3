// Package dispatch 提供批派发的业务逻辑
// 把"该做的事"切成定长批次写入任务队列，配额裁剪在派发时完成，
// worker 执行时再做二次校验
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	myredis "zalo_outreach_server/internal/dao/redis"
	"zalo_outreach_server/internal/dao/mysql/repository"
	"zalo_outreach_server/internal/infrastructure/mq"
	"zalo_outreach_server/internal/model"
	"zalo_outreach_server/internal/service/quota"
	"zalo_outreach_server/pkg/constants"
	"zalo_outreach_server/pkg/errorx"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service 批派发服务实现
type Service struct {
	repos *repository.Repositories
	queue mq.JobQueue
	cache myredis.CacheService
	quota *quota.Service
}

// NewDispatchService 创建批派发服务实例
func NewDispatchService(repos *repository.Repositories, queue mq.JobQueue,
	cache myredis.CacheService, quotaSvc *quota.Service) *Service {
	return &Service{
		repos: repos,
		queue: queue,
		cache: cache,
		quota: quotaSvc,
	}
}

// newJobID 生成批任务 id
func newJobID(kind string) string {
	return fmt.Sprintf("%s-%s", kind, uuid.NewString())
}

// chunk 把切片切成定长批次
func chunk(items []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	var batches [][]string
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}

// enqueue 组装信封并入队
func (s *Service) enqueue(ctx context.Context, kind, id string, runAt time.Time, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return errorx.Wrapf(err, errorx.CodeQueueError, "marshal payload for %s", id)
	}
	return s.queue.Enqueue(ctx, &mq.Job{
		ID:      id,
		Kind:    kind,
		RunAt:   runAt,
		Payload: raw,
	})
}

// DispatchScan 为账号派发扫描批次
// 取当日剩余配额内最该扫的目标，按批次大小切分；
// 相邻批次 RunAt 间隔一小时，把一天的扫描摊开
func (s *Service) DispatchScan(ctx context.Context, accountUuid, mode string) ([]string, error) {
	remaining, err := s.quota.ScanRemaining(accountUuid)
	if err != nil {
		return nil, err
	}
	if remaining <= 0 {
		zap.L().Info("scan quota exhausted, nothing to dispatch", zap.String("account", accountUuid))
		return nil, nil
	}

	targets, err := s.repos.Target.FindUnscanned(accountUuid, remaining)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, nil
	}

	uuids := make([]string, 0, len(targets))
	// 派发时快照每个目标的扫描计数，worker 拿它做比较后递增的基准；
	// 基准跟着任务走，整批重放时不会再次计数
	preCounts := make(map[string]int, len(targets))
	for _, t := range targets {
		uuids = append(uuids, t.Uuid)
		preCounts[t.Uuid] = t.ScanCount
	}

	batches := chunk(uuids, constants.SCAN_BATCH_SIZE)
	now := time.Now()
	jobIds := make([]string, 0, len(batches))
	for i, batch := range batches {
		id := newJobID(mq.KindScanBatch)
		batchPre := make(map[string]int, len(batch))
		for _, u := range batch {
			batchPre[u] = preCounts[u]
		}
		payload := mq.ScanBatchPayload{
			AccountUuid:   accountUuid,
			TargetUuids:   batch,
			Mode:          mode,
			BatchIndex:    i,
			BatchCount:    len(batches),
			PreScanCounts: batchPre,
		}
		runAt := now.Add(time.Duration(i) * constants.SCAN_BATCH_INTERVAL)
		if err := s.enqueue(ctx, mq.KindScanBatch, id, runAt, payload); err != nil {
			return jobIds, err
		}
		jobIds = append(jobIds, id)
	}
	zap.L().Info("scan batches dispatched",
		zap.String("account", accountUuid),
		zap.Int("targets", len(uuids)),
		zap.Int("batches", len(batches)))
	return jobIds, nil
}

// DispatchFriendRequests 为账号派发好友申请批次
// 待处理申请达到高水位时，本批先撤回最旧的申请再发新申请；
// 发送数量受当日申请配额约束
func (s *Service) DispatchFriendRequests(ctx context.Context, accountUuid, mode string) ([]string, error) {
	setting, err := s.repos.Setting.FindByAccountUuid(accountUuid)
	if err != nil {
		return nil, err
	}

	var cancelUuids []string
	if setting.PendingFriendRequests >= constants.MAX_PENDING_FRIEND_REQUESTS {
		oldest, err := s.repos.Target.FindOldestPendingRequests(accountUuid, constants.FRIEND_REQUEST_BATCH_SIZE)
		if err != nil {
			return nil, err
		}
		for _, t := range oldest {
			cancelUuids = append(cancelUuids, t.Uuid)
		}
	}

	remaining, err := s.quota.FriendRequestRemaining(accountUuid)
	if err != nil {
		return nil, err
	}
	sendLimit := remaining
	if sendLimit > constants.FRIEND_REQUEST_BATCH_SIZE {
		sendLimit = constants.FRIEND_REQUEST_BATCH_SIZE
	}

	var sendUuids []string
	if sendLimit > 0 {
		candidates, err := s.repos.Target.FindFriendRequestCandidates(accountUuid, sendLimit)
		if err != nil {
			return nil, err
		}
		for _, t := range candidates {
			sendUuids = append(sendUuids, t.Uuid)
		}
	}

	if len(cancelUuids) == 0 && len(sendUuids) == 0 {
		return nil, nil
	}

	id := newJobID(mq.KindSendRequests)
	payload := mq.SendRequestsPayload{
		AccountUuid: accountUuid,
		CancelUuids: cancelUuids,
		SendUuids:   sendUuids,
		Greeting:    setting.MessageTemplate,
		Mode:        mode,
	}
	if err := s.enqueue(ctx, mq.KindSendRequests, id, time.Now(), payload); err != nil {
		return nil, err
	}
	zap.L().Info("friend request batch dispatched",
		zap.String("account", accountUuid),
		zap.Int("cancel", len(cancelUuids)),
		zap.Int("send", len(sendUuids)))
	return []string{id}, nil
}

// DispatchMessages 为账号派发消息批次
// 候选数受当日自动消息配额和单次巡检上限双重约束
func (s *Service) DispatchMessages(ctx context.Context, accountUuid, template, mode string) ([]string, error) {
	remaining, err := s.quota.AutoMessageRemaining(accountUuid)
	if err != nil {
		return nil, err
	}
	if mode == model.ModeAuto && remaining <= 0 {
		zap.L().Info("message quota exhausted, nothing to dispatch", zap.String("account", accountUuid))
		return nil, nil
	}

	limit := constants.MESSAGE_SWEEP_CAP
	if mode == model.ModeAuto && remaining < limit {
		limit = remaining
	}

	candidates, err := s.repos.Target.FindMessageCandidates(accountUuid, quota.StartOfToday(), limit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	uuids := make([]string, 0, len(candidates))
	for _, t := range candidates {
		uuids = append(uuids, t.Uuid)
	}

	batches := chunk(uuids, constants.MESSAGE_BATCH_SIZE)
	jobIds := make([]string, 0, len(batches))
	for _, batch := range batches {
		id := newJobID(mq.KindSendMessages)
		payload := mq.SendMessagesPayload{
			AccountUuid: accountUuid,
			TargetUuids: batch,
			Template:    template,
			Mode:        mode,
		}
		if err := s.enqueue(ctx, mq.KindSendMessages, id, time.Now(), payload); err != nil {
			return jobIds, err
		}
		jobIds = append(jobIds, id)
	}
	zap.L().Info("message batches dispatched",
		zap.String("account", accountUuid),
		zap.Int("targets", len(uuids)),
		zap.Int("batches", len(batches)))
	return jobIds, nil
}

// DispatchImport 派发导入批次
// 号码在队列侧不去重，落库时依赖 (account, phone) 唯一键跳过重复
func (s *Service) DispatchImport(ctx context.Context, accountUuid, userUuid string, phones []string) ([]string, error) {
	if len(phones) == 0 {
		return nil, nil
	}
	batches := chunk(phones, constants.IMPORT_BATCH_SIZE)
	jobIds := make([]string, 0, len(batches))
	for i, batch := range batches {
		id := newJobID(mq.KindImportTargets)
		payload := mq.ImportTargetsPayload{
			AccountUuid:  accountUuid,
			UserUuid:     userUuid,
			Phones:       batch,
			BatchIndex:   i,
			TotalBatches: len(batches),
		}
		if err := s.enqueue(ctx, mq.KindImportTargets, id, time.Now(), payload); err != nil {
			return jobIds, err
		}
		jobIds = append(jobIds, id)
	}
	return jobIds, nil
}

// DispatchFriendSync 派发好友同步任务
// 任务 id 按小时桶确定，用 Redis SETNX 抢占：同一账号同一小时
// 只会入队一个同步任务，巡检重复触发时直接跳过
func (s *Service) DispatchFriendSync(ctx context.Context, accountUuid, userUuid string) (string, error) {
	hourBucket := time.Now().Format("2006010215")
	id := fmt.Sprintf("%s-%s-%s", mq.KindSyncFriends, accountUuid, hourBucket)

	ok, err := s.cache.SetNX(ctx, "job_dedup_"+id, "1", time.Hour)
	if err != nil {
		return "", err
	}
	if !ok {
		zap.L().Debug("friend sync already queued this hour", zap.String("account", accountUuid))
		return "", nil
	}

	payload := mq.SyncFriendsPayload{AccountUuid: accountUuid, UserUuid: userUuid}
	if err := s.enqueue(ctx, mq.KindSyncFriends, id, time.Now(), payload); err != nil {
		return "", err
	}
	return id, nil
}
