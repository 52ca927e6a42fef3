// Package mq 提供基于 Kafka 的批任务队列
// 每种批任务对应一个 topic，worker 侧消费时串行执行、失败重试，
// 重试耗尽后转入对应的死信 topic
package mq

import (
	"context"
	"encoding/json"
	"time"
)

// 批任务类型，同时也是 topic 名的后缀
const (
	// KindScanBatch 扫描批任务：为一批目标拉取公开资料
	KindScanBatch = "scan-batch"
	// KindSyncFriends 好友同步任务：全量对账好友列表和未决申请数
	KindSyncFriends = "sync-account-friends"
	// KindImportTargets 导入批任务：批量写入目标号码
	KindImportTargets = "import-targets-batch"
	// KindSendRequests 好友申请批任务：取消旧申请 + 发送新申请
	KindSendRequests = "send-requests-batch"
	// KindSendMessages 消息批任务：逐个目标发送模板消息
	KindSendMessages = "send-messages-batch"
)

// Job 批任务信封
// ID 为确定性任务号时（如按小时去重的同步任务）入队前先抢 Redis 锁
type Job struct {
	ID      string          `json:"id"`      // 任务唯一标识
	Kind    string          `json:"kind"`    // 任务类型，见 Kind* 常量
	Attempt int             `json:"attempt"` // 当前尝试次数，从 0 开始
	RunAt   time.Time       `json:"runAt"`   // 最早执行时间，实现批次间隔（如扫描批次间隔 1 小时）
	Payload json.RawMessage `json:"payload"` // 任务参数，各类型自定义
}

// JobQueue 任务队列接口
// Service 层只依赖入队能力，消费侧由 ConsumerGroup 统一调度
type JobQueue interface {
	// Enqueue 投递一个批任务
	Enqueue(ctx context.Context, job *Job) error
}

// JobHandler 任务处理函数
// 返回 error 时由消费侧按退避策略重试
type JobHandler func(ctx context.Context, job *Job) error
