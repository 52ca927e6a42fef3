package mq

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	myconfig "zalo_outreach_server/internal/config"
	"zalo_outreach_server/internal/infrastructure/alert"
	"zalo_outreach_server/pkg/constants"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// kindConcurrency 每种任务的消费协程数
// 发送类任务必须串行（限速本身就是目的），导入是纯写库任务可以并行
var kindConcurrency = map[string]int{
	KindScanBatch:     1,
	KindSyncFriends:   1,
	KindImportTargets: 2,
	KindSendRequests:  1,
	KindSendMessages:  1,
}

// ConsumerGroup 批任务消费端
// 每种任务类型一组 reader 协程，按注册的 JobHandler 执行
type ConsumerGroup struct {
	handlers map[string]JobHandler
	alert    alert.AlertService
	readers  []*kafka.Reader
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewConsumerGroup 创建消费端
func NewConsumerGroup(alertSvc alert.AlertService) *ConsumerGroup {
	return &ConsumerGroup{
		handlers: make(map[string]JobHandler),
		alert:    alertSvc,
	}
}

// Register 注册任务处理函数
func (g *ConsumerGroup) Register(kind string, handler JobHandler) {
	g.handlers[kind] = handler
}

// Start 启动所有消费协程
// 未注册 handler 的任务类型不启动 reader
func (g *ConsumerGroup) Start() {
	kafkaConfig := myconfig.GetConfig().KafkaConfig
	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	g.done = make(chan struct{})

	count := 0
	for kind, handler := range g.handlers {
		workers := kindConcurrency[kind]
		if workers <= 0 {
			workers = 1
		}
		for i := 0; i < workers; i++ {
			reader := kafka.NewReader(kafka.ReaderConfig{
				Brokers:     []string{kafkaConfig.HostPort},
				Topic:       topicFor(kafkaConfig.TopicPrefix, kind),
				GroupID:     kafkaConfig.GroupID,
				StartOffset: kafka.FirstOffset,
			})
			g.readers = append(g.readers, reader)
			go g.consumeLoop(ctx, reader, kind, handler)
			count++
		}
	}
	zap.L().Info("job consumers started", zap.Int("workers", count))
}

// consumeLoop 单个 reader 的消费循环
// 手动提交 offset：任务执行完（成功或进死信）才提交，
// 进程中途挂掉时任务会被重新投递，幂等性由各 handler 自己保证
func (g *ConsumerGroup) consumeLoop(ctx context.Context, reader *kafka.Reader, kind string, handler JobHandler) {
	defer func() {
		if rec := recover(); rec != nil {
			zap.L().Error("job consumer panic", zap.String("kind", kind), zap.Any("recover", rec))
			go g.consumeLoop(ctx, reader, kind, handler) // 重启
		}
	}()

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			zap.L().Error("fetch job failed", zap.String("kind", kind), zap.Error(err))
			continue
		}

		var job Job
		if err := json.Unmarshal(msg.Value, &job); err != nil {
			// 无法解析的消息直接提交跳过，重试没有意义
			zap.L().Error("unmarshal job failed", zap.String("kind", kind), zap.Error(err))
			g.commit(ctx, reader, msg)
			continue
		}

		// RunAt 未到先等待，扫描批次靠它实现小时级间隔
		// 发送类任务并发为 1，等待会推迟同类后续批次，这正是限速想要的
		if wait := time.Until(job.RunAt); wait > 0 {
			zap.L().Info("job delayed", zap.String("id", job.ID), zap.Duration("wait", wait))
			if !sleepCtx(ctx, wait) {
				return
			}
		}

		g.runWithRetry(ctx, &job)
		g.commit(ctx, reader, msg)
	}
}

// runWithRetry 带退避的任务执行
// 每次失败等待 base * 2^attempt 加随机抖动，耗尽后进死信
func (g *ConsumerGroup) runWithRetry(ctx context.Context, job *Job) {
	handler := g.handlers[job.Kind]
	var err error
	for job.Attempt < constants.JOB_MAX_ATTEMPTS {
		err = handler(ctx, job)
		if err == nil {
			return
		}
		job.Attempt++
		zap.L().Warn("job attempt failed",
			zap.String("id", job.ID),
			zap.String("kind", job.Kind),
			zap.Int("attempt", job.Attempt),
			zap.Error(err))
		if job.Attempt >= constants.JOB_MAX_ATTEMPTS {
			break
		}
		backoff := constants.JOB_BACKOFF_BASE * (1 << (job.Attempt - 1))
		jitter := time.Duration(rand.Int63n(int64(time.Second)))
		if !sleepCtx(ctx, backoff+jitter) {
			return
		}
	}
	Queue.sendToDead(ctx, job, err)
	// 进死信说明人工介入前该账号的这类任务都不会再推进
	if g.alert != nil {
		_ = g.alert.Notify("dead_letter_"+job.Kind,
			"job dead-lettered: "+job.ID)
	}
}

// commit 提交 offset
func (g *ConsumerGroup) commit(ctx context.Context, reader *kafka.Reader, msg kafka.Message) {
	if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
		zap.L().Error("commit job offset failed", zap.Error(err))
	}
}

// Close 停止消费并关闭所有 reader
func (g *ConsumerGroup) Close() {
	if g.cancel != nil {
		g.cancel()
	}
	for _, reader := range g.readers {
		if err := reader.Close(); err != nil {
			zap.L().Error(err.Error())
		}
	}
}

// sleepCtx 可被 ctx 打断的 sleep，返回是否等满
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
