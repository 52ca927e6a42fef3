package mq

import (
	"context"
	"encoding/json"
	"time"

	myconfig "zalo_outreach_server/internal/config"
	"zalo_outreach_server/pkg/errorx"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// allKinds 所有批任务类型，初始化时为每种类型建 topic 和 writer
var allKinds = []string{
	KindScanBatch,
	KindSyncFriends,
	KindImportTargets,
	KindSendRequests,
	KindSendMessages,
}

type kafkaQueue struct {
	writers map[string]*kafka.Writer // kind -> writer
	dead    map[string]*kafka.Writer // kind -> 死信 writer
}

// Queue 全局任务队列实例
var Queue *kafkaQueue

// topicFor 由任务类型拼出 topic 名
func topicFor(prefix, kind string) string {
	return prefix + "." + kind
}

// deadTopicFor 死信 topic 名
func deadTopicFor(prefix, kind string) string {
	return topicFor(prefix, kind) + ".dead"
}

// Init 初始化任务队列
// 建 topic、为每种任务类型创建 writer
func Init() {
	kafkaConfig := myconfig.GetConfig().KafkaConfig
	q := &kafkaQueue{
		writers: make(map[string]*kafka.Writer),
		dead:    make(map[string]*kafka.Writer),
	}
	for _, kind := range allKinds {
		q.writers[kind] = newWriter(kafkaConfig, topicFor(kafkaConfig.TopicPrefix, kind))
		q.dead[kind] = newWriter(kafkaConfig, deadTopicFor(kafkaConfig.TopicPrefix, kind))
	}
	Queue = q
	q.createTopics()
}

func newWriter(cfg myconfig.KafkaConfig, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:     kafka.TCP(cfg.HostPort),
		Topic:    topic,
		Balancer: &kafka.Hash{},
		// 任务是簿记型写入，必须等 leader 确认，不能用 RequireNone
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           time.Duration(cfg.Timeout) * time.Second,
		AllowAutoTopicCreation: false,
	}
}

// createTopics 创建所有任务 topic（含死信），已存在则跳过
func (q *kafkaQueue) createTopics() {
	kafkaConfig := myconfig.GetConfig().KafkaConfig

	conn, err := kafka.Dial("tcp", kafkaConfig.HostPort)
	if err != nil {
		zap.L().Error("kafka dial failed", zap.Error(err))
		return
	}
	defer conn.Close()

	var topicConfigs []kafka.TopicConfig
	for _, kind := range allKinds {
		topicConfigs = append(topicConfigs,
			kafka.TopicConfig{
				Topic:             topicFor(kafkaConfig.TopicPrefix, kind),
				NumPartitions:     kafkaConfig.Partition,
				ReplicationFactor: 1,
			},
			kafka.TopicConfig{
				Topic:             deadTopicFor(kafkaConfig.TopicPrefix, kind),
				NumPartitions:     1,
				ReplicationFactor: 1,
			},
		)
	}
	if err = conn.CreateTopics(topicConfigs...); err != nil {
		zap.L().Error("kafka create topics failed", zap.Error(err))
	}
}

// Enqueue 投递一个批任务
// Key 用账号相关的任务 ID，同一账号的任务落到同一分区，保持顺序
func (q *kafkaQueue) Enqueue(ctx context.Context, job *Job) error {
	writer, ok := q.writers[job.Kind]
	if !ok {
		return errorx.Newf(errorx.CodeQueueError, "unknown job kind %s", job.Kind)
	}
	value, err := json.Marshal(job)
	if err != nil {
		return errorx.Wrapf(err, errorx.CodeQueueError, "marshal job %s", job.ID)
	}
	err = writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(job.ID),
		Value: value,
	})
	if err != nil {
		return errorx.Wrapf(err, errorx.CodeQueueError, "enqueue job %s kind %s", job.ID, job.Kind)
	}
	zap.L().Info("job enqueued",
		zap.String("id", job.ID),
		zap.String("kind", job.Kind),
		zap.Time("runAt", job.RunAt))
	return nil
}

// sendToDead 重试耗尽后把任务写入死信 topic，等待人工处理
func (q *kafkaQueue) sendToDead(ctx context.Context, job *Job, cause error) {
	writer, ok := q.dead[job.Kind]
	if !ok {
		return
	}
	value, err := json.Marshal(job)
	if err != nil {
		zap.L().Error("marshal dead job failed", zap.String("id", job.ID), zap.Error(err))
		return
	}
	err = writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(job.ID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "cause", Value: []byte(cause.Error())},
		},
	})
	if err != nil {
		zap.L().Error("write dead letter failed", zap.String("id", job.ID), zap.Error(err))
		return
	}
	zap.L().Warn("job moved to dead letter",
		zap.String("id", job.ID),
		zap.String("kind", job.Kind),
		zap.Error(cause))
}

// Close 关闭所有 writer
func (q *kafkaQueue) Close() {
	for _, w := range q.writers {
		if err := w.Close(); err != nil {
			zap.L().Error(err.Error())
		}
	}
	for _, w := range q.dead {
		if err := w.Close(); err != nil {
			zap.L().Error(err.Error())
		}
	}
}

var _ JobQueue = (*kafkaQueue)(nil)
