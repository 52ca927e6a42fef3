// 本文件定义消息发送日志模型
// 每次发送尝试各记一条，包含失败与"成功但缺 msgId"的降级结果
package model

import (
	"time"
)

// 消息日志状态
const (
	MessageStatusSent   = "sent"
	MessageStatusFailed = "failed"
)

// MessageLog 消息发送日志
// 主键使用雪花 ID，便于按时间排序与分布式写入
type MessageLog struct {
	// ID 雪花算法生成
	ID int64 `gorm:"column:id;primaryKey;autoIncrement:false;comment:雪花id"`

	// AccountUuid 发送账号
	AccountUuid string `gorm:"column:account_uuid;index;type:char(20);not null;comment:账号uuid"`

	// TargetUuid 目标
	TargetUuid string `gorm:"column:target_uuid;index;type:char(20);not null;comment:目标uuid"`

	// Phone 目标电话（冗余，便于排查）
	Phone string `gorm:"column:phone;type:char(15);comment:电话号码"`

	// Content 发送内容
	Content string `gorm:"column:content;type:text;comment:内容"`

	// Mode auto/manual
	Mode string `gorm:"column:mode;type:char(6);not null;comment:触发模式"`

	// Status sent/failed
	Status string `gorm:"column:status;index;type:char(6);not null;comment:状态"`

	// IsSuccess 是否成功；网关响应缺 msgId 时为 false，即使网关声称成功
	IsSuccess bool `gorm:"column:is_success;not null;comment:是否成功"`

	// MsgId 网关返回的消息 id，成功判定的唯一依据
	MsgId string `gorm:"column:msg_id;type:varchar(50);comment:消息id"`

	// ErrorMsg 失败原因
	ErrorMsg string `gorm:"column:error_msg;type:varchar(500);comment:失败原因"`

	CreatedAt time.Time `gorm:"column:created_at;index;comment:创建时间"`
}

// TableName 指定表名
func (MessageLog) TableName() string {
	return "message_log"
}
