// 本文件定义外呼目标模型
// 目标是一个待触达的电话号码，身份信息通过扫描逐步补全
package model

import (
	"database/sql"

	"gorm.io/gorm"
)

// PhoneTarget 外呼目标模型
// 对应数据库 phone_target 表，同一账号下电话号码唯一
// 引擎只做变更（扫描结果、好友/消息状态），删除是后台 CRUD 的职责
type PhoneTarget struct {
	gorm.Model

	// Uuid 目标唯一标识
	// 格式：T + 13位时间戳随机字符串
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(20);comment:目标唯一id"`

	// AccountUuid 所属账号
	AccountUuid string `gorm:"column:account_uuid;uniqueIndex:idx_account_phone;type:char(20);not null;comment:所属账号"`

	// Phone 电话号码
	Phone string `gorm:"column:phone;uniqueIndex:idx_account_phone;type:char(15);not null;comment:电话号码"`

	// ==================== 扫描得到的身份信息 ====================

	// Uid Zalo 用户 id，扫描成功后填充；发申请/发消息都依赖它
	Uid string `gorm:"column:uid;index;type:varchar(30);comment:zalo uid"`

	// ZaloName Zalo 账号名
	ZaloName string `gorm:"column:zalo_name;type:varchar(50);comment:zalo名称"`

	// DisplayName 备注/展示名
	DisplayName string `gorm:"column:display_name;type:varchar(50);comment:展示名称"`

	// Avatar 头像 URL
	Avatar string `gorm:"column:avatar;type:varchar(255);comment:头像"`

	// ProfileJSON 网关返回的完整公开资料，原样存 JSON
	ProfileJSON string `gorm:"column:profile_json;type:text;comment:完整资料"`

	// ==================== 扫描簿记 ====================

	// ScanCount 不同扫描尝试的次数
	// 同一次批任务被队列重试时只计一次（比较后递增，见 worker）
	ScanCount int `gorm:"column:scan_count;not null;default:0;comment:扫描次数"`

	// LastScannedAt 上次扫描时间
	LastScannedAt sql.NullTime `gorm:"column:last_scanned_at;index;type:datetime;comment:上次扫描时间"`

	// HasScanInfo 是否已扫到公开资料
	HasScanInfo bool `gorm:"column:has_scan_info;index;not null;default:false;comment:是否已有扫描信息"`

	// ==================== 好友簿记 ====================

	// IsFriend 是否已是好友
	IsFriend bool `gorm:"column:is_friend;not null;default:false;comment:是否好友"`

	// HasSentFriendRequest 是否有已发出且未撤回的好友申请
	HasSentFriendRequest bool `gorm:"column:has_sent_friend_request;not null;default:false;comment:是否已发申请"`

	// 分模式的发送/取消计数
	AutoRequestsSent       int `gorm:"column:auto_requests_sent;not null;default:0;comment:自动发送申请数"`
	ManualRequestsSent     int `gorm:"column:manual_requests_sent;not null;default:0;comment:手动发送申请数"`
	AutoRequestsCanceled   int `gorm:"column:auto_requests_canceled;not null;default:0;comment:自动取消申请数"`
	ManualRequestsCanceled int `gorm:"column:manual_requests_canceled;not null;default:0;comment:手动取消申请数"`

	// ==================== 消息簿记 ====================

	// MessagesSent 已发送消息条数（仅计成功）
	MessagesSent int `gorm:"column:messages_sent;not null;default:0;comment:已发送消息数"`

	// LastMessageSentAt 上次发消息时间
	LastMessageSentAt sql.NullTime `gorm:"column:last_message_sent_at;index;type:datetime;comment:上次发消息时间"`

	// LastMessageSuccess 上次发送是否成功
	LastMessageSuccess bool `gorm:"column:last_message_success;not null;default:false;comment:上次发送是否成功"`

	// 粘性错误标记：一旦置位，保持到后续同类操作成功为止
	// HasMessageBlockedError 对方设置了"不接收你的消息"
	HasMessageBlockedError bool `gorm:"column:has_message_blocked_error;not null;default:false;comment:消息被拒标记"`
	// HasStrangerBlockedError 对方屏蔽陌生人消息，消息巡检会跳过该目标
	HasStrangerBlockedError bool `gorm:"column:has_stranger_blocked_error;index;not null;default:false;comment:陌生人屏蔽标记"`
	// HasNoMsgIdError 网关返回成功但缺少 msgId，按失败处理
	HasNoMsgIdError bool `gorm:"column:has_no_msg_id_error;not null;default:false;comment:缺少msgId标记"`
}

// TableName 指定表名
func (PhoneTarget) TableName() string {
	return "phone_target"
}
