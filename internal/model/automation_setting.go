// 本文件定义账号自动化设置模型
package model

import (
	"gorm.io/gorm"
)

// 自动化动作模式
// auto = 巡检派发的批任务触发，manual = 运营人员在后台手动触发
const (
	ModeAuto   = "auto"
	ModeManual = "manual"
)

// AutomationSetting 账号自动化设置
// 每个 Zalo 账号一条记录，开关由后台 CRUD 修改，计数器由引擎维护
type AutomationSetting struct {
	gorm.Model

	// AccountUuid 所属账号，一对一
	AccountUuid string `gorm:"column:account_uuid;uniqueIndex;type:char(20);not null;comment:账号uuid"`

	// ScanEnabled 是否参与每日扫描巡检
	ScanEnabled bool `gorm:"column:scan_enabled;not null;default:false;comment:扫描开关"`

	// AutoFriendRequestEnabled 是否参与自动好友申请巡检
	AutoFriendRequestEnabled bool `gorm:"column:auto_friend_request_enabled;not null;default:false;comment:自动好友申请开关"`

	// FriendRequestStartTime 好友申请的"不早于"时间门槛
	// 格式 HH:MM，按统计时区判定；当地时间未到该时刻时本轮巡检跳过该账号
	FriendRequestStartTime string `gorm:"column:friend_request_start_time;type:char(5);default:08:00;comment:好友申请起始时间"`

	// AutoMessageEnabled 是否参与自动群发巡检
	AutoMessageEnabled bool `gorm:"column:auto_message_enabled;not null;default:false;comment:自动消息开关"`

	// MessageTemplate 群发消息模板，空模板的账号不参与消息巡检
	MessageTemplate string `gorm:"column:message_template;type:text;comment:消息模板"`

	// PendingFriendRequests 已发出、尚未被对方处理的好友申请数
	// 超过高水位时必须先取消最旧的申请再发新申请
	PendingFriendRequests int `gorm:"column:pending_friend_requests;not null;default:0;comment:待处理好友申请数"`

	// TotalFriendRequestsSent 累计发出的好友申请数
	TotalFriendRequestsSent int `gorm:"column:total_friend_requests_sent;not null;default:0;comment:累计好友申请数"`
}

// TableName 指定表名
func (AutomationSetting) TableName() string {
	return "automation_setting"
}
