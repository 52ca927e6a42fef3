// 本文件定义每日配额跟踪模型
// 配额跟踪是引擎的并发敏感点：首次访问走数据库唯一键 upsert，
// 之后的读改写接受巡检节奏下的低概率竞争（见 tracking repository）
package model

import (
	"gorm.io/gorm"
)

// TrackingDateLayout tracking_date 列的日期格式
const TrackingDateLayout = "2006-01-02"

// DailyTracking 每日配额跟踪记录
// 按 (account_uuid, tracking_date) 唯一，tracking_date 以固定统计时区的日历日为准
type DailyTracking struct {
	gorm.Model

	// AccountUuid + TrackingDate 组成唯一键，并发创建依赖该约束做 upsert
	AccountUuid  string `gorm:"column:account_uuid;uniqueIndex:idx_account_date;type:char(20);not null;comment:账号uuid"`
	TrackingDate string `gorm:"column:tracking_date;uniqueIndex:idx_account_date;type:char(10);not null;comment:统计日期"`

	// ==================== 扫描计数 ====================

	// ScanCountToday 今日扫描的去重目标数（粗粒度日计数，用于配额判定）
	// 只有目标当日首次进入任一明细列表时才 +1，重复扫描不再计数
	ScanCountToday int `gorm:"column:scan_count_today;not null;default:0;comment:今日去重扫描数"`

	// 今日按模式拆分的扫描尝试数
	AutoScansToday   int `gorm:"column:auto_scans_today;not null;default:0;comment:今日自动扫描数"`
	ManualScansToday int `gorm:"column:manual_scans_today;not null;default:0;comment:今日手动扫描数"`

	// TotalScans 累计扫描尝试数（含重复扫描）
	TotalScans int `gorm:"column:total_scans;not null;default:0;comment:累计扫描数"`

	// DailyScanLimit 今日扫描上限，创建时从配置拷贝
	DailyScanLimit int `gorm:"column:daily_scan_limit;not null;default:240;comment:今日扫描上限"`

	// 扫描明细列表，JSON 存储，容量上限 constants.DETAIL_LIST_CAP
	// 最新在前、按目标去重；同一目标同一天只能出现在其中一个列表
	WithInfoDetails    string `gorm:"column:with_info_details;type:text;comment:有信息明细"`
	WithoutInfoDetails string `gorm:"column:without_info_details;type:text;comment:无信息明细"`

	// ==================== 好友申请计数 ====================

	AutoRequestsSentToday       int `gorm:"column:auto_requests_sent_today;not null;default:0;comment:今日自动发送申请数"`
	ManualRequestsSentToday     int `gorm:"column:manual_requests_sent_today;not null;default:0;comment:今日手动发送申请数"`
	AutoRequestsCanceledToday   int `gorm:"column:auto_requests_canceled_today;not null;default:0;comment:今日自动取消申请数"`
	ManualRequestsCanceledToday int `gorm:"column:manual_requests_canceled_today;not null;default:0;comment:今日手动取消申请数"`
	TotalRequestsSent           int `gorm:"column:total_requests_sent;not null;default:0;comment:累计发送申请数"`
	TotalRequestsCanceled       int `gorm:"column:total_requests_canceled;not null;default:0;comment:累计取消申请数"`

	// FriendRequestDailyLimit 今日自动申请上限，可按记录覆盖默认值
	FriendRequestDailyLimit int `gorm:"column:friend_request_daily_limit;not null;default:40;comment:今日申请上限"`

	// RequestDetails 好友申请明细（发送与取消共用），JSON 存储，同容量上限
	RequestDetails string `gorm:"column:request_details;type:text;comment:申请明细"`

	// ==================== 消息计数 ====================

	ManualMessagesToday int `gorm:"column:manual_messages_today;not null;default:0;comment:今日手动消息数"`
	AutoMessagesToday   int `gorm:"column:auto_messages_today;not null;default:0;comment:今日自动消息数"`

	// AutoMessageDailyLimit 今日自动消息上限，创建时从配置拷贝
	AutoMessageDailyLimit int `gorm:"column:auto_message_daily_limit;not null;default:160;comment:今日自动消息上限"`

	// ScanEnabled 账号扫描开关在记录创建时的镜像
	// UpdateDailyScanStatus 会把账号开关和镜像一起翻转
	// 不设列默认值：创建时总是显式写入，false 也要如实落库
	ScanEnabled bool `gorm:"column:scan_enabled;not null;comment:扫描开关镜像"`
}

// TableName 指定表名
func (DailyTracking) TableName() string {
	return "daily_tracking"
}
