package constants

import "time"

const (
	// TRACKING_TIMEZONE 配额统计使用的固定时区
	// 所有“今天”的判定都以该时区为准，与服务器本地时区无关
	TRACKING_TIMEZONE = "Asia/Ho_Chi_Minh"

	// DETAIL_LIST_CAP 每日扫描/好友申请明细列表的容量上限（条）
	DETAIL_LIST_CAP = 200

	// DAILY_SCAN_LIMIT 每日扫描数量上限
	DAILY_SCAN_LIMIT = 240
	// DAILY_FRIEND_REQUEST_LIMIT 每日自动好友申请上限（可被单条记录覆盖）
	DAILY_FRIEND_REQUEST_LIMIT = 40
	// DAILY_AUTO_MESSAGE_LIMIT_DEFAULT 每日自动消息上限默认值
	// 可通过 quotaConfig.dailyAutoMessageLimit 覆盖
	DAILY_AUTO_MESSAGE_LIMIT_DEFAULT = 160

	// MAX_PENDING_FRIEND_REQUESTS 待处理好友申请高水位
	// 超过该值必须先派发取消批次，再派发新的发送批次
	MAX_PENDING_FRIEND_REQUESTS = 30

	// 批次大小，按任务类型区分
	SCAN_BATCH_SIZE           = 40
	FRIEND_REQUEST_BATCH_SIZE = 20
	MESSAGE_BATCH_SIZE        = 20
	IMPORT_BATCH_SIZE         = 40

	// MESSAGE_SWEEP_CAP 单次消息巡检每账号最多派发的目标数
	MESSAGE_SWEEP_CAP = 60

	// SCAN_BATCH_INTERVAL 同一账号相邻扫描批次的间隔
	SCAN_BATCH_INTERVAL = time.Hour

	// 批内逐项处理的节流间隔
	SCAN_ITEM_DELAY           = 5 * time.Second
	FRIEND_REQUEST_ITEM_DELAY = 5 * time.Second
	MESSAGE_ITEM_DELAY        = 30 * time.Second

	// 批任务重试策略
	JOB_MAX_ATTEMPTS = 3
	JOB_BACKOFF_BASE = 2 * time.Second

	// BATCH_ERROR_LIST_CAP 批次结果中保留的错误条数上限
	BATCH_ERROR_LIST_CAP = 10
)
