package repository

import (
	"time"

	"zalo_outreach_server/internal/model"

	"gorm.io/gorm"
)

// ==================== Repository 接口定义 ====================

// UserRepository 运营用户数据访问接口
type UserRepository interface {
	// FindByUuid 根据 UUID 查找用户
	FindByUuid(uuid string) (*model.UserInfo, error)
	// FindByTelephone 根据手机号查找用户
	FindByTelephone(telephone string) (*model.UserInfo, error)
	// Create 创建新用户
	Create(user *model.UserInfo) error
	// UpdateUserInfo 更新用户信息
	UpdateUserInfo(user *model.UserInfo) error
}

// AccountRepository Zalo 账号数据访问接口
type AccountRepository interface {
	// FindByUuid 根据 UUID 查找账号
	FindByUuid(uuid string) (*model.Account, error)
	// FindByOwner 查找指定用户名下的所有账号
	FindByOwner(ownerUuid string) ([]model.Account, error)
	// FindAllActive 查找所有状态正常的账号
	FindAllActive() ([]model.Account, error)
	// Create 创建新账号
	Create(account *model.Account) error
	// Update 更新账号信息
	Update(account *model.Account) error
}

// SettingRepository 自动化设置数据访问接口
// 开关由后台修改，计数器由引擎维护
type SettingRepository interface {
	// FindByAccountUuid 查找账号的自动化设置
	FindByAccountUuid(accountUuid string) (*model.AutomationSetting, error)
	// Create 创建设置记录
	Create(setting *model.AutomationSetting) error
	// Update 更新设置记录
	Update(setting *model.AutomationSetting) error
	// UpdateScanEnabled 更新扫描开关
	UpdateScanEnabled(accountUuid string, enabled bool) error
	// FindScanEnabled 查找开启了扫描巡检的设置
	FindScanEnabled() ([]model.AutomationSetting, error)
	// FindAutoFriendRequestEnabled 查找开启了自动好友申请的设置
	FindAutoFriendRequestEnabled() ([]model.AutomationSetting, error)
	// FindAutoMessageEnabled 查找开启了自动群发且模板非空的设置
	FindAutoMessageEnabled() ([]model.AutomationSetting, error)
	// AddPendingFriendRequests 调整待处理申请计数（delta 可为负，结果不小于 0）
	AddPendingFriendRequests(accountUuid string, delta int) error
	// SetPendingFriendRequests 好友全量同步后重置待处理申请计数
	SetPendingFriendRequests(accountUuid string, count int) error
	// IncrementTotalFriendRequestsSent 累计发送申请数 +1
	IncrementTotalFriendRequestsSent(accountUuid string) error
}

// TargetRepository 外呼目标数据访问接口
type TargetRepository interface {
	// FindByUuid 根据 UUID 查找目标
	FindByUuid(uuid string) (*model.PhoneTarget, error)
	// FindByUuids 批量根据 UUID 查找目标
	FindByUuids(uuids []string) ([]model.PhoneTarget, error)
	// FindByAccountAndPhone 按账号和电话查找目标
	FindByAccountAndPhone(accountUuid, phone string) (*model.PhoneTarget, error)
	// FindByAccountPaged 分页查询账号的目标，返回目标和总数
	FindByAccountPaged(accountUuid string, offset, limit int) ([]model.PhoneTarget, int64, error)
	// Create 创建目标
	Create(target *model.PhoneTarget) error
	// CreateSkipDuplicates 批量创建目标，(account, phone) 冲突时静默跳过
	// 返回实际插入的行数
	CreateSkipDuplicates(targets []model.PhoneTarget) (int64, error)
	// Update 更新目标
	Update(target *model.PhoneTarget) error
	// FindUnscanned 查找缺少扫描信息的目标
	// 排序：最早扫描优先（未扫描在最前）、扫描次数少优先、id 升序
	FindUnscanned(accountUuid string, limit int) ([]model.PhoneTarget, error)
	// FindFriendRequestCandidates 查找可发好友申请的目标
	// 条件：已扫到信息、uid 已知、非好友、无未决申请；最早扫描优先
	FindFriendRequestCandidates(accountUuid string, limit int) ([]model.PhoneTarget, error)
	// FindOldestPendingRequests 查找最旧的未决好友申请目标（用于取消批次）
	FindOldestPendingRequests(accountUuid string, limit int) ([]model.PhoneTarget, error)
	// FindMessageCandidates 查找可群发的目标
	// 条件：已扫到信息、未被陌生人屏蔽、当日（since 之后）未发过消息
	FindMessageCandidates(accountUuid string, since time.Time, limit int) ([]model.PhoneTarget, error)
	// CompareAndIncrementScanCount 比较后递增扫描计数
	// 仅当 scan_count 仍等于 pre 时 +1，返回是否发生了递增
	// 这是批任务重试不重复计数的关键（见 batch worker）
	CompareAndIncrementScanCount(uuid string, pre int) (bool, error)
	// SyncFriendUids 好友全量同步：uid 在列表中的置为好友并清掉未决申请标记，
	// 其余目标的好友标记清零
	SyncFriendUids(accountUuid string, friendUids []string) error
}

// TrackingRepository 每日配额跟踪数据访问接口
type TrackingRepository interface {
	// GetOrCreate 获取或创建指定账号指定日期的跟踪记录
	// 基于 (account_uuid, tracking_date) 唯一键做 upsert-then-read，
	// 并发创建同一记录时不会出现重复键错误，两个调用方拿到同一条记录
	GetOrCreate(record *model.DailyTracking) (*model.DailyTracking, error)
	// FindByAccountAndDate 查找指定账号指定日期的记录
	FindByAccountAndDate(accountUuid, date string) (*model.DailyTracking, error)
	// Save 保存跟踪记录（读改写）
	Save(record *model.DailyTracking) error
	// UpdateScanEnabledForDate 更新指定日期记录的扫描开关镜像
	UpdateScanEnabledForDate(accountUuid, date string, enabled bool) error
}

// MessageLogRepository 消息日志数据访问接口
type MessageLogRepository interface {
	// Create 写入一条发送日志
	Create(log *model.MessageLog) error
	// FindByAccountSince 查找账号某时刻之后的日志
	FindByAccountSince(accountUuid string, since time.Time) ([]model.MessageLog, error)
}

// ==================== Repository 聚合 ====================

// Repositories 聚合所有 Repository 实例
// 作为依赖注入的入口，Service 层通过此结构访问数据层
type Repositories struct {
	db         *gorm.DB             // GORM 数据库实例
	User       UserRepository       // 运营用户 Repository
	Account    AccountRepository    // 账号 Repository
	Setting    SettingRepository    // 自动化设置 Repository
	Target     TargetRepository     // 目标 Repository
	Tracking   TrackingRepository   // 配额跟踪 Repository
	MessageLog MessageLogRepository // 消息日志 Repository
}

// NewRepositories 创建所有 Repository 实例
// 接收 GORM 数据库实例，初始化并返回 Repositories 聚合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:         db,
		User:       NewUserRepository(db),
		Account:    NewAccountRepository(db),
		Setting:    NewSettingRepository(db),
		Target:     NewTargetRepository(db),
		Tracking:   NewTrackingRepository(db),
		MessageLog: NewMessageLogRepository(db),
	}
}

// Transaction 在数据库事务中执行函数
// 事务内的所有操作要么全部成功，要么全部回滚
// fn: 事务执行函数，接收事务内的 Repositories 实例
func (r *Repositories) Transaction(fn func(txRepos *Repositories) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// 使用事务 db 创建新的 Repositories 实例
		return fn(NewRepositories(tx))
	})
}
