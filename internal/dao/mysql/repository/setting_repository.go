package repository

import (
	"zalo_outreach_server/internal/model"

	"gorm.io/gorm"
)

type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository 创建自动化设置 Repository
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

// FindByAccountUuid 查找账号的自动化设置
func (r *settingRepository) FindByAccountUuid(accountUuid string) (*model.AutomationSetting, error) {
	var setting model.AutomationSetting
	if err := r.db.First(&setting, "account_uuid = ?", accountUuid).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询自动化设置 account=%s", accountUuid)
	}
	return &setting, nil
}

// Create 创建设置记录
func (r *settingRepository) Create(setting *model.AutomationSetting) error {
	if err := r.db.Create(setting).Error; err != nil {
		return wrapDBError(err, "创建自动化设置")
	}
	return nil
}

// Update 更新设置记录
func (r *settingRepository) Update(setting *model.AutomationSetting) error {
	if err := r.db.Save(setting).Error; err != nil {
		return wrapDBError(err, "更新自动化设置")
	}
	return nil
}

// UpdateScanEnabled 更新扫描开关
func (r *settingRepository) UpdateScanEnabled(accountUuid string, enabled bool) error {
	err := r.db.Model(&model.AutomationSetting{}).
		Where("account_uuid = ?", accountUuid).
		Update("scan_enabled", enabled).Error
	if err != nil {
		return wrapDBErrorf(err, "更新扫描开关 account=%s", accountUuid)
	}
	return nil
}

// FindScanEnabled 查找开启了扫描巡检的设置
func (r *settingRepository) FindScanEnabled() ([]model.AutomationSetting, error) {
	var settings []model.AutomationSetting
	if err := r.db.Where("scan_enabled = ?", true).Find(&settings).Error; err != nil {
		return nil, wrapDBError(err, "查询扫描开关账号")
	}
	return settings, nil
}

// FindAutoFriendRequestEnabled 查找开启了自动好友申请的设置
func (r *settingRepository) FindAutoFriendRequestEnabled() ([]model.AutomationSetting, error) {
	var settings []model.AutomationSetting
	if err := r.db.Where("auto_friend_request_enabled = ?", true).Find(&settings).Error; err != nil {
		return nil, wrapDBError(err, "查询自动好友申请账号")
	}
	return settings, nil
}

// FindAutoMessageEnabled 查找开启了自动群发且模板非空的设置
func (r *settingRepository) FindAutoMessageEnabled() ([]model.AutomationSetting, error) {
	var settings []model.AutomationSetting
	err := r.db.Where("auto_message_enabled = ? AND message_template <> ''", true).
		Find(&settings).Error
	if err != nil {
		return nil, wrapDBError(err, "查询自动群发账号")
	}
	return settings, nil
}

// AddPendingFriendRequests 调整待处理申请计数
// delta 可为负，结果不小于 0（同步误差下允许读改写竞争，见并发模型）
func (r *settingRepository) AddPendingFriendRequests(accountUuid string, delta int) error {
	var setting model.AutomationSetting
	if err := r.db.First(&setting, "account_uuid = ?", accountUuid).Error; err != nil {
		return wrapDBErrorf(err, "调整待处理申请计数 account=%s", accountUuid)
	}
	next := setting.PendingFriendRequests + delta
	if next < 0 {
		next = 0
	}
	err := r.db.Model(&model.AutomationSetting{}).
		Where("account_uuid = ?", accountUuid).
		Update("pending_friend_requests", next).Error
	if err != nil {
		return wrapDBErrorf(err, "调整待处理申请计数 account=%s", accountUuid)
	}
	return nil
}

// SetPendingFriendRequests 好友全量同步后重置待处理申请计数
func (r *settingRepository) SetPendingFriendRequests(accountUuid string, count int) error {
	err := r.db.Model(&model.AutomationSetting{}).
		Where("account_uuid = ?", accountUuid).
		Update("pending_friend_requests", count).Error
	if err != nil {
		return wrapDBErrorf(err, "重置待处理申请计数 account=%s", accountUuid)
	}
	return nil
}

// IncrementTotalFriendRequestsSent 累计发送申请数 +1
func (r *settingRepository) IncrementTotalFriendRequestsSent(accountUuid string) error {
	err := r.db.Model(&model.AutomationSetting{}).
		Where("account_uuid = ?", accountUuid).
		Update("total_friend_requests_sent",
			gorm.Expr("total_friend_requests_sent + 1")).Error
	if err != nil {
		return wrapDBErrorf(err, "递增累计申请数 account=%s", accountUuid)
	}
	return nil
}
