package repository

import (
	"zalo_outreach_server/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type trackingRepository struct {
	db *gorm.DB
}

// NewTrackingRepository 创建每日配额跟踪 Repository
func NewTrackingRepository(db *gorm.DB) TrackingRepository {
	return &trackingRepository{db: db}
}

// GetOrCreate 获取或创建指定账号指定日期的跟踪记录
// 依赖 (account_uuid, tracking_date) 唯一键：插入冲突时静默跳过，
// 再读一次拿到已存在的记录，并发创建同一天的记录不会报错
func (r *trackingRepository) GetOrCreate(record *model.DailyTracking) (*model.DailyTracking, error) {
	err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(record).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "创建跟踪记录 account=%s date=%s",
			record.AccountUuid, record.TrackingDate)
	}
	var existing model.DailyTracking
	err = r.db.First(&existing,
		"account_uuid = ? AND tracking_date = ?",
		record.AccountUuid, record.TrackingDate).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "读取跟踪记录 account=%s date=%s",
			record.AccountUuid, record.TrackingDate)
	}
	return &existing, nil
}

// FindByAccountAndDate 查找指定账号指定日期的记录
func (r *trackingRepository) FindByAccountAndDate(accountUuid, date string) (*model.DailyTracking, error) {
	var record model.DailyTracking
	err := r.db.First(&record,
		"account_uuid = ? AND tracking_date = ?", accountUuid, date).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询跟踪记录 account=%s date=%s", accountUuid, date)
	}
	return &record, nil
}

// Save 保存跟踪记录
// worker 串行处理单账号的批任务，读改写在这里是安全的
func (r *trackingRepository) Save(record *model.DailyTracking) error {
	if err := r.db.Save(record).Error; err != nil {
		return wrapDBErrorf(err, "保存跟踪记录 account=%s date=%s",
			record.AccountUuid, record.TrackingDate)
	}
	return nil
}

// UpdateScanEnabledForDate 更新指定日期记录的扫描开关镜像
func (r *trackingRepository) UpdateScanEnabledForDate(accountUuid, date string, enabled bool) error {
	err := r.db.Model(&model.DailyTracking{}).
		Where("account_uuid = ? AND tracking_date = ?", accountUuid, date).
		Update("scan_enabled", enabled).Error
	if err != nil {
		return wrapDBErrorf(err, "更新扫描开关镜像 account=%s date=%s", accountUuid, date)
	}
	return nil
}
