package repository

import (
	"time"

	"zalo_outreach_server/internal/model"

	"gorm.io/gorm"
)

type messageLogRepository struct {
	db *gorm.DB
}

// NewMessageLogRepository 创建消息日志 Repository
func NewMessageLogRepository(db *gorm.DB) MessageLogRepository {
	return &messageLogRepository{db: db}
}

// Create 写入一条发送日志
func (r *messageLogRepository) Create(log *model.MessageLog) error {
	if err := r.db.Create(log).Error; err != nil {
		return wrapDBError(err, "创建消息日志")
	}
	return nil
}

// FindByAccountSince 查找账号某时刻之后的日志
func (r *messageLogRepository) FindByAccountSince(accountUuid string, since time.Time) ([]model.MessageLog, error) {
	var logs []model.MessageLog
	err := r.db.Where("account_uuid = ? AND created_at >= ?", accountUuid, since).
		Order("created_at DESC").
		Find(&logs).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询消息日志 account=%s", accountUuid)
	}
	return logs, nil
}
