package repository

import (
	"time"

	"zalo_outreach_server/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type targetRepository struct {
	db *gorm.DB
}

// NewTargetRepository 创建外呼目标 Repository
func NewTargetRepository(db *gorm.DB) TargetRepository {
	return &targetRepository{db: db}
}

// FindByUuid 按 UUID 查找目标
func (r *targetRepository) FindByUuid(uuid string) (*model.PhoneTarget, error) {
	var target model.PhoneTarget
	if err := r.db.First(&target, "uuid = ?", uuid).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询目标 uuid=%s", uuid)
	}
	return &target, nil
}

// FindByUuids 批量按 UUID 查找目标
func (r *targetRepository) FindByUuids(uuids []string) ([]model.PhoneTarget, error) {
	var targets []model.PhoneTarget
	if len(uuids) == 0 {
		return targets, nil
	}
	if err := r.db.Where("uuid IN ?", uuids).Find(&targets).Error; err != nil {
		return nil, wrapDBError(err, "批量查询目标")
	}
	return targets, nil
}

// FindByAccountAndPhone 按账号和电话查找目标
func (r *targetRepository) FindByAccountAndPhone(accountUuid, phone string) (*model.PhoneTarget, error) {
	var target model.PhoneTarget
	err := r.db.First(&target, "account_uuid = ? AND phone = ?", accountUuid, phone).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询目标 account=%s phone=%s", accountUuid, phone)
	}
	return &target, nil
}

// FindByAccountPaged 分页查询账号的目标
func (r *targetRepository) FindByAccountPaged(accountUuid string, offset, limit int) ([]model.PhoneTarget, int64, error) {
	var total int64
	err := r.db.Model(&model.PhoneTarget{}).
		Where("account_uuid = ?", accountUuid).
		Count(&total).Error
	if err != nil {
		return nil, 0, wrapDBErrorf(err, "统计目标数 account=%s", accountUuid)
	}
	var targets []model.PhoneTarget
	err = r.db.Where("account_uuid = ?", accountUuid).
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&targets).Error
	if err != nil {
		return nil, 0, wrapDBErrorf(err, "分页查询目标 account=%s", accountUuid)
	}
	return targets, total, nil
}

// Create 创建目标
func (r *targetRepository) Create(target *model.PhoneTarget) error {
	if err := r.db.Create(target).Error; err != nil {
		return wrapDBError(err, "创建目标")
	}
	return nil
}

// CreateSkipDuplicates 批量创建目标，(account, phone) 冲突时静默跳过
// 导入任务重试时依赖该语义保证幂等，返回实际插入的行数
func (r *targetRepository) CreateSkipDuplicates(targets []model.PhoneTarget) (int64, error) {
	if len(targets) == 0 {
		return 0, nil
	}
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&targets)
	if result.Error != nil {
		return 0, wrapDBError(result.Error, "批量创建目标")
	}
	return result.RowsAffected, nil
}

// Update 更新目标
func (r *targetRepository) Update(target *model.PhoneTarget) error {
	if err := r.db.Save(target).Error; err != nil {
		return wrapDBError(err, "更新目标")
	}
	return nil
}

// FindUnscanned 查找缺少扫描信息的目标
// 从未扫描的排最前，其余按上次扫描时间、扫描次数升序，保证轮转覆盖
func (r *targetRepository) FindUnscanned(accountUuid string, limit int) ([]model.PhoneTarget, error) {
	var targets []model.PhoneTarget
	err := r.db.Where("account_uuid = ? AND has_scan_info = ?", accountUuid, false).
		Order("last_scanned_at IS NULL DESC, last_scanned_at ASC, scan_count ASC, id ASC").
		Limit(limit).
		Find(&targets).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询待扫描目标 account=%s", accountUuid)
	}
	return targets, nil
}

// FindFriendRequestCandidates 查找可发好友申请的目标
// 必须已扫到 uid，且不是好友、没有未决申请
func (r *targetRepository) FindFriendRequestCandidates(accountUuid string, limit int) ([]model.PhoneTarget, error) {
	var targets []model.PhoneTarget
	err := r.db.Where(
		"account_uuid = ? AND has_scan_info = ? AND uid <> '' AND is_friend = ? AND has_sent_friend_request = ?",
		accountUuid, true, false, false).
		Order("last_scanned_at ASC, id ASC").
		Limit(limit).
		Find(&targets).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询好友申请候选 account=%s", accountUuid)
	}
	return targets, nil
}

// FindOldestPendingRequests 查找最旧的未决好友申请目标
// 取消批次按先进先出回收申请位
func (r *targetRepository) FindOldestPendingRequests(accountUuid string, limit int) ([]model.PhoneTarget, error) {
	var targets []model.PhoneTarget
	err := r.db.Where("account_uuid = ? AND has_sent_friend_request = ?", accountUuid, true).
		Order("updated_at ASC, id ASC").
		Limit(limit).
		Find(&targets).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询未决申请目标 account=%s", accountUuid)
	}
	return targets, nil
}

// FindMessageCandidates 查找可群发的目标
// 排除陌生人屏蔽和 since 之后已发过消息的目标，最久未发的优先
func (r *targetRepository) FindMessageCandidates(accountUuid string, since time.Time, limit int) ([]model.PhoneTarget, error) {
	var targets []model.PhoneTarget
	err := r.db.Where(
		"account_uuid = ? AND has_scan_info = ? AND uid <> '' AND has_stranger_blocked_error = ?",
		accountUuid, true, false).
		Where("last_message_sent_at IS NULL OR last_message_sent_at < ?", since).
		Order("last_message_sent_at IS NULL DESC, last_message_sent_at ASC, id ASC").
		Limit(limit).
		Find(&targets).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询群发候选 account=%s", accountUuid)
	}
	return targets, nil
}

// CompareAndIncrementScanCount 比较后递增扫描计数
// 仅当 scan_count 仍等于 pre 时 +1；批任务重试重放同一条目时
// 旧值已不匹配，不会二次计数
func (r *targetRepository) CompareAndIncrementScanCount(uuid string, pre int) (bool, error) {
	result := r.db.Model(&model.PhoneTarget{}).
		Where("uuid = ? AND scan_count = ?", uuid, pre).
		Update("scan_count", gorm.Expr("scan_count + 1"))
	if result.Error != nil {
		return false, wrapDBErrorf(result.Error, "递增扫描计数 uuid=%s", uuid)
	}
	return result.RowsAffected > 0, nil
}

// SyncFriendUids 好友全量同步
// uid 在好友列表中的目标置为好友并清掉未决申请标记，其余目标好友标记清零
func (r *targetRepository) SyncFriendUids(accountUuid string, friendUids []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// 先全部清零，再按好友列表置位，结果与网关侧完全一致
		err := tx.Model(&model.PhoneTarget{}).
			Where("account_uuid = ? AND is_friend = ?", accountUuid, true).
			Update("is_friend", false).Error
		if err != nil {
			return wrapDBErrorf(err, "清空好友标记 account=%s", accountUuid)
		}
		if len(friendUids) == 0 {
			return nil
		}
		err = tx.Model(&model.PhoneTarget{}).
			Where("account_uuid = ? AND uid IN ?", accountUuid, friendUids).
			Updates(map[string]any{
				"is_friend":               true,
				"has_sent_friend_request": false,
			}).Error
		if err != nil {
			return wrapDBErrorf(err, "同步好友标记 account=%s", accountUuid)
		}
		return nil
	})
}
