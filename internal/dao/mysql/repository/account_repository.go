package repository

import (
	"zalo_outreach_server/internal/model"

	"gorm.io/gorm"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository 创建账号 Repository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// FindByUuid 按 UUID 查找账号
func (r *accountRepository) FindByUuid(uuid string) (*model.Account, error) {
	var account model.Account
	if err := r.db.First(&account, "uuid = ?", uuid).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询账号 uuid=%s", uuid)
	}
	return &account, nil
}

// FindByOwner 查找用户名下所有账号
func (r *accountRepository) FindByOwner(ownerUuid string) ([]model.Account, error) {
	var accounts []model.Account
	if err := r.db.Where("owner_uuid = ?", ownerUuid).Find(&accounts).Error; err != nil {
		return nil, wrapDBError(err, "查询用户账号列表")
	}
	return accounts, nil
}

// FindAllActive 查找所有状态正常的账号
func (r *accountRepository) FindAllActive() ([]model.Account, error) {
	var accounts []model.Account
	if err := r.db.Where("status = ?", model.AccountStatusNormal).Find(&accounts).Error; err != nil {
		return nil, wrapDBError(err, "查询正常账号列表")
	}
	return accounts, nil
}

// Create 创建账号
func (r *accountRepository) Create(account *model.Account) error {
	if err := r.db.Create(account).Error; err != nil {
		return wrapDBError(err, "创建账号")
	}
	return nil
}

// Update 更新账号
func (r *accountRepository) Update(account *model.Account) error {
	if err := r.db.Save(account).Error; err != nil {
		return wrapDBError(err, "更新账号")
	}
	return nil
}
