package repository

import (
	"zalo_outreach_server/internal/model"

	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建运营用户 Repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// FindByUuid 按 UUID 查找用户
func (r *userRepository) FindByUuid(uuid string) (*model.UserInfo, error) {
	var user model.UserInfo
	if err := r.db.First(&user, "uuid = ?", uuid).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 uuid=%s", uuid)
	}
	return &user, nil
}

// FindByTelephone 按电话查找用户
func (r *userRepository) FindByTelephone(telephone string) (*model.UserInfo, error) {
	var user model.UserInfo
	if err := r.db.First(&user, "telephone = ?", telephone).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 telephone=%s", telephone)
	}
	return &user, nil
}

// Create 创建用户
func (r *userRepository) Create(user *model.UserInfo) error {
	if err := r.db.Create(user).Error; err != nil {
		return wrapDBError(err, "创建用户")
	}
	return nil
}

// UpdateUserInfo 更新用户信息
func (r *userRepository) UpdateUserInfo(user *model.UserInfo) error {
	if err := r.db.Save(user).Error; err != nil {
		return wrapDBError(err, "更新用户信息")
	}
	return nil
}
