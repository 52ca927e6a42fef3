// 本文件定义 Zalo 账号模型
// 账号是外呼自动化的执行主体，凭证以密文形式落库
package model

import (
	"gorm.io/gorm"
)

// 账号状态
const (
	AccountStatusNormal   int8 = 0 // 正常
	AccountStatusDisabled int8 = 1 // 禁用（不参与任何巡检）
)

// Account Zalo 账号模型
// 对应数据库 account 表
type Account struct {
	gorm.Model

	// Uuid 账号唯一标识
	// 格式：A + 13位时间戳随机字符串
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(20);comment:账号唯一id"`

	// OwnerUuid 所属运营用户
	OwnerUuid string `gorm:"column:owner_uuid;index;type:char(20);not null;comment:所属用户"`

	// Telephone 账号绑定的手机号
	Telephone string `gorm:"column:telephone;index;not null;type:char(15);comment:电话"`

	// DisplayName 账号展示名称
	DisplayName string `gorm:"column:display_name;type:varchar(50);comment:展示名称"`

	// Avatar 头像 URL
	Avatar string `gorm:"column:avatar;type:varchar(255);comment:头像"`

	// Credential 网关凭证密文
	// cookie/IMEI/UserAgent 组成的 JSON，经 AES-GCM 加密后 base64 存储
	// 引擎本身从不解析内容，只在调用网关时原样透传解密结果
	Credential string `gorm:"column:credential;type:text;comment:凭证密文"`

	// Status 账号状态
	Status int8 `gorm:"column:status;index;not null;comment:状态，0.正常，1.禁用"`
}

// TableName 指定表名
func (Account) TableName() string {
	return "account"
}
