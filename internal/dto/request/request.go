// Package request 定义 HTTP 接口的请求结构
// 字段校验使用 validator tag，统一在 handler 层绑定并翻译错误
package request

// LoginRequest 登录请求
type LoginRequest struct {
	Telephone string `json:"telephone" binding:"required,len=11"` // 手机号
	Password  string `json:"password" binding:"required,min=6"`   // 密码
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Telephone string `json:"telephone" binding:"required,len=11"`
	Password  string `json:"password" binding:"required,min=6"`
	Nickname  string `json:"nickname" binding:"required,max=20"`
}

// RefreshTokenRequest 刷新 Access Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// UpdateUserInfoRequest 更新用户信息请求
type UpdateUserInfoRequest struct {
	Uuid     string `json:"uuid" binding:"required"`
	Nickname string `json:"nickname" binding:"max=20"`
	Password string `json:"password"` // 留空表示不修改
}

// CreateAccountRequest 接入 Zalo 账号请求
// Credential 是网关导出的登录凭证，入库前 AES 加密
type CreateAccountRequest struct {
	OwnerUuid   string `json:"ownerUuid" binding:"required"`
	Telephone   string `json:"telephone" binding:"required"`
	DisplayName string `json:"displayName" binding:"max=50"`
	Credential  string `json:"credential" binding:"required"`
}

// UpdateSettingRequest 更新自动化设置请求
// 指针字段为 nil 表示不修改该项
type UpdateSettingRequest struct {
	AccountUuid              string  `json:"accountUuid" binding:"required"`
	ScanEnabled              *bool   `json:"scanEnabled"`
	AutoFriendRequestEnabled *bool   `json:"autoFriendRequestEnabled"`
	FriendRequestStartTime   *string `json:"friendRequestStartTime"` // "HH:MM"
	AutoMessageEnabled       *bool   `json:"autoMessageEnabled"`
	MessageTemplate          *string `json:"messageTemplate"`
}

// UpdateDailyScanStatusRequest 翻转当日扫描开关请求
type UpdateDailyScanStatusRequest struct {
	AccountUuid string `json:"accountUuid" binding:"required"`
	Enabled     *bool  `json:"enabled" binding:"required"`
}

// ImportTargetsRequest 批量导入目标请求
// UserUuid 不从请求体取，由 handler 从登录态填入
type ImportTargetsRequest struct {
	AccountUuid string   `json:"accountUuid" binding:"required"`
	Phones      []string `json:"phones" binding:"required,min=1,dive,min=8,max=15"`
	UserUuid    string   `json:"-"`
}

// CreateTargetRequest 单个创建目标请求
type CreateTargetRequest struct {
	AccountUuid string `json:"accountUuid" binding:"required"`
	Phone       string `json:"phone" binding:"required,min=8,max=15"`
}

// TargetListRequest 分页查询目标请求
type TargetListRequest struct {
	AccountUuid string `json:"accountUuid" form:"accountUuid" binding:"required"`
	Page        int    `json:"page" form:"page"`
	PageSize    int    `json:"pageSize" form:"pageSize"`
}

// ManualScanRequest 手动扫描单个目标请求
type ManualScanRequest struct {
	AccountUuid string `json:"accountUuid" binding:"required"`
	TargetUuid  string `json:"targetUuid" binding:"required"`
}

// ManualFriendRequestRequest 手动发送/取消好友申请请求
type ManualFriendRequestRequest struct {
	AccountUuid string `json:"accountUuid" binding:"required"`
	TargetUuid  string `json:"targetUuid" binding:"required"`
	Greeting    string `json:"greeting" binding:"max=200"`
}

// ManualMessageRequest 手动发送消息请求
type ManualMessageRequest struct {
	AccountUuid string `json:"accountUuid" binding:"required"`
	TargetUuid  string `json:"targetUuid" binding:"required"`
	Content     string `json:"content" binding:"required,max=2000"`
}

// DispatchRequest 手动触发某账号的批派发请求
type DispatchRequest struct {
	AccountUuid string `json:"accountUuid" binding:"required"`
}
