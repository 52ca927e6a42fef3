// Package service 定义业务层接口
// 本文件定义供 Handler 层调用的 Service 接口
// 接口设计遵循依赖倒置原则，便于测试和解耦
package service

import (
	"zalo_outreach_server/internal/dto/request"
	"zalo_outreach_server/internal/dto/respond"
)

// UserService 运营用户业务接口
type UserService interface {
	// Login 密码登录
	Login(req request.LoginRequest) (*respond.LoginRespond, error)
	// Register 用户注册
	Register(req request.RegisterRequest) (*respond.RegisterRespond, error)
	// UpdateUserInfo 更新用户信息
	UpdateUserInfo(req request.UpdateUserInfoRequest) error
	// GetUserInfo 获取单个用户信息
	GetUserInfo(uuid string) (*respond.GetUserInfoRespond, error)
}

// AccountService Zalo 账号业务接口
// 处理账号接入、自动化设置管理
type AccountService interface {
	// CreateAccount 接入 Zalo 账号（凭证加密落库）
	CreateAccount(req request.CreateAccountRequest) (*respond.AccountInfoRespond, error)
	// GetAccountList 获取用户名下的账号列表
	GetAccountList(ownerUuid string) ([]respond.AccountInfoRespond, error)
	// GetAccountInfo 获取账号信息
	GetAccountInfo(uuid string) (*respond.AccountInfoRespond, error)
	// DisableAccount 禁用账号
	DisableAccount(uuid string) error
	// GetSetting 获取自动化设置
	GetSetting(accountUuid string) (*respond.SettingRespond, error)
	// UpdateSetting 更新自动化设置
	UpdateSetting(req request.UpdateSettingRequest) error
	// UpdateDailyScanStatus 翻转当日扫描开关（设置和当日跟踪记录一起变）
	UpdateDailyScanStatus(accountUuid string, enabled bool) error
	// RestoreSessions 启动时把正常账号的会话补注册到网关
	RestoreSessions() error
}

// TargetService 外呼目标业务接口
// 批量导入走队列，手动单项操作直接调网关
type TargetService interface {
	// ImportTargets 批量导入目标
	ImportTargets(req request.ImportTargetsRequest) (*respond.ImportRespond, error)
	// CreateTarget 单个创建目标
	CreateTarget(req request.CreateTargetRequest) (*respond.TargetInfoRespond, error)
	// GetTargetList 分页查询目标
	GetTargetList(req request.TargetListRequest) (*respond.TargetListRespond, error)
	// ManualScan 手动扫描单个目标
	ManualScan(req request.ManualScanRequest) (*respond.ManualScanRespond, error)
	// ManualSendFriendRequest 手动发送好友申请
	ManualSendFriendRequest(req request.ManualFriendRequestRequest) error
	// ManualCancelFriendRequest 手动撤回好友申请
	ManualCancelFriendRequest(req request.ManualFriendRequestRequest) error
	// ManualSendMessage 手动发送消息
	ManualSendMessage(req request.ManualMessageRequest) (*respond.ManualMessageRespond, error)
}
