// Package account 提供 Zalo 账号和自动化设置的业务逻辑
package account

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"zalo_outreach_server/internal/config"
	"zalo_outreach_server/internal/dao/mysql/repository"
	myredis "zalo_outreach_server/internal/dao/redis"
	"zalo_outreach_server/internal/dto/request"
	"zalo_outreach_server/internal/dto/respond"
	"zalo_outreach_server/internal/infrastructure/zalo"
	"zalo_outreach_server/internal/model"
	"zalo_outreach_server/internal/service/quota"
	"zalo_outreach_server/pkg/errorx"
	"zalo_outreach_server/pkg/secret"
	"zalo_outreach_server/pkg/util/random"
)

// startTimePattern 好友申请开始时刻 "HH:MM" 格式
var startTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// accountService 账号业务逻辑实现
type accountService struct {
	repos  *repository.Repositories
	cache  myredis.CacheService
	quota  *quota.Service
	client zalo.Client
}

// NewAccountService 构造函数，注入所有依赖
func NewAccountService(repos *repository.Repositories, cache myredis.CacheService,
	quotaSvc *quota.Service, client zalo.Client) *accountService {
	return &accountService{repos: repos, cache: cache, quota: quotaSvc, client: client}
}

// CreateAccount 接入 Zalo 账号
// 凭证 AES 加密后落库；账号和默认自动化设置放在一个事务里创建
func (a *accountService) CreateAccount(req request.CreateAccountRequest) (*respond.AccountInfoRespond, error) {
	key := config.GetConfig().ZaloConfig.CredentialKey
	encrypted, err := secret.Encrypt([]byte(req.Credential), []byte(key))
	if err != nil {
		zap.L().Error("凭证加密失败", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	account := &model.Account{
		Uuid:        fmt.Sprintf("A%s", random.GetNowAndLenRandomString(11)),
		OwnerUuid:   req.OwnerUuid,
		Telephone:   req.Telephone,
		DisplayName: req.DisplayName,
		Credential:  encrypted,
		Status:      model.AccountStatusNormal,
	}
	err = a.repos.Transaction(func(tx *repository.Repositories) error {
		if err := tx.Account.Create(account); err != nil {
			return err
		}
		return tx.Setting.Create(&model.AutomationSetting{
			AccountUuid: account.Uuid,
		})
	})
	if err != nil {
		zap.L().Error("创建账号失败", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	// 把凭证注册到网关建立会话；网关暂时不可用不阻塞接入，重启时会补注册
	if err := a.client.RegisterSession(context.Background(), account.Uuid, req.Credential); err != nil {
		zap.L().Warn("网关会话注册失败", zap.String("account", account.Uuid), zap.Error(err))
	}
	return toAccountRespond(account), nil
}

// RestoreSessions 把所有正常账号的会话重新注册到网关
// 进程重启后网关侧会话可能已失效，启动时统一补注册
func (a *accountService) RestoreSessions() error {
	accounts, err := a.repos.Account.FindAllActive()
	if err != nil {
		return err
	}
	restored := 0
	for i := range accounts {
		credential, err := a.DecryptCredential(accounts[i].Uuid)
		if err != nil {
			zap.L().Error("凭证解密失败，跳过会话恢复",
				zap.String("account", accounts[i].Uuid), zap.Error(err))
			continue
		}
		if err := a.client.RegisterSession(context.Background(), accounts[i].Uuid, credential); err != nil {
			zap.L().Warn("会话恢复失败",
				zap.String("account", accounts[i].Uuid), zap.Error(err))
			continue
		}
		restored++
	}
	zap.L().Info("网关会话恢复完成",
		zap.Int("total", len(accounts)), zap.Int("restored", restored))
	return nil
}

// GetAccountList 获取用户名下的账号列表
func (a *accountService) GetAccountList(ownerUuid string) ([]respond.AccountInfoRespond, error) {
	accounts, err := a.repos.Account.FindByOwner(ownerUuid)
	if err != nil {
		zap.L().Error(err.Error())
		return nil, errorx.ErrServerBusy
	}
	rsp := make([]respond.AccountInfoRespond, 0, len(accounts))
	for i := range accounts {
		rsp = append(rsp, *toAccountRespond(&accounts[i]))
	}
	return rsp, nil
}

// GetAccountInfo 获取账号信息
func (a *accountService) GetAccountInfo(uuid string) (*respond.AccountInfoRespond, error) {
	account, err := a.repos.Account.FindByUuid(uuid)
	if err != nil {
		if errorx.GetCode(err) == errorx.CodeNotFound {
			return nil, errorx.New(errorx.CodeNotFound, "账号不存在")
		}
		return nil, errorx.ErrServerBusy
	}
	return toAccountRespond(account), nil
}

// DisableAccount 禁用账号
// 同时清掉该账号的进度心跳键，避免监控面板残留
func (a *accountService) DisableAccount(uuid string) error {
	account, err := a.repos.Account.FindByUuid(uuid)
	if err != nil {
		if errorx.GetCode(err) == errorx.CodeNotFound {
			return errorx.New(errorx.CodeNotFound, "账号不存在")
		}
		return errorx.ErrServerBusy
	}
	account.Status = model.AccountStatusDisabled
	if err := a.repos.Account.Update(account); err != nil {
		zap.L().Error(err.Error())
		return errorx.ErrServerBusy
	}
	if err := a.cache.DeleteByPattern(context.Background(), "job_progress_*"+uuid+"*"); err != nil {
		zap.L().Warn("清理进度键失败", zap.String("account", uuid), zap.Error(err))
	}
	return nil
}

// GetSetting 获取自动化设置
func (a *accountService) GetSetting(accountUuid string) (*respond.SettingRespond, error) {
	setting, err := a.repos.Setting.FindByAccountUuid(accountUuid)
	if err != nil {
		if errorx.GetCode(err) == errorx.CodeNotFound {
			return nil, errorx.New(errorx.CodeNotFound, "自动化设置不存在")
		}
		return nil, errorx.ErrServerBusy
	}
	return &respond.SettingRespond{
		AccountUuid:              setting.AccountUuid,
		ScanEnabled:              setting.ScanEnabled,
		AutoFriendRequestEnabled: setting.AutoFriendRequestEnabled,
		FriendRequestStartTime:   setting.FriendRequestStartTime,
		AutoMessageEnabled:       setting.AutoMessageEnabled,
		MessageTemplate:          setting.MessageTemplate,
		PendingFriendRequests:    setting.PendingFriendRequests,
		TotalFriendRequestsSent:  setting.TotalFriendRequestsSent,
	}, nil
}

// UpdateSetting 更新自动化设置
// 指针字段为 nil 表示不修改；扫描开关的变更走 UpdateDailyScanStatus，
// 保证当日跟踪记录的镜像同步翻转
func (a *accountService) UpdateSetting(req request.UpdateSettingRequest) error {
	setting, err := a.repos.Setting.FindByAccountUuid(req.AccountUuid)
	if err != nil {
		if errorx.GetCode(err) == errorx.CodeNotFound {
			return errorx.New(errorx.CodeNotFound, "自动化设置不存在")
		}
		return errorx.ErrServerBusy
	}

	if req.AutoFriendRequestEnabled != nil {
		setting.AutoFriendRequestEnabled = *req.AutoFriendRequestEnabled
	}
	if req.FriendRequestStartTime != nil {
		if !startTimePattern.MatchString(*req.FriendRequestStartTime) {
			return errorx.New(errorx.CodeInvalidParam, "开始时刻格式应为 HH:MM")
		}
		setting.FriendRequestStartTime = *req.FriendRequestStartTime
	}
	if req.AutoMessageEnabled != nil {
		setting.AutoMessageEnabled = *req.AutoMessageEnabled
	}
	if req.MessageTemplate != nil {
		setting.MessageTemplate = *req.MessageTemplate
	}
	if err := a.repos.Setting.Update(setting); err != nil {
		zap.L().Error(err.Error())
		return errorx.ErrServerBusy
	}

	if req.ScanEnabled != nil && *req.ScanEnabled != setting.ScanEnabled {
		if err := a.quota.UpdateDailyScanStatus(req.AccountUuid, *req.ScanEnabled); err != nil {
			zap.L().Error(err.Error())
			return errorx.ErrServerBusy
		}
	}
	return nil
}

// UpdateDailyScanStatus 翻转当日扫描开关
func (a *accountService) UpdateDailyScanStatus(accountUuid string, enabled bool) error {
	return a.quota.UpdateDailyScanStatus(accountUuid, enabled)
}

// DecryptCredential 解密账号凭证，仅供网关调用链使用
func (a *accountService) DecryptCredential(accountUuid string) (string, error) {
	account, err := a.repos.Account.FindByUuid(accountUuid)
	if err != nil {
		return "", err
	}
	key := config.GetConfig().ZaloConfig.CredentialKey
	plain, err := secret.Decrypt(account.Credential, []byte(key))
	if err != nil {
		return "", errorx.Wrap(err, errorx.CodeServerBusy, "凭证解密失败")
	}
	return string(plain), nil
}

func toAccountRespond(account *model.Account) *respond.AccountInfoRespond {
	return &respond.AccountInfoRespond{
		Uuid:        account.Uuid,
		OwnerUuid:   account.OwnerUuid,
		Telephone:   account.Telephone,
		DisplayName: account.DisplayName,
		Avatar:      account.Avatar,
		Status:      account.Status,
	}
}
