// Package user 提供运营用户的业务逻辑
// 处理注册、登录、信息管理
package user

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"zalo_outreach_server/internal/config"
	"zalo_outreach_server/internal/dao/mysql/repository"
	myredis "zalo_outreach_server/internal/dao/redis"
	"zalo_outreach_server/internal/dto/request"
	"zalo_outreach_server/internal/dto/respond"
	"zalo_outreach_server/internal/model"
	"zalo_outreach_server/pkg/errorx"
	"zalo_outreach_server/pkg/util/jwt"
	"zalo_outreach_server/pkg/util/random"
)

// userInfoService 用户业务逻辑实现
// 通过构造函数注入 Repository 依赖
type userInfoService struct {
	repos *repository.Repositories
	cache myredis.CacheService
}

// NewUserService 构造函数，注入所有依赖
func NewUserService(repos *repository.Repositories, cache myredis.CacheService) *userInfoService {
	return &userInfoService{repos: repos, cache: cache}
}

// checkTelephoneValid 检验电话是否有效
func (u *userInfoService) checkTelephoneValid(telephone string) bool {
	pattern := `^1([38][0-9]|14[579]|5[^4]|16[6]|7[1-35-8]|9[189])\d{8}$`
	match, err := regexp.MatchString(pattern, telephone)
	if err != nil {
		zap.L().Error(err.Error())
	}
	return match
}

// Login 登录
func (u *userInfoService) Login(loginReq request.LoginRequest) (*respond.LoginRespond, error) {
	user, err := u.repos.User.FindByTelephone(loginReq.Telephone)
	if err != nil {
		if errorx.GetCode(err) == errorx.CodeNotFound {
			return nil, errorx.New(errorx.CodeUserNotExist, "用户不存在，请注册")
		}
		zap.L().Error(err.Error())
		return nil, errorx.ErrServerBusy
	}
	if !user.CheckPassword(loginReq.Password) {
		return nil, errorx.New(errorx.CodeInvalidPassword, "密码不正确，请重试")
	}

	// 生成双 Token
	accessToken, err := jwt.GenerateAccessToken(user.Uuid)
	if err != nil {
		zap.L().Error("生成 Access Token 失败", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}
	refreshToken, tokenID, err := jwt.GenerateRefreshToken(user.Uuid)
	if err != nil {
		zap.L().Error("生成 Refresh Token 失败", zap.Error(err))
		return nil, errorx.ErrServerBusy
	}

	// 将 Refresh Token ID 存入 Redis，实现单点互踢
	expiry := time.Duration(config.GetConfig().JWTConfig.RefreshTokenExpiry) * time.Hour
	if err := u.cache.Set(context.Background(), "user_token:"+user.Uuid, tokenID, expiry); err != nil {
		// 不阻塞登录流程，仅记录日志
		zap.L().Error("存储 Token ID 到 Redis 失败", zap.Error(err))
	}

	return &respond.LoginRespond{
		Uuid:         user.Uuid,
		Telephone:    user.Telephone,
		Nickname:     user.Nickname,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Register 注册
func (u *userInfoService) Register(registerReq request.RegisterRequest) (*respond.RegisterRespond, error) {
	if !u.checkTelephoneValid(registerReq.Telephone) {
		return nil, errorx.New(errorx.CodeInvalidParam, "手机号格式不正确")
	}

	if _, err := u.repos.User.FindByTelephone(registerReq.Telephone); err == nil {
		return nil, errorx.New(errorx.CodeUserExist, "该手机号已注册")
	} else if errorx.GetCode(err) != errorx.CodeNotFound {
		zap.L().Error(err.Error())
		return nil, errorx.ErrServerBusy
	}

	newUser := &model.UserInfo{
		Uuid:        fmt.Sprintf("U%s", random.GetNowAndLenRandomString(11)),
		Telephone:   registerReq.Telephone,
		Nickname:    registerReq.Nickname,
		RawPassword: registerReq.Password, // BeforeSave 钩子里做 bcrypt
	}
	if err := u.repos.User.Create(newUser); err != nil {
		zap.L().Error(err.Error())
		return nil, errorx.ErrServerBusy
	}

	return &respond.RegisterRespond{
		Uuid:      newUser.Uuid,
		Nickname:  newUser.Nickname,
		Telephone: newUser.Telephone,
	}, nil
}

// UpdateUserInfo 更新用户信息
func (u *userInfoService) UpdateUserInfo(updateReq request.UpdateUserInfoRequest) error {
	user, err := u.repos.User.FindByUuid(updateReq.Uuid)
	if err != nil {
		if errorx.GetCode(err) == errorx.CodeNotFound {
			return errorx.New(errorx.CodeUserNotExist, "用户不存在")
		}
		return errorx.ErrServerBusy
	}
	if updateReq.Nickname != "" {
		user.Nickname = updateReq.Nickname
	}
	if updateReq.Password != "" {
		user.RawPassword = updateReq.Password
	}
	if err := u.repos.User.UpdateUserInfo(user); err != nil {
		zap.L().Error(err.Error())
		return errorx.ErrServerBusy
	}
	return nil
}

// GetUserInfo 获取单个用户信息
func (u *userInfoService) GetUserInfo(uuid string) (*respond.GetUserInfoRespond, error) {
	user, err := u.repos.User.FindByUuid(uuid)
	if err != nil {
		if errorx.GetCode(err) == errorx.CodeNotFound {
			return nil, errorx.New(errorx.CodeUserNotExist, "用户不存在")
		}
		return nil, errorx.ErrServerBusy
	}
	return &respond.GetUserInfoRespond{
		Uuid:      user.Uuid,
		Nickname:  user.Nickname,
		Telephone: user.Telephone,
		IsAdmin:   user.IsAdmin,
		Status:    user.Status,
	}, nil
}
