// Package service 提供业务逻辑层
// 本文件实现 Service 层的依赖注入和聚合
package service

import (
	"zalo_outreach_server/internal/dao/mysql/repository"
	myredis "zalo_outreach_server/internal/dao/redis"
	"zalo_outreach_server/internal/infrastructure/mq"
	"zalo_outreach_server/internal/infrastructure/zalo"
	"zalo_outreach_server/internal/service/account"
	"zalo_outreach_server/internal/service/auth"
	"zalo_outreach_server/internal/service/dispatch"
	"zalo_outreach_server/internal/service/quota"
	"zalo_outreach_server/internal/service/target"
	"zalo_outreach_server/internal/service/user"
)

// Services 聚合所有 Service 实例
// 作为依赖注入的入口，Handler 层通过 service.Svc 访问各个 Service
type Services struct {
	User    UserService    // 用户 Service
	Account AccountService // 账号 Service
	Target  TargetService  // 目标 Service

	// Quota 和 Dispatch 以具体类型暴露：
	// 批派发/配额也被 worker 和巡检直接使用，不止 Handler 一个调用方
	Quota    *quota.Service
	Dispatch *dispatch.Service
	Auth     *auth.Service
}

// NewServices 创建并注入所有 Service 实例
// 依赖注入流程：
//  1. 先创建 Quota/Dispatch 等基础 Service
//  2. 再创建依赖它们的业务 Service
//  3. 返回 Services 聚合
func NewServices(repos *repository.Repositories, cache myredis.AsyncCacheService,
	queue mq.JobQueue, client zalo.Client) *Services {
	quotaSvc := quota.NewQuotaService(repos)
	dispatchSvc := dispatch.NewDispatchService(repos, queue, cache, quotaSvc)

	userSvc := user.NewUserService(repos, cache)
	accountSvc := account.NewAccountService(repos, cache, quotaSvc, client)
	targetSvc := target.NewTargetService(repos, client, quotaSvc, dispatchSvc)

	return &Services{
		User:     userSvc,
		Account:  accountSvc,
		Target:   targetSvc,
		Quota:    quotaSvc,
		Dispatch: dispatchSvc,
		Auth:     auth.NewAuthService(cache),
	}
}

// Svc 全局 Services 实例
// Handler 层通过 service.Svc.User.Login() 等方式调用
var Svc *Services

// InitServices 初始化全局 Services 实例
// 应在 main.go 中调用，在 Repository、Redis、队列、网关客户端之后
func InitServices(repos *repository.Repositories, cache myredis.AsyncCacheService,
	queue mq.JobQueue, client zalo.Client) {
	Svc = NewServices(repos, cache, queue, client)
}
