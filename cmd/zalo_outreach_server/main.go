package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"zalo_outreach_server/internal/config"
	dao "zalo_outreach_server/internal/dao/mysql"
	myredis "zalo_outreach_server/internal/dao/redis"
	"zalo_outreach_server/internal/handler"
	"zalo_outreach_server/internal/https_server"
	"zalo_outreach_server/internal/infrastructure/alert"
	"zalo_outreach_server/internal/infrastructure/logger"
	"zalo_outreach_server/internal/infrastructure/mq"
	"zalo_outreach_server/internal/infrastructure/zalo"
	"zalo_outreach_server/internal/service"
	"zalo_outreach_server/internal/service/batch"
	"zalo_outreach_server/internal/service/sweep"
	"zalo_outreach_server/pkg/util/jwt"
	"zalo_outreach_server/pkg/util/snowflake"

	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	conf := config.GetConfig()

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, "dev"); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	zap.L().Info("日志初始化成功")

	// 3. 初始化数据库
	dao.Init()
	zap.L().Info("数据库初始化成功")

	// 4. 初始化 Redis
	myredis.Init()
	zap.L().Info("Redis 初始化成功")

	// 5. 初始化 JWT 和雪花算法
	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.AccessTokenExpiry, conf.JWTConfig.RefreshTokenExpiry)
	snowflake.Init()
	zap.L().Info("JWT 初始化成功")

	// 6. 初始化任务队列
	mq.Init()
	zap.L().Info("任务队列初始化成功")

	// 7. 初始化 Zalo 网关客户端
	zaloClient := zalo.NewHTTPClient(conf.ZaloConfig)

	// 8. 初始化 Service 层 (依赖注入)
	cache := myredis.GetCacheService()
	service.InitServices(dao.Repos, cache, mq.Queue, zaloClient)
	zap.L().Info("Service 层初始化成功")

	// 重启后网关侧会话可能已失效，先补注册再开始巡检
	if err := service.Svc.Account.RestoreSessions(); err != nil {
		zap.L().Warn("网关会话恢复失败", zap.Error(err))
	}

	// 9. 初始化告警服务
	alertSvc, err := alert.Init(cache)
	if err != nil {
		zap.L().Fatal("告警服务初始化失败", zap.Error(err))
	}
	zap.L().Info("告警服务初始化成功")

	// 10. 启动批任务消费端
	worker := batch.NewWorker(dao.Repos, service.Svc.Quota, zaloClient, cache, alertSvc)
	consumerGroup := mq.NewConsumerGroup(alertSvc)
	worker.Register(consumerGroup)
	consumerGroup.Start()
	zap.L().Info("批任务消费端启动成功")

	// 11. 启动巡检调度
	sweeper := sweep.NewSweepService(dao.Repos, service.Svc.Dispatch)
	if err := sweeper.Start(); err != nil {
		zap.L().Fatal("巡检调度启动失败", zap.Error(err))
	}
	zap.L().Info("巡检调度启动成功")

	// 12. 初始化参数校验翻译器
	if err := handler.InitTrans("zh"); err != nil {
		zap.L().Fatal("翻译器初始化失败", zap.Error(err))
	}

	// 13. 初始化 HTTP 服务器并启动
	handlers := handler.NewHandlers(service.Svc, cache)
	engine := https_server.Init(handlers)

	host := conf.MainConfig.Host
	port := conf.MainConfig.Port
	go func() {
		addr := fmt.Sprintf("%s:%d", host, port)
		var err error
		if conf.MainConfig.TlsEnabled {
			err = engine.RunTLS(addr, conf.MainConfig.CertFile, conf.MainConfig.KeyFile)
		} else {
			err = engine.Run(addr)
		}
		if err != nil {
			zap.L().Fatal("server running fault", zap.Error(err))
		}
	}()

	// 设置信号监听
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// 等待信号
	<-quit

	zap.L().Info("关闭服务器...")

	// 先停调度，再停消费端，最后关队列连接
	sweeper.Stop()
	consumerGroup.Close()
	mq.Queue.Close()

	zap.L().Info("服务器已关闭")
}
