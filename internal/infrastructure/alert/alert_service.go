// Package alert 提供运维短信告警
// 引擎长时间无人值守，账号被风控或批任务进死信时需要第一时间通知运维，
// 通道用阿里云短信，未配置真实 AK 时走本地 Mock
package alert

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	dysmsapi20170525 "github.com/alibabacloud-go/dysmsapi-20170525/v4/client"
	util "github.com/alibabacloud-go/tea-utils/v2/service"
	"github.com/alibabacloud-go/tea/tea"
	"go.uber.org/zap"

	"zalo_outreach_server/internal/config"
	myredis "zalo_outreach_server/internal/dao/redis"
	"zalo_outreach_server/pkg/errorx"
)

// AlertService 运维告警接口
// Service 层依赖此接口而非具体实现
type AlertService interface {
	// Notify 发送一条告警
	// scope 用于限频：同一 scope 一小时内最多发一条短信
	Notify(scope string, message string) error
}

// localAlertService 本地 Mock 实现，只打印不发短信
type localAlertService struct {
	cache myredis.CacheService
}

func (s *localAlertService) Notify(scope string, message string) error {
	ok, err := throttle(s.cache, scope)
	if err != nil || !ok {
		return err
	}
	fmt.Printf("【MockAlert】scope: %s, 内容: %s\n", scope, message)
	return nil
}

// throttle 告警限频
// SETNX 抢占 scope 键，一小时内同一 scope 只放行一次
func throttle(cache myredis.CacheService, scope string) (bool, error) {
	key := "alert_throttle_" + scope
	ok, err := cache.SetNX(context.Background(), key, "1", time.Hour)
	if err != nil {
		zap.L().Error("告警限频检查异常", zap.Error(err), zap.String("scope", scope))
		return false, errorx.ErrServerBusy
	}
	if !ok {
		zap.L().Debug("告警被限频跳过", zap.String("scope", scope))
	}
	return ok, nil
}

func shouldUseMock(cfg config.AlertConfig) bool {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv("ZALO_OUTREACH_ALERT_MODE")))
	if mode == "mock" || mode == "local" || mode == "test" {
		return true
	}
	// configs/config.toml 默认是占位字符串；没配真实 AK 时默认走 mock
	ak := strings.ToLower(strings.TrimSpace(cfg.AccessKeyID))
	ask := strings.ToLower(strings.TrimSpace(cfg.AccessKeySecret))
	if ak == "" || ask == "" {
		return true
	}
	if strings.Contains(ak, "your accesskey") || strings.Contains(ask, "your accesskey") {
		return true
	}
	return false
}

// aliyunAlertService 阿里云短信告警实现
type aliyunAlertService struct {
	client *dysmsapi20170525.Client
	cache  myredis.CacheService // 依赖抽象接口而非具体 Redis 实现
}

// Init 初始化告警服务
// cacheService 用于限频
func Init(cacheService myredis.CacheService) (AlertService, error) {
	alertCfg := config.GetConfig().AlertConfig
	if shouldUseMock(alertCfg) {
		zap.L().Warn("Alert Service 使用本地 Mock 模式（只打印，不调用第三方短信）")
		return &localAlertService{cache: cacheService}, nil
	}

	conf := &openapi.Config{
		AccessKeyId:     tea.String(alertCfg.AccessKeyID),
		AccessKeySecret: tea.String(alertCfg.AccessKeySecret),
	}
	conf.Endpoint = tea.String("dysmsapi.aliyuncs.com")
	client, err := dysmsapi20170525.NewClient(conf)
	if err != nil {
		zap.L().Error("Aliyun SMS Client Init Failed", zap.Error(err))
		return nil, err
	}

	return &aliyunAlertService{client: client, cache: cacheService}, nil
}

// Notify 发送告警短信
// 限频 -> 构造请求 -> 发送；发送失败只记日志，不影响主流程
func (s *aliyunAlertService) Notify(scope string, message string) error {
	if s.client == nil {
		zap.L().Error("告警服务调用失败：smsClient 未初始化")
		return errorx.New(errorx.CodeServerBusy, "告警服务未初始化")
	}

	ok, err := throttle(s.cache, scope)
	if err != nil || !ok {
		return err
	}

	alertCfg := config.GetConfig().AlertConfig
	signName := alertCfg.SignName
	if signName == "" {
		signName = "阿里云短信测试"
	}
	templateCode := alertCfg.TemplateCode
	if templateCode == "" {
		templateCode = "SMS_154950909"
	}

	sendSmsRequest := &dysmsapi20170525.SendSmsRequest{
		SignName:     tea.String(signName),
		TemplateCode: tea.String(templateCode),
		PhoneNumbers: tea.String(alertCfg.OpsTelephone),
		// 对应模板中的变量 ${code}
		TemplateParam: tea.String("{\"code\":\"" + message + "\"}"),
	}

	runtime := &util.RuntimeOptions{}
	rsp, err := s.client.SendSmsWithOptions(sendSmsRequest, runtime)
	if err != nil {
		zap.L().Error("调用阿里云短信接口发生系统级错误", zap.Error(err))
		return errorx.ErrServerBusy
	}

	// 即使 err 为 nil，也需要看 rsp.Body.Code 是否为 "OK"
	zap.L().Info("告警短信接口响应", zap.String("response", *util.ToJSONString(rsp)))
	return nil
}

// 确保两种实现都满足 AlertService 接口
var (
	_ AlertService = (*aliyunAlertService)(nil)
	_ AlertService = (*localAlertService)(nil)
)
