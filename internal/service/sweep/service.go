// Package sweep 提供巡检调度
// 按 cron 表达式定期扫描所有开启了自动化的账号并派发批任务：
// 扫描每天一次、消息每天四个固定时刻、好友申请和好友同步每小时
package sweep

import (
	"context"
	"fmt"
	"time"

	"zalo_outreach_server/internal/config"
	"zalo_outreach_server/internal/dao/mysql/repository"
	"zalo_outreach_server/internal/model"
	"zalo_outreach_server/internal/service/dispatch"
	"zalo_outreach_server/internal/service/quota"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// 巡检 cron 表达式默认值，配置缺省时使用
var (
	defaultScanSpec       = "30 6 * * *"
	defaultFriendSyncSpec = "0 * * * *"
	defaultMessageSpecs   = []string{"30 8 * * *", "30 10 * * *", "30 14 * * *", "30 16 * * *"}
)

// Service 巡检调度服务
type Service struct {
	repos    *repository.Repositories
	dispatch *dispatch.Service
	cron     *cron.Cron
	now      func() time.Time // 开始时刻闸门的时钟，测试里可替换
}

// NewSweepService 创建巡检调度服务
func NewSweepService(repos *repository.Repositories, dispatchSvc *dispatch.Service) *Service {
	return &Service{
		repos:    repos,
		dispatch: dispatchSvc,
		// 巡检与配额统计使用同一时区，"每天 6 点"按统计时区理解
		cron: cron.New(cron.WithLocation(quota.Location())),
		now:  quota.Now,
	}
}

// Start 注册所有巡检并启动调度器
func (s *Service) Start() error {
	cfg := config.GetConfig().SchedulerConfig

	scanSpec := cfg.ScanSpec
	if scanSpec == "" {
		scanSpec = defaultScanSpec
	}
	if _, err := s.cron.AddFunc(scanSpec, s.ScanSweep); err != nil {
		return fmt.Errorf("register scan sweep: %w", err)
	}

	syncSpec := cfg.FriendSyncSpec
	if syncSpec == "" {
		syncSpec = defaultFriendSyncSpec
	}
	// 好友同步和好友申请共用小时级节奏
	if _, err := s.cron.AddFunc(syncSpec, s.FriendSyncSweep); err != nil {
		return fmt.Errorf("register friend sync sweep: %w", err)
	}
	if _, err := s.cron.AddFunc(syncSpec, s.FriendRequestSweep); err != nil {
		return fmt.Errorf("register friend request sweep: %w", err)
	}

	messageSpecs := cfg.MessageSpecs
	if len(messageSpecs) == 0 {
		messageSpecs = defaultMessageSpecs
	}
	for _, spec := range messageSpecs {
		if _, err := s.cron.AddFunc(spec, s.MessageSweep); err != nil {
			return fmt.Errorf("register message sweep %q: %w", spec, err)
		}
	}

	s.cron.Start()
	zap.L().Info("sweep scheduler started",
		zap.String("scan", scanSpec),
		zap.String("friendSync", syncSpec),
		zap.Strings("message", messageSpecs))
	return nil
}

// Stop 停止调度器，等待在途巡检结束
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// ScanSweep 扫描巡检
// 对所有开启了扫描的账号派发当日扫描批次
func (s *Service) ScanSweep() {
	settings, err := s.repos.Setting.FindScanEnabled()
	if err != nil {
		zap.L().Error("scan sweep query failed", zap.Error(err))
		return
	}
	for _, setting := range settings {
		if _, err := s.dispatch.DispatchScan(context.Background(), setting.AccountUuid, model.ModeAuto); err != nil {
			zap.L().Error("scan sweep dispatch failed",
				zap.String("account", setting.AccountUuid), zap.Error(err))
		}
	}
	zap.L().Info("scan sweep done", zap.Int("accounts", len(settings)))
}

// FriendRequestSweep 好友申请巡检
// 每小时检查一次，过了账号设置的开始时刻才开始派发；
// 派发量由当日配额裁剪，一天内多次触发不会超发
func (s *Service) FriendRequestSweep() {
	settings, err := s.repos.Setting.FindAutoFriendRequestEnabled()
	if err != nil {
		zap.L().Error("friend request sweep query failed", zap.Error(err))
		return
	}
	now := s.now().Format("15:04")
	dispatched := 0
	for _, setting := range settings {
		startTime := setting.FriendRequestStartTime
		if startTime == "" {
			startTime = "08:00"
		}
		if now < startTime {
			continue
		}
		if _, err := s.dispatch.DispatchFriendRequests(context.Background(), setting.AccountUuid, model.ModeAuto); err != nil {
			zap.L().Error("friend request sweep dispatch failed",
				zap.String("account", setting.AccountUuid), zap.Error(err))
			continue
		}
		dispatched++
	}
	zap.L().Info("friend request sweep done",
		zap.Int("accounts", len(settings)),
		zap.Int("dispatched", dispatched))
}

// MessageSweep 消息巡检
// 对开启了自动群发且模板非空的账号派发消息批次
func (s *Service) MessageSweep() {
	settings, err := s.repos.Setting.FindAutoMessageEnabled()
	if err != nil {
		zap.L().Error("message sweep query failed", zap.Error(err))
		return
	}
	for _, setting := range settings {
		if _, err := s.dispatch.DispatchMessages(context.Background(),
			setting.AccountUuid, setting.MessageTemplate, model.ModeAuto); err != nil {
			zap.L().Error("message sweep dispatch failed",
				zap.String("account", setting.AccountUuid), zap.Error(err))
		}
	}
	zap.L().Info("message sweep done", zap.Int("accounts", len(settings)))
}

// FriendSyncSweep 好友同步巡检
// 对所有状态正常的账号派发同步任务，小时级去重由 dispatch 层完成
func (s *Service) FriendSyncSweep() {
	accounts, err := s.repos.Account.FindAllActive()
	if err != nil {
		zap.L().Error("friend sync sweep query failed", zap.Error(err))
		return
	}
	for _, account := range accounts {
		if _, err := s.dispatch.DispatchFriendSync(context.Background(), account.Uuid, account.OwnerUuid); err != nil {
			zap.L().Error("friend sync sweep dispatch failed",
				zap.String("account", account.Uuid), zap.Error(err))
		}
	}
	zap.L().Info("friend sync sweep done", zap.Int("accounts", len(accounts)))
}
