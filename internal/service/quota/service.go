// Package quota 提供每日配额跟踪的业务逻辑
// 所有"今天"的判定都基于固定统计时区，扫描去重依赖双明细列表
package quota

import (
	"time"

	"zalo_outreach_server/internal/config"
	"zalo_outreach_server/internal/dao/mysql/repository"
	"zalo_outreach_server/internal/model"
	"zalo_outreach_server/pkg/caplist"
	"zalo_outreach_server/pkg/constants"
	"zalo_outreach_server/pkg/errorx"

	"go.uber.org/zap"
)

// trackingLocation 统计时区，加载失败时退回 UTC
var trackingLocation = func() *time.Location {
	loc, err := time.LoadLocation(constants.TRACKING_TIMEZONE)
	if err != nil {
		zap.L().Error("load tracking timezone failed, falling back to UTC", zap.Error(err))
		return time.UTC
	}
	return loc
}()

// Location 返回统计时区，巡检调度也使用同一时区
func Location() *time.Location {
	return trackingLocation
}

// Now 返回统计时区下的当前时间
func Now() time.Time {
	return time.Now().In(trackingLocation)
}

// TodayDate 返回统计时区下的今天，格式 "2006-01-02"
func TodayDate() string {
	return Now().Format(model.TrackingDateLayout)
}

// StartOfToday 返回统计时区下今天零点
func StartOfToday() time.Time {
	now := Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, trackingLocation)
}

// Service 配额服务实现
type Service struct {
	repos *repository.Repositories
}

// NewQuotaService 创建配额服务实例
func NewQuotaService(repos *repository.Repositories) *Service {
	return &Service{repos: repos}
}

// GetOrCreateToday 获取或创建账号今天的跟踪记录
// 首次创建时从配置拷贝各项上限，并镜像账号的扫描开关
func (s *Service) GetOrCreateToday(accountUuid string) (*model.DailyTracking, error) {
	quotaCfg := config.GetConfig().QuotaConfig

	scanLimit := quotaCfg.DailyScanLimit
	if scanLimit <= 0 {
		scanLimit = constants.DAILY_SCAN_LIMIT
	}
	requestLimit := quotaCfg.DailyFriendRequestLimit
	if requestLimit <= 0 {
		requestLimit = constants.DAILY_FRIEND_REQUEST_LIMIT
	}
	messageLimit := quotaCfg.DailyAutoMessageLimit
	if messageLimit <= 0 {
		messageLimit = constants.DAILY_AUTO_MESSAGE_LIMIT_DEFAULT
	}

	scanEnabled := true
	if setting, err := s.repos.Setting.FindByAccountUuid(accountUuid); err == nil {
		scanEnabled = setting.ScanEnabled
	}

	record := &model.DailyTracking{
		AccountUuid:             accountUuid,
		TrackingDate:            TodayDate(),
		DailyScanLimit:          scanLimit,
		FriendRequestDailyLimit: requestLimit,
		AutoMessageDailyLimit:   messageLimit,
		WithInfoDetails:         "[]",
		WithoutInfoDetails:      "[]",
		RequestDetails:          "[]",
		ScanEnabled:             scanEnabled,
	}
	return s.repos.Tracking.GetOrCreate(record)
}

// ScanRemaining 今日剩余扫描配额
// 开关关闭时视为 0
func (s *Service) ScanRemaining(accountUuid string) (int, error) {
	record, err := s.GetOrCreateToday(accountUuid)
	if err != nil {
		return 0, err
	}
	if !record.ScanEnabled {
		return 0, nil
	}
	remaining := record.DailyScanLimit - record.ScanCountToday
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// RecordScan 记录一次扫描尝试
// 去重规则：目标当日首次进入任一明细列表时 ScanCountToday 才 +1，
// 重复扫描只把条目移到对应列表头部；尝试计数（分模式 + 累计）每次都记
func (s *Service) RecordScan(accountUuid, targetUuid, label string, hasInfo bool, mode string) error {
	record, err := s.GetOrCreateToday(accountUuid)
	if err != nil {
		return err
	}

	withInfo := caplist.FromJSON(record.WithInfoDetails, constants.DETAIL_LIST_CAP)
	withoutInfo := caplist.FromJSON(record.WithoutInfoDetails, constants.DETAIL_LIST_CAP)
	entry := caplist.Entry{TargetId: targetUuid, Label: label, RecordedAt: Now()}

	var isNew bool
	if hasInfo {
		isNew = caplist.Record(withInfo, withoutInfo, entry)
	} else {
		isNew = caplist.Record(withoutInfo, withInfo, entry)
	}

	if isNew {
		record.ScanCountToday++
	}
	if mode == model.ModeAuto {
		record.AutoScansToday++
	} else {
		record.ManualScansToday++
	}
	record.TotalScans++
	record.WithInfoDetails = withInfo.JSON()
	record.WithoutInfoDetails = withoutInfo.JSON()

	return s.repos.Tracking.Save(record)
}

// FriendRequestRemaining 今日剩余自动好友申请配额
func (s *Service) FriendRequestRemaining(accountUuid string) (int, error) {
	record, err := s.GetOrCreateToday(accountUuid)
	if err != nil {
		return 0, err
	}
	remaining := record.FriendRequestDailyLimit - record.AutoRequestsSentToday
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// RecordFriendRequestSent 记录一次好友申请发送
func (s *Service) RecordFriendRequestSent(accountUuid, targetUuid, label, mode string) error {
	record, err := s.GetOrCreateToday(accountUuid)
	if err != nil {
		return err
	}
	if mode == model.ModeAuto {
		record.AutoRequestsSentToday++
	} else {
		record.ManualRequestsSentToday++
	}
	record.TotalRequestsSent++
	s.pushRequestDetail(record, targetUuid, label)
	return s.repos.Tracking.Save(record)
}

// RecordFriendRequestCanceled 记录一次好友申请取消
func (s *Service) RecordFriendRequestCanceled(accountUuid, targetUuid, label, mode string) error {
	record, err := s.GetOrCreateToday(accountUuid)
	if err != nil {
		return err
	}
	if mode == model.ModeAuto {
		record.AutoRequestsCanceledToday++
	} else {
		record.ManualRequestsCanceledToday++
	}
	record.TotalRequestsCanceled++
	s.pushRequestDetail(record, targetUuid, label)
	return s.repos.Tracking.Save(record)
}

// pushRequestDetail 把目标写入申请明细列表（发送与取消共用一个列表）
func (s *Service) pushRequestDetail(record *model.DailyTracking, targetUuid, label string) {
	details := caplist.FromJSON(record.RequestDetails, constants.DETAIL_LIST_CAP)
	details.Push(caplist.Entry{TargetId: targetUuid, Label: label, RecordedAt: Now()})
	record.RequestDetails = details.JSON()
}

// AutoMessageRemaining 今日剩余自动消息配额
func (s *Service) AutoMessageRemaining(accountUuid string) (int, error) {
	record, err := s.GetOrCreateToday(accountUuid)
	if err != nil {
		return 0, err
	}
	remaining := record.AutoMessageDailyLimit - record.AutoMessagesToday
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// RecordMessage 记录一次消息发送（只计成功的发送）
func (s *Service) RecordMessage(accountUuid, mode string) error {
	record, err := s.GetOrCreateToday(accountUuid)
	if err != nil {
		return err
	}
	if mode == model.ModeAuto {
		record.AutoMessagesToday++
	} else {
		record.ManualMessagesToday++
	}
	return s.repos.Tracking.Save(record)
}

// UpdateDailyScanStatus 翻转当日扫描开关
// 账号设置里的开关和今天跟踪记录的镜像必须一起变，放在一个事务里
func (s *Service) UpdateDailyScanStatus(accountUuid string, enabled bool) error {
	if _, err := s.GetOrCreateToday(accountUuid); err != nil {
		return err
	}
	date := TodayDate()
	return s.repos.Transaction(func(tx *repository.Repositories) error {
		if err := tx.Setting.UpdateScanEnabled(accountUuid, enabled); err != nil {
			return err
		}
		return tx.Tracking.UpdateScanEnabledForDate(accountUuid, date, enabled)
	})
}

// Status 组装当日配额状态
func (s *Service) Status(accountUuid string) (*model.DailyTracking, error) {
	record, err := s.GetOrCreateToday(accountUuid)
	if err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeDBError, "配额状态查询失败 account=%s", accountUuid)
	}
	return record, nil
}
