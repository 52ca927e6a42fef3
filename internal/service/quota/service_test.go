package quota

import (
	"testing"

	"zalo_outreach_server/internal/dao/mysql/repository"
	"zalo_outreach_server/internal/model"
	"zalo_outreach_server/pkg/caplist"
	"zalo_outreach_server/pkg/constants"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*Service, *repository.Repositories) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	err = db.AutoMigrate(
		&model.AutomationSetting{},
		&model.DailyTracking{},
	)
	if err != nil {
		t.Fatal(err)
	}
	repos := repository.NewRepositories(db)
	return NewQuotaService(repos), repos
}

func TestGetOrCreateTodayDefaults(t *testing.T) {
	svc, _ := newTestService(t)

	record, err := svc.GetOrCreateToday("A1")
	if err != nil {
		t.Fatal(err)
	}
	if record.TrackingDate != TodayDate() {
		t.Fatalf("expected today %s, got %s", TodayDate(), record.TrackingDate)
	}
	if record.DailyScanLimit != constants.DAILY_SCAN_LIMIT {
		t.Fatalf("expected default scan limit %d, got %d",
			constants.DAILY_SCAN_LIMIT, record.DailyScanLimit)
	}
	if record.FriendRequestDailyLimit != constants.DAILY_FRIEND_REQUEST_LIMIT {
		t.Fatalf("unexpected request limit %d", record.FriendRequestDailyLimit)
	}
	if record.AutoMessageDailyLimit != constants.DAILY_AUTO_MESSAGE_LIMIT_DEFAULT {
		t.Fatalf("unexpected message limit %d", record.AutoMessageDailyLimit)
	}
	// 无设置记录时默认开启扫描
	if !record.ScanEnabled {
		t.Fatal("scan should default to enabled")
	}
}

func TestGetOrCreateTodayMirrorsSettingSwitch(t *testing.T) {
	svc, repos := newTestService(t)
	err := repos.Setting.Create(&model.AutomationSetting{
		AccountUuid: "A1",
		ScanEnabled: false,
	})
	if err != nil {
		t.Fatal(err)
	}

	record, err := svc.GetOrCreateToday("A1")
	if err != nil {
		t.Fatal(err)
	}
	if record.ScanEnabled {
		t.Fatal("record should mirror the disabled setting switch")
	}

	remaining, err := svc.ScanRemaining("A1")
	if err != nil {
		t.Fatal(err)
	}
	if remaining != 0 {
		t.Fatalf("disabled scan should have 0 remaining, got %d", remaining)
	}
}

func TestRecordScanDeduplicatesPerDay(t *testing.T) {
	svc, _ := newTestService(t)

	// 首次扫描无信息
	if err := svc.RecordScan("A1", "T1", "0901000001", false, model.ModeAuto); err != nil {
		t.Fatal(err)
	}
	record, _ := svc.GetOrCreateToday("A1")
	if record.ScanCountToday != 1 {
		t.Fatalf("expected 1, got %d", record.ScanCountToday)
	}

	// 同一天再次扫描同一目标，这次扫到信息：迁移列表，不重复计数
	if err := svc.RecordScan("A1", "T1", "0901000001", true, model.ModeAuto); err != nil {
		t.Fatal(err)
	}
	record, _ = svc.GetOrCreateToday("A1")
	if record.ScanCountToday != 1 {
		t.Fatalf("rescan must not double count, got %d", record.ScanCountToday)
	}
	// 尝试计数每次都记
	if record.AutoScansToday != 2 || record.TotalScans != 2 {
		t.Fatalf("expected 2 attempts, got auto=%d total=%d",
			record.AutoScansToday, record.TotalScans)
	}

	withInfo := caplist.FromJSON(record.WithInfoDetails, constants.DETAIL_LIST_CAP)
	withoutInfo := caplist.FromJSON(record.WithoutInfoDetails, constants.DETAIL_LIST_CAP)
	if !withInfo.Contains("T1") {
		t.Fatal("target should have moved to with-info list")
	}
	if withoutInfo.Contains("T1") {
		t.Fatal("target should have left the without-info list")
	}

	// 不同目标正常计数
	if err := svc.RecordScan("A1", "T2", "0901000002", false, model.ModeManual); err != nil {
		t.Fatal(err)
	}
	record, _ = svc.GetOrCreateToday("A1")
	if record.ScanCountToday != 2 {
		t.Fatalf("expected 2 distinct targets, got %d", record.ScanCountToday)
	}
	if record.ManualScansToday != 1 {
		t.Fatalf("expected 1 manual attempt, got %d", record.ManualScansToday)
	}
}

func TestFriendRequestCounters(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.RecordFriendRequestSent("A1", "T1", "0901000001", model.ModeAuto); err != nil {
		t.Fatal(err)
	}
	if err := svc.RecordFriendRequestSent("A1", "T2", "0901000002", model.ModeManual); err != nil {
		t.Fatal(err)
	}
	if err := svc.RecordFriendRequestCanceled("A1", "T3", "0901000003", model.ModeAuto); err != nil {
		t.Fatal(err)
	}

	record, _ := svc.GetOrCreateToday("A1")
	if record.AutoRequestsSentToday != 1 || record.ManualRequestsSentToday != 1 {
		t.Fatalf("unexpected sent counters: auto=%d manual=%d",
			record.AutoRequestsSentToday, record.ManualRequestsSentToday)
	}
	if record.AutoRequestsCanceledToday != 1 {
		t.Fatalf("unexpected cancel counter: %d", record.AutoRequestsCanceledToday)
	}
	if record.TotalRequestsSent != 2 || record.TotalRequestsCanceled != 1 {
		t.Fatalf("unexpected totals: sent=%d canceled=%d",
			record.TotalRequestsSent, record.TotalRequestsCanceled)
	}

	// 手动发送不占自动配额
	remaining, err := svc.FriendRequestRemaining("A1")
	if err != nil {
		t.Fatal(err)
	}
	if remaining != constants.DAILY_FRIEND_REQUEST_LIMIT-1 {
		t.Fatalf("expected %d remaining, got %d",
			constants.DAILY_FRIEND_REQUEST_LIMIT-1, remaining)
	}

	details := caplist.FromJSON(record.RequestDetails, constants.DETAIL_LIST_CAP)
	if details.Len() != 3 {
		t.Fatalf("expected 3 detail entries, got %d", details.Len())
	}
}

func TestAutoMessageRemaining(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.RecordMessage("A1", model.ModeAuto); err != nil {
		t.Fatal(err)
	}
	if err := svc.RecordMessage("A1", model.ModeManual); err != nil {
		t.Fatal(err)
	}

	remaining, err := svc.AutoMessageRemaining("A1")
	if err != nil {
		t.Fatal(err)
	}
	// 手动消息不占自动配额
	if remaining != constants.DAILY_AUTO_MESSAGE_LIMIT_DEFAULT-1 {
		t.Fatalf("expected %d remaining, got %d",
			constants.DAILY_AUTO_MESSAGE_LIMIT_DEFAULT-1, remaining)
	}
}

func TestUpdateDailyScanStatus(t *testing.T) {
	svc, repos := newTestService(t)
	err := repos.Setting.Create(&model.AutomationSetting{
		AccountUuid: "A1",
		ScanEnabled: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.UpdateDailyScanStatus("A1", false); err != nil {
		t.Fatal(err)
	}

	setting, err := repos.Setting.FindByAccountUuid("A1")
	if err != nil {
		t.Fatal(err)
	}
	if setting.ScanEnabled {
		t.Fatal("setting switch should be off")
	}
	record, err := repos.Tracking.FindByAccountAndDate("A1", TodayDate())
	if err != nil {
		t.Fatal(err)
	}
	if record.ScanEnabled {
		t.Fatal("tracking mirror should be off")
	}

	remaining, err := svc.ScanRemaining("A1")
	if err != nil {
		t.Fatal(err)
	}
	if remaining != 0 {
		t.Fatalf("expected 0 remaining after disable, got %d", remaining)
	}
}
