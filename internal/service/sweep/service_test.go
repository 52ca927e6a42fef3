package sweep

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"zalo_outreach_server/internal/dao/mysql/repository"
	"zalo_outreach_server/internal/infrastructure/mq"
	"zalo_outreach_server/internal/model"
	"zalo_outreach_server/internal/service/dispatch"
	"zalo_outreach_server/internal/service/quota"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeQueue struct {
	mu   sync.Mutex
	jobs []*mq.Job
}

func (q *fakeQueue) Enqueue(ctx context.Context, job *mq.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
}

func (c *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key], nil
}

func (c *fakeCache) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.data[key]; exists {
		return false, nil
	}
	c.data[key] = value
	return true, nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *fakeCache) DeleteByPattern(ctx context.Context, pattern string) error { return nil }

func newTestSweep(t *testing.T) (*Service, *fakeQueue, *repository.Repositories) {
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
		&model.Account{},
		&model.AutomationSetting{},
		&model.PhoneTarget{},
		&model.DailyTracking{},
	)
	if err != nil {
		t.Fatal(err)
	}
	repos := repository.NewRepositories(db)
	queue := &fakeQueue{}
	dispatchSvc := dispatch.NewDispatchService(repos, queue,
		&fakeCache{data: make(map[string]string)}, quota.NewQuotaService(repos))
	return NewSweepService(repos, dispatchSvc), queue, repos
}

func TestStartRegistersDefaultSpecs(t *testing.T) {
	svc, _, _ := newTestSweep(t)
	if err := svc.Start(); err != nil {
		t.Fatal(err)
	}
	svc.Stop()
}

func TestScanSweepOnlyEnabledAccounts(t *testing.T) {
	svc, queue, repos := newTestSweep(t)

	err := repos.Setting.Create(&model.AutomationSetting{
		AccountUuid: "A-on", ScanEnabled: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	err = repos.Setting.Create(&model.AutomationSetting{
		AccountUuid: "A-off", ScanEnabled: false,
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, account := range []string{"A-on", "A-off"} {
		target := &model.PhoneTarget{
			Uuid: "T-" + account, AccountUuid: account, Phone: "090100000" + account,
		}
		if err := repos.Target.Create(target); err != nil {
			t.Fatal(err)
		}
	}

	svc.ScanSweep()

	if len(queue.jobs) != 1 {
		t.Fatalf("expected 1 job for the enabled account, got %d", len(queue.jobs))
	}
	var payload mq.ScanBatchPayload
	if err := json.Unmarshal(queue.jobs[0].Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.AccountUuid != "A-on" {
		t.Fatalf("expected A-on, got %s", payload.AccountUuid)
	}
	if payload.Mode != model.ModeAuto {
		t.Fatalf("sweep jobs must be auto mode, got %s", payload.Mode)
	}
}

func TestMessageSweepSkipsEmptyTemplate(t *testing.T) {
	svc, queue, repos := newTestSweep(t)

	err := repos.Setting.Create(&model.AutomationSetting{
		AccountUuid:        "A-tmpl",
		AutoMessageEnabled: true,
		MessageTemplate:    "hi {name}",
	})
	if err != nil {
		t.Fatal(err)
	}
	err = repos.Setting.Create(&model.AutomationSetting{
		AccountUuid:        "A-empty",
		AutoMessageEnabled: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, account := range []string{"A-tmpl", "A-empty"} {
		target := &model.PhoneTarget{
			Uuid: "T-" + account, AccountUuid: account,
			Phone: "090100000" + account, Uid: "uid-" + account, HasScanInfo: true,
		}
		if err := repos.Target.Create(target); err != nil {
			t.Fatal(err)
		}
	}

	svc.MessageSweep()

	if len(queue.jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(queue.jobs))
	}
	var payload mq.SendMessagesPayload
	if err := json.Unmarshal(queue.jobs[0].Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.AccountUuid != "A-tmpl" {
		t.Fatalf("expected A-tmpl, got %s", payload.AccountUuid)
	}
}

func TestFriendRequestSweepStartTimeGate(t *testing.T) {
	svc, queue, repos := newTestSweep(t)
	// 固定在统计时区的 09:00 触发巡检
	svc.now = func() time.Time {
		return time.Date(2026, 3, 2, 9, 0, 0, 0, quota.Location())
	}

	cases := []struct {
		account   string
		startTime string
	}{
		{"A-past", "08:00"},    // 已过开始时刻
		{"A-default", ""},      // 未配置，按默认 08:00 处理
		{"A-not-yet", "10:00"}, // 还没到点
	}
	for _, c := range cases {
		err := repos.Setting.Create(&model.AutomationSetting{
			AccountUuid:              c.account,
			AutoFriendRequestEnabled: true,
			FriendRequestStartTime:   c.startTime,
		})
		if err != nil {
			t.Fatal(err)
		}
		target := &model.PhoneTarget{
			Uuid: "T-" + c.account, AccountUuid: c.account,
			Phone: "0901-" + c.account, Uid: "uid-" + c.account, HasScanInfo: true,
		}
		if err := repos.Target.Create(target); err != nil {
			t.Fatal(err)
		}
	}

	svc.FriendRequestSweep()

	dispatched := make(map[string]bool)
	for _, job := range queue.jobs {
		var payload mq.SendRequestsPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			t.Fatal(err)
		}
		dispatched[payload.AccountUuid] = true
	}
	if len(queue.jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(queue.jobs))
	}
	if !dispatched["A-past"] || !dispatched["A-default"] {
		t.Fatalf("accounts past their start time must be dispatched, got %v", dispatched)
	}
	if dispatched["A-not-yet"] {
		t.Fatal("account before its start time must be skipped")
	}
}

func TestFriendSyncSweepSkipsDisabledAccounts(t *testing.T) {
	svc, queue, repos := newTestSweep(t)

	err := repos.Account.Create(&model.Account{
		Uuid: "A-ok", OwnerUuid: "U1", Telephone: "0901", Status: model.AccountStatusNormal,
	})
	if err != nil {
		t.Fatal(err)
	}
	err = repos.Account.Create(&model.Account{
		Uuid: "A-dis", OwnerUuid: "U1", Telephone: "0902", Status: model.AccountStatusDisabled,
	})
	if err != nil {
		t.Fatal(err)
	}

	svc.FriendSyncSweep()

	if len(queue.jobs) != 1 {
		t.Fatalf("expected 1 sync job, got %d", len(queue.jobs))
	}
	var payload mq.SyncFriendsPayload
	if err := json.Unmarshal(queue.jobs[0].Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.AccountUuid != "A-ok" {
		t.Fatalf("expected A-ok, got %s", payload.AccountUuid)
	}
}
