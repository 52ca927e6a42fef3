package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"zalo_outreach_server/internal/dao/mysql/repository"
	"zalo_outreach_server/internal/infrastructure/mq"
	"zalo_outreach_server/internal/model"
	"zalo_outreach_server/internal/service/quota"
	"zalo_outreach_server/pkg/constants"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeQueue 捕获入队任务的测试替身
type fakeQueue struct {
	jobs []*mq.Job
}

func (q *fakeQueue) Enqueue(ctx context.Context, job *mq.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

// fakeCache 内存缓存替身，只实现派发需要的 SetNX 语义
type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
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

func (c *fakeCache) DeleteByPattern(ctx context.Context, pattern string) error {
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeQueue, *repository.Repositories) {
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
		&model.PhoneTarget{},
		&model.DailyTracking{},
	)
	if err != nil {
		t.Fatal(err)
	}
	repos := repository.NewRepositories(db)
	queue := &fakeQueue{}
	svc := NewDispatchService(repos, queue, newFakeCache(), quota.NewQuotaService(repos))
	return svc, queue, repos
}

func seedUnscanned(t *testing.T, repos *repository.Repositories, account string, n int) {
	t.Helper()
	targets := make([]model.PhoneTarget, 0, n)
	for i := 0; i < n; i++ {
		targets = append(targets, model.PhoneTarget{
			Uuid:        fmt.Sprintf("T%04d", i),
			AccountUuid: account,
			Phone:       fmt.Sprintf("09010%05d", i),
		})
	}
	if _, err := repos.Target.CreateSkipDuplicates(targets); err != nil {
		t.Fatal(err)
	}
}

func TestDispatchScanChunksAndSpacesBatches(t *testing.T) {
	svc, queue, repos := newTestService(t)
	seedUnscanned(t, repos, "A1", constants.SCAN_BATCH_SIZE*2+5)

	jobIds, err := svc.DispatchScan(context.Background(), "A1", model.ModeAuto)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobIds) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(jobIds))
	}
	if len(queue.jobs) != 3 {
		t.Fatalf("expected 3 jobs enqueued, got %d", len(queue.jobs))
	}

	var sizes []int
	for _, job := range queue.jobs {
		var payload mq.ScanBatchPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			t.Fatal(err)
		}
		sizes = append(sizes, len(payload.TargetUuids))
		if payload.Mode != model.ModeAuto {
			t.Fatalf("unexpected mode %s", payload.Mode)
		}
		if payload.BatchCount != 3 {
			t.Fatalf("unexpected batch count %d", payload.BatchCount)
		}
		// 每个目标都带派发时的计数快照，worker 以此为幂等基准
		for _, uuid := range payload.TargetUuids {
			if pre, ok := payload.PreScanCounts[uuid]; !ok || pre != 0 {
				t.Fatalf("expected snapshot 0 for %s, got %d (present=%v)", uuid, pre, ok)
			}
		}
	}
	if sizes[0] != constants.SCAN_BATCH_SIZE || sizes[1] != constants.SCAN_BATCH_SIZE || sizes[2] != 5 {
		t.Fatalf("unexpected batch sizes %v", sizes)
	}

	// 相邻批次 RunAt 间隔一小时
	gap := queue.jobs[1].RunAt.Sub(queue.jobs[0].RunAt)
	if gap != constants.SCAN_BATCH_INTERVAL {
		t.Fatalf("expected %v between batches, got %v", constants.SCAN_BATCH_INTERVAL, gap)
	}
}

func TestDispatchScanRespectsQuota(t *testing.T) {
	svc, queue, repos := newTestService(t)
	seedUnscanned(t, repos, "A1", 50)

	// 扫描开关关闭 → 配额视为 0，什么都不派
	err := repos.Setting.Create(&model.AutomationSetting{AccountUuid: "A1", ScanEnabled: false})
	if err != nil {
		t.Fatal(err)
	}
	jobIds, err := svc.DispatchScan(context.Background(), "A1", model.ModeAuto)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobIds) != 0 || len(queue.jobs) != 0 {
		t.Fatalf("expected nothing dispatched, got %d jobs", len(queue.jobs))
	}
}

func TestDispatchFriendRequestsCancelBeforeSend(t *testing.T) {
	svc, queue, repos := newTestService(t)
	err := repos.Setting.Create(&model.AutomationSetting{
		AccountUuid:           "A1",
		PendingFriendRequests: constants.MAX_PENDING_FRIEND_REQUESTS,
		MessageTemplate:       "hello {name}",
	})
	if err != nil {
		t.Fatal(err)
	}

	// 3 个未决申请 + 2 个可发送候选
	for i := 0; i < 3; i++ {
		target := &model.PhoneTarget{
			Uuid:                 fmt.Sprintf("T-pending-%d", i),
			AccountUuid:          "A1",
			Phone:                fmt.Sprintf("090200000%d", i),
			Uid:                  fmt.Sprintf("uid-p%d", i),
			HasScanInfo:          true,
			HasSentFriendRequest: true,
		}
		if err := repos.Target.Create(target); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 2; i++ {
		target := &model.PhoneTarget{
			Uuid:        fmt.Sprintf("T-cand-%d", i),
			AccountUuid: "A1",
			Phone:       fmt.Sprintf("090300000%d", i),
			Uid:         fmt.Sprintf("uid-c%d", i),
			HasScanInfo: true,
		}
		if err := repos.Target.Create(target); err != nil {
			t.Fatal(err)
		}
	}

	jobIds, err := svc.DispatchFriendRequests(context.Background(), "A1", model.ModeAuto)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobIds) != 1 || len(queue.jobs) != 1 {
		t.Fatalf("expected a single combined job, got %d", len(queue.jobs))
	}

	var payload mq.SendRequestsPayload
	if err := json.Unmarshal(queue.jobs[0].Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if len(payload.CancelUuids) != 3 {
		t.Fatalf("expected 3 cancels, got %d", len(payload.CancelUuids))
	}
	if len(payload.SendUuids) != 2 {
		t.Fatalf("expected 2 sends, got %d", len(payload.SendUuids))
	}
	if payload.Greeting != "hello {name}" {
		t.Fatalf("unexpected greeting %q", payload.Greeting)
	}
}

func TestDispatchFriendRequestsNoCancelBelowHighWater(t *testing.T) {
	svc, queue, repos := newTestService(t)
	err := repos.Setting.Create(&model.AutomationSetting{
		AccountUuid:           "A1",
		PendingFriendRequests: constants.MAX_PENDING_FRIEND_REQUESTS - 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	target := &model.PhoneTarget{
		Uuid: "T1", AccountUuid: "A1", Phone: "0901000001",
		Uid: "uid-1", HasScanInfo: true,
	}
	if err := repos.Target.Create(target); err != nil {
		t.Fatal(err)
	}

	_, err = svc.DispatchFriendRequests(context.Background(), "A1", model.ModeAuto)
	if err != nil {
		t.Fatal(err)
	}
	var payload mq.SendRequestsPayload
	if err := json.Unmarshal(queue.jobs[0].Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if len(payload.CancelUuids) != 0 {
		t.Fatalf("below high water mark must not cancel, got %d", len(payload.CancelUuids))
	}
	if len(payload.SendUuids) != 1 {
		t.Fatalf("expected 1 send, got %d", len(payload.SendUuids))
	}
}

func TestDispatchMessagesQuotaGate(t *testing.T) {
	svc, queue, repos := newTestService(t)

	target := &model.PhoneTarget{
		Uuid: "T1", AccountUuid: "A1", Phone: "0901000001",
		Uid: "uid-1", HasScanInfo: true,
	}
	if err := repos.Target.Create(target); err != nil {
		t.Fatal(err)
	}

	// 自动配额耗尽
	quotaSvc := quota.NewQuotaService(repos)
	record, err := quotaSvc.GetOrCreateToday("A1")
	if err != nil {
		t.Fatal(err)
	}
	record.AutoMessagesToday = record.AutoMessageDailyLimit
	if err := repos.Tracking.Save(record); err != nil {
		t.Fatal(err)
	}

	jobIds, err := svc.DispatchMessages(context.Background(), "A1", "hi {name}", model.ModeAuto)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobIds) != 0 {
		t.Fatal("auto mode with exhausted quota must not dispatch")
	}

	// 手动触发不受自动配额约束
	jobIds, err = svc.DispatchMessages(context.Background(), "A1", "hi {name}", model.ModeManual)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobIds) != 1 {
		t.Fatalf("manual dispatch expected 1 job, got %d", len(jobIds))
	}
	var payload mq.SendMessagesPayload
	if err := json.Unmarshal(queue.jobs[0].Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Template != "hi {name}" {
		t.Fatalf("unexpected template %q", payload.Template)
	}
}

func TestDispatchImportChunks(t *testing.T) {
	svc, queue, _ := newTestService(t)

	phones := make([]string, constants.IMPORT_BATCH_SIZE+3)
	for i := range phones {
		phones[i] = fmt.Sprintf("09010%05d", i)
	}
	jobIds, err := svc.DispatchImport(context.Background(), "A1", "U1", phones)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobIds) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(jobIds))
	}
	var payload mq.ImportTargetsPayload
	if err := json.Unmarshal(queue.jobs[1].Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if len(payload.Phones) != 3 {
		t.Fatalf("expected 3 phones in tail batch, got %d", len(payload.Phones))
	}
	if payload.UserUuid != "U1" {
		t.Fatalf("expected operator U1, got %q", payload.UserUuid)
	}
	if payload.BatchIndex != 1 || payload.TotalBatches != 2 {
		t.Fatalf("unexpected batch numbering %d/%d", payload.BatchIndex, payload.TotalBatches)
	}
}

func TestDispatchFriendSyncHourlyDedup(t *testing.T) {
	svc, queue, _ := newTestService(t)

	first, err := svc.DispatchFriendSync(context.Background(), "A1", "U1")
	if err != nil {
		t.Fatal(err)
	}
	if first == "" {
		t.Fatal("first dispatch should enqueue")
	}

	// 同一小时内重复触发被去重
	second, err := svc.DispatchFriendSync(context.Background(), "A1", "U1")
	if err != nil {
		t.Fatal(err)
	}
	if second != "" {
		t.Fatal("second dispatch in the same hour should be deduplicated")
	}
	if len(queue.jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(queue.jobs))
	}

	// 其他账号不受影响
	other, err := svc.DispatchFriendSync(context.Background(), "A2", "U1")
	if err != nil {
		t.Fatal(err)
	}
	if other == "" {
		t.Fatal("different account should not be deduplicated")
	}
}
