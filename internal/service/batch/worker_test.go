package batch

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"zalo_outreach_server/internal/dao/mysql/repository"
	"zalo_outreach_server/internal/infrastructure/mq"
	"zalo_outreach_server/internal/infrastructure/zalo"
	"zalo_outreach_server/internal/model"
	"zalo_outreach_server/internal/service/quota"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeClient 可编程的网关替身
type fakeClient struct {
	scanFn        func(phone string) (*zalo.ProfileInfo, error)
	sendMessageFn func(uid, content string) (*zalo.SendResult, error)
	sendRequestFn func(uid, greeting string) error
	cancelFn      func(uid string) error
	friends       []zalo.FriendInfo
	pendingUids   []string
}

func (c *fakeClient) RegisterSession(ctx context.Context, accountUuid, credential string) error {
	return nil
}

func (c *fakeClient) Scan(ctx context.Context, accountUuid, phone string) (*zalo.ProfileInfo, error) {
	if c.scanFn != nil {
		return c.scanFn(phone)
	}
	return nil, nil
}

func (c *fakeClient) SendFriendRequest(ctx context.Context, accountUuid, uid, greeting string) error {
	if c.sendRequestFn != nil {
		return c.sendRequestFn(uid, greeting)
	}
	return nil
}

func (c *fakeClient) CancelFriendRequest(ctx context.Context, accountUuid, uid string) error {
	if c.cancelFn != nil {
		return c.cancelFn(uid)
	}
	return nil
}

func (c *fakeClient) SendMessage(ctx context.Context, accountUuid, uid, content string) (*zalo.SendResult, error) {
	if c.sendMessageFn != nil {
		return c.sendMessageFn(uid, content)
	}
	return &zalo.SendResult{MsgId: "msg-1"}, nil
}

func (c *fakeClient) ListFriends(ctx context.Context, accountUuid string) ([]zalo.FriendInfo, error) {
	return c.friends, nil
}

func (c *fakeClient) ListPendingRequests(ctx context.Context, accountUuid string) ([]string, error) {
	return c.pendingUids, nil
}

// fakeCache 同步执行异步任务的缓存替身
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

func (c *fakeCache) DeleteByPattern(ctx context.Context, pattern string) error { return nil }

func (c *fakeCache) SubmitTask(action func()) { action() }

// fakeAlert 记录告警调用
type fakeAlert struct {
	scopes []string
}

func (a *fakeAlert) Notify(scope, message string) error {
	a.scopes = append(a.scopes, scope)
	return nil
}

func newTestWorker(t *testing.T, client *fakeClient) (*Worker, *repository.Repositories, *fakeCache, *fakeAlert) {
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
		&model.MessageLog{},
	)
	if err != nil {
		t.Fatal(err)
	}
	repos := repository.NewRepositories(db)
	cache := newFakeCache()
	alertSvc := &fakeAlert{}
	worker := NewWorker(repos, quota.NewQuotaService(repos), client, cache, alertSvc)
	return worker, repos, cache, alertSvc
}

func newJob(t *testing.T, kind, id string, payload any) *mq.Job {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return &mq.Job{ID: id, Kind: kind, Payload: raw}
}

func TestHandleImportTargetsIdempotent(t *testing.T) {
	worker, repos, cache, _ := newTestWorker(t, &fakeClient{})

	job := newJob(t, mq.KindImportTargets, "import-1", mq.ImportTargetsPayload{
		AccountUuid: "A1",
		Phones:      []string{"0901000001", "0901000002"},
	})
	if err := worker.HandleImportTargets(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	targets, total, err := repos.Target.FindByAccountPaged("A1", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", total)
	}

	// 任务重试：同号码冲突被静默跳过
	if err := worker.HandleImportTargets(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	_, total, err = repos.Target.FindByAccountPaged("A1", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 {
		t.Fatalf("replay must not duplicate, got %d", total)
	}

	progress, _ := cache.Get(context.Background(), "job_progress_import-1")
	if progress != "2/2" {
		t.Fatalf("expected progress 2/2, got %q", progress)
	}
}

func TestHandleScanBatchRecordsQuotaOnce(t *testing.T) {
	client := &fakeClient{
		scanFn: func(phone string) (*zalo.ProfileInfo, error) {
			return &zalo.ProfileInfo{Uid: "uid-1", ZaloName: "zname", DisplayName: "dname"}, nil
		},
	}
	worker, repos, _, _ := newTestWorker(t, client)

	target := &model.PhoneTarget{Uuid: "T1", AccountUuid: "A1", Phone: "0901000001"}
	if err := repos.Target.Create(target); err != nil {
		t.Fatal(err)
	}

	job := newJob(t, mq.KindScanBatch, "scan-1", mq.ScanBatchPayload{
		AccountUuid:   "A1",
		TargetUuids:   []string{"T1"},
		Mode:          model.ModeAuto,
		BatchCount:    1,
		PreScanCounts: map[string]int{"T1": 0},
	})
	if err := worker.HandleScanBatch(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	got, err := repos.Target.FindByUuid("T1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Uid != "uid-1" || !got.HasScanInfo {
		t.Fatalf("identity not filled: %+v", got)
	}
	if got.ScanCount != 1 {
		t.Fatalf("expected scan_count 1, got %d", got.ScanCount)
	}
	if !got.LastScannedAt.Valid {
		t.Fatal("last_scanned_at should be set")
	}

	quotaSvc := quota.NewQuotaService(repos)
	record, _ := quotaSvc.GetOrCreateToday("A1")
	if record.ScanCountToday != 1 {
		t.Fatalf("expected quota 1, got %d", record.ScanCountToday)
	}

	// 整个任务重放：快照基准已过期，scan_count 不再 +1；
	// 目标当日已在明细列表，去重计数也不再 +1
	if err := worker.HandleScanBatch(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	got, _ = repos.Target.FindByUuid("T1")
	if got.ScanCount != 1 {
		t.Fatalf("replay must not advance scan_count, got %d", got.ScanCount)
	}
	record, _ = quotaSvc.GetOrCreateToday("A1")
	if record.ScanCountToday != 1 {
		t.Fatalf("replay must not double count, got %d", record.ScanCountToday)
	}
}

func TestHandleScanBatchSingleFailureContinues(t *testing.T) {
	client := &fakeClient{
		scanFn: func(phone string) (*zalo.ProfileInfo, error) {
			return nil, errors.New("gateway timeout")
		},
	}
	worker, repos, _, _ := newTestWorker(t, client)
	target := &model.PhoneTarget{Uuid: "T1", AccountUuid: "A1", Phone: "0901000001"}
	if err := repos.Target.Create(target); err != nil {
		t.Fatal(err)
	}

	job := newJob(t, mq.KindScanBatch, "scan-1", mq.ScanBatchPayload{
		AccountUuid:   "A1",
		TargetUuids:   []string{"T1"},
		Mode:          model.ModeAuto,
		BatchCount:    1,
		PreScanCounts: map[string]int{"T1": 0},
	})
	if err := worker.HandleScanBatch(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	// 失败也算一次尝试：scan_count +1，但资料和明细不动
	got, _ := repos.Target.FindByUuid("T1")
	if got.ScanCount != 1 {
		t.Fatalf("failed attempt must still count once, got %d", got.ScanCount)
	}
	if got.LastScannedAt.Valid || got.HasScanInfo {
		t.Fatalf("failed scan must not update profile bookkeeping: %+v", got)
	}
	quotaSvc := quota.NewQuotaService(repos)
	record, _ := quotaSvc.GetOrCreateToday("A1")
	if record.ScanCountToday != 0 {
		t.Fatalf("failed scan must not enter quota details, got %d", record.ScanCountToday)
	}

	// 整批重放：快照基准过期，失败项的尝试计数也不翻倍
	if err := worker.HandleScanBatch(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	got, _ = repos.Target.FindByUuid("T1")
	if got.ScanCount != 1 {
		t.Fatalf("replay must not advance scan_count, got %d", got.ScanCount)
	}
}

func TestHandleScanBatchCountsDeletedTargets(t *testing.T) {
	client := &fakeClient{
		scanFn: func(phone string) (*zalo.ProfileInfo, error) {
			return &zalo.ProfileInfo{Uid: "uid-1"}, nil
		},
	}
	worker, repos, cache, _ := newTestWorker(t, client)
	target := &model.PhoneTarget{Uuid: "T1", AccountUuid: "A1", Phone: "0901000001"}
	if err := repos.Target.Create(target); err != nil {
		t.Fatal(err)
	}

	// T-gone 在派发后被删除，按失败项记账而不是悄悄跳过
	job := newJob(t, mq.KindScanBatch, "scan-1", mq.ScanBatchPayload{
		AccountUuid:   "A1",
		TargetUuids:   []string{"T-gone", "T1"},
		Mode:          model.ModeAuto,
		BatchCount:    1,
		PreScanCounts: map[string]int{"T-gone": 0, "T1": 0},
	})
	if err := worker.HandleScanBatch(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	got, _ := repos.Target.FindByUuid("T1")
	if got.ScanCount != 1 || !got.HasScanInfo {
		t.Fatalf("surviving target should still be scanned: %+v", got)
	}
	progress, _ := cache.Get(context.Background(), "job_progress_scan-1")
	if progress != "2/2" {
		t.Fatalf("missing target must count toward progress, got %q", progress)
	}
}

func TestHandleSendMessagesSuccessRequiresMsgId(t *testing.T) {
	client := &fakeClient{
		sendMessageFn: func(uid, content string) (*zalo.SendResult, error) {
			return &zalo.SendResult{}, nil // 网关声称成功但没有 msgId
		},
	}
	worker, repos, _, _ := newTestWorker(t, client)

	target := &model.PhoneTarget{
		Uuid: "T1", AccountUuid: "A1", Phone: "0901000001",
		Uid: "uid-1", HasScanInfo: true,
	}
	if err := repos.Target.Create(target); err != nil {
		t.Fatal(err)
	}

	job := newJob(t, mq.KindSendMessages, "msg-1", mq.SendMessagesPayload{
		AccountUuid: "A1",
		TargetUuids: []string{"T1"},
		Template:    "hi {name}",
		Mode:        model.ModeAuto,
	})
	if err := worker.HandleSendMessages(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	got, _ := repos.Target.FindByUuid("T1")
	if got.LastMessageSuccess {
		t.Fatal("missing msgId must be treated as failure")
	}
	if !got.HasNoMsgIdError {
		t.Fatal("missing msgId must set the sticky flag")
	}
	if got.MessagesSent != 0 {
		t.Fatalf("failed send must not count, got %d", got.MessagesSent)
	}

	logs, err := repos.MessageLog.FindByAccountSince("A1", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 || logs[0].Status != model.MessageStatusFailed {
		t.Fatalf("expected one failed log, got %+v", logs)
	}
}

func TestHandleSendMessagesStickyFlagLifecycle(t *testing.T) {
	sendErr := errors.New("This user cannot receive message from you")
	client := &fakeClient{
		sendMessageFn: func(uid, content string) (*zalo.SendResult, error) {
			return nil, sendErr
		},
	}
	worker, repos, _, alertSvc := newTestWorker(t, client)

	target := &model.PhoneTarget{
		Uuid: "T1", AccountUuid: "A1", Phone: "0901000001",
		Uid: "uid-1", HasScanInfo: true,
	}
	if err := repos.Target.Create(target); err != nil {
		t.Fatal(err)
	}

	job := newJob(t, mq.KindSendMessages, "msg-1", mq.SendMessagesPayload{
		AccountUuid: "A1",
		TargetUuids: []string{"T1"},
		Template:    "hi",
		Mode:        model.ModeAuto,
	})
	if err := worker.HandleSendMessages(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	got, _ := repos.Target.FindByUuid("T1")
	if !got.HasMessageBlockedError {
		t.Fatal("blocked error must set the sticky flag")
	}
	// 整批失败触发告警
	if len(alertSvc.scopes) != 1 || alertSvc.scopes[0] != "message_A1" {
		t.Fatalf("expected alert for account, got %v", alertSvc.scopes)
	}

	// 次日发送成功：粘性标记清除
	got.LastMessageSentAt = sql.NullTime{Time: time.Now().Add(-48 * time.Hour), Valid: true}
	if err := repos.Target.Update(got); err != nil {
		t.Fatal(err)
	}
	client.sendMessageFn = func(uid, content string) (*zalo.SendResult, error) {
		return &zalo.SendResult{MsgId: "msg-ok"}, nil
	}
	if err := worker.HandleSendMessages(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	got, _ = repos.Target.FindByUuid("T1")
	if got.HasMessageBlockedError || got.HasNoMsgIdError {
		t.Fatal("success must clear message sticky flags")
	}
	if got.MessagesSent != 1 || !got.LastMessageSuccess {
		t.Fatalf("success bookkeeping wrong: %+v", got)
	}

	quotaSvc := quota.NewQuotaService(repos)
	record, _ := quotaSvc.GetOrCreateToday("A1")
	if record.AutoMessagesToday != 1 {
		t.Fatalf("only the successful send counts, got %d", record.AutoMessagesToday)
	}
}

func TestHandleSendMessagesSkipsStrangerBlocked(t *testing.T) {
	called := false
	client := &fakeClient{
		sendMessageFn: func(uid, content string) (*zalo.SendResult, error) {
			called = true
			return &zalo.SendResult{MsgId: "msg-1"}, nil
		},
	}
	worker, repos, _, _ := newTestWorker(t, client)

	target := &model.PhoneTarget{
		Uuid: "T1", AccountUuid: "A1", Phone: "0901000001",
		Uid: "uid-1", HasScanInfo: true, HasStrangerBlockedError: true,
	}
	if err := repos.Target.Create(target); err != nil {
		t.Fatal(err)
	}

	job := newJob(t, mq.KindSendMessages, "msg-1", mq.SendMessagesPayload{
		AccountUuid: "A1",
		TargetUuids: []string{"T1"},
		Template:    "hi",
		Mode:        model.ModeAuto,
	})
	if err := worker.HandleSendMessages(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Fatal("stranger-blocked target must be skipped")
	}
}

func TestHandleSendRequestsUpdatesBookkeeping(t *testing.T) {
	client := &fakeClient{}
	worker, repos, _, _ := newTestWorker(t, client)

	err := repos.Setting.Create(&model.AutomationSetting{
		AccountUuid:           "A1",
		PendingFriendRequests: 0,
	})
	if err != nil {
		t.Fatal(err)
	}
	// 撤回列表里的目标已被好友同步处理过（标记已清），应跳过
	already := &model.PhoneTarget{
		Uuid: "T-done", AccountUuid: "A1", Phone: "0901000001", Uid: "uid-done",
	}
	if err := repos.Target.Create(already); err != nil {
		t.Fatal(err)
	}
	candidate := &model.PhoneTarget{
		Uuid: "T-send", AccountUuid: "A1", Phone: "0901000002", Uid: "uid-send",
		HasScanInfo: true,
	}
	if err := repos.Target.Create(candidate); err != nil {
		t.Fatal(err)
	}

	job := newJob(t, mq.KindSendRequests, "req-1", mq.SendRequestsPayload{
		AccountUuid: "A1",
		CancelUuids: []string{"T-done"},
		SendUuids:   []string{"T-send"},
		Greeting:    "hello",
		Mode:        model.ModeAuto,
	})
	if err := worker.HandleSendRequests(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	sent, _ := repos.Target.FindByUuid("T-send")
	if !sent.HasSentFriendRequest {
		t.Fatal("send should mark the pending flag")
	}
	if sent.AutoRequestsSent != 1 {
		t.Fatalf("expected auto counter 1, got %d", sent.AutoRequestsSent)
	}

	setting, _ := repos.Setting.FindByAccountUuid("A1")
	if setting.PendingFriendRequests != 1 {
		t.Fatalf("expected pending 1, got %d", setting.PendingFriendRequests)
	}
	if setting.TotalFriendRequestsSent != 1 {
		t.Fatalf("expected total 1, got %d", setting.TotalFriendRequestsSent)
	}

	quotaSvc := quota.NewQuotaService(repos)
	record, _ := quotaSvc.GetOrCreateToday("A1")
	if record.AutoRequestsSentToday != 1 {
		t.Fatalf("expected quota 1, got %d", record.AutoRequestsSentToday)
	}
}

func TestHandleSyncFriends(t *testing.T) {
	client := &fakeClient{
		friends:     []zalo.FriendInfo{{Uid: "uid-a", DisplayName: "A"}},
		pendingUids: []string{"uid-x", "uid-y"},
	}
	worker, repos, _, _ := newTestWorker(t, client)

	err := repos.Setting.Create(&model.AutomationSetting{
		AccountUuid:           "A1",
		PendingFriendRequests: 9,
	})
	if err != nil {
		t.Fatal(err)
	}
	accepted := &model.PhoneTarget{
		Uuid: "T-a", AccountUuid: "A1", Phone: "0901000001",
		Uid: "uid-a", HasSentFriendRequest: true,
	}
	if err := repos.Target.Create(accepted); err != nil {
		t.Fatal(err)
	}

	job := newJob(t, mq.KindSyncFriends, "sync-1", mq.SyncFriendsPayload{AccountUuid: "A1"})
	if err := worker.HandleSyncFriends(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	got, _ := repos.Target.FindByUuid("T-a")
	if !got.IsFriend || got.HasSentFriendRequest {
		t.Fatalf("accepted request should become friend: %+v", got)
	}
	setting, _ := repos.Setting.FindByAccountUuid("A1")
	if setting.PendingFriendRequests != 2 {
		t.Fatalf("pending count should be reset to gateway truth, got %d",
			setting.PendingFriendRequests)
	}
}
