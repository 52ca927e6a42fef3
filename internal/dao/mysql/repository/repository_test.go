package repository

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"zalo_outreach_server/internal/model"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestRepos 基于内存 SQLite 构造 Repository 聚合
// 单连接避免 :memory: 在连接池下各自为库
func newTestRepos(t *testing.T) *Repositories {
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
		&model.UserInfo{},
		&model.Account{},
		&model.AutomationSetting{},
		&model.PhoneTarget{},
		&model.DailyTracking{},
		&model.MessageLog{},
	)
	if err != nil {
		t.Fatal(err)
	}
	return NewRepositories(db)
}

func seedTarget(t *testing.T, repos *Repositories, uuid, account, phone string) *model.PhoneTarget {
	t.Helper()
	target := &model.PhoneTarget{Uuid: uuid, AccountUuid: account, Phone: phone}
	if err := repos.Target.Create(target); err != nil {
		t.Fatal(err)
	}
	return target
}

func TestCreateSkipDuplicates(t *testing.T) {
	repos := newTestRepos(t)
	seedTarget(t, repos, "T1", "A1", "0901000001")

	batch := []model.PhoneTarget{
		{Uuid: "T2", AccountUuid: "A1", Phone: "0901000001"}, // 与已有记录冲突
		{Uuid: "T3", AccountUuid: "A1", Phone: "0901000002"},
		{Uuid: "T4", AccountUuid: "A2", Phone: "0901000001"}, // 不同账号，同号码不冲突
	}
	inserted, err := repos.Target.CreateSkipDuplicates(batch)
	if err != nil {
		t.Fatal(err)
	}
	if inserted != 2 {
		t.Fatalf("expected 2 inserted, got %d", inserted)
	}

	// 重放同一批：全部冲突，静默跳过
	inserted, err = repos.Target.CreateSkipDuplicates(batch)
	if err != nil {
		t.Fatal(err)
	}
	if inserted != 0 {
		t.Fatalf("expected 0 inserted on replay, got %d", inserted)
	}
}

func TestFindUnscannedOrdering(t *testing.T) {
	repos := newTestRepos(t)

	// never: 从未扫描；old: 早扫过；recent: 刚扫过
	seedTarget(t, repos, "T-never", "A1", "0901000001")
	old := seedTarget(t, repos, "T-old", "A1", "0901000002")
	old.LastScannedAt = sql.NullTime{Time: time.Now().Add(-48 * time.Hour), Valid: true}
	old.ScanCount = 1
	if err := repos.Target.Update(old); err != nil {
		t.Fatal(err)
	}
	recent := seedTarget(t, repos, "T-recent", "A1", "0901000003")
	recent.LastScannedAt = sql.NullTime{Time: time.Now().Add(-1 * time.Hour), Valid: true}
	recent.ScanCount = 2
	if err := repos.Target.Update(recent); err != nil {
		t.Fatal(err)
	}
	// 已扫到信息的不应出现
	scanned := seedTarget(t, repos, "T-done", "A1", "0901000004")
	scanned.HasScanInfo = true
	if err := repos.Target.Update(scanned); err != nil {
		t.Fatal(err)
	}

	targets, err := repos.Target.FindUnscanned("A1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(targets) != 3 {
		t.Fatalf("expected 3 targets, got %d", len(targets))
	}
	want := []string{"T-never", "T-old", "T-recent"}
	for i, w := range want {
		if targets[i].Uuid != w {
			t.Fatalf("position %d: expected %s, got %s", i, w, targets[i].Uuid)
		}
	}
}

func TestCompareAndIncrementScanCount(t *testing.T) {
	repos := newTestRepos(t)
	seedTarget(t, repos, "T1", "A1", "0901000001")

	counted, err := repos.Target.CompareAndIncrementScanCount("T1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !counted {
		t.Fatal("first increment with matching pre should count")
	}

	// 任务重试重放：旧值已不匹配，不应重复计数
	counted, err = repos.Target.CompareAndIncrementScanCount("T1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if counted {
		t.Fatal("replay with stale pre must not count")
	}

	target, err := repos.Target.FindByUuid("T1")
	if err != nil {
		t.Fatal(err)
	}
	if target.ScanCount != 1 {
		t.Fatalf("expected scan_count 1, got %d", target.ScanCount)
	}
}

func TestFindFriendRequestCandidates(t *testing.T) {
	repos := newTestRepos(t)

	ready := seedTarget(t, repos, "T-ready", "A1", "0901000001")
	ready.HasScanInfo = true
	ready.Uid = "uid-1"
	if err := repos.Target.Update(ready); err != nil {
		t.Fatal(err)
	}
	noUid := seedTarget(t, repos, "T-nouid", "A1", "0901000002")
	noUid.HasScanInfo = true
	if err := repos.Target.Update(noUid); err != nil {
		t.Fatal(err)
	}
	friend := seedTarget(t, repos, "T-friend", "A1", "0901000003")
	friend.HasScanInfo = true
	friend.Uid = "uid-3"
	friend.IsFriend = true
	if err := repos.Target.Update(friend); err != nil {
		t.Fatal(err)
	}
	pending := seedTarget(t, repos, "T-pending", "A1", "0901000004")
	pending.HasScanInfo = true
	pending.Uid = "uid-4"
	pending.HasSentFriendRequest = true
	if err := repos.Target.Update(pending); err != nil {
		t.Fatal(err)
	}

	candidates, err := repos.Target.FindFriendRequestCandidates("A1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 1 || candidates[0].Uuid != "T-ready" {
		t.Fatalf("expected only T-ready, got %v", candidates)
	}
}

func TestFindMessageCandidatesExcludesBlockedAndRecent(t *testing.T) {
	repos := newTestRepos(t)
	since := time.Now().Add(-6 * time.Hour)

	for i, spec := range []struct {
		uuid            string
		strangerBlocked bool
		sentAt          sql.NullTime
	}{
		{"T-fresh", false, sql.NullTime{}},
		{"T-oldsend", false, sql.NullTime{Time: since.Add(-24 * time.Hour), Valid: true}},
		{"T-today", false, sql.NullTime{Time: time.Now().Add(-1 * time.Hour), Valid: true}},
		{"T-blocked", true, sql.NullTime{}},
	} {
		target := seedTarget(t, repos, spec.uuid, "A1", fmt.Sprintf("090100000%d", i))
		target.HasScanInfo = true
		target.Uid = "uid-" + spec.uuid
		target.HasStrangerBlockedError = spec.strangerBlocked
		target.LastMessageSentAt = spec.sentAt
		if err := repos.Target.Update(target); err != nil {
			t.Fatal(err)
		}
	}

	candidates, err := repos.Target.FindMessageCandidates("A1", since, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	// 从未发过的排最前
	if candidates[0].Uuid != "T-fresh" || candidates[1].Uuid != "T-oldsend" {
		t.Fatalf("unexpected order: %s, %s", candidates[0].Uuid, candidates[1].Uuid)
	}
}

func TestSyncFriendUids(t *testing.T) {
	repos := newTestRepos(t)

	a := seedTarget(t, repos, "T-a", "A1", "0901000001")
	a.Uid = "uid-a"
	a.HasSentFriendRequest = true
	if err := repos.Target.Update(a); err != nil {
		t.Fatal(err)
	}
	b := seedTarget(t, repos, "T-b", "A1", "0901000002")
	b.Uid = "uid-b"
	b.IsFriend = true // 已不在好友列表中，应被清零
	if err := repos.Target.Update(b); err != nil {
		t.Fatal(err)
	}

	if err := repos.Target.SyncFriendUids("A1", []string{"uid-a"}); err != nil {
		t.Fatal(err)
	}

	a2, _ := repos.Target.FindByUuid("T-a")
	if !a2.IsFriend {
		t.Fatal("uid-a should be marked as friend")
	}
	if a2.HasSentFriendRequest {
		t.Fatal("pending request flag should be cleared once friends")
	}
	b2, _ := repos.Target.FindByUuid("T-b")
	if b2.IsFriend {
		t.Fatal("uid-b should no longer be a friend")
	}
}

func TestTrackingGetOrCreateIdempotent(t *testing.T) {
	repos := newTestRepos(t)

	record := &model.DailyTracking{
		AccountUuid:        "A1",
		TrackingDate:       "2026-09-01",
		DailyScanLimit:     240,
		WithInfoDetails:    "[]",
		WithoutInfoDetails: "[]",
		RequestDetails:     "[]",
		ScanEnabled:        true,
	}
	first, err := repos.Tracking.GetOrCreate(record)
	if err != nil {
		t.Fatal(err)
	}
	first.ScanCountToday = 5
	if err := repos.Tracking.Save(first); err != nil {
		t.Fatal(err)
	}

	// 再次 GetOrCreate 必须拿到同一条记录，而不是新建
	again, err := repos.Tracking.GetOrCreate(&model.DailyTracking{
		AccountUuid:        "A1",
		TrackingDate:       "2026-09-01",
		DailyScanLimit:     240,
		WithInfoDetails:    "[]",
		WithoutInfoDetails: "[]",
		RequestDetails:     "[]",
		ScanEnabled:        true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != first.ID {
		t.Fatalf("expected same record, got id %d vs %d", again.ID, first.ID)
	}
	if again.ScanCountToday != 5 {
		t.Fatalf("expected preserved count 5, got %d", again.ScanCountToday)
	}
}

func TestAddPendingFriendRequestsClampsAtZero(t *testing.T) {
	repos := newTestRepos(t)
	setting := &model.AutomationSetting{AccountUuid: "A1", PendingFriendRequests: 1}
	if err := repos.Setting.Create(setting); err != nil {
		t.Fatal(err)
	}

	if err := repos.Setting.AddPendingFriendRequests("A1", -5); err != nil {
		t.Fatal(err)
	}
	got, err := repos.Setting.FindByAccountUuid("A1")
	if err != nil {
		t.Fatal(err)
	}
	if got.PendingFriendRequests != 0 {
		t.Fatalf("expected clamp at 0, got %d", got.PendingFriendRequests)
	}

	if err := repos.Setting.AddPendingFriendRequests("A1", 3); err != nil {
		t.Fatal(err)
	}
	got, _ = repos.Setting.FindByAccountUuid("A1")
	if got.PendingFriendRequests != 3 {
		t.Fatalf("expected 3, got %d", got.PendingFriendRequests)
	}
}
