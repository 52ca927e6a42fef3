package caplist

import (
	"testing"
	"time"
)

func entry(id string) Entry {
	return Entry{TargetId: id, Label: "p" + id, RecordedAt: time.Now()}
}

func TestPushDeduplicates(t *testing.T) {
	l := New(5)

	if !l.Push(entry("a")) {
		t.Fatal("first push should report new entry")
	}
	if !l.Push(entry("b")) {
		t.Fatal("second push should report new entry")
	}
	// 重复目标只移到头部，不算新条目
	if l.Push(entry("a")) {
		t.Fatal("duplicate push should not report new entry")
	}
	if l.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", l.Len())
	}
	if l.Entries()[0].TargetId != "a" {
		t.Fatalf("expected a at head, got %s", l.Entries()[0].TargetId)
	}
}

func TestPushEvictsOldest(t *testing.T) {
	l := New(3)
	l.Push(entry("a"))
	l.Push(entry("b"))
	l.Push(entry("c"))
	l.Push(entry("d"))

	if l.Len() != 3 {
		t.Fatalf("expected capped at 3, got %d", l.Len())
	}
	if l.Contains("a") {
		t.Fatal("oldest entry should have been evicted")
	}
	if l.Entries()[0].TargetId != "d" {
		t.Fatalf("expected d at head, got %s", l.Entries()[0].TargetId)
	}
}

func TestRecordMovesBetweenLists(t *testing.T) {
	withInfo := New(10)
	withoutInfo := New(10)

	// 首次扫描无信息
	if !Record(withoutInfo, withInfo, entry("a")) {
		t.Fatal("first record should be new")
	}
	// 同一天再次扫描，这次扫到了信息：条目迁移，但不算新条目
	if Record(withInfo, withoutInfo, entry("a")) {
		t.Fatal("moved record should not be new")
	}
	if withoutInfo.Contains("a") {
		t.Fatal("entry should have left the without-info list")
	}
	if !withInfo.Contains("a") {
		t.Fatal("entry should be in the with-info list")
	}
	// 同一列表重复记录也不算新条目
	if Record(withInfo, withoutInfo, entry("a")) {
		t.Fatal("repeat record should not be new")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	l := New(5)
	l.Push(entry("a"))
	l.Push(entry("b"))

	restored := FromJSON(l.JSON(), 5)
	if restored.Len() != 2 {
		t.Fatalf("expected 2 entries after round trip, got %d", restored.Len())
	}
	if restored.Entries()[0].TargetId != "b" {
		t.Fatalf("expected b at head, got %s", restored.Entries()[0].TargetId)
	}
}

func TestFromJSONBadData(t *testing.T) {
	l := FromJSON("{not json", 5)
	if l.Len() != 0 {
		t.Fatal("bad data should yield empty list")
	}
	if l.JSON() != "[]" {
		t.Fatalf("empty list should serialize to [], got %s", l.JSON())
	}
}

func TestFromJSONTruncatesOverCap(t *testing.T) {
	big := New(10)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		big.Push(entry(id))
	}
	small := FromJSON(big.JSON(), 3)
	if small.Len() != 3 {
		t.Fatalf("expected truncation to 3, got %d", small.Len())
	}
}
