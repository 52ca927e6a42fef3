// Package caplist 提供定容明细列表
// 每日跟踪记录中的"有信息/无信息"扫描明细以 JSON 形式存库，
// 内存中用本结构操作：最新在前、按目标去重、超出容量丢弃最旧条目
package caplist

import (
	"encoding/json"
	"time"
)

// Entry 明细条目
type Entry struct {
	TargetId   string    `json:"targetId"`   // 目标唯一 id
	Label      string    `json:"label"`      // 展示用标签（电话号码或名称）
	RecordedAt time.Time `json:"recordedAt"` // 记录时间
}

// List 定容明细列表
// 条目按时间倒序存放（下标 0 最新），同一 TargetId 最多出现一次
type List struct {
	cap     int
	entries []Entry
}

// New 创建空列表，capacity <= 0 时视为 1
func New(capacity int) *List {
	if capacity <= 0 {
		capacity = 1
	}
	return &List{cap: capacity}
}

// FromJSON 从 JSON 字符串恢复列表
// 解析失败时返回空列表而不是报错，坏数据不应让整条配额链路失效
func FromJSON(data string, capacity int) *List {
	l := New(capacity)
	if data == "" {
		return l
	}
	var entries []Entry
	if err := json.Unmarshal([]byte(data), &entries); err != nil {
		return l
	}
	if len(entries) > l.cap {
		entries = entries[:l.cap]
	}
	l.entries = entries
	return l
}

// JSON 序列化为 JSON 字符串（空列表返回 "[]"）
func (l *List) JSON() string {
	if len(l.entries) == 0 {
		return "[]"
	}
	data, err := json.Marshal(l.entries)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// Len 返回当前条目数
func (l *List) Len() int {
	return len(l.entries)
}

// Entries 返回条目切片（倒序，最新在前）
func (l *List) Entries() []Entry {
	return l.entries
}

// Contains 判断目标是否已在列表中
func (l *List) Contains(targetId string) bool {
	return l.indexOf(targetId) >= 0
}

// Push 将条目放到列表头部
// 目标已存在时更新条目并移到头部；超出容量时淘汰最旧条目
// 返回该目标是否是本列表的新条目
func (l *List) Push(e Entry) bool {
	idx := l.indexOf(e.TargetId)
	if idx >= 0 {
		l.entries = append(l.entries[:idx], l.entries[idx+1:]...)
	}
	l.entries = append([]Entry{e}, l.entries...)
	if len(l.entries) > l.cap {
		l.entries = l.entries[:l.cap]
	}
	return idx < 0
}

// Remove 按目标 id 移除条目，返回是否移除了条目
func (l *List) Remove(targetId string) bool {
	idx := l.indexOf(targetId)
	if idx < 0 {
		return false
	}
	l.entries = append(l.entries[:idx], l.entries[idx+1:]...)
	return true
}

func (l *List) indexOf(targetId string) int {
	for i := range l.entries {
		if l.entries[i].TargetId == targetId {
			return i
		}
	}
	return -1
}

// Record 把条目写入 dst，并保证它不再出现在 other 中
// 同一目标同一天只能出现在其中一个列表里（有信息 / 无信息二选一）
// 返回该目标此前是否两个列表都不存在——粗粒度日计数只在这种情况下 +1，
// 重复扫描同一目标只更新明细，不重复计数
func Record(dst, other *List, e Entry) (isNew bool) {
	movedFromOther := other.Remove(e.TargetId)
	newInDst := dst.Push(e)
	return newInDst && !movedFromOther
}
