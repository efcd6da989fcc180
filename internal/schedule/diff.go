package schedule

import (
	"sort"

	"github.com/hvac-crew/schedule/backend/internal/domain"
)

// DefaultMaxChanges 限制一次通知中列出的变更条数，避免邮件过长
const DefaultMaxChanges = 300

// Change 是两个快照之间某个键的变化
type Change struct {
	Key  string       `json:"key"`
	From domain.Value `json:"from"`
	To   domain.Value `json:"to"`
}

// ChangeSet 是按键排序后的变更集合，超出上限的部分只计数
type ChangeSet struct {
	Changes []Change `json:"changes"`
	Omitted int      `json:"omitted"`
}

// Total 返回检测到的变更总数（包含未列出的部分）
func (cs ChangeSet) Total() int {
	return len(cs.Changes) + cs.Omitted
}

func (cs ChangeSet) IsEmpty() bool {
	return cs.Total() == 0
}

// Diff 比较两个快照，返回按键字典序排列的变更，最多列出 maxChanges 条（<= 0 时使用默认上限）
func Diff(previous, current domain.Snapshot, maxChanges int) ChangeSet {
	if maxChanges <= 0 {
		maxChanges = DefaultMaxChanges
	}

	// 合并两侧的键，只在一侧出现的键与缺失值比较
	keySet := make(map[string]struct{}, len(previous)+len(current))
	for k := range previous {
		keySet[k] = struct{}{}
	}
	for k := range current {
		keySet[k] = struct{}{}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cs := ChangeSet{Changes: []Change{}}
	for _, key := range keys {
		from, to := previous[key], current[key]
		if valuesEqual(key, from, to) {
			continue
		}
		if len(cs.Changes) >= maxChanges {
			cs.Omitted++
			continue
		}
		cs.Changes = append(cs.Changes, Change{Key: key, From: from, To: to})
	}

	return cs
}

// PTO 字段按真假比较，false、null 与缺失等价；其余字段按 Value.Equal 比较
func valuesEqual(key string, a, b domain.Value) bool {
	if ck, ok := ParseCellKey(key); ok && ck.IsPTO() {
		return a.Truthy() == b.Truthy()
	}
	return a.Equal(b)
}
