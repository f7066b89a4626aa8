package scheduler

import "time"

// Slot 排期轨道：主目录 / 叠加目录，两者独立解析
type Slot string

const (
	SlotPrimary Slot = "primary"
	SlotOverlay Slot = "overlay"
)

// ParseSlot 解析轨道名称
func ParseSlot(s string) (Slot, bool) {
	switch Slot(s) {
	case SlotPrimary, SlotOverlay:
		return Slot(s), true
	}
	return "", false
}

// Rule 按周重复的排期规则快照
//
// 时间字段为商户所在时区的本地时间；解析器本身不做时区转换。
type Rule struct {
	ID           string    `json:"id"            yaml:"id"`
	BusinessID   string    `json:"business_id"   yaml:"business_id"`
	CollectionID string    `json:"collection_id" yaml:"collection_id"`
	Slot         Slot      `json:"slot"          yaml:"slot"`
	DaysOfWeek   []int     `json:"days_of_week"  yaml:"days_of_week"` // 0 = 周日
	StartTime    string    `json:"start_time"    yaml:"start_time"`   // HH:MM:SS
	EndTime      string    `json:"end_time"      yaml:"end_time"`     // HH:MM:SS
	IsActive     bool      `json:"is_active"     yaml:"is_active"`
	CreatedAt    time.Time `json:"created_at"    yaml:"created_at"`
}

// ── 时间窗口 ──

type windowKind int

const (
	windowAllDay    windowKind = iota // start == end
	windowSameDay                     // start < end
	windowOvernight                   // start > end，跨越午夜
)

type window struct {
	kind     windowKind
	startMin int
	endMin   int
	startSec int
	days     [daysPerWeek]bool
}

func (w *window) onDay(d int) bool {
	return w.days[d]
}

// touches 窗口是否覆盖当天（跨夜窗口包括前一天溢出的部分）
func (w *window) touches(day int) bool {
	if w.kind == windowOvernight {
		return w.days[day] || w.days[PreviousWeekday(day)]
	}
	return w.days[day]
}

// compileWindow 预解析规则的时间窗口
// 时间格式非法或星期越界时返回 ok=false，该规则视为永不匹配
func compileWindow(r *Rule) (window, bool) {
	startSec, ok := parseTimeOfDay(r.StartTime)
	if !ok {
		return window{}, false
	}
	endSec, ok := parseTimeOfDay(r.EndTime)
	if !ok {
		return window{}, false
	}

	w := window{
		startMin: startSec / 60,
		endMin:   endSec / 60,
		startSec: startSec,
	}
	for _, d := range r.DaysOfWeek {
		if d < 0 || d >= daysPerWeek {
			return window{}, false
		}
		w.days[d] = true
	}

	switch {
	case w.startMin == w.endMin:
		w.kind = windowAllDay
	case w.startMin < w.endMin:
		w.kind = windowSameDay
	default:
		w.kind = windowOvernight
	}
	return w, true
}

// candidate 已预解析的规则
type candidate struct {
	rule *Rule
	win  window
}

// compileRules 过滤出指定轨道上启用且数据合法的规则
func compileRules(rules []Rule, slot Slot) []candidate {
	out := make([]candidate, 0, len(rules))
	for i := range rules {
		r := &rules[i]
		if r.Slot != slot || !r.IsActive {
			continue
		}
		w, ok := compileWindow(r)
		if !ok {
			continue
		}
		out = append(out, candidate{rule: r, win: w})
	}
	return out
}

// newerFirst 创建时间新者优先，最后按 ID 升序保证全序
func newerFirst(a, b *Rule) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}
