package scheduler

import "time"

// Source 解析结果来源
type Source string

const (
	SourceActive   Source = "active"
	SourceFallback Source = "fallback"
	SourceNone     Source = "none"
)

// Resolution 单个轨道的解析结果
type Resolution struct {
	Slot         Slot
	Source       Source
	Rule         *Rule
	FallbackStep FallbackStep
	DayOffset    int
}

// CollectionID 返回选中的目录 ID，无结果时 ok=false
func (r Resolution) CollectionID() (string, bool) {
	if r.Rule == nil {
		return "", false
	}
	return r.Rule.CollectionID, true
}

// Resolve 解析指定轨道在 now 时刻的生效规则
//
// now 必须已换算为商户本地时间。overlay 轨道没有兜底：无生效规则即不展示。
// 纯函数，可并发调用。
func Resolve(rules []Rule, slot Slot, now time.Time) Resolution {
	res := Resolution{Slot: slot, Source: SourceNone}
	if _, ok := ParseSlot(string(slot)); !ok {
		return res
	}

	day, nowMin := int(now.Weekday()), minuteOf(now)
	cands := compileRules(rules, slot)

	active := make([]candidate, 0, len(cands))
	for _, c := range cands {
		if c.win.activeAt(day, nowMin) {
			active = append(active, c)
		}
	}
	if winner, ok := pickWinner(active); ok {
		r := *winner.rule
		res.Source = SourceActive
		res.Rule = &r
		return res
	}

	if slot != SlotPrimary {
		return res
	}

	fb, ok := pickFallback(cands, day, nowMin)
	if !ok {
		return res
	}
	res.Source = SourceFallback
	res.Rule = fb.Rule
	res.FallbackStep = fb.Step
	res.DayOffset = fb.DayOffset
	return res
}

// ResolveActiveCollection 返回指定轨道当前应展示的目录 ID
func ResolveActiveCollection(rules []Rule, slot Slot, now time.Time) (string, bool) {
	return Resolve(rules, slot, now).CollectionID()
}
