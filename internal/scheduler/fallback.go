package scheduler

import "time"

// FallbackStep 兜底规则的命中步骤
type FallbackStep string

const (
	StepEndedToday    FallbackStep = "ended_today"    // 今天刚结束的同日窗口
	StepUpcomingToday FallbackStep = "upcoming_today" // 今天稍后开始
	StepUpcomingWeek  FallbackStep = "upcoming_week"  // 一周内最近一次开始
)

// Fallback 主目录兜底结果
type Fallback struct {
	Rule      *Rule
	Step      FallbackStep
	DayOffset int // 仅 StepUpcomingWeek 有意义，0..6
}

// PickFallbackPrimary 当前无主目录规则生效时，选出最相关的兜底规则
//
// 只考虑启用的 primary 规则，按优先级依次尝试：
//  1. 今天已结束的同日窗口，结束最晚者
//  2. 今天尚未开始的窗口，开始最早者
//  3. 一周内最近一次生效的规则，(天数差, 开始时间) 升序
//
// 没有任何合法的 primary 规则时返回 ok=false。
func PickFallbackPrimary(allPrimaryRules []Rule, now time.Time) (Fallback, bool) {
	return pickFallback(compileRules(allPrimaryRules, SlotPrimary), int(now.Weekday()), minuteOf(now))
}

func pickFallback(cands []candidate, day, nowMin int) (Fallback, bool) {
	if len(cands) == 0 {
		return Fallback{}, false
	}

	today := make([]candidate, 0, len(cands))
	for _, c := range cands {
		if c.win.touches(day) {
			today = append(today, c)
		}
	}

	// 1. 今天已结束：仅同日窗口参与（全天、跨夜窗口不按 end 判断）
	var ended *candidate
	for i := range today {
		c := &today[i]
		if c.win.kind != windowSameDay || c.win.endMin > nowMin {
			continue
		}
		if ended == nil || c.win.endMin > ended.win.endMin ||
			(c.win.endMin == ended.win.endMin && newerFirst(c.rule, ended.rule)) {
			ended = c
		}
	}
	if ended != nil {
		return newFallback(ended, StepEndedToday, 0), true
	}

	// 2. 今天稍后开始
	var upcoming *candidate
	for i := range today {
		c := &today[i]
		if c.win.startMin < nowMin {
			continue
		}
		if upcoming == nil || c.win.startSec < upcoming.win.startSec ||
			(c.win.startSec == upcoming.win.startSec && newerFirst(c.rule, upcoming.rule)) {
			upcoming = c
		}
	}
	if upcoming != nil {
		return newFallback(upcoming, StepUpcomingToday, 0), true
	}

	// 3. 一周内最近一次
	var (
		nearest     *candidate
		nearestDiff int
	)
	for i := range cands {
		c := &cands[i]
		delta, ok := c.win.nextDayOffset(day)
		if !ok {
			continue
		}
		if nearest == nil || delta < nearestDiff ||
			(delta == nearestDiff && c.win.startSec < nearest.win.startSec) ||
			(delta == nearestDiff && c.win.startSec == nearest.win.startSec && newerFirst(c.rule, nearest.rule)) {
			nearest, nearestDiff = c, delta
		}
	}
	if nearest != nil {
		return newFallback(nearest, StepUpcomingWeek, nearestDiff), true
	}

	return Fallback{}, false
}

// nextDayOffset 距离下一个生效日的最小天数 (0..6)
// 跨夜规则在列出日的次日也视为生效日
func (w *window) nextDayOffset(day int) (int, bool) {
	for delta := 0; delta < daysPerWeek; delta++ {
		d := (day + delta) % daysPerWeek
		if w.days[d] {
			return delta, true
		}
		if w.kind == windowOvernight && w.days[PreviousWeekday(d)] {
			return delta, true
		}
	}
	return 0, false
}

func newFallback(c *candidate, step FallbackStep, offset int) Fallback {
	r := *c.rule
	return Fallback{Rule: &r, Step: step, DayOffset: offset}
}
