package scheduler

import "time"

// IsActive 判断规则在 now（已换算为商户本地时间）是否生效
func IsActive(rule Rule, now time.Time) bool {
	if !rule.IsActive {
		return false
	}
	w, ok := compileWindow(&rule)
	if !ok {
		return false
	}
	return w.activeAt(int(now.Weekday()), minuteOf(now))
}

func (w *window) activeAt(day, nowMin int) bool {
	switch w.kind {
	case windowAllDay:
		return w.onDay(day)
	case windowSameDay:
		return w.onDay(day) && w.startMin <= nowMin && nowMin < w.endMin
	default:
		// 跨夜：当天开始的前半段，或前一天开始、溢出到今天的后半段
		return (w.onDay(day) && nowMin >= w.startMin) ||
			(w.onDay(PreviousWeekday(day)) && nowMin < w.endMin)
	}
}

func minuteOf(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
