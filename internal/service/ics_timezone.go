package service

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

// tzTransition 时区偏移切换点
type tzTransition struct {
	at      time.Time // 切换后的第一个时刻（UTC）
	fromOff int
	toOff   int
	toName  string
}

// addVTimezone 为带 TZID 的事件生成对应的 VTIMEZONE 组件
//
// 取 year 年内的实际切换点：无切换输出单个 STANDARD；
// 每年两次切换（常见夏令时）时附带 YEARLY RRULE，其余情况逐条输出。
func addVTimezone(cal *ics.Calendar, loc *time.Location, year int) {
	tz := cal.AddTimezone(loc.String())

	transitions := zoneTransitions(loc, year)
	if len(transitions) == 0 {
		name, off := time.Date(year, 1, 1, 0, 0, 0, 0, loc).Zone()
		std := &ics.Standard{}
		std.SetProperty(ics.ComponentProperty(ics.PropertyDtstart), "19700101T000000")
		std.SetProperty(ics.ComponentProperty(ics.PropertyTzoffsetfrom), formatUTCOffset(off))
		std.SetProperty(ics.ComponentProperty(ics.PropertyTzoffsetto), formatUTCOffset(off))
		std.SetProperty(ics.ComponentProperty(ics.PropertyTzname), name)
		tz.Components = append(tz.Components, std)
		return
	}

	yearly := len(transitions) == 2
	for _, tr := range transitions {
		var cb *ics.ComponentBase
		if tr.toOff > tr.fromOff {
			d := &ics.Daylight{}
			tz.Components = append(tz.Components, d)
			cb = &d.ComponentBase
		} else {
			s := &ics.Standard{}
			tz.Components = append(tz.Components, s)
			cb = &s.ComponentBase
		}

		// DTSTART 为切换前偏移下的本地墙钟时间
		wall := tr.at.UTC().Add(time.Duration(tr.fromOff) * time.Second)
		cb.SetProperty(ics.ComponentProperty(ics.PropertyDtstart), wall.Format("20060102T150405"))
		cb.SetProperty(ics.ComponentProperty(ics.PropertyTzoffsetfrom), formatUTCOffset(tr.fromOff))
		cb.SetProperty(ics.ComponentProperty(ics.PropertyTzoffsetto), formatUTCOffset(tr.toOff))
		cb.SetProperty(ics.ComponentProperty(ics.PropertyTzname), tr.toName)
		if yearly {
			cb.SetProperty(ics.ComponentPropertyRrule, yearlyRule(wall))
		}
	}
}

// zoneTransitions 按天扫描 year 年，二分定位到秒级切换时刻
func zoneTransitions(loc *time.Location, year int) []tzTransition {
	start := time.Date(year, 1, 1, 0, 0, 0, 0, loc).Unix()
	end := time.Date(year+1, 1, 1, 0, 0, 0, 0, loc).Unix()

	offsetAt := func(sec int64) (string, int) {
		return time.Unix(sec, 0).In(loc).Zone()
	}

	var out []tzTransition
	const day = int64(24 * 3600)
	for lo := start; lo < end; lo += day {
		hi := lo + day
		if hi > end {
			hi = end
		}
		fromName, fromOff := offsetAt(lo)
		toName, toOff := offsetAt(hi)
		if fromOff == toOff && fromName == toName {
			continue
		}

		l, h := lo, hi
		for h-l > 1 {
			mid := l + (h-l)/2
			if name, off := offsetAt(mid); off == fromOff && name == fromName {
				l = mid
			} else {
				h = mid
			}
		}
		out = append(out, tzTransition{
			at:      time.Unix(h, 0).UTC(),
			fromOff: fromOff,
			toOff:   toOff,
			toName:  toName,
		})
	}
	return out
}

// yearlyRule 生成形如 FREQ=YEARLY;BYMONTH=3;BYDAY=-1SU 的规则
func yearlyRule(wall time.Time) string {
	nth := fmt.Sprintf("%d", (wall.Day()-1)/7+1)
	daysInMonth := time.Date(wall.Year(), wall.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if wall.Day()+7 > daysInMonth {
		nth = "-1"
	}
	return fmt.Sprintf("FREQ=YEARLY;BYMONTH=%d;BYDAY=%s%s", int(wall.Month()), nth, icsWeekdays[wall.Weekday()])
}

// formatUTCOffset 秒数偏移转为 +HHMM（含秒时为 +HHMMSS）
func formatUTCOffset(off int) string {
	sign := "+"
	if off < 0 {
		sign = "-"
		off = -off
	}
	h, m, s := off/3600, off/60%60, off%60
	if s != 0 {
		return fmt.Sprintf("%s%02d%02d%02d", sign, h, m, s)
	}
	return fmt.Sprintf("%s%02d%02d", sign, h, m)
}
