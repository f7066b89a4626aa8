package scheduler

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	minutesPerDay = 24 * 60
	daysPerWeek   = 7
)

// parseTimeOfDay 将 "HH:MM" 或 "HH:MM:SS" 解析为当日秒数
// 格式非法或越界时返回 ok=false
func parseTimeOfDay(s string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, false
	}

	limits := [3]int{24, 60, 60}
	var fields [3]int
	for i, p := range parts {
		if len(p) != 2 {
			return 0, false
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n >= limits[i] {
			return 0, false
		}
		fields[i] = n
	}

	return fields[0]*3600 + fields[1]*60 + fields[2], true
}

// MinuteOfDay 将 HH:MM:SS 转为当日分钟数 [0, 1440)，秒数截断
func MinuteOfDay(s string) (int, bool) {
	sec, ok := parseTimeOfDay(s)
	if !ok {
		return 0, false
	}
	return sec / 60, true
}

// NormalizeTimeOfDay 校验并规范化为 HH:MM:SS
func NormalizeTimeOfDay(s string) (string, bool) {
	sec, ok := parseTimeOfDay(s)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, sec/60%60, sec%60), true
}

// PreviousWeekday 返回前一天的星期序号（0 = 周日）
func PreviousWeekday(d int) int {
	return (d + 6) % daysPerWeek
}
