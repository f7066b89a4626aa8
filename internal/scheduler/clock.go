package scheduler

import "time"

// Clock 当前时间来源，便于测试注入固定时刻
type Clock interface {
	Now() time.Time
}

// RealClock 使用系统时间
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock 始终返回固定时刻
// 例如「假设现在是周五 23:59:59」
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time {
	return c.At
}
