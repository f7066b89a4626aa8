package model

import "github.com/CataloGlobe/cataloglobe-app-sub001/internal/scheduler"

// ScheduleRule 目录排期规则 — 对应 schedule_rules
type ScheduleRule struct {
	RuleID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"rule_id"`
	BusinessID   string    `gorm:"type:uuid;not null"                             json:"business_id"`
	CollectionID string    `gorm:"type:uuid;not null"                             json:"collection_id"`
	Name         string    `gorm:"type:varchar(100);not null;default:''"          json:"name"`
	Slot         string    `gorm:"type:varchar(10);not null"                      json:"slot"` // primary | overlay
	DaysOfWeek   IntArray  `gorm:"type:int[];not null"                            json:"days_of_week"`
	StartTime    TimeOfDay `gorm:"type:time;not null"                             json:"start_time"`
	EndTime      TimeOfDay `gorm:"type:time;not null"                             json:"end_time"`
	IsActive     bool      `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (ScheduleRule) TableName() string { return "schedule_rules" }

// ToSchedulerRule 转换为解析器使用的规则快照
func (r *ScheduleRule) ToSchedulerRule() scheduler.Rule {
	days := make([]int, len(r.DaysOfWeek))
	copy(days, r.DaysOfWeek)
	return scheduler.Rule{
		ID:           r.RuleID,
		BusinessID:   r.BusinessID,
		CollectionID: r.CollectionID,
		Slot:         scheduler.Slot(r.Slot),
		DaysOfWeek:   days,
		StartTime:    string(r.StartTime),
		EndTime:      string(r.EndTime),
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt,
	}
}
