package dto

// ── 排期规则模块 DTO ──

// CreateScheduleRuleRequest 创建排期规则请求
type CreateScheduleRuleRequest struct {
	CollectionID string `json:"collection_id" binding:"required,uuid"`
	Name         string `json:"name"          binding:"omitempty,max=100"`
	Slot         string `json:"slot"          binding:"required,slot"`
	DaysOfWeek   []int  `json:"days_of_week"  binding:"required,min=1,dive,min=0,max=6"` // 0 = 周日
	StartTime    string `json:"start_time"    binding:"required,timeofday"`             // "08:00" 或 "08:00:00"
	EndTime      string `json:"end_time"      binding:"required,timeofday"`
	IsActive     *bool  `json:"is_active"` // 缺省为 true
}

// UpdateScheduleRuleRequest 更新排期规则请求（部分更新，需携带版本号）
type UpdateScheduleRuleRequest struct {
	Version      int     `json:"version"       binding:"required,min=1"`
	CollectionID *string `json:"collection_id" binding:"omitempty,uuid"`
	Name         *string `json:"name"          binding:"omitempty,max=100"`
	Slot         *string `json:"slot"          binding:"omitempty,slot"`
	DaysOfWeek   []int   `json:"days_of_week"  binding:"omitempty,min=1,dive,min=0,max=6"`
	StartTime    *string `json:"start_time"    binding:"omitempty,timeofday"`
	EndTime      *string `json:"end_time"      binding:"omitempty,timeofday"`
	IsActive     *bool   `json:"is_active"`
}

// ScheduleRuleListRequest 排期规则列表查询参数
type ScheduleRuleListRequest struct {
	PaginationRequest
	Slot string `form:"slot" binding:"omitempty,slot"`
}

// ScheduleRuleResponse 排期规则信息响应
type ScheduleRuleResponse struct {
	ID           string `json:"id"`
	BusinessID   string `json:"business_id"`
	CollectionID string `json:"collection_id"`
	Name         string `json:"name"`
	Slot         string `json:"slot"`
	DaysOfWeek   []int  `json:"days_of_week"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	IsActive     bool   `json:"is_active"`
	Version      int    `json:"version"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}
