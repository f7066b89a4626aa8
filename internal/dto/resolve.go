package dto

// ── 目录解析模块 DTO ──

// ResolveRequest 解析查询参数
type ResolveRequest struct {
	Slot string `form:"slot" binding:"omitempty,slot"` // 缺省为 primary
	At   string `form:"at"`                            // RFC3339，缺省为当前时间
}

// ActiveCollectionResponse 单轨道解析结果
type ActiveCollectionResponse struct {
	BusinessID   string `json:"business_id"`
	Slot         string `json:"slot"`
	Source       string `json:"source"` // active | fallback | none
	FallbackStep string `json:"fallback_step,omitempty"`
	DayOffset    int    `json:"day_offset"`
	RuleID       string `json:"rule_id,omitempty"`
	CollectionID string `json:"collection_id,omitempty"`
	ResolvedAt   string `json:"resolved_at"`
	Timezone     string `json:"timezone"`
}

// CollectionItemResponse 目录条目
type CollectionItemResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PriceCents  int64  `json:"price_cents"`
	Currency    string `json:"currency"`
	Position    int    `json:"position"`
}

// ResolvedCollection 已解析轨道对应的目录及其可见条目
type ResolvedCollection struct {
	CollectionID string                   `json:"collection_id"`
	Name         string                   `json:"name"`
	Kind         string                   `json:"kind"`
	Description  string                   `json:"description,omitempty"`
	Source       string                   `json:"source"`
	FallbackStep string                   `json:"fallback_step,omitempty"`
	DayOffset    int                      `json:"day_offset"`
	RuleID       string                   `json:"rule_id"`
	Items        []CollectionItemResponse `json:"items"`
}

// MenuResponse 公开菜单：主目录 + 叠加目录
type MenuResponse struct {
	BusinessID string              `json:"business_id"`
	Name       string              `json:"name"`
	Timezone   string              `json:"timezone"`
	ResolvedAt string              `json:"resolved_at"`
	Primary    *ResolvedCollection `json:"primary"`
	Overlay    *ResolvedCollection `json:"overlay"`
}
