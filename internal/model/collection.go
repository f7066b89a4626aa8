package model

// Collection 商品目录（菜单、酒单等）— 对应 collections
type Collection struct {
	CollectionID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"collection_id"`
	BusinessID   string `gorm:"type:uuid;not null;index"                       json:"business_id"`
	Name         string `gorm:"type:varchar(120);not null"                     json:"name"`
	Kind         string `gorm:"type:varchar(30);not null;default:'menu'"       json:"kind"`
	Description  string `gorm:"type:varchar(500)"                              json:"description,omitempty"`
	SoftDeleteModel
}

// TableName 指定表名
func (Collection) TableName() string { return "collections" }

// CollectionItem 目录条目 — 对应 collection_items
type CollectionItem struct {
	ItemID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"item_id"`
	CollectionID string `gorm:"type:uuid;not null"                             json:"collection_id"`
	Name         string `gorm:"type:varchar(200);not null"                     json:"name"`
	Description  string `gorm:"type:varchar(1000)"                             json:"description,omitempty"`
	PriceCents   int64  `gorm:"not null;default:0"                             json:"price_cents"`
	Currency     string `gorm:"type:varchar(3);not null;default:'EUR'"         json:"currency"`
	Position     int    `gorm:"not null;default:0"                             json:"position"`
	IsVisible    bool   `gorm:"not null;default:true"                          json:"is_visible"`
	SoftDeleteModel
}

// TableName 指定表名
func (CollectionItem) TableName() string { return "collection_items" }
