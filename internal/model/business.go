package model

// Business 商户 — 对应 businesses
// 由外部服务维护，这里只读
type Business struct {
	BusinessID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"business_id"`
	Name       string `gorm:"type:varchar(120);not null"                     json:"name"`
	Slug       string `gorm:"type:varchar(120);not null;uniqueIndex"         json:"slug"`
	Timezone   string `gorm:"type:varchar(64);not null;default:''"           json:"timezone"` // IANA 名称，空表示使用默认时区
	IsActive   bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (Business) TableName() string { return "businesses" }
