package model

// Tower 塔组表 — 对应 towers
// 塔组是拥有技术员与表单的组织单元
type Tower struct {
	TowerID     string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"tower_id"`
	Name        string `gorm:"type:varchar(100);not null"                     json:"name"`
	Description string `gorm:"type:text;not null;default:''"                  json:"description"`
	IsActive    bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (Tower) TableName() string { return "towers" }
