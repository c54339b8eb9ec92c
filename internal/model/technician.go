package model

// Technician 技术员表 — 对应 technicians
// 技术员是评估对象，归属且仅归属一个塔组
type Technician struct {
	TechnicianID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"technician_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string `gorm:"type:varchar(255);not null;default:''"          json:"email"`
	TowerID      string `gorm:"type:uuid;not null"                             json:"tower_id"`
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel

	// 关联
	Tower *Tower `gorm:"foreignKey:TowerID;references:TowerID" json:"tower,omitempty"`
}

// TableName 指定表名
func (Technician) TableName() string { return "technicians" }
