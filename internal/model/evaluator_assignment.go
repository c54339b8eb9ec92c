package model

import "time"

// EvaluatorAssignment 评估人分配缓存表 — 对应 evaluator_assignments
// 派生数据：始终等于"评估人所辖塔组内全部技术员的并集"。
// 只允许 Assignment Resolver 整体重算写入，任何偏差按 bug 处理并通过重算纠正。
type EvaluatorAssignment struct {
	AssignmentID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	EvaluatorID  string    `gorm:"type:uuid;not null"                             json:"evaluator_id"`
	TechnicianID string    `gorm:"type:uuid;not null"                             json:"technician_id"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	Technician *Technician `gorm:"foreignKey:TechnicianID;references:TechnicianID" json:"technician,omitempty"`
}

// TableName 指定表名
func (EvaluatorAssignment) TableName() string { return "evaluator_assignments" }
