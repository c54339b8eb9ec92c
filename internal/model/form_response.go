package model

import "time"

// FormResponse 评估响应表 — 对应 form_responses
// 一次批量提交产生一条 FormResponse；匿名表单不记录 EvaluatorID。
// EvaluationPeriod 仅周期表单携带，用于按周期防重与补全矩阵。
type FormResponse struct {
	ResponseID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"response_id"`
	FormID           string    `gorm:"type:uuid;not null"                             json:"form_id"`
	EvaluatorID      *string   `gorm:"type:uuid"                                      json:"evaluator_id,omitempty"`
	EvaluationPeriod *string   `gorm:"type:varchar(7)"                                json:"evaluation_period,omitempty"`
	SubmittedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"submitted_at"`
	CreatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`

	// 关联
	Form    *Form              `gorm:"foreignKey:FormID;references:FormID"         json:"form,omitempty"`
	Answers []QuestionResponse `gorm:"foreignKey:ResponseID;references:ResponseID" json:"answers,omitempty"`
}

// TableName 指定表名
func (FormResponse) TableName() string { return "form_responses" }
