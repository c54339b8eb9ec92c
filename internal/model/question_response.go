package model

import "time"

// QuestionResponse 单题答案表 — 对应 question_responses
// 同一 ResponseID 下不同 TechnicianID 的多行答案构成一次覆盖多名技术员的批量提交。
// 数值/评分类答案以数值字符串存储，由提交协调器白名单校验。
type QuestionResponse struct {
	QuestionResponseID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"question_response_id"`
	ResponseID         string    `gorm:"type:uuid;not null"                             json:"response_id"`
	QuestionID         string    `gorm:"type:uuid;not null"                             json:"question_id"`
	TechnicianID       *string   `gorm:"type:uuid"                                      json:"technician_id,omitempty"`
	Value              string    `gorm:"type:text;not null;default:''"                  json:"value"`
	CreatedAt          time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	Question   *Question   `gorm:"foreignKey:QuestionID;references:QuestionID"       json:"question,omitempty"`
	Technician *Technician `gorm:"foreignKey:TechnicianID;references:TechnicianID"   json:"technician,omitempty"`
}

// TableName 指定表名
func (QuestionResponse) TableName() string { return "question_responses" }
