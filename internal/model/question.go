package model

import "time"

// ── 题目类型枚举 ──

const (
	QuestionTypeText         = "text"          // 单行文本
	QuestionTypeLongText     = "long_text"     // 多行文本
	QuestionTypeNumber       = "number"        // 数值
	QuestionTypeSingleChoice = "single_choice" // 单选
	QuestionTypeMultiChoice  = "multi_choice"  // 多选
	QuestionTypeRating       = "rating"        // 评分刻度
)

// Question 题目表 — 对应 questions
// Position 决定题目在表单内的展示顺序；Options 仅选择/评分类题目使用
type Question struct {
	QuestionID string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"question_id"`
	FormID     string      `gorm:"type:uuid;not null"                             json:"form_id"`
	Text       string      `gorm:"type:text;not null"                             json:"text"`
	Type       string      `gorm:"type:varchar(20);not null;default:'text'"       json:"type"`
	Required   bool        `gorm:"not null;default:true"                          json:"required"`
	Position   int         `gorm:"not null;default:0"                             json:"position"`
	Options    StringArray `gorm:"type:text[]"                                    json:"options,omitempty"`
	CreatedAt  time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt  time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// TableName 指定表名
func (Question) TableName() string { return "questions" }
