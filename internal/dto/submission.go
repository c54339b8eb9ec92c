package dto

// ── 批量提交 DTO ──

// AnswerInput 单题答案
type AnswerInput struct {
	QuestionID string `json:"question_id" binding:"required,uuid4"`
	Value      string `json:"value"`
}

// TechnicianEvaluation 对单个技术员的整套答案
type TechnicianEvaluation struct {
	TechnicianID string        `json:"technician_id" binding:"required,uuid4"`
	Answers      []AnswerInput `json:"answers"       binding:"required,min=1,dive"`
}

// BulkSubmissionRequest 批量评估提交请求
// 一次请求覆盖评估人当期全部受评技术员
type BulkSubmissionRequest struct {
	FormID      string                 `json:"form_id"     binding:"required,uuid4"`
	Evaluations []TechnicianEvaluation `json:"evaluations" binding:"required,min=1,dive"`
}

// SubmissionResult 提交成功响应
type SubmissionResult struct {
	ResponseID  string  `json:"response_id"`
	Period      *string `json:"period,omitempty"`
	AnswerCount int     `json:"answer_count"`
	Message     string  `json:"message"`
}

// MissingAnswer 缺失的必答题定位信息
type MissingAnswer struct {
	TechnicianID string `json:"technician_id"`
	QuestionID   string `json:"question_id"`
}

// IncompleteSubmissionDetail 不完整提交的结构化详情
type IncompleteSubmissionDetail struct {
	MissingTechnicians []string        `json:"missing_technicians,omitempty"`
	MissingAnswers     []MissingAnswer `json:"missing_answers,omitempty"`
}
