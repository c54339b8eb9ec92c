package dto

// ── 评估人分配模块 DTO ──

// SyncOutcome 单个用户的分配同步结果
type SyncOutcome struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name,omitempty"`
	Outcome string `json:"outcome"` // updated | skipped | unchanged | failed
	Before  int    `json:"before"`
	After   int    `json:"after"`
	Error   string `json:"error,omitempty"`
}

// SyncReport 全量分配同步汇总
type SyncReport struct {
	Processed int           `json:"processed"`
	Updated   int           `json:"updated"`
	Unchanged int           `json:"unchanged"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Details   []SyncOutcome `json:"details"`
}

// AssignmentView 评估人当前分配视图
type AssignmentView struct {
	EvaluatorID string               `json:"evaluator_id"`
	Technicians []TechnicianResponse `json:"technicians"`
}
