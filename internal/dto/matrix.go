package dto

// ── 评估矩阵 DTO ──

// 矩阵状态
const (
	MatrixStatusOK            = "ok"
	MatrixStatusNoTechnicians = "no_technicians"
	MatrixStatusNoActiveForms = "no_active_forms"
)

// MatrixCell 技术员 × 表单 的一个完成度单元格（计算值，不落库）
type MatrixCell struct {
	TechnicianID   string         `json:"technician_id"`
	TechnicianName string         `json:"technician_name"`
	FormID         string         `json:"form_id"`
	FormTitle      string         `json:"form_title"`
	FormKind       string         `json:"form_kind"`
	IsCompleted    bool           `json:"is_completed"`
	CompletedAt    *string        `json:"completed_at,omitempty"`
	ResponseID     *string        `json:"response_id,omitempty"`
	Period         *string        `json:"period,omitempty"`
	Questions      []QuestionView `json:"questions"`
}

// MatrixStats 矩阵覆盖度统计
type MatrixStats struct {
	TotalTechnicians     int `json:"total_technicians"`
	TotalForms           int `json:"total_forms"`
	TotalEvaluations     int `json:"total_evaluations"`
	CompletedEvaluations int `json:"completed_evaluations"`
	Progress             int `json:"progress"` // 0-100，total=0 时为 0
}

// MatrixResponse 评估矩阵响应
type MatrixResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message,omitempty"`
	Cells   []MatrixCell `json:"cells"`
	Stats   MatrixStats  `json:"stats"`
}
