package dto

// ── 表单模块 DTO ──

// QuestionInput 创建表单时的题目定义
type QuestionInput struct {
	Text     string   `json:"text"     binding:"required,min=1,max=2000"`
	Type     string   `json:"type"     binding:"required,oneof=text long_text number single_choice multi_choice rating"`
	Required bool     `json:"required"`
	Position int      `json:"position" binding:"min=0"`
	Options  []string `json:"options"  binding:"omitempty,max=50"`
}

// CreateFormRequest 创建表单请求
// 周期表单必须携带 start_day/end_day 评估窗口；单次表单不允许携带
type CreateFormRequest struct {
	Title        string          `json:"title"         binding:"required,min=2,max=200"`
	Description  string          `json:"description"   binding:"max=2000"`
	Kind         string          `json:"kind"          binding:"required,oneof=single periodic"`
	IsAnonymous  bool            `json:"is_anonymous"`
	AutoActivate *bool           `json:"auto_activate"`
	TowerIDs     []string        `json:"tower_ids"     binding:"required,min=1,dive,uuid4"`
	StartDay     *int            `json:"start_day"     binding:"omitempty,min=1,max=31"`
	EndDay       *int            `json:"end_day"       binding:"omitempty,min=1,max=31"`
	Questions    []QuestionInput `json:"questions"     binding:"required,min=1,dive"`
}

// UpdateFormRequest 更新表单请求
type UpdateFormRequest struct {
	Title        *string   `json:"title"         binding:"omitempty,min=2,max=200"`
	Description  *string   `json:"description"   binding:"omitempty,max=2000"`
	IsAnonymous  *bool     `json:"is_anonymous"`
	AutoActivate *bool     `json:"auto_activate"`
	TowerIDs     *[]string `json:"tower_ids"     binding:"omitempty,min=1,dive,uuid4"`
	StartDay     *int      `json:"start_day"     binding:"omitempty,min=1,max=31"`
	EndDay       *int      `json:"end_day"       binding:"omitempty,min=1,max=31"`
}

// ChangeFormStatusRequest 手动状态切换请求（单次表单或人工覆盖）
type ChangeFormStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active closed"`
}

// QuestionView 题目视图
type QuestionView struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Position int      `json:"position"`
	Options  []string `json:"options,omitempty"`
}

// FormView 表单视图
type FormView struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	Kind            string         `json:"kind"`
	Status          string         `json:"status"`
	IsAnonymous     bool           `json:"is_anonymous"`
	AutoActivate    bool           `json:"auto_activate"`
	TowerIDs        []string       `json:"tower_ids"`
	StartDay        *int           `json:"start_day,omitempty"`
	EndDay          *int           `json:"end_day,omitempty"`
	CurrentPeriod   *string        `json:"current_period,omitempty"`
	PeriodStartDate *string        `json:"period_start_date,omitempty"`
	PeriodEndDate   *string        `json:"period_end_date,omitempty"`
	Questions       []QuestionView `json:"questions,omitempty"`
	CreatedAt       string         `json:"created_at"`
	UpdatedAt       string         `json:"updated_at"`
}

// ── 生命周期巡检 DTO ──

// SweepOutcome 单个表单的巡检结果
type SweepOutcome struct {
	FormID  string `json:"form_id"`
	Title   string `json:"title"`
	Outcome string `json:"outcome"` // activated | closed | unchanged | failed
	Period  string `json:"period,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SweepResult 一次生命周期巡检的汇总结果
type SweepResult struct {
	Total     int            `json:"total"`
	Activated int            `json:"activated"`
	Closed    int            `json:"closed"`
	Unchanged int            `json:"unchanged"`
	Failed    int            `json:"failed"`
	Details   []SweepOutcome `json:"details"`
}
