package dto

// ── 技术员模块 DTO ──

// CreateTechnicianRequest 创建技术员请求
type CreateTechnicianRequest struct {
	Name    string `json:"name"     binding:"required,min=2,max=100"`
	Email   string `json:"email"    binding:"omitempty,email"`
	TowerID string `json:"tower_id" binding:"required,uuid4"`
}

// UpdateTechnicianRequest 更新技术员请求
// TowerID 变更意味着塔组成员变动，会触发相关评估人分配重算
type UpdateTechnicianRequest struct {
	Name     *string `json:"name"     binding:"omitempty,min=2,max=100"`
	Email    *string `json:"email"    binding:"omitempty,email"`
	TowerID  *string `json:"tower_id" binding:"omitempty,uuid4"`
	IsActive *bool   `json:"is_active"`
}

// TechnicianResponse 技术员信息响应
type TechnicianResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	TowerID   string `json:"tower_id"`
	TowerName string `json:"tower_name,omitempty"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}
