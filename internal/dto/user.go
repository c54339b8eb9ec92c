package dto

// ── 用户模块 DTO ──

// CreateUserRequest 创建用户请求
type CreateUserRequest struct {
	Name     string   `json:"name"      binding:"required,min=2,max=100"`
	Email    string   `json:"email"     binding:"required,email"`
	Password string   `json:"password"  binding:"required,min=8,max=72"`
	Role     string   `json:"role"      binding:"required,oneof=admin supervisor client"`
	TowerIDs []string `json:"tower_ids" binding:"omitempty,dive,uuid4"`
}

// UpdateUserRequest 更新用户请求
// TowerIDs 变更意味着所辖塔组变动，会触发该评估人的分配重算
type UpdateUserRequest struct {
	Name     *string   `json:"name"      binding:"omitempty,min=2,max=100"`
	Email    *string   `json:"email"     binding:"omitempty,email"`
	Role     *string   `json:"role"      binding:"omitempty,oneof=admin supervisor client"`
	TowerIDs *[]string `json:"tower_ids" binding:"omitempty,dive,uuid4"`
	IsActive *bool     `json:"is_active"`
}

// UserResponse 用户信息响应
type UserResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Role      string   `json:"role"`
	TowerIDs  []string `json:"tower_ids"`
	IsActive  bool     `json:"is_active"`
	CreatedAt string   `json:"created_at"`
}
