package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tower-eval/backend/internal/dto"
	"tower-eval/backend/internal/model"
	"tower-eval/backend/internal/repository"
)

// ── 塔组模块业务错误 ──

var (
	ErrTowerNotFound       = errors.New("塔组不存在")
	ErrTowerHasTechnicians = errors.New("塔组下仍有技术员，不能删除")
)

// TowerService 塔组业务接口
type TowerService interface {
	CreateTower(ctx context.Context, req *dto.CreateTowerRequest, createdBy string) (*dto.TowerResponse, error)
	GetTower(ctx context.Context, id string) (*dto.TowerResponse, error)
	ListTowers(ctx context.Context) ([]dto.TowerResponse, error)
	UpdateTower(ctx context.Context, id string, req *dto.UpdateTowerRequest, updatedBy string) (*dto.TowerResponse, error)
	DeleteTower(ctx context.Context, id string, deletedBy string) error
}

type towerService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTowerService 创建 TowerService 实例
func NewTowerService(repo *repository.Repository, logger *zap.Logger) TowerService {
	return &towerService{repo: repo, logger: logger}
}

func (s *towerService) CreateTower(ctx context.Context, req *dto.CreateTowerRequest, createdBy string) (*dto.TowerResponse, error) {
	tower := &model.Tower{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	tower.CreatedBy = &createdBy

	if err := s.repo.Tower.Create(ctx, tower); err != nil {
		s.logger.Error("创建塔组失败", zap.String("name", req.Name), zap.Error(err))
		return nil, err
	}
	s.logger.Info("塔组创建成功", zap.String("towerID", tower.TowerID), zap.String("name", tower.Name))
	return toTowerResponse(tower), nil
}

func (s *towerService) GetTower(ctx context.Context, id string) (*dto.TowerResponse, error) {
	tower, err := s.repo.Tower.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTowerNotFound
		}
		return nil, err
	}
	return toTowerResponse(tower), nil
}

func (s *towerService) ListTowers(ctx context.Context) ([]dto.TowerResponse, error) {
	towers, err := s.repo.Tower.List(ctx)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.TowerResponse, 0, len(towers))
	for i := range towers {
		responses = append(responses, *toTowerResponse(&towers[i]))
	}
	return responses, nil
}

func (s *towerService) UpdateTower(ctx context.Context, id string, req *dto.UpdateTowerRequest, updatedBy string) (*dto.TowerResponse, error) {
	tower, err := s.repo.Tower.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTowerNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		tower.Name = *req.Name
	}
	if req.Description != nil {
		tower.Description = *req.Description
	}
	if req.IsActive != nil {
		tower.IsActive = *req.IsActive
	}
	tower.UpdatedBy = &updatedBy

	if err := s.repo.Tower.Update(ctx, tower); err != nil {
		s.logger.Error("更新塔组失败", zap.String("towerID", id), zap.Error(err))
		return nil, err
	}
	return toTowerResponse(tower), nil
}

func (s *towerService) DeleteTower(ctx context.Context, id string, deletedBy string) error {
	if _, err := s.repo.Tower.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTowerNotFound
		}
		return err
	}
	technicians, err := s.repo.Technician.ListByTower(ctx, id)
	if err != nil {
		return err
	}
	if len(technicians) > 0 {
		return ErrTowerHasTechnicians
	}
	return s.repo.Tower.Delete(ctx, id, deletedBy)
}

func toTowerResponse(tower *model.Tower) *dto.TowerResponse {
	return &dto.TowerResponse{
		ID:          tower.TowerID,
		Name:        tower.Name,
		Description: tower.Description,
		IsActive:    tower.IsActive,
		CreatedAt:   tower.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   tower.UpdatedAt.Format(time.RFC3339),
	}
}
