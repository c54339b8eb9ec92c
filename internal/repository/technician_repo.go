package repository

import (
	"context"

	"gorm.io/gorm"

	"tower-eval/backend/internal/model"
)

// TechnicianRepository 技术员数据访问接口
type TechnicianRepository interface {
	Create(ctx context.Context, technician *model.Technician) error
	GetByID(ctx context.Context, id string) (*model.Technician, error)
	List(ctx context.Context) ([]model.Technician, error)
	ListByTower(ctx context.Context, towerID string) ([]model.Technician, error)
	// ListByTowers 查询多个塔组内的全部在职技术员（评估人分配重算的输入）
	ListByTowers(ctx context.Context, towerIDs []string) ([]model.Technician, error)
	Update(ctx context.Context, technician *model.Technician) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type technicianRepo struct {
	db *gorm.DB
}

// NewTechnicianRepo 创建 TechnicianRepository 实例
func NewTechnicianRepo(db *gorm.DB) TechnicianRepository {
	return &technicianRepo{db: db}
}

func (r *technicianRepo) Create(ctx context.Context, technician *model.Technician) error {
	return r.db.WithContext(ctx).Create(technician).Error
}

func (r *technicianRepo) GetByID(ctx context.Context, id string) (*model.Technician, error) {
	var technician model.Technician
	err := r.db.WithContext(ctx).
		Preload("Tower").
		Where("technician_id = ?", id).
		First(&technician).Error
	if err != nil {
		return nil, err
	}
	return &technician, nil
}

func (r *technicianRepo) List(ctx context.Context) ([]model.Technician, error) {
	var technicians []model.Technician
	err := r.db.WithContext(ctx).
		Preload("Tower").
		Order("name ASC").
		Find(&technicians).Error
	return technicians, err
}

func (r *technicianRepo) ListByTower(ctx context.Context, towerID string) ([]model.Technician, error) {
	var technicians []model.Technician
	err := r.db.WithContext(ctx).
		Where("tower_id = ? AND is_active = ?", towerID, true).
		Order("name ASC").
		Find(&technicians).Error
	return technicians, err
}

func (r *technicianRepo) ListByTowers(ctx context.Context, towerIDs []string) ([]model.Technician, error) {
	if len(towerIDs) == 0 {
		return nil, nil
	}
	var technicians []model.Technician
	err := r.db.WithContext(ctx).
		Where("tower_id IN ? AND is_active = ?", towerIDs, true).
		Find(&technicians).Error
	return technicians, err
}

func (r *technicianRepo) Update(ctx context.Context, technician *model.Technician) error {
	return r.db.WithContext(ctx).Save(technician).Error
}

func (r *technicianRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Technician{}).
		Where("technician_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
