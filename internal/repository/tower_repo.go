package repository

import (
	"context"

	"gorm.io/gorm"

	"tower-eval/backend/internal/model"
)

// TowerRepository 塔组数据访问接口
type TowerRepository interface {
	Create(ctx context.Context, tower *model.Tower) error
	GetByID(ctx context.Context, id string) (*model.Tower, error)
	List(ctx context.Context) ([]model.Tower, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Tower, error)
	Update(ctx context.Context, tower *model.Tower) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type towerRepo struct {
	db *gorm.DB
}

// NewTowerRepo 创建 TowerRepository 实例
func NewTowerRepo(db *gorm.DB) TowerRepository {
	return &towerRepo{db: db}
}

func (r *towerRepo) Create(ctx context.Context, tower *model.Tower) error {
	return r.db.WithContext(ctx).Create(tower).Error
}

func (r *towerRepo) GetByID(ctx context.Context, id string) (*model.Tower, error) {
	var tower model.Tower
	err := r.db.WithContext(ctx).
		Where("tower_id = ?", id).
		First(&tower).Error
	if err != nil {
		return nil, err
	}
	return &tower, nil
}

func (r *towerRepo) List(ctx context.Context) ([]model.Tower, error) {
	var towers []model.Tower
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&towers).Error
	return towers, err
}

func (r *towerRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Tower, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var towers []model.Tower
	err := r.db.WithContext(ctx).
		Where("tower_id IN ?", ids).
		Find(&towers).Error
	return towers, err
}

func (r *towerRepo) Update(ctx context.Context, tower *model.Tower) error {
	return r.db.WithContext(ctx).Save(tower).Error
}

func (r *towerRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Tower{}).
		Where("tower_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
