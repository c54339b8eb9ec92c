package repository

import (
	"context"

	"gorm.io/gorm"

	"tower-eval/backend/internal/model"
)

// EvaluatorAssignmentRepository 评估人分配缓存数据访问接口
// 缓存是派生数据，只允许整体替换（ReplaceForEvaluator），不提供逐行修改入口
type EvaluatorAssignmentRepository interface {
	ListByEvaluator(ctx context.Context, evaluatorID string) ([]model.EvaluatorAssignment, error)
	// ReplaceForEvaluator 原子替换评估人的全部分配行（事务内删除 + 批量插入）
	ReplaceForEvaluator(ctx context.Context, evaluatorID string, technicianIDs []string) error
}

type evaluatorAssignmentRepo struct {
	db *gorm.DB
}

// NewEvaluatorAssignmentRepo 创建 EvaluatorAssignmentRepository 实例
func NewEvaluatorAssignmentRepo(db *gorm.DB) EvaluatorAssignmentRepository {
	return &evaluatorAssignmentRepo{db: db}
}

func (r *evaluatorAssignmentRepo) ListByEvaluator(ctx context.Context, evaluatorID string) ([]model.EvaluatorAssignment, error) {
	var assignments []model.EvaluatorAssignment
	err := r.db.WithContext(ctx).
		Preload("Technician").
		Where("evaluator_id = ?", evaluatorID).
		Find(&assignments).Error
	return assignments, err
}

func (r *evaluatorAssignmentRepo) ReplaceForEvaluator(ctx context.Context, evaluatorID string, technicianIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("evaluator_id = ?", evaluatorID).
			Delete(&model.EvaluatorAssignment{}).Error; err != nil {
			return err
		}

		if len(technicianIDs) == 0 {
			return nil
		}

		rows := make([]model.EvaluatorAssignment, 0, len(technicianIDs))
		for _, tid := range technicianIDs {
			rows = append(rows, model.EvaluatorAssignment{
				EvaluatorID:  evaluatorID,
				TechnicianID: tid,
			})
		}
		return tx.CreateInBatches(rows, 200).Error
	})
}
