package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"tower-eval/backend/internal/model"
	pkgerrors "tower-eval/backend/pkg/errors"
)

// FormResponseRepository 评估响应数据访问接口
type FormResponseRepository interface {
	// CreateWithAnswers 在单个事务中写入一条 FormResponse 及其全部单题答案。
	// 任一行失败则整体回滚，调用方观察不到部分写入。
	CreateWithAnswers(ctx context.Context, response *model.FormResponse) error
	GetByID(ctx context.Context, id string) (*model.FormResponse, error)
	// GetByFormEvaluatorPeriod 按 (表单, 评估人, 周期) 查询响应；period 为 nil 表示单次表单
	GetByFormEvaluatorPeriod(ctx context.Context, formID, evaluatorID string, period *string) (*model.FormResponse, error)
	// ListByEvaluatorForms 查询评估人在一组表单上的全部响应（矩阵构建的补全输入）
	ListByEvaluatorForms(ctx context.Context, evaluatorID string, formIDs []string) ([]model.FormResponse, error)
	ListByForm(ctx context.Context, formID string) ([]model.FormResponse, error)
	CountByForm(ctx context.Context, formID string) (int64, error)
}

type formResponseRepo struct {
	db *gorm.DB
}

// NewFormResponseRepo 创建 FormResponseRepository 实例
func NewFormResponseRepo(db *gorm.DB) FormResponseRepository {
	return &formResponseRepo{db: db}
}

func (r *formResponseRepo) CreateWithAnswers(ctx context.Context, response *model.FormResponse) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		answers := response.Answers
		response.Answers = nil

		if err := tx.Create(response).Error; err != nil {
			// (form_id, evaluator_id, evaluation_period) 唯一索引是权威防重手段
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return pkgerrors.ErrUniqueViolation
			}
			return err
		}

		for i := range answers {
			answers[i].ResponseID = response.ResponseID
		}
		if len(answers) > 0 {
			if err := tx.CreateInBatches(answers, 200).Error; err != nil {
				return err
			}
		}

		response.Answers = answers
		return nil
	})
}

func (r *formResponseRepo) GetByID(ctx context.Context, id string) (*model.FormResponse, error) {
	var response model.FormResponse
	err := r.db.WithContext(ctx).
		Preload("Answers").
		Where("response_id = ?", id).
		First(&response).Error
	if err != nil {
		return nil, err
	}
	return &response, nil
}

func (r *formResponseRepo) GetByFormEvaluatorPeriod(ctx context.Context, formID, evaluatorID string, period *string) (*model.FormResponse, error) {
	query := r.db.WithContext(ctx).
		Where("form_id = ? AND evaluator_id = ?", formID, evaluatorID)
	if period != nil {
		query = query.Where("evaluation_period = ?", *period)
	}

	var response model.FormResponse
	if err := query.First(&response).Error; err != nil {
		return nil, err
	}
	return &response, nil
}

func (r *formResponseRepo) ListByEvaluatorForms(ctx context.Context, evaluatorID string, formIDs []string) ([]model.FormResponse, error) {
	if len(formIDs) == 0 {
		return nil, nil
	}
	var responses []model.FormResponse
	err := r.db.WithContext(ctx).
		Where("evaluator_id = ? AND form_id IN ?", evaluatorID, formIDs).
		Order("submitted_at DESC").
		Find(&responses).Error
	return responses, err
}

func (r *formResponseRepo) ListByForm(ctx context.Context, formID string) ([]model.FormResponse, error) {
	var responses []model.FormResponse
	err := r.db.WithContext(ctx).
		Preload("Answers").
		Where("form_id = ?", formID).
		Order("submitted_at DESC").
		Find(&responses).Error
	return responses, err
}

func (r *formResponseRepo) CountByForm(ctx context.Context, formID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.FormResponse{}).
		Where("form_id = ?", formID).
		Count(&count).Error
	return count, err
}
