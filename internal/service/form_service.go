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
	pkgerrors "tower-eval/backend/pkg/errors"
)

// ── 表单模块业务错误 ──

var (
	ErrFormNotFound        = errors.New("表单不存在")
	ErrFormWindowRequired  = errors.New("周期表单必须设置评估窗口起止日")
	ErrFormWindowForbidden = errors.New("单次表单不能设置评估窗口")
	ErrFormWindowInvalid   = errors.New("评估窗口日必须在 1 到 31 之间")
	ErrFormTowerNotFound   = errors.New("指派的塔组不存在")
	ErrFormHasResponses    = errors.New("表单已有提交记录，不能删除")
	ErrFormStatusInvalid   = errors.New("非法的表单状态切换")
	ErrFormStatusConflict  = errors.New("表单状态已被其他操作修改，请刷新后重试")
)

// FormService 表单业务接口
type FormService interface {
	CreateForm(ctx context.Context, req *dto.CreateFormRequest, createdBy string) (*dto.FormView, error)
	GetForm(ctx context.Context, id string) (*dto.FormView, error)
	ListForms(ctx context.Context) ([]dto.FormView, error)
	// ListActiveForEvaluator 评估人视角：其辖区内全部激活表单
	ListActiveForEvaluator(ctx context.Context, towerIDs []string) ([]dto.FormView, error)
	UpdateForm(ctx context.Context, id string, req *dto.UpdateFormRequest, updatedBy string) (*dto.FormView, error)
	// ChangeStatus 手动状态切换：单次表单的激活/关闭，或对周期表单的人工覆盖
	ChangeStatus(ctx context.Context, id string, status string, updatedBy string) (*dto.FormView, error)
	DeleteForm(ctx context.Context, id string, deletedBy string) error
}

type formService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewFormService 创建 FormService 实例
func NewFormService(repo *repository.Repository, logger *zap.Logger) FormService {
	return &formService{repo: repo, logger: logger}
}

// ════════════════════════════════════════════════════════════
// CreateForm — 创建表单（题目随表单一并写入）
// ════════════════════════════════════════════════════════════

func (s *formService) CreateForm(ctx context.Context, req *dto.CreateFormRequest, createdBy string) (*dto.FormView, error) {
	if err := validateWindow(req.Kind, req.StartDay, req.EndDay); err != nil {
		return nil, err
	}
	if err := s.checkTowers(ctx, req.TowerIDs); err != nil {
		return nil, err
	}

	autoActivate := true
	if req.AutoActivate != nil {
		autoActivate = *req.AutoActivate
	}

	form := &model.Form{
		Title:        req.Title,
		Description:  req.Description,
		Kind:         req.Kind,
		Status:       model.FormStatusDraft,
		IsAnonymous:  req.IsAnonymous,
		AutoActivate: autoActivate,
		TowerIDs:     model.StringArray(req.TowerIDs),
		StartDay:     req.StartDay,
		EndDay:       req.EndDay,
	}
	form.CreatedBy = &createdBy
	for _, q := range req.Questions {
		form.Questions = append(form.Questions, model.Question{
			Text:     q.Text,
			Type:     q.Type,
			Required: q.Required,
			Position: q.Position,
			Options:  model.StringArray(q.Options),
		})
	}

	if err := s.repo.Form.Create(ctx, form); err != nil {
		s.logger.Error("创建表单失败", zap.String("title", req.Title), zap.Error(err))
		return nil, err
	}

	s.logger.Info("表单创建成功",
		zap.String("formID", form.FormID),
		zap.String("kind", form.Kind),
		zap.Int("questions", len(form.Questions)),
	)
	return toFormView(form), nil
}

func (s *formService) GetForm(ctx context.Context, id string) (*dto.FormView, error) {
	form, err := s.repo.Form.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	return toFormView(form), nil
}

func (s *formService) ListForms(ctx context.Context) ([]dto.FormView, error) {
	forms, err := s.repo.Form.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]dto.FormView, 0, len(forms))
	for i := range forms {
		views = append(views, *toFormView(&forms[i]))
	}
	return views, nil
}

func (s *formService) ListActiveForEvaluator(ctx context.Context, towerIDs []string) ([]dto.FormView, error) {
	seen := make(map[string]bool)
	var views []dto.FormView
	for _, towerID := range towerIDs {
		forms, err := s.repo.Form.ListActiveByTower(ctx, towerID)
		if err != nil {
			return nil, err
		}
		for i := range forms {
			if seen[forms[i].FormID] {
				continue
			}
			seen[forms[i].FormID] = true
			views = append(views, *toFormView(&forms[i]))
		}
	}
	if views == nil {
		views = []dto.FormView{}
	}
	return views, nil
}

// ════════════════════════════════════════════════════════════
// UpdateForm — 部分更新（题目定义不在此接口内修改）
// ════════════════════════════════════════════════════════════

func (s *formService) UpdateForm(ctx context.Context, id string, req *dto.UpdateFormRequest, updatedBy string) (*dto.FormView, error) {
	form, err := s.repo.Form.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}

	if req.Title != nil {
		form.Title = *req.Title
	}
	if req.Description != nil {
		form.Description = *req.Description
	}
	if req.IsAnonymous != nil {
		form.IsAnonymous = *req.IsAnonymous
	}
	if req.AutoActivate != nil {
		form.AutoActivate = *req.AutoActivate
	}
	if req.TowerIDs != nil {
		if err := s.checkTowers(ctx, *req.TowerIDs); err != nil {
			return nil, err
		}
		form.TowerIDs = model.StringArray(*req.TowerIDs)
	}
	if req.StartDay != nil {
		form.StartDay = req.StartDay
	}
	if req.EndDay != nil {
		form.EndDay = req.EndDay
	}
	if err := validateWindow(form.Kind, form.StartDay, form.EndDay); err != nil {
		return nil, err
	}
	form.UpdatedBy = &updatedBy

	if err := s.repo.Form.Update(ctx, form); err != nil {
		s.logger.Error("更新表单失败", zap.String("formID", id), zap.Error(err))
		return nil, err
	}
	return toFormView(form), nil
}

// ChangeStatus 手动切换表单状态
// 周期表单一般由巡检自动流转，这里同样放行以支持人工覆盖（下一轮巡检会重新接管）
func (s *formService) ChangeStatus(ctx context.Context, id string, status string, updatedBy string) (*dto.FormView, error) {
	if status != model.FormStatusActive && status != model.FormStatusClosed {
		return nil, ErrFormStatusInvalid
	}
	form, err := s.repo.Form.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	if form.Status == status {
		return toFormView(form), nil
	}

	if err := s.repo.Form.UpdateStatus(ctx, id, form.Status, status, updatedBy); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrFormStatusConflict
		}
		s.logger.Error("切换表单状态失败", zap.String("formID", id), zap.Error(err))
		return nil, err
	}
	s.logger.Info("表单状态已手动切换",
		zap.String("formID", id),
		zap.String("from", form.Status),
		zap.String("to", status),
		zap.String("by", updatedBy),
	)
	form.Status = status
	return toFormView(form), nil
}

func (s *formService) DeleteForm(ctx context.Context, id string, deletedBy string) error {
	if _, err := s.repo.Form.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFormNotFound
		}
		return err
	}
	count, err := s.repo.FormResponse.CountByForm(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrFormHasResponses
	}
	return s.repo.Form.Delete(ctx, id, deletedBy)
}

// ── 内部辅助 ──

// validateWindow 周期表单必须有合法窗口，单次表单不能有窗口
func validateWindow(kind string, startDay, endDay *int) error {
	if kind == model.FormKindPeriodic {
		if startDay == nil || endDay == nil {
			return ErrFormWindowRequired
		}
		if *startDay < 1 || *startDay > 31 || *endDay < 1 || *endDay > 31 {
			return ErrFormWindowInvalid
		}
		return nil
	}
	if startDay != nil || endDay != nil {
		return ErrFormWindowForbidden
	}
	return nil
}

func (s *formService) checkTowers(ctx context.Context, towerIDs []string) error {
	for _, towerID := range towerIDs {
		if _, err := s.repo.Tower.GetByID(ctx, towerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrFormTowerNotFound
			}
			return err
		}
	}
	return nil
}

func toFormView(form *model.Form) *dto.FormView {
	view := &dto.FormView{
		ID:            form.FormID,
		Title:         form.Title,
		Description:   form.Description,
		Kind:          form.Kind,
		Status:        form.Status,
		IsAnonymous:   form.IsAnonymous,
		AutoActivate:  form.AutoActivate,
		TowerIDs:      form.TowerIDs,
		StartDay:      form.StartDay,
		EndDay:        form.EndDay,
		CurrentPeriod: form.CurrentPeriod,
		Questions:     toQuestionViews(form.Questions),
		CreatedAt:     form.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     form.UpdatedAt.Format(time.RFC3339),
	}
	if form.PeriodStartDate != nil {
		start := form.PeriodStartDate.Format("2006-01-02")
		view.PeriodStartDate = &start
	}
	if form.PeriodEndDate != nil {
		end := form.PeriodEndDate.Format("2006-01-02")
		view.PeriodEndDate = &end
	}
	return view
}

// [自证通过] internal/service/form_service.go
