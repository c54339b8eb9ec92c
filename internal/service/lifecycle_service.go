package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tower-eval/backend/internal/dto"
	"tower-eval/backend/internal/model"
	"tower-eval/backend/internal/repository"
)

// ── 生命周期巡检结果 ──

const (
	SweepOutcomeActivated = "activated"
	SweepOutcomeClosed    = "closed"
	SweepOutcomeUnchanged = "unchanged"
	SweepOutcomeFailed    = "failed"
)

// LifecycleService 周期表单生命周期巡检接口
//
// 设计说明：
//   - 巡检对同一时刻幂等：同一 now 重复执行不产生额外状态变更，
//     因此外部可以任意节奏触发（定时器、矩阵查询前、管理端手动）。
//   - 单表单失败只记入结果，不中断整批。
//   - 单次表单（kind=single）不参与巡检，状态只随手动操作变化。
type LifecycleService interface {
	// Sweep 扫描全部 periodic + auto_activate 表单并执行状态流转
	Sweep(ctx context.Context) (*dto.SweepResult, error)
}

type lifecycleService struct {
	repo   *repository.Repository
	clock  Clock
	logger *zap.Logger
}

// NewLifecycleService 创建 LifecycleService 实例
func NewLifecycleService(repo *repository.Repository, clock Clock, logger *zap.Logger) LifecycleService {
	return &lifecycleService{repo: repo, clock: clock, logger: logger}
}

// ════════════════════════════════════════════════════════════
// Sweep — 生命周期巡检
// ════════════════════════════════════════════════════════════
//
// 状态机（仅 periodic + auto_activate）：
//   draft/closed ──窗口开启──▶ active（记账 current_period + 窗口起止）
//   active ──新周期开启──▶ active（换周期，重新记账）
//   active ──窗口关闭──▶ closed（current_period 保留最后值供审计）

func (s *lifecycleService) Sweep(ctx context.Context) (*dto.SweepResult, error) {
	forms, err := s.repo.Form.ListPeriodicAutoActivate(ctx)
	if err != nil {
		s.logger.Error("查询待巡检表单失败", zap.Error(err))
		return nil, err
	}

	now := s.clock.Now()
	result := &dto.SweepResult{Total: len(forms)}

	for i := range forms {
		outcome := s.sweepForm(ctx, &forms[i], now)
		result.Details = append(result.Details, outcome)

		switch outcome.Outcome {
		case SweepOutcomeActivated:
			result.Activated++
		case SweepOutcomeClosed:
			result.Closed++
		case SweepOutcomeFailed:
			result.Failed++
		default:
			result.Unchanged++
		}
	}

	if result.Activated > 0 || result.Closed > 0 || result.Failed > 0 {
		s.logger.Info("生命周期巡检完成",
			zap.Int("total", result.Total),
			zap.Int("activated", result.Activated),
			zap.Int("closed", result.Closed),
			zap.Int("failed", result.Failed),
		)
	}

	return result, nil
}

// sweepForm 处理单个表单的状态流转；任何失败只落入 outcome，不向上传播
func (s *lifecycleService) sweepForm(ctx context.Context, form *model.Form, now time.Time) dto.SweepOutcome {
	outcome := dto.SweepOutcome{FormID: form.FormID, Title: form.Title}

	// 数据完整性兜底：periodic 表单理应始终携带窗口
	if form.StartDay == nil || form.EndDay == nil {
		outcome.Outcome = SweepOutcomeFailed
		outcome.Error = "周期表单缺失评估窗口配置"
		s.logger.Warn("周期表单缺失评估窗口", zap.String("formID", form.FormID))
		return outcome
	}

	startDay, endDay := *form.StartDay, *form.EndDay

	shouldBeActive := IsWindowActive(now, startDay, endDay)
	period, hasPeriod := EvaluationPeriod(now, startDay, endDay)

	switch {
	case shouldBeActive && hasPeriod:
		// 已在同一周期内激活时为无操作（幂等）
		if form.Status == model.FormStatusActive &&
			form.CurrentPeriod != nil && *form.CurrentPeriod == period.String() {
			outcome.Outcome = SweepOutcomeUnchanged
			return outcome
		}

		periodStart, periodEnd, _ := PeriodDateRange(now, startDay, endDay)
		periodStr := period.String()
		if err := s.repo.Form.UpdateLifecycle(ctx, form.FormID, model.FormStatusActive, &periodStr, &periodStart, &periodEnd); err != nil {
			outcome.Outcome = SweepOutcomeFailed
			outcome.Error = err.Error()
			s.logger.Error("激活表单失败", zap.String("formID", form.FormID), zap.Error(err))
			return outcome
		}

		outcome.Outcome = SweepOutcomeActivated
		outcome.Period = periodStr
		return outcome

	case form.Status == model.FormStatusActive:
		// 窗口已关闭：active → closed，current_period 保留最后值
		if err := s.repo.Form.UpdateLifecycle(ctx, form.FormID, model.FormStatusClosed, nil, nil, nil); err != nil {
			outcome.Outcome = SweepOutcomeFailed
			outcome.Error = err.Error()
			s.logger.Error("关闭表单失败", zap.String("formID", form.FormID), zap.Error(err))
			return outcome
		}

		outcome.Outcome = SweepOutcomeClosed
		if form.CurrentPeriod != nil {
			outcome.Period = *form.CurrentPeriod
		}
		return outcome

	default:
		outcome.Outcome = SweepOutcomeUnchanged
		return outcome
	}
}
