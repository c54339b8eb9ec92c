package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"tower-eval/backend/internal/dto"
	"tower-eval/backend/internal/model"
)

func setupTestMatrixService(now time.Time) (MatrixService, *testRepos) {
	repo, mocks := newTestRepos()
	clock := &fixedClock{t: now}
	lifecycle := NewLifecycleService(repo, clock, zap.NewNop())
	svc := NewMatrixService(repo, lifecycle, clock, zap.NewNop())
	return svc, mocks
}

// seedMatrixScene 搭建矩阵测试基线：塔组 A、评估人（辖区 A）、两名在职技术员
func seedMatrixScene(mocks *testRepos) (*model.User, []*model.Technician) {
	_ = mocks.tower.Create(context.Background(), &model.Tower{TowerID: "tower-A", Name: "A 塔"})
	evaluator := seedEvaluator(mocks.user, "张三", "tower-A")
	t1 := seedTechnician(mocks.technician, "技术员一", "tower-A", true)
	t2 := seedTechnician(mocks.technician, "技术员二", "tower-A", true)
	mocks.assignments.assignments[evaluator.UserID] = []string{t1.TechnicianID, t2.TechnicianID}
	return evaluator, []*model.Technician{t1, t2}
}

// seedActiveForm 塞入一个手动管理的激活表单（不受巡检影响）
func seedActiveForm(forms *mockFormRepo, title, kind string, startDay, endDay *int, towerIDs ...string) *model.Form {
	form := &model.Form{
		Title:    title,
		Kind:     kind,
		Status:   model.FormStatusActive,
		StartDay: startDay,
		EndDay:   endDay,
		TowerIDs: model.StringArray(towerIDs),
	}
	_ = forms.Create(context.Background(), form)
	return form
}

// ════ BuildMatrix ════

func TestMatrixService_BuildMatrix_NoTechnicians(t *testing.T) {
	svc, mocks := setupTestMatrixService(date(2024, time.March, 28))
	_ = mocks.tower.Create(context.Background(), &model.Tower{TowerID: "tower-A", Name: "A 塔"})
	evaluator := seedEvaluator(mocks.user, "张三", "tower-A")

	matrix, err := svc.BuildMatrix(context.Background(), evaluator.UserID, "tower-A")
	if err != nil {
		t.Fatalf("构建矩阵失败: %v", err)
	}
	if matrix.Status != dto.MatrixStatusNoTechnicians {
		t.Errorf("期望 no_technicians，实际 %s", matrix.Status)
	}
	if matrix.Cells == nil || len(matrix.Cells) != 0 {
		t.Errorf("单元格应为空数组，实际 %v", matrix.Cells)
	}
}

func TestMatrixService_BuildMatrix_NoActiveForms(t *testing.T) {
	svc, mocks := setupTestMatrixService(date(2024, time.March, 28))
	evaluator, _ := seedMatrixScene(mocks)

	matrix, err := svc.BuildMatrix(context.Background(), evaluator.UserID, "tower-A")
	if err != nil {
		t.Fatalf("构建矩阵失败: %v", err)
	}
	if matrix.Status != dto.MatrixStatusNoActiveForms {
		t.Errorf("期望 no_active_forms，实际 %s", matrix.Status)
	}
	if matrix.Stats.TotalTechnicians != 2 {
		t.Errorf("统计应回显技术员数量，实际 %d", matrix.Stats.TotalTechnicians)
	}
}

func TestMatrixService_BuildMatrix_PeriodicCompletion(t *testing.T) {
	now := date(2024, time.March, 28)
	svc, mocks := setupTestMatrixService(now)
	evaluator, _ := seedMatrixScene(mocks)
	form := seedActiveForm(mocks.form, "月度评估", model.FormKindPeriodic, intPtr(27), intPtr(5), "tower-A")

	// 当前周期（2024-03）的响应计完成；历史周期的响应不计
	_ = mocks.response.CreateWithAnswers(context.Background(), &model.FormResponse{
		FormID:           form.FormID,
		EvaluatorID:      &evaluator.UserID,
		EvaluationPeriod: strPtr("2024-02"),
		SubmittedAt:      now.AddDate(0, -1, 0),
	})

	matrix, err := svc.BuildMatrix(context.Background(), evaluator.UserID, "tower-A")
	if err != nil {
		t.Fatalf("构建矩阵失败: %v", err)
	}
	if matrix.Stats.CompletedEvaluations != 0 {
		t.Fatalf("历史周期响应不应计入当前周期完成度，实际 %d", matrix.Stats.CompletedEvaluations)
	}

	_ = mocks.response.CreateWithAnswers(context.Background(), &model.FormResponse{
		FormID:           form.FormID,
		EvaluatorID:      &evaluator.UserID,
		EvaluationPeriod: strPtr("2024-03"),
		SubmittedAt:      now,
	})

	matrix, err = svc.BuildMatrix(context.Background(), evaluator.UserID, "tower-A")
	if err != nil {
		t.Fatalf("构建矩阵失败: %v", err)
	}
	if matrix.Status != dto.MatrixStatusOK {
		t.Fatalf("期望 ok，实际 %s", matrix.Status)
	}
	// 完成判定按 (评估人, 表单, 周期)，一次提交覆盖全部技术员行
	if len(matrix.Cells) != 2 {
		t.Fatalf("期望 2 个单元格，实际 %d", len(matrix.Cells))
	}
	for _, cell := range matrix.Cells {
		if !cell.IsCompleted {
			t.Errorf("技术员 %s 的单元格应为已完成", cell.TechnicianName)
		}
		if cell.Period == nil || *cell.Period != "2024-03" {
			t.Errorf("单元格应标注当前周期，实际 %v", cell.Period)
		}
	}
	if matrix.Stats.Progress != 100 {
		t.Errorf("完成度期望 100，实际 %d", matrix.Stats.Progress)
	}
}

func TestMatrixService_BuildMatrix_SingleFormCompletion(t *testing.T) {
	now := date(2024, time.March, 15)
	svc, mocks := setupTestMatrixService(now)
	evaluator, _ := seedMatrixScene(mocks)
	form := seedActiveForm(mocks.form, "单次问卷", model.FormKindSingle, nil, nil, "tower-A")

	_ = mocks.response.CreateWithAnswers(context.Background(), &model.FormResponse{
		FormID:      form.FormID,
		EvaluatorID: &evaluator.UserID,
		SubmittedAt: now,
	})

	matrix, err := svc.BuildMatrix(context.Background(), evaluator.UserID, "tower-A")
	if err != nil {
		t.Fatalf("构建矩阵失败: %v", err)
	}
	if matrix.Stats.CompletedEvaluations != 2 {
		t.Errorf("单次表单存在响应即全行完成，实际 completed=%d", matrix.Stats.CompletedEvaluations)
	}
	for _, cell := range matrix.Cells {
		if cell.Period != nil {
			t.Errorf("单次表单单元格不应携带周期，实际 %v", cell.Period)
		}
	}
}

func TestMatrixService_BuildMatrix_ProgressRounding(t *testing.T) {
	now := date(2024, time.March, 28)
	svc, mocks := setupTestMatrixService(now)
	evaluator, _ := seedMatrixScene(mocks)
	done := seedActiveForm(mocks.form, "表单甲", model.FormKindPeriodic, intPtr(27), intPtr(5), "tower-A")
	seedActiveForm(mocks.form, "表单乙", model.FormKindPeriodic, intPtr(27), intPtr(5), "tower-A")
	seedActiveForm(mocks.form, "表单丙", model.FormKindPeriodic, intPtr(27), intPtr(5), "tower-A")

	_ = mocks.response.CreateWithAnswers(context.Background(), &model.FormResponse{
		FormID:           done.FormID,
		EvaluatorID:      &evaluator.UserID,
		EvaluationPeriod: strPtr("2024-03"),
		SubmittedAt:      now,
	})

	matrix, err := svc.BuildMatrix(context.Background(), evaluator.UserID, "tower-A")
	if err != nil {
		t.Fatalf("构建矩阵失败: %v", err)
	}
	// 2 技术员 × 3 表单 = 6 格，完成 2 格 → 33%
	if matrix.Stats.TotalEvaluations != 6 || matrix.Stats.CompletedEvaluations != 2 {
		t.Fatalf("统计错误: total=%d completed=%d", matrix.Stats.TotalEvaluations, matrix.Stats.CompletedEvaluations)
	}
	if matrix.Stats.Progress != 33 {
		t.Errorf("完成度期望四舍五入到 33，实际 %d", matrix.Stats.Progress)
	}
}

func TestMatrixService_BuildMatrix_FiltersForeignAndInactive(t *testing.T) {
	svc, mocks := setupTestMatrixService(date(2024, time.March, 28))
	evaluator, _ := seedMatrixScene(mocks)
	foreign := seedTechnician(mocks.technician, "外塔技术员", "tower-B", true)
	inactive := seedTechnician(mocks.technician, "离职技术员", "tower-A", false)
	mocks.assignments.assignments[evaluator.UserID] = append(
		mocks.assignments.assignments[evaluator.UserID], foreign.TechnicianID, inactive.TechnicianID)
	seedActiveForm(mocks.form, "月度评估", model.FormKindPeriodic, intPtr(27), intPtr(5), "tower-A")

	matrix, err := svc.BuildMatrix(context.Background(), evaluator.UserID, "tower-A")
	if err != nil {
		t.Fatalf("构建矩阵失败: %v", err)
	}
	if matrix.Stats.TotalTechnicians != 2 {
		t.Errorf("外塔与离职技术员应被过滤，实际 %d", matrix.Stats.TotalTechnicians)
	}
}

func TestMatrixService_BuildMatrix_TowerVisibility(t *testing.T) {
	svc, mocks := setupTestMatrixService(date(2024, time.March, 28))
	_ = mocks.tower.Create(context.Background(), &model.Tower{TowerID: "tower-B", Name: "B 塔"})
	evaluator, _ := seedMatrixScene(mocks)

	// 评估人越权查询辖区外塔组
	if _, err := svc.BuildMatrix(context.Background(), evaluator.UserID, "tower-B"); !errors.Is(err, ErrMatrixTowerNotVisible) {
		t.Errorf("期望 ErrMatrixTowerNotVisible，实际 %v", err)
	}

	// supervisor 不受辖区限制
	supervisor := &model.User{Name: "主管", Email: "sup@example.com", Role: model.RoleSupervisor, IsActive: true}
	_ = mocks.user.Create(context.Background(), supervisor)
	if _, err := svc.BuildMatrix(context.Background(), supervisor.UserID, "tower-B"); err != nil {
		t.Errorf("supervisor 查询任意塔组不应报错: %v", err)
	}
}

func TestMatrixService_BuildMatrix_TowerNotFound(t *testing.T) {
	svc, mocks := setupTestMatrixService(date(2024, time.March, 28))
	evaluator, _ := seedMatrixScene(mocks)

	if _, err := svc.BuildMatrix(context.Background(), evaluator.UserID, "ghost"); !errors.Is(err, ErrMatrixTowerNotFound) {
		t.Errorf("期望 ErrMatrixTowerNotFound，实际 %v", err)
	}
}

// [自证通过] internal/service/matrix_service_test.go
