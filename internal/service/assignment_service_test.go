package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"tower-eval/backend/internal/model"
)

func setupTestAssignmentService() (AssignmentService, *testRepos) {
	repo, mocks := newTestRepos()
	svc := NewAssignmentService(repo, zap.NewNop())
	return svc, mocks
}

func seedEvaluator(users *mockUserRepo, name string, towerIDs ...string) *model.User {
	user := &model.User{
		Name:     name,
		Email:    name + "@example.com",
		Role:     model.RoleClient,
		TowerIDs: model.StringArray(towerIDs),
		IsActive: true,
	}
	_ = users.Create(context.Background(), user)
	return user
}

func seedTechnician(technicians *mockTechnicianRepo, name, towerID string, active bool) *model.Technician {
	tech := &model.Technician{
		Name:     name,
		Email:    name + "@example.com",
		TowerID:  towerID,
		IsActive: active,
	}
	_ = technicians.Create(context.Background(), tech)
	return tech
}

// ════ SyncEvaluator ════

func TestAssignmentService_SyncEvaluator_Updated(t *testing.T) {
	svc, mocks := setupTestAssignmentService()
	evaluator := seedEvaluator(mocks.user, "张三", "tower-A")
	t1 := seedTechnician(mocks.technician, "技术员一", "tower-A", true)
	t2 := seedTechnician(mocks.technician, "技术员二", "tower-A", true)
	seedTechnician(mocks.technician, "外塔技术员", "tower-B", true)
	seedTechnician(mocks.technician, "离职技术员", "tower-A", false)

	outcome, err := svc.SyncEvaluator(context.Background(), evaluator.UserID)
	if err != nil {
		t.Fatalf("同步失败: %v", err)
	}
	if outcome.Outcome != SyncOutcomeUpdated {
		t.Fatalf("期望 updated，实际 %s", outcome.Outcome)
	}
	if outcome.After != 2 {
		t.Errorf("期望分配 2 名技术员，实际 %d", outcome.After)
	}
	if !sameIDSet(mocks.assignments.assignments[evaluator.UserID], []string{t1.TechnicianID, t2.TechnicianID}) {
		t.Errorf("分配缓存应为所辖塔组在职技术员并集，实际 %v", mocks.assignments.assignments[evaluator.UserID])
	}
}

func TestAssignmentService_SyncEvaluator_Unchanged(t *testing.T) {
	svc, mocks := setupTestAssignmentService()
	evaluator := seedEvaluator(mocks.user, "张三", "tower-A")
	tech := seedTechnician(mocks.technician, "技术员一", "tower-A", true)
	mocks.assignments.assignments[evaluator.UserID] = []string{tech.TechnicianID}

	outcome, err := svc.SyncEvaluator(context.Background(), evaluator.UserID)
	if err != nil {
		t.Fatalf("同步失败: %v", err)
	}
	if outcome.Outcome != SyncOutcomeUnchanged {
		t.Errorf("集合一致应为 unchanged，实际 %s", outcome.Outcome)
	}
}

func TestAssignmentService_SyncEvaluator_SkipsNonEvaluator(t *testing.T) {
	svc, mocks := setupTestAssignmentService()
	admin := &model.User{Name: "管理员", Email: "admin@example.com", Role: model.RoleAdmin, IsActive: true}
	_ = mocks.user.Create(context.Background(), admin)

	outcome, err := svc.SyncEvaluator(context.Background(), admin.UserID)
	if err != nil {
		t.Fatalf("同步失败: %v", err)
	}
	if outcome.Outcome != SyncOutcomeSkipped {
		t.Errorf("非评估人应为 skipped，实际 %s", outcome.Outcome)
	}
}

func TestAssignmentService_SyncEvaluator_UserNotFound(t *testing.T) {
	svc, _ := setupTestAssignmentService()

	_, err := svc.SyncEvaluator(context.Background(), "ghost")
	if !errors.Is(err, ErrAssignmentUserNotFound) {
		t.Errorf("期望 ErrAssignmentUserNotFound，实际 %v", err)
	}
}

// ════ SyncAll ════

func TestAssignmentService_SyncAll_ReportCounts(t *testing.T) {
	svc, mocks := setupTestAssignmentService()
	seedEvaluator(mocks.user, "张三", "tower-A")
	inSync := seedEvaluator(mocks.user, "李四", "tower-B")
	admin := &model.User{Name: "管理员", Email: "admin@example.com", Role: model.RoleAdmin, IsActive: true}
	_ = mocks.user.Create(context.Background(), admin)

	seedTechnician(mocks.technician, "技术员一", "tower-A", true)
	techB := seedTechnician(mocks.technician, "技术员二", "tower-B", true)
	mocks.assignments.assignments[inSync.UserID] = []string{techB.TechnicianID}

	report, err := svc.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("全量同步失败: %v", err)
	}
	if report.Processed != 3 {
		t.Errorf("期望处理 3 个用户，实际 %d", report.Processed)
	}
	if report.Updated != 1 || report.Unchanged != 1 || report.Skipped != 1 {
		t.Errorf("期望 updated=1 unchanged=1 skipped=1，实际 updated=%d unchanged=%d skipped=%d",
			report.Updated, report.Unchanged, report.Skipped)
	}
}

// ════ SyncTower ════

func TestAssignmentService_SyncTower_ConvergesAffectedEvaluators(t *testing.T) {
	svc, mocks := setupTestAssignmentService()
	affected := seedEvaluator(mocks.user, "张三", "tower-A")
	other := seedEvaluator(mocks.user, "李四", "tower-B")
	newTech := seedTechnician(mocks.technician, "新技术员", "tower-A", true)

	if err := svc.SyncTower(context.Background(), "tower-A"); err != nil {
		t.Fatalf("塔组同步失败: %v", err)
	}
	if !sameIDSet(mocks.assignments.assignments[affected.UserID], []string{newTech.TechnicianID}) {
		t.Errorf("辖区覆盖该塔组的评估人应被收敛，实际 %v", mocks.assignments.assignments[affected.UserID])
	}
	if len(mocks.assignments.assignments[other.UserID]) != 0 {
		t.Errorf("无关评估人不应被改动，实际 %v", mocks.assignments.assignments[other.UserID])
	}
}

// ════ ListAssignments ════

func TestAssignmentService_ListAssignments(t *testing.T) {
	svc, mocks := setupTestAssignmentService()
	evaluator := seedEvaluator(mocks.user, "张三", "tower-A")
	tech := seedTechnician(mocks.technician, "技术员一", "tower-A", true)
	mocks.assignments.assignments[evaluator.UserID] = []string{tech.TechnicianID}

	view, err := svc.ListAssignments(context.Background(), evaluator.UserID)
	if err != nil {
		t.Fatalf("查询分配失败: %v", err)
	}
	if len(view.Technicians) != 1 {
		t.Fatalf("期望 1 名技术员，实际 %d", len(view.Technicians))
	}
	if view.Technicians[0].ID != tech.TechnicianID || view.Technicians[0].TowerID != "tower-A" {
		t.Errorf("技术员信息回填错误: %+v", view.Technicians[0])
	}
}

func TestAssignmentService_ListAssignments_NotEvaluator(t *testing.T) {
	svc, mocks := setupTestAssignmentService()
	admin := &model.User{Name: "管理员", Email: "admin@example.com", Role: model.RoleAdmin, IsActive: true}
	_ = mocks.user.Create(context.Background(), admin)

	_, err := svc.ListAssignments(context.Background(), admin.UserID)
	if !errors.Is(err, ErrAssignmentNotEvaluator) {
		t.Errorf("期望 ErrAssignmentNotEvaluator，实际 %v", err)
	}
}
