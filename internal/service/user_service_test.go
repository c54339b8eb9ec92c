package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"tower-eval/backend/internal/dto"
	"tower-eval/backend/internal/model"
)

func setupTestUserService() (UserService, *testRepos) {
	repo, mocks := newTestRepos()
	assignment := NewAssignmentService(repo, zap.NewNop())
	svc := NewUserService(repo, assignment, zap.NewNop())
	_ = mocks.tower.Create(context.Background(), &model.Tower{TowerID: "tower-A", Name: "A 塔", IsActive: true})
	return svc, mocks
}

func evaluatorCreateRequest() *dto.CreateUserRequest {
	return &dto.CreateUserRequest{
		Name:     "张三",
		Email:    "zhangsan@example.com",
		Password: "secret-password",
		Role:     model.RoleClient,
		TowerIDs: []string{"tower-A"},
	}
}

// ════ CreateUser ════

func TestUserService_CreateUser_HashesPasswordAndSyncs(t *testing.T) {
	svc, mocks := setupTestUserService()
	tech := seedTechnician(mocks.technician, "技术员一", "tower-A", true)

	created, err := svc.CreateUser(context.Background(), evaluatorCreateRequest(), "admin-1")
	if err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}

	stored := mocks.user.users[created.ID]
	if stored.PasswordHash == "secret-password" {
		t.Error("密码不应明文落库")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret-password")); err != nil {
		t.Error("密码哈希应可校验原文")
	}
	// 评估人创建即收敛分配缓存
	if !sameIDSet(mocks.assignments.assignments[created.ID], []string{tech.TechnicianID}) {
		t.Errorf("新评估人应立即获得分配: %v", mocks.assignments.assignments[created.ID])
	}
}

func TestUserService_CreateUser_EmailTaken(t *testing.T) {
	svc, _ := setupTestUserService()
	if _, err := svc.CreateUser(context.Background(), evaluatorCreateRequest(), "admin-1"); err != nil {
		t.Fatalf("首次创建失败: %v", err)
	}

	dup := evaluatorCreateRequest()
	dup.Name = "李四"
	if _, err := svc.CreateUser(context.Background(), dup, "admin-1"); !errors.Is(err, ErrUserEmailTaken) {
		t.Errorf("期望 ErrUserEmailTaken，实际 %v", err)
	}
}

func TestUserService_CreateUser_DefaultsEmptyTowerScope(t *testing.T) {
	svc, mocks := setupTestUserService()
	req := evaluatorCreateRequest()
	req.Role = model.RoleAdmin
	req.TowerIDs = nil

	created, err := svc.CreateUser(context.Background(), req, "admin-1")
	if err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	if mocks.user.users[created.ID].TowerIDs == nil {
		t.Error("辖区应落库为空数组而非 NULL")
	}
}

// ════ UpdateUser ════

func TestUserService_UpdateUser_TowerScopeChange(t *testing.T) {
	svc, mocks := setupTestUserService()
	_ = mocks.tower.Create(context.Background(), &model.Tower{TowerID: "tower-B", Name: "B 塔", IsActive: true})
	techA := seedTechnician(mocks.technician, "技术员一", "tower-A", true)
	techB := seedTechnician(mocks.technician, "技术员二", "tower-B", true)
	created, _ := svc.CreateUser(context.Background(), evaluatorCreateRequest(), "admin-1")
	if !sameIDSet(mocks.assignments.assignments[created.ID], []string{techA.TechnicianID}) {
		t.Fatal("前置分配未建立")
	}

	newScope := []string{"tower-B"}
	if _, err := svc.UpdateUser(context.Background(), created.ID, &dto.UpdateUserRequest{
		TowerIDs: &newScope,
	}, "admin-1"); err != nil {
		t.Fatalf("更新辖区失败: %v", err)
	}
	if !sameIDSet(mocks.assignments.assignments[created.ID], []string{techB.TechnicianID}) {
		t.Errorf("辖区变更后分配应跟随收敛: %v", mocks.assignments.assignments[created.ID])
	}
}

func TestUserService_UpdateUser_DemotionClearsAssignments(t *testing.T) {
	svc, mocks := setupTestUserService()
	seedTechnician(mocks.technician, "技术员一", "tower-A", true)
	created, _ := svc.CreateUser(context.Background(), evaluatorCreateRequest(), "admin-1")
	if len(mocks.assignments.assignments[created.ID]) == 0 {
		t.Fatal("前置分配未建立")
	}

	newRole := model.RoleSupervisor
	if _, err := svc.UpdateUser(context.Background(), created.ID, &dto.UpdateUserRequest{
		Role: &newRole,
	}, "admin-1"); err != nil {
		t.Fatalf("角色变更失败: %v", err)
	}
	if len(mocks.assignments.assignments[created.ID]) != 0 {
		t.Errorf("评估人降级后分配缓存应清空: %v", mocks.assignments.assignments[created.ID])
	}
}

func TestUserService_UpdateUser_EmailConflict(t *testing.T) {
	svc, _ := setupTestUserService()
	first, _ := svc.CreateUser(context.Background(), evaluatorCreateRequest(), "admin-1")
	second := evaluatorCreateRequest()
	second.Email = "lisi@example.com"
	other, _ := svc.CreateUser(context.Background(), second, "admin-1")

	taken := first.Email
	if _, err := svc.UpdateUser(context.Background(), other.ID, &dto.UpdateUserRequest{
		Email: &taken,
	}, "admin-1"); !errors.Is(err, ErrUserEmailTaken) {
		t.Errorf("期望 ErrUserEmailTaken，实际 %v", err)
	}
}

// ════ DeleteUser ════

func TestUserService_DeleteUser_ClearsAssignments(t *testing.T) {
	svc, mocks := setupTestUserService()
	seedTechnician(mocks.technician, "技术员一", "tower-A", true)
	created, _ := svc.CreateUser(context.Background(), evaluatorCreateRequest(), "admin-1")

	if err := svc.DeleteUser(context.Background(), created.ID, "admin-1"); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if len(mocks.assignments.assignments[created.ID]) != 0 {
		t.Errorf("删除评估人后分配缓存应清空: %v", mocks.assignments.assignments[created.ID])
	}
	if err := svc.DeleteUser(context.Background(), created.ID, "admin-1"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际 %v", err)
	}
}
