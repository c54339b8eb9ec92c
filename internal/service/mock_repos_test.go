package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"tower-eval/backend/internal/model"
	"tower-eval/backend/internal/repository"
	pkgerrors "tower-eval/backend/pkg/errors"
)

// ── 固定时钟 ──

type fixedClock struct {
	t time.Time
}

func (c *fixedClock) Now() time.Time { return c.t }

// ── Mock TowerRepository ──

type mockTowerRepo struct {
	towers map[string]*model.Tower
}

func newMockTowerRepo() *mockTowerRepo {
	return &mockTowerRepo{towers: make(map[string]*model.Tower)}
}

func (m *mockTowerRepo) Create(_ context.Context, tower *model.Tower) error {
	if tower.TowerID == "" {
		tower.TowerID = "tower-" + tower.Name
	}
	m.towers[tower.TowerID] = tower
	return nil
}

func (m *mockTowerRepo) GetByID(_ context.Context, id string) (*model.Tower, error) {
	if t, ok := m.towers[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTowerRepo) List(_ context.Context) ([]model.Tower, error) {
	var result []model.Tower
	for _, t := range m.towers {
		result = append(result, *t)
	}
	return result, nil
}

func (m *mockTowerRepo) ListByIDs(_ context.Context, ids []string) ([]model.Tower, error) {
	var result []model.Tower
	for _, id := range ids {
		if t, ok := m.towers[id]; ok {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (m *mockTowerRepo) Update(_ context.Context, tower *model.Tower) error {
	m.towers[tower.TowerID] = tower
	return nil
}

func (m *mockTowerRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.towers, id)
	return nil
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.Email
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) List(_ context.Context) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		result = append(result, *u)
	}
	return result, nil
}

func (m *mockUserRepo) ListByRole(_ context.Context, role string) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.Role == role {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id string, passwordHash string) error {
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.users, id)
	return nil
}

// ── Mock TechnicianRepository ──

type mockTechnicianRepo struct {
	technicians map[string]*model.Technician
}

func newMockTechnicianRepo() *mockTechnicianRepo {
	return &mockTechnicianRepo{technicians: make(map[string]*model.Technician)}
}

func (m *mockTechnicianRepo) Create(_ context.Context, technician *model.Technician) error {
	if technician.TechnicianID == "" {
		technician.TechnicianID = "tech-" + technician.Name
	}
	m.technicians[technician.TechnicianID] = technician
	return nil
}

func (m *mockTechnicianRepo) GetByID(_ context.Context, id string) (*model.Technician, error) {
	if t, ok := m.technicians[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTechnicianRepo) List(_ context.Context) ([]model.Technician, error) {
	var result []model.Technician
	for _, t := range m.technicians {
		result = append(result, *t)
	}
	return result, nil
}

func (m *mockTechnicianRepo) ListByTower(_ context.Context, towerID string) ([]model.Technician, error) {
	var result []model.Technician
	for _, t := range m.technicians {
		if t.TowerID == towerID {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (m *mockTechnicianRepo) ListByTowers(_ context.Context, towerIDs []string) ([]model.Technician, error) {
	idSet := make(map[string]bool, len(towerIDs))
	for _, id := range towerIDs {
		idSet[id] = true
	}
	var result []model.Technician
	for _, t := range m.technicians {
		if idSet[t.TowerID] && t.IsActive {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (m *mockTechnicianRepo) Update(_ context.Context, technician *model.Technician) error {
	m.technicians[technician.TechnicianID] = technician
	return nil
}

func (m *mockTechnicianRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.technicians, id)
	return nil
}

// ── Mock FormRepository ──

type mockFormRepo struct {
	forms map[string]*model.Form
	// lifecycleErrs 按 formID 注入 UpdateLifecycle 错误，用于巡检失败隔离测试
	lifecycleErrs map[string]error
	// statusErrs 按 formID 注入 UpdateStatus 错误，用于并发冲突路径测试
	statusErrs map[string]error
}

func newMockFormRepo() *mockFormRepo {
	return &mockFormRepo{
		forms:         make(map[string]*model.Form),
		lifecycleErrs: make(map[string]error),
		statusErrs:    make(map[string]error),
	}
}

func (m *mockFormRepo) Create(_ context.Context, form *model.Form) error {
	if form.FormID == "" {
		form.FormID = "form-" + form.Title
	}
	for i := range form.Questions {
		if form.Questions[i].QuestionID == "" {
			form.Questions[i].QuestionID = fmt.Sprintf("%s-q%d", form.FormID, i+1)
		}
		form.Questions[i].FormID = form.FormID
	}
	m.forms[form.FormID] = form
	return nil
}

func (m *mockFormRepo) GetByID(_ context.Context, id string) (*model.Form, error) {
	if f, ok := m.forms[id]; ok {
		return f, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFormRepo) List(_ context.Context) ([]model.Form, error) {
	var result []model.Form
	for _, f := range m.forms {
		result = append(result, *f)
	}
	return result, nil
}

func (m *mockFormRepo) ListPeriodicAutoActivate(_ context.Context) ([]model.Form, error) {
	var result []model.Form
	for _, f := range m.forms {
		if f.Kind == model.FormKindPeriodic && f.AutoActivate {
			result = append(result, *f)
		}
	}
	return result, nil
}

func (m *mockFormRepo) ListActiveByTower(_ context.Context, towerID string) ([]model.Form, error) {
	var result []model.Form
	for _, f := range m.forms {
		if f.Status == model.FormStatusActive && f.TowerIDs.Contains(towerID) {
			result = append(result, *f)
		}
	}
	return result, nil
}

func (m *mockFormRepo) Update(_ context.Context, form *model.Form) error {
	m.forms[form.FormID] = form
	return nil
}

func (m *mockFormRepo) UpdateLifecycle(_ context.Context, formID string, status string, currentPeriod *string, periodStart, periodEnd *time.Time) error {
	if err, ok := m.lifecycleErrs[formID]; ok {
		return err
	}
	f, ok := m.forms[formID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.Status = status
	if currentPeriod != nil {
		f.CurrentPeriod = currentPeriod
		f.PeriodStartDate = periodStart
		f.PeriodEndDate = periodEnd
	}
	return nil
}

func (m *mockFormRepo) UpdateStatus(_ context.Context, formID string, fromStatus, toStatus string, _ string) error {
	if err, ok := m.statusErrs[formID]; ok {
		return err
	}
	f, ok := m.forms[formID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if f.Status != fromStatus {
		return pkgerrors.ErrOptimisticLock
	}
	f.Status = toStatus
	return nil
}

func (m *mockFormRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.forms, id)
	return nil
}

// ── Mock FormResponseRepository ──

type mockFormResponseRepo struct {
	responses []*model.FormResponse
	seq       int
	// readSkew 为真时存在性查询始终未命中，模拟并发提交下快速路径失效、
	// 由唯一索引兜底的场景
	readSkew bool
}

func newMockFormResponseRepo() *mockFormResponseRepo {
	return &mockFormResponseRepo{}
}

func (m *mockFormResponseRepo) CreateWithAnswers(_ context.Context, response *model.FormResponse) error {
	// 与数据库部分唯一索引同语义：匿名（EvaluatorID 为空）不参与防重
	if response.EvaluatorID != nil {
		for _, r := range m.responses {
			if r.EvaluatorID == nil || r.FormID != response.FormID {
				continue
			}
			if *r.EvaluatorID == *response.EvaluatorID && periodEqual(r.EvaluationPeriod, response.EvaluationPeriod) {
				return pkgerrors.ErrUniqueViolation
			}
		}
	}

	m.seq++
	response.ResponseID = fmt.Sprintf("resp-%d", m.seq)
	for i := range response.Answers {
		response.Answers[i].ResponseID = response.ResponseID
	}
	m.responses = append(m.responses, response)
	return nil
}

func (m *mockFormResponseRepo) GetByID(_ context.Context, id string) (*model.FormResponse, error) {
	for _, r := range m.responses {
		if r.ResponseID == id {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFormResponseRepo) GetByFormEvaluatorPeriod(_ context.Context, formID, evaluatorID string, period *string) (*model.FormResponse, error) {
	if m.readSkew {
		return nil, gorm.ErrRecordNotFound
	}
	for _, r := range m.responses {
		if r.FormID != formID || r.EvaluatorID == nil || *r.EvaluatorID != evaluatorID {
			continue
		}
		if periodEqual(r.EvaluationPeriod, period) {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFormResponseRepo) ListByEvaluatorForms(_ context.Context, evaluatorID string, formIDs []string) ([]model.FormResponse, error) {
	idSet := make(map[string]bool, len(formIDs))
	for _, id := range formIDs {
		idSet[id] = true
	}
	var result []model.FormResponse
	for _, r := range m.responses {
		if r.EvaluatorID != nil && *r.EvaluatorID == evaluatorID && idSet[r.FormID] {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockFormResponseRepo) ListByForm(_ context.Context, formID string) ([]model.FormResponse, error) {
	var result []model.FormResponse
	for _, r := range m.responses {
		if r.FormID == formID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockFormResponseRepo) CountByForm(_ context.Context, formID string) (int64, error) {
	var count int64
	for _, r := range m.responses {
		if r.FormID == formID {
			count++
		}
	}
	return count, nil
}

func periodEqual(a, b *string) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

// ── Mock EvaluatorAssignmentRepository ──

// mockAssignmentRepo 分配缓存 Mock；technicians 用于 Preload 语义的 Technician 填充
type mockAssignmentRepo struct {
	assignments map[string][]string // evaluatorID → technicianIDs
	technicians *mockTechnicianRepo
}

func newMockAssignmentRepo(technicians *mockTechnicianRepo) *mockAssignmentRepo {
	return &mockAssignmentRepo{
		assignments: make(map[string][]string),
		technicians: technicians,
	}
}

func (m *mockAssignmentRepo) ListByEvaluator(_ context.Context, evaluatorID string) ([]model.EvaluatorAssignment, error) {
	var result []model.EvaluatorAssignment
	for _, tid := range m.assignments[evaluatorID] {
		a := model.EvaluatorAssignment{
			EvaluatorID:  evaluatorID,
			TechnicianID: tid,
		}
		if t, ok := m.technicians.technicians[tid]; ok {
			a.Technician = t
		}
		result = append(result, a)
	}
	return result, nil
}

func (m *mockAssignmentRepo) ReplaceForEvaluator(_ context.Context, evaluatorID string, technicianIDs []string) error {
	if len(technicianIDs) == 0 {
		delete(m.assignments, evaluatorID)
		return nil
	}
	m.assignments[evaluatorID] = append([]string(nil), technicianIDs...)
	return nil
}

// ── 公共辅助 ──

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

// ── 聚合构建辅助 ──

type testRepos struct {
	tower       *mockTowerRepo
	user        *mockUserRepo
	technician  *mockTechnicianRepo
	form        *mockFormRepo
	response    *mockFormResponseRepo
	assignments *mockAssignmentRepo
}

func newTestRepos() (*repository.Repository, *testRepos) {
	mocks := &testRepos{
		tower:      newMockTowerRepo(),
		user:       newMockUserRepo(),
		technician: newMockTechnicianRepo(),
		form:       newMockFormRepo(),
		response:   newMockFormResponseRepo(),
	}
	mocks.assignments = newMockAssignmentRepo(mocks.technician)

	repo := &repository.Repository{
		Tower:               mocks.tower,
		User:                mocks.user,
		Technician:          mocks.technician,
		Form:                mocks.form,
		FormResponse:        mocks.response,
		EvaluatorAssignment: mocks.assignments,
	}
	return repo, mocks
}
