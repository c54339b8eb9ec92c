package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"tower-eval/backend/internal/model"
)

func setupTestCalendarService(now time.Time) (CalendarService, *testRepos) {
	repo, mocks := newTestRepos()
	svc := NewCalendarService(repo, &fixedClock{t: now}, zap.NewNop())
	return svc, mocks
}

func TestCalendarService_WindowFeed_FutureWindows(t *testing.T) {
	svc, mocks := setupTestCalendarService(date(2024, time.March, 15))
	form := seedPeriodicForm(mocks.form, "月度评估", 27, 5)

	feed, err := svc.WindowFeed(context.Background())
	if err != nil {
		t.Fatalf("生成订阅失败: %v", err)
	}
	if !strings.Contains(feed, "BEGIN:VCALENDAR") || !strings.Contains(feed, "END:VCALENDAR") {
		t.Fatal("输出应为合法 iCalendar 内容")
	}

	// 未来每个月的窗口都应有稳定 UID 的事件
	for _, period := range []string{"2024-03", "2024-04", "2024-08"} {
		uid := fmt.Sprintf("form:%s:%s", form.FormID, period)
		if !strings.Contains(feed, uid) {
			t.Errorf("订阅缺少周期 %s 的事件", period)
		}
	}
	if !strings.Contains(feed, "月度评估") {
		t.Error("事件摘要应携带表单标题")
	}
}

func TestCalendarService_WindowFeed_SkipsEndedWindows(t *testing.T) {
	// 三月窗口（5→10）在 3 月 15 日已结束，订阅从四月窗口开始
	svc, mocks := setupTestCalendarService(date(2024, time.March, 15))
	form := seedPeriodicForm(mocks.form, "月度评估", 5, 10)

	feed, err := svc.WindowFeed(context.Background())
	if err != nil {
		t.Fatalf("生成订阅失败: %v", err)
	}
	if strings.Contains(feed, fmt.Sprintf("form:%s:2024-03", form.FormID)) {
		t.Error("已结束的窗口不应出现在订阅中")
	}
	if !strings.Contains(feed, fmt.Sprintf("form:%s:2024-04", form.FormID)) {
		t.Error("下一个窗口应出现在订阅中")
	}
}

func TestCalendarService_WindowFeed_IgnoresNonPeriodicForms(t *testing.T) {
	svc, mocks := setupTestCalendarService(date(2024, time.March, 15))
	single := &model.Form{Title: "单次问卷", Kind: model.FormKindSingle, Status: model.FormStatusActive}
	_ = mocks.form.Create(context.Background(), single)
	manual := seedPeriodicForm(mocks.form, "手动表单", 27, 5)
	manual.AutoActivate = false

	feed, err := svc.WindowFeed(context.Background())
	if err != nil {
		t.Fatalf("生成订阅失败: %v", err)
	}
	if strings.Contains(feed, single.FormID) || strings.Contains(feed, manual.FormID) {
		t.Error("单次与手动表单不应出现在订阅中")
	}
}

func TestCalendarService_WindowFeed_EmptyCatalog(t *testing.T) {
	svc, _ := setupTestCalendarService(date(2024, time.March, 15))

	feed, err := svc.WindowFeed(context.Background())
	if err != nil {
		t.Fatalf("生成订阅失败: %v", err)
	}
	if strings.Contains(feed, "BEGIN:VEVENT") {
		t.Error("无周期表单时订阅不应包含事件")
	}
}
