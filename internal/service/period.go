package service

import (
	"fmt"
	"time"
)

// Period 评估周期标识，表示"正在被评估的自然月"
// 内部为不透明可比较值，仅在边界处格式化为 "YYYY-MM" 展示/入库
type Period string

// NewPeriod 由年月构造周期标识
func NewPeriod(year int, month time.Month) Period {
	return Period(fmt.Sprintf("%04d-%02d", year, int(month)))
}

// PeriodOf 取给定时间所在自然月的周期标识
func PeriodOf(t time.Time) Period {
	return NewPeriod(t.Year(), t.Month())
}

// String 边界格式化
func (p Period) String() string { return string(p) }

// ════════════════════════════════════════════════════════════
// 周期计算器 — 纯函数，表单生命周期与矩阵构建的共同基础
// ════════════════════════════════════════════════════════════
//
// 评估窗口为日号区间 [startDay, endDay]（各自取值 1..31）：
//   - startDay > endDay 时窗口跨月（如 27→5）：每月 startDay 起开放，
//     次月 endDay 关闭，评估的是窗口开始所在的那个月。
//   - startDay <= endDay 时窗口不跨月（如 5→10）：评估的是当月。

// EvaluationPeriod 由"今天"与窗口配置推导当前评估的周期。
// 返回 ok=false 表示今天落在窗口缺口内（endDay < day < startDay），无有效周期。
func EvaluationPeriod(now time.Time, startDay, endDay int) (Period, bool) {
	day := now.Day()

	switch {
	case day >= startDay:
		// 窗口在本月开启：评估本月
		return PeriodOf(now), true
	case day <= endDay:
		// 窗口上月开启、本月收尾：评估上月（1 月回卷到上一年 12 月）
		prev := now.AddDate(0, 0, -day) // 回到上月最后一天
		return PeriodOf(prev), true
	default:
		return "", false
	}
}

// IsWindowActive 判断"今天"是否落在评估窗口内，生命周期巡检据此切换状态
func IsWindowActive(now time.Time, startDay, endDay int) bool {
	day := now.Day()
	if startDay > endDay {
		// 跨月窗口无当月缺口：月末段或次月月初段均开放
		return day >= startDay || day <= endDay
	}
	return day >= startDay && day <= endDay
}

// PeriodDateRange 计算当前激活窗口的具体起止时刻，用于落库
// period_start_date/period_end_date。按窗口跨月与否选取相邻月份；
// 日号超出短月时收敛到该月最后一天（如 31 号在 30 天的月取 30 号）。
// ok=false 与 EvaluationPeriod 一致，表示今天不在任何窗口分支上。
func PeriodDateRange(now time.Time, startDay, endDay int) (time.Time, time.Time, bool) {
	day := now.Day()
	loc := now.Location()

	var startYear int
	var startMonth time.Month
	switch {
	case day >= startDay:
		// 窗口本月开启
		startYear, startMonth = now.Year(), now.Month()
	case day <= endDay:
		// 窗口上月开启
		prev := now.AddDate(0, 0, -day)
		startYear, startMonth = prev.Year(), prev.Month()
	default:
		return time.Time{}, time.Time{}, false
	}

	start := time.Date(startYear, startMonth, clampDay(startYear, startMonth, startDay), 0, 0, 0, 0, loc)

	endYear, endMonth := startYear, startMonth
	if startDay > endDay {
		// 跨月窗口在次月关闭（month+1 超过 12 时由 time.Date 归一化到次年）
		next := time.Date(startYear, startMonth+1, 1, 0, 0, 0, 0, loc)
		endYear, endMonth = next.Year(), next.Month()
	}
	end := time.Date(endYear, endMonth, clampDay(endYear, endMonth, endDay), 23, 59, 59, 0, loc)

	return start, end, true
}

// clampDay 将日号收敛到该月实际天数内
func clampDay(year int, month time.Month, day int) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}
