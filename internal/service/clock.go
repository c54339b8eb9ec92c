package service

import "time"

// Clock 时钟抽象
// 周期计算与生命周期巡检不直接读取系统时钟，注入 Clock 以便确定性测试
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// NewSystemClock 创建系统时钟实例
func NewSystemClock() Clock { return systemClock{} }
