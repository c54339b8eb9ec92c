package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrUniqueViolation 唯一约束冲突：数据库层兜底的重复写入
// 提交协调器依赖 (form_id, evaluator_id, evaluation_period) 唯一索引
// 作为权威防重手段，应用层检查仅为快速路径
var ErrUniqueViolation = errors.New("记录已存在，违反唯一约束")
