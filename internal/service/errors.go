package service

import (
	"errors"
)

// 业务错误定义
var (
	// ErrValidation 参数或业务校验失败
	ErrValidation = errors.New("validation failed")
	// ErrInvalidTransition 状态流转不合法
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrConflict 并发冲突, 状态前置条件已被其他请求改变
	ErrConflict = errors.New("concurrent update conflict")
	// ErrForbidden 当前角色无权执行该操作
	ErrForbidden = errors.New("operation not allowed for this role")
)
