package request

import (
	"errors"
	"fmt"
)

// 引擎错误分类
// 四类错误均可恢复：由调用方决定是否刷新重试，引擎自身从不自动重试，
// 也绝不把失败降级为无操作的"成功"
var (
	// ErrNotFound 申请单不存在
	ErrNotFound = errors.New("申请单不存在")

	// ErrPermissionDenied 操作者不是该操作允许的角色
	ErrPermissionDenied = errors.New("无权执行该操作")

	// ErrStateConflict 申请单不在操作要求的前置状态（已终态或并发竞争失败）
	ErrStateConflict = errors.New("申请单状态已变更，无法执行该操作")
)

// ValidationError 载荷校验错误
type ValidationError struct {
	Message string
}

// Error 实现 error 接口
func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError 创建校验错误
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError 判断是否为校验错误
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
