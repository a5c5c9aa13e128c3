package statemachine

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrStateNotFound 引用了未注册的状态
	ErrStateNotFound = fmt.Errorf("state not found")

	// ErrNoStates 状态机中还没有任何状态
	ErrNoStates = fmt.Errorf("state machine has no states")

	// ErrNilGuard 添加转换时未提供守卫
	ErrNilGuard = fmt.Errorf("transition guard is nil")
)

// PreconditionError 表示调用方违反了前置条件（拓扑构建错误）。
// 状态机不会返回它，而是以它作为 panic 的值。
type PreconditionError struct {
	Op  string
	err error
}

func (e *PreconditionError) Error() string {
	return e.Op + ": " + e.err.Error()
}

// Unwrap 支持 errors.Is(err, ErrStateNotFound) 等判断
func (e *PreconditionError) Unwrap() error {
	return e.err
}

// Cause 兼容 github.com/pkg/errors
func (e *PreconditionError) Cause() error {
	return e.err
}

// StackTrace 返回触发 panic 时的调用栈
func (e *PreconditionError) StackTrace() errors.StackTrace {
	var st interface{ StackTrace() errors.StackTrace }
	if errors.As(e.err, &st) {
		return st.StackTrace()
	}
	return nil
}

// newPreconditionError 包装哨兵错误并记录调用栈
func newPreconditionError(op string, sentinel error, format string, args ...interface{}) *PreconditionError {
	return &PreconditionError{
		Op:  op,
		err: errors.Wrapf(sentinel, format, args...),
	}
}
