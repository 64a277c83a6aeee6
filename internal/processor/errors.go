package processor

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	ErrApplicationNotFound = errors.New("申请不存在")
	ErrJobNotFound         = errors.New("岗位不存在")
	ErrReadResumeFailed    = errors.New("读取简历文件失败")
	ErrPersistFailed       = errors.New("保存处理结果失败")
	ErrLockFailed          = errors.New("获取处理锁失败")
	ErrUnexpectedPanic     = errors.New("处理过程中发生panic")
)

// PipelineError 包含详细错误信息的自定义错误
type PipelineError struct {
	ApplicationID string
	Op            string
	Err           error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%v (操作:%s, 申请:%s)", e.Err, e.Op, e.ApplicationID)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *PipelineError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func newPipelineError(applicationID, op string, base, cause error) error {
	err := base
	if cause != nil {
		err = fmt.Errorf("%w: %v", base, cause)
	}
	return &PipelineError{ApplicationID: applicationID, Op: op, Err: err}
}
