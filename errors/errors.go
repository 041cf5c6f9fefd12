// Package errors 提供服务层统一的错误码体系。
//
// 业务结果（校验失败、未找到等）通过 status.SuccessOrErrors 返回，
// 这里的 AppError 用于基础设施错误与配置错误的规范化。
package errors

import (
	stdErrors "errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrorCode 错误代码类型
type ErrorCode string

const (
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeAmbiguous     ErrorCode = "AMBIGUOUS_MATCH"
	ErrCodeUnsupported   ErrorCode = "UNSUPPORTED"
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeDuplicate     ErrorCode = "DUPLICATE_ERROR"
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"

	// 基础设施错误代码
	ErrCodeDatabase ErrorCode = "DATABASE_ERROR"
	ErrCodeQueue    ErrorCode = "QUEUE_ERROR"
)

// IError 错误接口
type IError interface {
	error

	Code() ErrorCode
	Message() string
	Cause() error
	Details() map[string]any
	Stack() string

	// WithDetails 返回附加详情后的副本
	WithDetails(details map[string]any) IError

	// WithContext 返回附加单个上下文键值后的副本
	WithContext(key string, value any) IError
}

// AppError 应用错误实现
type AppError struct {
	code    ErrorCode
	message string
	cause   error
	details map[string]any
	stack   string
}

// NewError 创建新错误
func NewError(code ErrorCode, message string) IError {
	return &AppError{
		code:    code,
		message: message,
		details: make(map[string]any),
		stack:   captureStack(),
	}
}

// NewErrorf 按格式创建新错误
func NewErrorf(code ErrorCode, format string, args ...any) IError {
	return NewError(code, fmt.Sprintf(format, args...))
}

// WrapError 包装错误，err 为 nil 时返回 nil
func WrapError(err error, code ErrorCode, message string) IError {
	if err == nil {
		return nil
	}
	return &AppError{
		code:    code,
		message: message,
		cause:   err,
		details: make(map[string]any),
		stack:   captureStack(),
	}
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.code, e.message)
}

func (e *AppError) Code() ErrorCode { return e.code }
func (e *AppError) Message() string { return e.message }
func (e *AppError) Cause() error    { return e.cause }
func (e *AppError) Stack() string   { return e.stack }

// Details 获取错误详情
func (e *AppError) Details() map[string]any {
	if e.details == nil {
		e.details = make(map[string]any)
	}
	return e.details
}

// Is 同错误码的 AppError 视为同类错误，否则沿 cause 比较
func (e *AppError) Is(target error) bool {
	if target == nil {
		return false
	}
	if appErr, ok := target.(*AppError); ok {
		return e.code == appErr.code
	}
	if e.cause != nil {
		return stdErrors.Is(e.cause, target)
	}
	return false
}

// Unwrap 支持 errors.Unwrap
func (e *AppError) Unwrap() error { return e.cause }

func (e *AppError) WithDetails(details map[string]any) IError {
	merged := copyMap(e.details)
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{code: e.code, message: e.message, cause: e.cause, details: merged, stack: e.stack}
}

func (e *AppError) WithContext(key string, value any) IError {
	return e.WithDetails(map[string]any{key: value})
}

// 预定义错误变量，仅用于 errors.Is 比较
var (
	ErrNotFound      = NewError(ErrCodeNotFound, "资源未找到")
	ErrValidation    = NewError(ErrCodeValidation, "数据验证失败")
	ErrDuplicate     = NewError(ErrCodeDuplicate, "数据重复")
	ErrConfiguration = NewError(ErrCodeConfiguration, "服务配置错误")
	ErrDatabase      = NewError(ErrCodeDatabase, "数据库错误")
)

// IsNotFound 检查是否为未找到错误
func IsNotFound(err error) bool { return IsErrorCode(err, ErrCodeNotFound) }

// IsValidation 检查是否为验证错误
func IsValidation(err error) bool { return IsErrorCode(err, ErrCodeValidation) }

// IsConfiguration 检查是否为配置错误
func IsConfiguration(err error) bool { return IsErrorCode(err, ErrCodeConfiguration) }

// IsErrorCode 检查错误链上是否有指定错误码的 AppError
func IsErrorCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	var appErr *AppError
	if stdErrors.As(err, &appErr) {
		return appErr.code == code
	}
	return false
}

// GetErrorCode 获取错误代码，未识别的错误视为内部错误
func GetErrorCode(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stdErrors.As(err, &appErr) {
		return appErr.code
	}
	return ErrCodeInternal
}

func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var builder strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		builder.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		if !more {
			break
		}
	}
	return builder.String()
}

func copyMap(original map[string]any) map[string]any {
	copied := make(map[string]any, len(original))
	for k, v := range original {
		copied[k] = v
	}
	return copied
}
