package core

import (
	"fmt"
	"reflect"

	"gensvc/errors"
)

// ConfigurationError 调用方或 DTO 声明有误（类型无法解析、期望不匹配、过滤条件非法）。
// 这类错误不进入 SuccessOrErrors，而是以 panic 暴露。
type ConfigurationError struct {
	Type    reflect.Type
	Message string
}

// NewConfigurationError 创建配置错误，t 可以为 nil
func NewConfigurationError(t reflect.Type, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Type: t, Message: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	if e.Type == nil {
		return "configuration error: " + e.Message
	}
	return fmt.Sprintf("configuration error for type %s: %s", e.Type, e.Message)
}

// ErrorCode 供 errors.Normalize 识别
func (e *ConfigurationError) ErrorCode() errors.ErrorCode { return errors.ErrCodeConfiguration }

// Unwrap 使 errors.Is(err, errors.ErrConfiguration) 成立
func (e *ConfigurationError) Unwrap() error { return errors.ErrConfiguration }
