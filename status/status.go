// Package status 提供所有服务操作统一返回的结果类型。
//
// 业务失败（能力不支持、未找到、校验失败、保存失败）一律通过 SuccessOrErrors
// 的错误列表返回，不以 error 或 panic 形式抛出。
package status

import (
	"fmt"
	"strings"

	"gensvc/errors"
	"gensvc/validation"
)

// ErrorDetail 一条错误消息及其关联的成员（字段）名
type ErrorDetail struct {
	Message string
	Members []string
}

func (d ErrorDetail) String() string {
	if len(d.Members) == 0 {
		return d.Message
	}
	return strings.Join(d.Members, ",") + ": " + d.Message
}

// SuccessOrErrors 操作结果：没有错误即有效。
// 有效时可设置成功消息；错误只追加、按发现顺序保存。
type SuccessOrErrors struct {
	errors         []ErrorDetail
	warnings       []string
	successMessage string
}

// New 创建空的有效结果
func New() *SuccessOrErrors { return &SuccessOrErrors{} }

// Success 创建带成功消息的结果
func Success(format string, args ...any) *SuccessOrErrors {
	return New().SetSuccessMessage(format, args...)
}

// Errorf 创建只含一条错误的结果
func Errorf(format string, args ...any) *SuccessOrErrors {
	return New().AddSingleError(format, args...)
}

// IsValid 没有错误时为 true
func (s *SuccessOrErrors) IsValid() bool { return len(s.errors) == 0 }

// Errors 返回按发现顺序排列的错误消息
func (s *SuccessOrErrors) Errors() []string {
	out := make([]string, len(s.errors))
	for i, e := range s.errors {
		out[i] = e.Message
	}
	return out
}

// ErrorDetails 返回带成员名的错误副本
func (s *SuccessOrErrors) ErrorDetails() []ErrorDetail {
	out := make([]ErrorDetail, len(s.errors))
	for i, e := range s.errors {
		out[i] = ErrorDetail{Message: e.Message, Members: append([]string(nil), e.Members...)}
	}
	return out
}

func (s *SuccessOrErrors) Warnings() []string { return append([]string(nil), s.warnings...) }

// HasWarnings 是否有警告
func (s *SuccessOrErrors) HasWarnings() bool { return len(s.warnings) > 0 }

// SuccessMessage 无效结果的成功消息恒为空
func (s *SuccessOrErrors) SuccessMessage() string {
	if !s.IsValid() {
		return ""
	}
	return s.successMessage
}

// AddSingleError 追加一条格式化错误，结果变为无效
func (s *SuccessOrErrors) AddSingleError(format string, args ...any) *SuccessOrErrors {
	s.errors = append(s.errors, ErrorDetail{Message: sprintf(format, args...)})
	return s
}

// AddNamedParameterError 追加关联到指定成员的错误
func (s *SuccessOrErrors) AddNamedParameterError(member, format string, args ...any) *SuccessOrErrors {
	s.errors = append(s.errors, ErrorDetail{Message: sprintf(format, args...), Members: []string{member}})
	return s
}

// AddFieldErrors 追加校验错误，带字段名的记为成员错误
func (s *SuccessOrErrors) AddFieldErrors(fes []validation.FieldError) *SuccessOrErrors {
	for _, fe := range fes {
		if fe.Field == "" {
			s.AddSingleError(fe.Message)
		} else {
			s.AddNamedParameterError(fe.Field, fe.Message)
		}
	}
	return s
}

// AddWarning 追加警告，不影响有效性
func (s *SuccessOrErrors) AddWarning(format string, args ...any) *SuccessOrErrors {
	s.warnings = append(s.warnings, sprintf(format, args...))
	return s
}

// SetSuccessMessage 设置成功消息。
// 结果已无效时调用属于编程错误，直接 panic。
func (s *SuccessOrErrors) SetSuccessMessage(format string, args ...any) *SuccessOrErrors {
	if !s.IsValid() {
		panic("status: cannot set a success message on an invalid result: " + s.ErrorsAsString())
	}
	s.successMessage = sprintf(format, args...)
	return s
}

// Combine 追加另一个结果的错误与警告，other 为 nil 时不变
func (s *SuccessOrErrors) Combine(other *SuccessOrErrors) *SuccessOrErrors {
	if other == nil {
		return s
	}
	s.errors = append(s.errors, other.ErrorDetails()...)
	s.warnings = append(s.warnings, other.warnings...)
	return s
}

// ErrorsAsString 以换行拼接全部错误
func (s *SuccessOrErrors) ErrorsAsString() string {
	parts := make([]string, len(s.errors))
	for i, e := range s.errors {
		parts[i] = e.String()
	}
	return strings.Join(parts, "\n")
}

// Err 有效时返回 nil，否则转换为 ErrCodeValidation 的 AppError
func (s *SuccessOrErrors) Err() error {
	if s.IsValid() {
		return nil
	}
	return errors.NewError(errors.ErrCodeValidation, s.ErrorsAsString()).
		WithContext("errors", s.Errors())
}

func (s *SuccessOrErrors) String() string {
	if s.IsValid() {
		if s.successMessage == "" {
			return "Success"
		}
		return s.successMessage
	}
	return fmt.Sprintf("Not valid: %d error(s)", len(s.errors))
}

// sprintf 无参数时原样返回，避免消息中的 % 被误解析
func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
