// Package validation 对 DTO 与实体做结构体标签校验（go-playground/validator）
// 以及自定义的 IValidatable 校验，结果为带字段名的错误列表。
package validation

import (
	"context"
	stdErrors "errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// IValidatable 自定义校验钩子，在标签校验之后调用
type IValidatable interface {
	Validate() error
}

// IValidator 通用校验器接口
type IValidator interface {
	Validate(ctx context.Context, value any) []FieldError
}

// FieldError 一条校验错误，Field 为空表示对象级错误
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Errors 多条校验错误，可直接作为 IValidatable.Validate 的返回值
type Errors []FieldError

func (es Errors) Error() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// Field 构造字段错误
func Field(field, format string, args ...any) FieldError {
	return FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validator 基于 go-playground/validator 的实现
type Validator struct {
	validate *validator.Validate
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
)

// Default 返回包级单例；validator.New 开销较大，应复用
func Default() *Validator {
	defaultOnce.Do(func() { defaultValidator = New() })
	return defaultValidator
}

// New 创建校验器
func New() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// RegisterValidation 注册自定义标签
func (v *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return v.validate.RegisterValidation(tag, fn)
}

// Validate 先做标签校验再调用 IValidatable，value 为结构体或其指针，其他类型直接通过
func (v *Validator) Validate(ctx context.Context, value any) []FieldError {
	if value == nil {
		return nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return nil
	}

	var out []FieldError
	if reflect.Indirect(rv).Kind() == reflect.Struct {
		if err := v.validate.StructCtx(ctx, value); err != nil {
			var ves validator.ValidationErrors
			if stdErrors.As(err, &ves) {
				for _, fe := range ves {
					out = append(out, FieldError{Field: fieldPath(fe), Message: messageFor(fe)})
				}
			} else {
				out = append(out, FieldError{Message: err.Error()})
			}
		}
	}

	if hook, ok := value.(IValidatable); ok {
		out = append(out, flatten(hook.Validate())...)
	}
	return out
}

// Err 把错误列表转换为 error，空列表返回 nil
func Err(fes []FieldError) error {
	if len(fes) == 0 {
		return nil
	}
	return Errors(fes)
}

func flatten(err error) []FieldError {
	if err == nil {
		return nil
	}
	var es Errors
	if stdErrors.As(err, &es) {
		return append([]FieldError(nil), es...)
	}
	var fe FieldError
	if stdErrors.As(err, &fe) {
		return []FieldError{fe}
	}
	return []FieldError{{Message: err.Error()}}
}

// fieldPath 去掉根类型名：BookDto.Author.Name -> Author.Name
func fieldPath(fe validator.FieldError) string {
	ns := fe.StructNamespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.StructField()
}

func messageFor(fe validator.FieldError) string {
	name := fe.StructField()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case "min":
		if isLengthKind(fe.Kind()) {
			return fmt.Sprintf("The %s field must be at least %s characters long.", name, fe.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s.", name, fe.Param())
	case "max":
		if isLengthKind(fe.Kind()) {
			return fmt.Sprintf("The %s field must be at most %s characters long.", name, fe.Param())
		}
		return fmt.Sprintf("The %s field must be at most %s.", name, fe.Param())
	case "gt", "gte", "lt", "lte":
		return fmt.Sprintf("The %s field must be %s %s.", name, comparisonWords[fe.Tag()], fe.Param())
	case "len":
		return fmt.Sprintf("The %s field must be exactly %s long.", name, fe.Param())
	case "email":
		return fmt.Sprintf("The %s field is not a valid e-mail address.", name)
	case "oneof":
		return fmt.Sprintf("The %s field must be one of [%s].", name, fe.Param())
	default:
		return fmt.Sprintf("The %s field failed the %q check.", name, fe.Tag())
	}
}

var comparisonWords = map[string]string{
	"gt":  "greater than",
	"gte": "greater than or equal to",
	"lt":  "less than",
	"lte": "less than or equal to",
}

func isLengthKind(k reflect.Kind) bool {
	switch k {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return true
	default:
		return false
	}
}

// NoopValidator 不做任何校验
type NoopValidator struct{}

func (NoopValidator) Validate(ctx context.Context, value any) []FieldError { return nil }
