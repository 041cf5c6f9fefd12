package errors

import (
	stdErrors "errors"

	"gensvc/data/orm"
)

// Normalize 将基础设施层的错误规范化为 AppError。
//
// 已经是 IError 的错误原样返回；未识别的错误保持原样，交由调用方决定是否 Wrap。
func Normalize(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(IError); ok {
		return err
	}

	if stdErrors.Is(err, orm.ErrNotFound) {
		return WrapError(err, ErrCodeNotFound, "记录未找到")
	}
	if stdErrors.Is(err, orm.ErrUnsupported) {
		return WrapError(err, ErrCodeUnsupported, "适配器不支持该能力")
	}

	// 携带错误码的领域错误（例如 core.ConfigurationError）
	var coded interface{ ErrorCode() ErrorCode }
	if stdErrors.As(err, &coded) {
		return WrapError(err, coded.ErrorCode(), err.Error())
	}
	return err
}
