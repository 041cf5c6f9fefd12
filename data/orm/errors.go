package orm

import "errors"

var (
	// ErrNotFound 查询无结果
	ErrNotFound = errors.New("orm: record not found")
	// ErrUnsupported 适配器不支持的操作
	ErrUnsupported = errors.New("orm: operation not supported")
	// ErrNoKey 实体没有可用的主键字段
	ErrNoKey = errors.New("orm: model has no key fields")
)
