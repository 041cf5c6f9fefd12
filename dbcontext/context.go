// Package dbcontext 定义服务层使用的持久化上下文（工作单元）。
//
// 一个 IDbContext 对应一个工作单元：跟踪新增、修改、删除的实体，
// 在 SaveChangesWithValidation 时统一校验并原子提交，
// 同时在 Scope 中缓存本工作单元内解析出的服务实例。
// IDbContext 不是并发安全的，不应跨 goroutine 共享。
package dbcontext

import (
	"context"
	stdErrors "errors"
	"reflect"

	"gensvc/core"
	"gensvc/status"
)

var (
	// ErrUnknownEntity 类型不是可持久化的结构体
	ErrUnknownEntity = stdErrors.New("dbcontext: type is not a persistable entity")
	// ErrEntityType 传入的实体类型与集合类型不一致
	ErrEntityType = stdErrors.New("dbcontext: entity type does not match the set")
	// ErrDuplicateKey 主键或唯一字段冲突
	ErrDuplicateKey = stdErrors.New("dbcontext: duplicate key")
)

// IDbSet 某一实体类型的集合，实体均以 *E 形式传入传出
type IDbSet interface {
	EntityType() reflect.Type

	// Add 标记为新增，保存时插入
	Add(entity any) error
	// Update 标记为已修改，保存时按主键更新
	Update(entity any) error
	// Remove 标记为删除，保存时按主键删除
	Remove(entity any) error

	// Where 返回满足条件的实体副本，不被跟踪
	Where(ctx context.Context, filter core.Filter) ([]any, error)
	// WhereTracked 返回满足条件的实体并开始跟踪，之后对其字段的修改在保存时写回
	WhereTracked(ctx context.Context, filter core.Filter) ([]any, error)
	// All 返回全部实体副本，不被跟踪
	All(ctx context.Context) ([]any, error)
}

// IDbContext 持久化上下文
type IDbContext interface {
	// Set 返回实体集合，非结构体类型 panic(*core.ConfigurationError)
	Set(entityType reflect.Type) IDbSet

	// KeyProperties 返回主键的 Go 字段名，顺序即主键顺序
	KeyProperties(entityType reflect.Type) ([]string, error)

	// SaveChangesWithValidation 校验并提交全部挂起的变更。
	// 校验或提交失败时挂起的变更被丢弃，存储保持不变。
	SaveChangesWithValidation(ctx context.Context) *status.SuccessOrErrors

	// DiscardChanges 丢弃全部挂起的变更并停止跟踪
	DiscardChanges()

	Scope() *Scope
}
