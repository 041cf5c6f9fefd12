// Package services 实现通用的数据访问服务：创建、读取以供修改、更新、删除、列表与详情。
//
// 每种操作有三种形式：
//   - 实体服务 XxxService[E]，直接操作实体；
//   - DTO 服务 XxxDtoService[E, D]，通过嵌入了 GenericDto[E, D] 的 DTO 操作实体；
//   - 包级函数 Create[T]、Update[T] 等，在调用时按 T 的声明解析出上面两者之一。
//
// 业务失败通过 status.SuccessOrErrors 返回；类型声明错误属于编程错误，
// 以 *core.ConfigurationError panic。
package services

import (
	"context"
	"reflect"

	"gensvc/core"
	"gensvc/dbcontext"
	"gensvc/logging"
)

// Kind 服务种类，与类型一起构成已解析服务的缓存键
type Kind string

const (
	KindCreate      Kind = "Create"
	KindCreateSetup Kind = "CreateSetup"
	KindUpdateSetup Kind = "UpdateSetup"
	KindUpdate      Kind = "Update"
	KindDelete      Kind = "Delete"
	KindList        Kind = "List"
	KindDetail      Kind = "Detail"
)

// Resolve 返回 T 对应 kind 的具体服务：
// T 嵌入了 GenericDto[E, T] 时为 XxxDtoService[E, T]，T 为其他结构体时为 XxxService[T]。
//
// 结果按 (kind, T) 缓存在 db 的工作单元范围内，命中时返回同一个实例；
// 期望在每次调用时都会检查。T 不符合 expect 时 panic(*core.ConfigurationError)。
func Resolve[T any](ctx context.Context, db dbcontext.IDbContext, kind Kind, expect core.WhatItShouldBe) any {
	t := typeOf[T]()
	binding, isDto := any(new(T)).(dtoBinding)
	if err := checkExpectation(t, binding, isDto, expect); err != nil {
		panic(err)
	}

	scope := db.Scope()
	svc, cached, err := scope.Services().GetOrAdd(dbcontext.ServiceKey{Kind: string(kind), Type: t}, func() (any, error) {
		if isDto {
			return binding.newDtoService(kind, db)
		}
		return newEntityService[T](kind, db)
	})
	if err != nil {
		panic(err)
	}
	if !cached {
		scope.Logger().Debug(ctx, "服务已解析",
			logging.String("kind", string(kind)),
			logging.String("type", t.String()),
			logging.Bool("dto", isDto),
			logging.String("service", reflect.TypeOf(svc).String()))
	}
	return svc
}

func checkExpectation(t reflect.Type, binding dtoBinding, isDto bool, expect core.WhatItShouldBe) error {
	if isDto {
		if !expect.AcceptsDto() {
			return core.NewConfigurationError(t, "the type is a DTO but this call expects %s", expect)
		}
		// 嵌入的 GenericDto 必须以 T 自身为 D，否则解析出的服务处理的是另一个类型
		if binding.boundDto() != t {
			return core.NewConfigurationError(t, "the DTO embeds GenericDto[%s, %s] but is resolved as %s",
				binding.boundEntity(), binding.boundDto(), t)
		}
		if err := binding.checkContract(); err != nil {
			return err
		}
		if req := expect.Required(); !binding.declaredFunctions().Supports(req) {
			return core.NewConfigurationError(t, "the DTO supports %s but this call requires %s",
				binding.declaredFunctions(), req)
		}
		return nil
	}

	if t.Kind() != reflect.Struct {
		return core.NewConfigurationError(t, "the type is neither an entity nor a DTO")
	}
	if !expect.AcceptsEntity() {
		return core.NewConfigurationError(t, "the type is an entity but this call expects %s", expect)
	}
	return nil
}

func newEntityService[E any](kind Kind, db dbcontext.IDbContext) (any, error) {
	switch kind {
	case KindCreate:
		return newCreateService[E](db)
	case KindUpdateSetup:
		return newUpdateSetupService[E](db)
	case KindUpdate:
		return newUpdateService[E](db)
	case KindDelete:
		return newDeleteService[E](db)
	case KindList:
		return newListService[E](db)
	case KindDetail:
		return newDetailService[E](db)
	default:
		return nil, core.NewConfigurationError(typeOf[E](), "there is no %s service for entities", kind)
	}
}

func newDtoService[E, D any](kind Kind, db dbcontext.IDbContext) (any, error) {
	switch kind {
	case KindCreate:
		return newCreateDtoService[E, D](db)
	case KindCreateSetup:
		return newCreateSetupDtoService[E, D](db)
	case KindUpdateSetup:
		return newUpdateSetupDtoService[E, D](db)
	case KindUpdate:
		return newUpdateDtoService[E, D](db)
	case KindDelete:
		return newDeleteDtoService[E, D](db)
	case KindList:
		return newListDtoService[E, D](db)
	case KindDetail:
		return newDetailDtoService[E, D](db)
	default:
		return nil, core.NewConfigurationError(typeOf[D](), "there is no %s service for DTOs", kind)
	}
}
