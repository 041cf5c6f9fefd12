package services

import (
	"context"

	"gensvc/core"
	"gensvc/dbcontext"
	"gensvc/status"
)

// 以下函数只做解析与转发：T 可以是实体或 DTO，具体服务由 Resolve 决定。

// Create 新增 T（实体或 DTO）
func Create[T any](ctx context.Context, db dbcontext.IDbContext, item *T) *status.SuccessOrErrors {
	svc := Resolve[T](ctx, db, KindCreate, core.ExpectAnything).(ICreateService[T])
	return svc.Create(ctx, item)
}

// CreateSetup 返回准备好辅助数据的新 DTO，T 必须是支持 Create 的 DTO
func CreateSetup[T any](ctx context.Context, db dbcontext.IDbContext) *T {
	svc := Resolve[T](ctx, db, KindCreateSetup, core.ExpectDto.Requiring(core.FuncCreate)).(ICreateSetupService[T])
	return svc.GetDto(ctx)
}

// GetOriginal 按主键读取用于修改的 T
func GetOriginal[T any](ctx context.Context, db dbcontext.IDbContext, keys ...any) *status.Result[*T] {
	svc := Resolve[T](ctx, db, KindUpdateSetup, core.ExpectAnything).(IUpdateSetupService[T])
	return svc.GetOriginal(ctx, keys...)
}

// GetOriginalUsingWhere 按任意等值条件读取用于修改的 T，filter 针对绑定的实体类型
func GetOriginalUsingWhere[T any](ctx context.Context, db dbcontext.IDbContext, filter core.Filter) *status.Result[*T] {
	svc := Resolve[T](ctx, db, KindUpdateSetup, core.ExpectAnything).(IUpdateSetupService[T])
	return svc.GetOriginalUsingWhere(ctx, filter)
}

func Update[T any](ctx context.Context, db dbcontext.IDbContext, item *T) *status.SuccessOrErrors {
	svc := Resolve[T](ctx, db, KindUpdate, core.ExpectAnything).(IUpdateService[T])
	return svc.Update(ctx, item)
}

// Delete 按主键删除 T 对应的实体；T 为 DTO 时使用其能力与名称
func Delete[T any](ctx context.Context, db dbcontext.IDbContext, keys ...any) *status.SuccessOrErrors {
	svc := Resolve[T](ctx, db, KindDelete, core.ExpectAnything).(IDeleteService)
	return svc.Delete(ctx, keys...)
}

// DeleteWithRelationships 删除实体 E，删除前调用 remover
func DeleteWithRelationships[E any](ctx context.Context, db dbcontext.IDbContext, remover RelationshipRemover[E], keys ...any) *status.SuccessOrErrors {
	svc := Resolve[E](ctx, db, KindDelete, core.ExpectEntity).(*DeleteService[E])
	return svc.DeleteWithRelationships(ctx, remover, keys...)
}

func GetAll[T any](ctx context.Context, db dbcontext.IDbContext) *status.Result[[]*T] {
	svc := Resolve[T](ctx, db, KindList, core.ExpectAnything).(IListService[T])
	return svc.GetAll(ctx)
}

func GetDetail[T any](ctx context.Context, db dbcontext.IDbContext, keys ...any) *status.Result[*T] {
	svc := Resolve[T](ctx, db, KindDetail, core.ExpectAnything).(IDetailService[T])
	return svc.GetDetail(ctx, keys...)
}

// ResetDto 重新准备 DTO 的辅助数据（未声明 DoesNotNeedSetup 时）
func ResetDto[T any](ctx context.Context, db dbcontext.IDbContext, dto *T) *T {
	svc := Resolve[T](ctx, db, KindCreate, core.ExpectDto).(IResetDtoService[T])
	return svc.ResetDto(ctx, dto)
}
