package services

import (
	"context"
	"reflect"

	"gensvc/core"
	"gensvc/dbcontext"
	"gensvc/logging"
	"gensvc/status"
)

// RelationshipRemover 删除实体前清理其关联数据。
// 返回无效结果时放弃删除，清理过程中挂起的变更一并丢弃。
type RelationshipRemover[E any] func(ctx context.Context, db dbcontext.IDbContext, entity *E) *status.SuccessOrErrors

func notSupported(operation, newOrExisting, name string) *status.SuccessOrErrors {
	return status.Errorf("%s of %s %s is not supported in this mode.", operation, newOrExisting, name)
}

// checkEntity E 必须是带主键的可持久化结构体
func checkEntity[E any](db dbcontext.IDbContext) ([]string, error) {
	t := typeOf[E]()
	if t.Kind() != reflect.Struct {
		return nil, core.NewConfigurationError(t, "%v", dbcontext.ErrUnknownEntity)
	}
	return db.KeyProperties(t)
}

// keyFilter 按主键构建过滤条件，数量或类型不匹配属于配置错误
func keyFilter[E any](db dbcontext.IDbContext, keys []any) core.Filter {
	t := typeOf[E]()
	keyProps, err := db.KeyProperties(t)
	if err != nil {
		panic(err)
	}
	return core.MustBuildFilter(t, keyProps, keys)
}

// findSingle 要求恰好一条匹配；零条或多条都是业务错误
func findSingle[E any](ctx context.Context, db dbcontext.IDbContext, name string, filter core.Filter, tracked bool) (*E, *status.SuccessOrErrors) {
	set := dbcontext.SetOf[E](db)
	var (
		rows []*E
		err  error
	)
	if tracked {
		rows, err = set.WhereTracked(ctx, filter)
	} else {
		rows, err = set.Where(ctx, filter)
	}
	if err != nil {
		db.Scope().Logger().Warn(ctx, "查询失败",
			logging.String("type", typeOf[E]().Name()), logging.String("filter", filter.String()), logging.Error(err))
		return nil, status.Errorf("Unable to read the %s: %v", name, err)
	}

	switch len(rows) {
	case 1:
		return rows[0], status.New()
	case 0:
		return nil, status.Errorf("No %s was found. Has it been deleted by someone else?", name)
	default:
		return nil, status.Errorf("Found %d entries of %s using %s. Expected exactly one.", len(rows), name, filter)
	}
}

// saveWithMessage 保存并在成功时设置成功消息
func saveWithMessage(ctx context.Context, db dbcontext.IDbContext, format, name string) *status.SuccessOrErrors {
	result := db.SaveChangesWithValidation(ctx)
	if result.IsValid() {
		result.SetSuccessMessage(format, name)
	}
	return result
}

// removeEntity 删除流程：定位（跟踪）→ 清理关联 → 删除 → 保存
func removeEntity[E any](ctx context.Context, db dbcontext.IDbContext, name string, remover RelationshipRemover[E], keys []any) *status.SuccessOrErrors {
	entity, result := findSingle[E](ctx, db, name, keyFilter[E](db, keys), true)
	if !result.IsValid() {
		return result
	}
	if remover != nil {
		if r := remover(ctx, db, entity); r != nil && !r.IsValid() {
			db.DiscardChanges()
			return r
		}
	}
	if err := dbcontext.SetOf[E](db).Remove(entity); err != nil {
		return status.Errorf("Unable to delete the %s: %v", name, err)
	}
	return saveWithMessage(ctx, db, "Successfully deleted %s.", name)
}

// dtoBase DTO 服务共用的辅助数据处理
type dtoBase[E, D any] struct {
	db dbcontext.IDbContext
}

func (b dtoBase[E, D]) flagsOf(dto *D) (core.ServiceFunctions, string) {
	c := contractOf[E, D](dto)
	return c.SupportedFunctions(), c.DataItemName()
}

// setup 未声明 DoesNotNeedSetup 时准备辅助数据
func (b dtoBase[E, D]) setup(ctx context.Context, dto *D) {
	c := contractOf[E, D](dto)
	if c.SupportedFunctions().NeedsSetup() {
		c.SetupSecondaryData(ctx, b.db, dto)
	}
}

// project 把实体投影到新的 DTO
func (b dtoBase[E, D]) project(ctx context.Context, entity *E) (*D, *status.SuccessOrErrors) {
	dto := new(D)
	return dto, orNew(contractOf[E, D](dto).CopyEntityToDto(ctx, b.db, entity, dto))
}
