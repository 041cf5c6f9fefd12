package services

import (
	"context"

	"gensvc/core"
	"gensvc/dbcontext"
	"gensvc/status"
)

// IUpdateSetupService 读取用于修改的原始数据（不跟踪）
type IUpdateSetupService[T any] interface {
	// GetOriginal 按主键值查找，值的顺序与 KeyProperties 一致
	GetOriginal(ctx context.Context, keys ...any) *status.Result[*T]
	// GetOriginalUsingWhere 按任意等值条件查找，必须恰好匹配一条
	GetOriginalUsingWhere(ctx context.Context, filter core.Filter) *status.Result[*T]
}

type UpdateSetupService[E any] struct {
	db dbcontext.IDbContext
}

func newUpdateSetupService[E any](db dbcontext.IDbContext) (*UpdateSetupService[E], error) {
	if _, err := checkEntity[E](db); err != nil {
		return nil, err
	}
	return &UpdateSetupService[E]{db: db}, nil
}

func NewUpdateSetupService[E any](db dbcontext.IDbContext) *UpdateSetupService[E] {
	return must(newUpdateSetupService[E](db))
}

func (s *UpdateSetupService[E]) GetOriginal(ctx context.Context, keys ...any) *status.Result[*E] {
	return s.GetOriginalUsingWhere(ctx, keyFilter[E](s.db, keys))
}

func (s *UpdateSetupService[E]) GetOriginalUsingWhere(ctx context.Context, filter core.Filter) *status.Result[*E] {
	entity, result := findSingle[E](ctx, s.db, typeOf[E]().Name(), filter, false)
	return status.ResultFrom(result, entity)
}

type UpdateSetupDtoService[E, D any] struct {
	dtoBase[E, D]
}

func newUpdateSetupDtoService[E, D any](db dbcontext.IDbContext) (*UpdateSetupDtoService[E, D], error) {
	if _, err := checkEntity[E](db); err != nil {
		return nil, err
	}
	if err := checkDto[E, D](); err != nil {
		return nil, err
	}
	return &UpdateSetupDtoService[E, D]{dtoBase[E, D]{db: db}}, nil
}

func NewUpdateSetupDtoService[E, D any](db dbcontext.IDbContext) *UpdateSetupDtoService[E, D] {
	return must(newUpdateSetupDtoService[E, D](db))
}

func (s *UpdateSetupDtoService[E, D]) GetOriginal(ctx context.Context, keys ...any) *status.Result[*D] {
	fs, name := s.flagsOf(new(D))
	if !fs.Supports(core.FuncUpdate) {
		return status.Failed[*D](notSupported("Update", "an existing", name))
	}
	return s.GetOriginalUsingWhere(ctx, keyFilter[E](s.db, keys))
}

// GetOriginalUsingWhere 检查 Update 能力 → 查找唯一实体 → 投影 → 准备辅助数据
func (s *UpdateSetupDtoService[E, D]) GetOriginalUsingWhere(ctx context.Context, filter core.Filter) *status.Result[*D] {
	fs, name := s.flagsOf(new(D))
	if !fs.Supports(core.FuncUpdate) {
		return status.Failed[*D](notSupported("Update", "an existing", name))
	}

	entity, result := findSingle[E](ctx, s.db, name, filter, false)
	if !result.IsValid() {
		return status.Failed[*D](result)
	}
	dto, result := s.project(ctx, entity)
	if !result.IsValid() {
		return status.Failed[*D](result)
	}
	s.setup(ctx, dto)
	return status.ResultFrom(result, dto)
}
