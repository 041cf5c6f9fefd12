package services

import (
	"context"

	"gensvc/core"
	"gensvc/dbcontext"
	"gensvc/status"
)

// IDetailService 读取单条数据用于展示，不准备辅助数据
type IDetailService[T any] interface {
	GetDetail(ctx context.Context, keys ...any) *status.Result[*T]
}

type DetailService[E any] struct {
	db dbcontext.IDbContext
}

func newDetailService[E any](db dbcontext.IDbContext) (*DetailService[E], error) {
	if _, err := checkEntity[E](db); err != nil {
		return nil, err
	}
	return &DetailService[E]{db: db}, nil
}

func NewDetailService[E any](db dbcontext.IDbContext) *DetailService[E] {
	return must(newDetailService[E](db))
}

func (s *DetailService[E]) GetDetail(ctx context.Context, keys ...any) *status.Result[*E] {
	entity, result := findSingle[E](ctx, s.db, typeOf[E]().Name(), keyFilter[E](s.db, keys), false)
	return status.ResultFrom(result, entity)
}

type DetailDtoService[E, D any] struct {
	dtoBase[E, D]
}

func newDetailDtoService[E, D any](db dbcontext.IDbContext) (*DetailDtoService[E, D], error) {
	if _, err := checkEntity[E](db); err != nil {
		return nil, err
	}
	if err := checkDto[E, D](); err != nil {
		return nil, err
	}
	return &DetailDtoService[E, D]{dtoBase[E, D]{db: db}}, nil
}

func NewDetailDtoService[E, D any](db dbcontext.IDbContext) *DetailDtoService[E, D] {
	return must(newDetailDtoService[E, D](db))
}

func (s *DetailDtoService[E, D]) GetDetail(ctx context.Context, keys ...any) *status.Result[*D] {
	fs, name := s.flagsOf(new(D))
	if !fs.Supports(core.FuncReadSingle) {
		return status.Failed[*D](status.Errorf("Detail of an existing %s is not supported in this mode.", name))
	}

	entity, result := findSingle[E](ctx, s.db, name, keyFilter[E](s.db, keys), false)
	if !result.IsValid() {
		return status.Failed[*D](result)
	}
	dto, result := s.project(ctx, entity)
	return status.ResultFrom(result, dto)
}
