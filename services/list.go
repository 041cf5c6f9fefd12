package services

import (
	"context"

	"gensvc/core"
	"gensvc/dbcontext"
	"gensvc/logging"
	"gensvc/status"
)

// IListService 列出全部数据
type IListService[T any] interface {
	GetAll(ctx context.Context) *status.Result[[]*T]
}

type ListService[E any] struct {
	db dbcontext.IDbContext
}

func newListService[E any](db dbcontext.IDbContext) (*ListService[E], error) {
	if _, err := checkEntity[E](db); err != nil {
		return nil, err
	}
	return &ListService[E]{db: db}, nil
}

func NewListService[E any](db dbcontext.IDbContext) *ListService[E] {
	return must(newListService[E](db))
}

func (s *ListService[E]) GetAll(ctx context.Context) *status.Result[[]*E] {
	rows, result := listAll[E](ctx, s.db, typeOf[E]().Name())
	return status.ResultFrom(result, rows)
}

type ListDtoService[E, D any] struct {
	dtoBase[E, D]
}

func newListDtoService[E, D any](db dbcontext.IDbContext) (*ListDtoService[E, D], error) {
	if _, err := checkEntity[E](db); err != nil {
		return nil, err
	}
	if err := checkDto[E, D](); err != nil {
		return nil, err
	}
	return &ListDtoService[E, D]{dtoBase[E, D]{db: db}}, nil
}

func NewListDtoService[E, D any](db dbcontext.IDbContext) *ListDtoService[E, D] {
	return must(newListDtoService[E, D](db))
}

// GetAll 检查 ReadList 能力后把每个实体投影为 DTO，任一投影失败则整体失败
func (s *ListDtoService[E, D]) GetAll(ctx context.Context) *status.Result[[]*D] {
	fs, name := s.flagsOf(new(D))
	if !fs.Supports(core.FuncReadList) {
		return status.Failed[[]*D](status.Errorf("List of %s is not supported in this mode.", name))
	}

	rows, result := listAll[E](ctx, s.db, name)
	if !result.IsValid() {
		return status.Failed[[]*D](result)
	}
	dtos := make([]*D, 0, len(rows))
	for _, row := range rows {
		dto, r := s.project(ctx, row)
		result.Combine(r)
		dtos = append(dtos, dto)
	}
	return status.ResultFrom(result, dtos)
}

func listAll[E any](ctx context.Context, db dbcontext.IDbContext, name string) ([]*E, *status.SuccessOrErrors) {
	rows, err := dbcontext.SetOf[E](db).All(ctx)
	if err != nil {
		db.Scope().Logger().Warn(ctx, "列表查询失败", logging.String("type", typeOf[E]().Name()), logging.Error(err))
		return nil, status.Errorf("Unable to list the %s entries: %v", name, err)
	}
	return rows, status.New()
}
