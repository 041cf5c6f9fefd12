package services

import (
	"context"

	"gensvc/core"
	"gensvc/dbcontext"
	"gensvc/status"
)

// IDeleteService 按主键删除
type IDeleteService interface {
	Delete(ctx context.Context, keys ...any) *status.SuccessOrErrors
}

type DeleteService[E any] struct {
	db dbcontext.IDbContext
}

func newDeleteService[E any](db dbcontext.IDbContext) (*DeleteService[E], error) {
	if _, err := checkEntity[E](db); err != nil {
		return nil, err
	}
	return &DeleteService[E]{db: db}, nil
}

func NewDeleteService[E any](db dbcontext.IDbContext) *DeleteService[E] {
	return must(newDeleteService[E](db))
}

func (s *DeleteService[E]) Delete(ctx context.Context, keys ...any) *status.SuccessOrErrors {
	return removeEntity[E](ctx, s.db, typeOf[E]().Name(), nil, keys)
}

// DeleteWithRelationships 在删除前调用 remover 清理关联数据（例如连接表中的行），
// 清理结果无效时不删除。
func (s *DeleteService[E]) DeleteWithRelationships(ctx context.Context, remover RelationshipRemover[E], keys ...any) *status.SuccessOrErrors {
	return removeEntity(ctx, s.db, typeOf[E]().Name(), remover, keys)
}

// DeleteDtoService 以 DTO 声明的能力与名称删除其绑定的实体
type DeleteDtoService[E, D any] struct {
	dtoBase[E, D]
}

func newDeleteDtoService[E, D any](db dbcontext.IDbContext) (*DeleteDtoService[E, D], error) {
	if _, err := checkEntity[E](db); err != nil {
		return nil, err
	}
	if err := checkDto[E, D](); err != nil {
		return nil, err
	}
	return &DeleteDtoService[E, D]{dtoBase[E, D]{db: db}}, nil
}

func NewDeleteDtoService[E, D any](db dbcontext.IDbContext) *DeleteDtoService[E, D] {
	return must(newDeleteDtoService[E, D](db))
}

func (s *DeleteDtoService[E, D]) Delete(ctx context.Context, keys ...any) *status.SuccessOrErrors {
	return s.DeleteWithRelationships(ctx, nil, keys...)
}

func (s *DeleteDtoService[E, D]) DeleteWithRelationships(ctx context.Context, remover RelationshipRemover[E], keys ...any) *status.SuccessOrErrors {
	fs, name := s.flagsOf(new(D))
	if !fs.Supports(core.FuncDelete) {
		return notSupported("Delete", "an existing", name)
	}
	return removeEntity(ctx, s.db, name, remover, keys)
}
