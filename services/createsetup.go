package services

import (
	"context"

	"gensvc/dbcontext"
)

// ICreateSetupService 返回准备好辅助数据的空 DTO，用于显示创建表单
type ICreateSetupService[T any] interface {
	GetDto(ctx context.Context) *T
}

type CreateSetupDtoService[E, D any] struct {
	dtoBase[E, D]
}

func newCreateSetupDtoService[E, D any](db dbcontext.IDbContext) (*CreateSetupDtoService[E, D], error) {
	if err := checkDto[E, D](); err != nil {
		return nil, err
	}
	return &CreateSetupDtoService[E, D]{dtoBase[E, D]{db: db}}, nil
}

func NewCreateSetupDtoService[E, D any](db dbcontext.IDbContext) *CreateSetupDtoService[E, D] {
	return must(newCreateSetupDtoService[E, D](db))
}

func (s *CreateSetupDtoService[E, D]) GetDto(ctx context.Context) *D {
	dto := new(D)
	s.setup(ctx, dto)
	return dto
}
