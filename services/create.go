package services

import (
	"context"

	"gensvc/core"
	"gensvc/dbcontext"
	"gensvc/status"
)

// ICreateService 创建操作，T 为实体或 DTO
type ICreateService[T any] interface {
	Create(ctx context.Context, item *T) *status.SuccessOrErrors
}

// IResetDtoService 重新准备 DTO 的辅助数据
type IResetDtoService[T any] interface {
	ResetDto(ctx context.Context, dto *T) *T
}

// CreateService 直接创建实体
type CreateService[E any] struct {
	db dbcontext.IDbContext
}

func newCreateService[E any](db dbcontext.IDbContext) (*CreateService[E], error) {
	if _, err := checkEntity[E](db); err != nil {
		return nil, err
	}
	return &CreateService[E]{db: db}, nil
}

// NewCreateService E 不是可持久化实体时 panic(*core.ConfigurationError)
func NewCreateService[E any](db dbcontext.IDbContext) *CreateService[E] {
	return must(newCreateService[E](db))
}

// Create 新增实体并校验保存
func (s *CreateService[E]) Create(ctx context.Context, item *E) *status.SuccessOrErrors {
	if err := dbcontext.SetOf[E](s.db).Add(item); err != nil {
		return status.Errorf("Unable to create the %s: %v", typeOf[E]().Name(), err)
	}
	return saveWithMessage(ctx, s.db, "Successfully created %s.", typeOf[E]().Name())
}

// CreateDtoService 通过 DTO 创建实体
type CreateDtoService[E, D any] struct {
	dtoBase[E, D]
}

func newCreateDtoService[E, D any](db dbcontext.IDbContext) (*CreateDtoService[E, D], error) {
	if _, err := checkEntity[E](db); err != nil {
		return nil, err
	}
	if err := checkDto[E, D](); err != nil {
		return nil, err
	}
	return &CreateDtoService[E, D]{dtoBase[E, D]{db: db}}, nil
}

// NewCreateDtoService D 不是 E 的 DTO 时 panic(*core.ConfigurationError)
func NewCreateDtoService[E, D any](db dbcontext.IDbContext) *CreateDtoService[E, D] {
	return must(newCreateDtoService[E, D](db))
}

// Create 检查 Create 能力 → DTO 写入新实体 → 新增并保存。
// 复制或保存失败时重新准备辅助数据，以便带着错误重新显示 DTO。
func (s *CreateDtoService[E, D]) Create(ctx context.Context, dto *D) *status.SuccessOrErrors {
	fs, name := s.flagsOf(dto)
	if !fs.Supports(core.FuncCreate) {
		return notSupported("Create", "a new", name)
	}

	entity := new(E)
	result := orNew(contractOf[E, D](dto).CopyDtoToEntity(ctx, s.db, dto, entity))
	if result.IsValid() {
		if err := dbcontext.SetOf[E](s.db).Add(entity); err != nil {
			result = status.Errorf("Unable to create the %s: %v", name, err)
		} else {
			result = saveWithMessage(ctx, s.db, "Successfully created %s.", name)
			if result.IsValid() {
				return result
			}
		}
	}

	s.setup(ctx, dto)
	return result
}

// ResetDto 重新准备辅助数据，用于调用方自行发现输入有误后重新显示
func (s *CreateDtoService[E, D]) ResetDto(ctx context.Context, dto *D) *D {
	s.setup(ctx, dto)
	return dto
}

func must[S any](svc S, err error) S {
	if err != nil {
		panic(err)
	}
	return svc
}
