package services

import (
	"context"

	"gensvc/core"
	"gensvc/dbcontext"
	"gensvc/status"
)

// IUpdateService 更新操作，T 为实体或 DTO
type IUpdateService[T any] interface {
	Update(ctx context.Context, item *T) *status.SuccessOrErrors
}

type UpdateService[E any] struct {
	db dbcontext.IDbContext
}

func newUpdateService[E any](db dbcontext.IDbContext) (*UpdateService[E], error) {
	if _, err := checkEntity[E](db); err != nil {
		return nil, err
	}
	return &UpdateService[E]{db: db}, nil
}

func NewUpdateService[E any](db dbcontext.IDbContext) *UpdateService[E] {
	return must(newUpdateService[E](db))
}

// Update 按主键整体更新实体
func (s *UpdateService[E]) Update(ctx context.Context, item *E) *status.SuccessOrErrors {
	if err := dbcontext.SetOf[E](s.db).Update(item); err != nil {
		return status.Errorf("Unable to update the %s: %v", typeOf[E]().Name(), err)
	}
	return saveWithMessage(ctx, s.db, "Successfully updated %s.", typeOf[E]().Name())
}

type UpdateDtoService[E, D any] struct {
	dtoBase[E, D]
	keyProps []string
}

func newUpdateDtoService[E, D any](db dbcontext.IDbContext) (*UpdateDtoService[E, D], error) {
	keyProps, err := checkEntity[E](db)
	if err != nil {
		return nil, err
	}
	if err := checkDto[E, D](); err != nil {
		return nil, err
	}
	if err := checkKeyFields(typeOf[D](), keyProps); err != nil {
		return nil, err
	}
	return &UpdateDtoService[E, D]{dtoBase: dtoBase[E, D]{db: db}, keyProps: keyProps}, nil
}

func NewUpdateDtoService[E, D any](db dbcontext.IDbContext) *UpdateDtoService[E, D] {
	return must(newUpdateDtoService[E, D](db))
}

// Update 检查 Update 能力 → 按 DTO 上的主键定位被跟踪的实体 → 复制 → 保存。
// 复制在实体副本上进行，校验失败不会改动被跟踪的实体；失败时重新准备辅助数据。
func (s *UpdateDtoService[E, D]) Update(ctx context.Context, dto *D) *status.SuccessOrErrors {
	fs, name := s.flagsOf(dto)
	if !fs.Supports(core.FuncUpdate) {
		return notSupported("Update", "an existing", name)
	}

	filter := core.MustBuildFilter(typeOf[E](), s.keyProps, keyValuesOf(dto, s.keyProps))
	entity, result := findSingle[E](ctx, s.db, name, filter, true)
	if result.IsValid() {
		working := *entity
		result = orNew(contractOf[E, D](dto).CopyDtoToEntity(ctx, s.db, dto, &working))
		if result.IsValid() {
			*entity = working
			result = saveWithMessage(ctx, s.db, "Successfully updated %s.", name)
			if result.IsValid() {
				return result
			}
		}
	}

	s.setup(ctx, dto)
	return result
}

func (s *UpdateDtoService[E, D]) ResetDto(ctx context.Context, dto *D) *D {
	s.setup(ctx, dto)
	return dto
}

func orNew(result *status.SuccessOrErrors) *status.SuccessOrErrors {
	if result == nil {
		return status.New()
	}
	return result
}
