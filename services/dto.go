package services

import (
	"context"
	"reflect"
	"sync"

	"gensvc/core"
	"gensvc/dbcontext"
	"gensvc/status"
	"gensvc/validation"
)

// IGenericDto DTO 契约，由 *D 实现。
// E 为绑定的实体类型，D 为 DTO 自身。
type IGenericDto[E any, D any] interface {
	// CopyEntityToDto 把实体投影到 DTO，用于读取路径
	CopyEntityToDto(ctx context.Context, db dbcontext.IDbContext, source *E, dest *D) *status.SuccessOrErrors
	// CopyDtoToEntity 校验 DTO 并写入实体字段，不得保存
	CopyDtoToEntity(ctx context.Context, db dbcontext.IDbContext, source *D, dest *E) *status.SuccessOrErrors
	// SetupSecondaryData 准备重新显示所需的辅助数据，幂等且不写存储
	SetupSecondaryData(ctx context.Context, db dbcontext.IDbContext, dto *D)

	SupportedFunctions() core.ServiceFunctions
	DataItemName() string
}

// GenericDto 嵌入到 DTO 中声明其与实体 E 的绑定：
//
//	type BookDto struct {
//		services.GenericDto[Book, BookDto]
//		ID    int
//		Title string `validate:"required"`
//	}
//
//	func (BookDto) SupportedFunctions() core.ServiceFunctions { return core.FuncAllCrud }
//
// 它提供按字段名复制、空的辅助数据准备以及以实体类型名作为 DataItemName 的默认实现，
// DTO 声明同名方法即可覆盖。SupportedFunctions 必须由 DTO 自己声明。
type GenericDto[E any, D any] struct{}

// CopyEntityToDto 复制同名且类型兼容的导出字段
func (GenericDto[E, D]) CopyEntityToDto(ctx context.Context, db dbcontext.IDbContext, source *E, dest *D) *status.SuccessOrErrors {
	copyFields(reflect.ValueOf(source).Elem(), reflect.ValueOf(dest).Elem())
	return status.New()
}

// CopyDtoToEntity 先校验 DTO（结构体标签与 Validate 方法），通过后复制同名字段
func (GenericDto[E, D]) CopyDtoToEntity(ctx context.Context, db dbcontext.IDbContext, source *D, dest *E) *status.SuccessOrErrors {
	result := status.New().AddFieldErrors(validation.Default().Validate(ctx, source))
	if !result.IsValid() {
		return result
	}
	copyFields(reflect.ValueOf(source).Elem(), reflect.ValueOf(dest).Elem())
	return result
}

func (GenericDto[E, D]) SetupSecondaryData(ctx context.Context, db dbcontext.IDbContext, dto *D) {}

// DataItemName 默认为实体类型名
func (GenericDto[E, D]) DataItemName() string { return typeOf[E]().Name() }

// 以下方法构成 dtoBinding，供解析引擎识别 DTO

func (GenericDto[E, D]) boundEntity() reflect.Type { return typeOf[E]() }
func (GenericDto[E, D]) boundDto() reflect.Type    { return typeOf[D]() }

func (GenericDto[E, D]) declaredFunctions() core.ServiceFunctions {
	if c, ok := any(new(D)).(IGenericDto[E, D]); ok {
		return c.SupportedFunctions()
	}
	return core.FuncNone
}

func (GenericDto[E, D]) checkContract() error {
	return checkDto[E, D]()
}

func (GenericDto[E, D]) newDtoService(kind Kind, db dbcontext.IDbContext) (any, error) {
	return newDtoService[E, D](kind, db)
}

// dtoBinding 由嵌入了 GenericDto[E, D] 的类型的指针实现
type dtoBinding interface {
	boundEntity() reflect.Type
	boundDto() reflect.Type
	declaredFunctions() core.ServiceFunctions
	checkContract() error
	newDtoService(kind Kind, db dbcontext.IDbContext) (any, error)
}

// checkDto 校验 D 嵌入了 GenericDto[E, D] 且 *D 实现了 DTO 契约
func checkDto[E, D any]() error {
	dtoType := typeOf[D]()
	binding, ok := any(new(D)).(dtoBinding)
	if !ok {
		return core.NewConfigurationError(dtoType, "the DTO must embed services.GenericDto[%s, %s]", typeOf[E](), dtoType)
	}
	if binding.boundDto() != dtoType || binding.boundEntity() != typeOf[E]() {
		return core.NewConfigurationError(dtoType, "the DTO embeds GenericDto[%s, %s] but is used as GenericDto[%s, %s]",
			binding.boundEntity(), binding.boundDto(), typeOf[E](), dtoType)
	}
	if _, ok := any(new(D)).(IGenericDto[E, D]); !ok {
		return core.NewConfigurationError(dtoType, "*%s does not implement the DTO contract; declare SupportedFunctions() core.ServiceFunctions", dtoType)
	}
	return nil
}

func contractOf[E, D any](dto *D) IGenericDto[E, D] {
	return any(dto).(IGenericDto[E, D])
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// ------------------------------------------------------------------------
// 按字段名复制
// ------------------------------------------------------------------------

type fieldPair struct {
	src, dst []int
	convert  bool
}

var fieldPlans sync.Map // [2]reflect.Type -> []fieldPair

// copyFields 把 src 中同名、可赋值（或同种类可转换）的导出字段复制到 dst。
// 带 copy:"-" 标签的目标字段被忽略。
func copyFields(src, dst reflect.Value) {
	for _, p := range planFor(src.Type(), dst.Type()) {
		from, err := src.FieldByIndexErr(p.src)
		if err != nil {
			continue
		}
		to, err := dst.FieldByIndexErr(p.dst)
		if err != nil || !to.CanSet() {
			continue
		}
		if p.convert {
			to.Set(from.Convert(to.Type()))
		} else {
			to.Set(from)
		}
	}
}

func planFor(src, dst reflect.Type) []fieldPair {
	key := [2]reflect.Type{src, dst}
	if plan, ok := fieldPlans.Load(key); ok {
		return plan.([]fieldPair)
	}

	var plan []fieldPair
	for _, df := range reflect.VisibleFields(dst) {
		if df.Anonymous || !df.IsExported() || df.Tag.Get("copy") == "-" {
			continue
		}
		sf, ok := src.FieldByName(df.Name)
		if !ok || !sf.IsExported() {
			continue
		}
		switch {
		case sf.Type.AssignableTo(df.Type):
			plan = append(plan, fieldPair{src: sf.Index, dst: df.Index})
		case sf.Type.Kind() == df.Type.Kind() && sf.Type.ConvertibleTo(df.Type) && isScalarKind(sf.Type.Kind()):
			plan = append(plan, fieldPair{src: sf.Index, dst: df.Index, convert: true})
		}
	}
	actual, _ := fieldPlans.LoadOrStore(key, plan)
	return actual.([]fieldPair)
}

func isScalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// keyValuesOf 按主键属性名读取 DTO 上的同名字段
func keyValuesOf(dto any, keyProps []string) []any {
	v := reflect.Indirect(reflect.ValueOf(dto))
	values := make([]any, len(keyProps))
	for i, name := range keyProps {
		values[i] = v.FieldByName(name).Interface()
	}
	return values
}

// checkKeyFields DTO 必须以相同名称公开实体的全部主键字段
func checkKeyFields(dtoType reflect.Type, keyProps []string) error {
	for _, name := range keyProps {
		f, ok := dtoType.FieldByName(name)
		if !ok || !f.IsExported() {
			return core.NewConfigurationError(dtoType, "the DTO must expose the key property %s", name)
		}
	}
	return nil
}
