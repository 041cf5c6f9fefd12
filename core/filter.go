package core

import (
	"fmt"
	"reflect"
	"strings"
)

// Condition 单个等值条件，Property 为实体的 Go 字段名
type Condition struct {
	Property string
	Value    any
}

// Eq 构造 property == value 条件
func Eq(property string, value any) Condition {
	return Condition{Property: property, Value: value}
}

// Filter 针对某个实体类型的等值合取条件：prop1 == v1 AND prop2 == v2 ...
// 值在构建时已转换为字段类型，构建后只读。
type Filter struct {
	entityType reflect.Type
	conds      []Condition
	index      [][]int
}

// NewFilter 校验属性名并转换条件值，非法条件返回 *ConfigurationError
func NewFilter(entityType reflect.Type, conds ...Condition) (Filter, error) {
	if entityType == nil || entityType.Kind() != reflect.Struct {
		return Filter{}, NewConfigurationError(entityType, "filters can only be built for struct types")
	}
	if len(conds) == 0 {
		return Filter{}, NewConfigurationError(entityType, "a filter needs at least one condition")
	}

	f := Filter{
		entityType: entityType,
		conds:      make([]Condition, len(conds)),
		index:      make([][]int, len(conds)),
	}
	for i, c := range conds {
		field, ok := entityType.FieldByName(c.Property)
		if !ok || !field.IsExported() {
			return Filter{}, NewConfigurationError(entityType, "unknown property %q", c.Property)
		}
		value, err := convertValue(c.Value, field.Type)
		if err != nil {
			return Filter{}, NewConfigurationError(entityType, "property %s: %v", c.Property, err)
		}
		f.conds[i] = Condition{Property: c.Property, Value: value}
		f.index[i] = field.Index
	}
	return f, nil
}

// BuildFilter 按主键属性名与主键值（顺序一致）构建过滤条件。
// 数量不一致或属性未知时返回 *ConfigurationError。
func BuildFilter(entityType reflect.Type, keyProps []string, keys []any) (Filter, error) {
	if len(keyProps) == 0 {
		return Filter{}, NewConfigurationError(entityType, "the entity has no key properties")
	}
	if len(keyProps) != len(keys) {
		return Filter{}, NewConfigurationError(entityType,
			"the number of key values (%d) does not match the number of key properties (%d: %s)",
			len(keys), len(keyProps), strings.Join(keyProps, ", "))
	}
	conds := make([]Condition, len(keys))
	for i, name := range keyProps {
		conds[i] = Eq(name, keys[i])
	}
	return NewFilter(entityType, conds...)
}

// MustBuildFilter 同 BuildFilter，失败时 panic
func MustBuildFilter(entityType reflect.Type, keyProps []string, keys []any) Filter {
	f, err := BuildFilter(entityType, keyProps, keys)
	if err != nil {
		panic(err)
	}
	return f
}

func (f Filter) EntityType() reflect.Type { return f.entityType }

// Conditions 返回条件副本，顺序与构建时一致
func (f Filter) Conditions() []Condition { return append([]Condition(nil), f.conds...) }

// IsZero 未经构建的零值 Filter
func (f Filter) IsZero() bool { return f.entityType == nil }

// Matches 判断实体（结构体或其指针）是否满足全部条件
func (f Filter) Matches(entity any) bool {
	v := reflect.ValueOf(entity)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return false
		}
		v = v.Elem()
	}
	if !v.IsValid() || v.Type() != f.entityType {
		return false
	}
	for i, c := range f.conds {
		fv, err := v.FieldByIndexErr(f.index[i])
		if err != nil {
			return false
		}
		if !equalValue(fv, c.Value) {
			return false
		}
	}
	return true
}

func (f Filter) String() string {
	parts := make([]string, len(f.conds))
	for i, c := range f.conds {
		parts[i] = fmt.Sprintf("%s == %v", c.Property, c.Value)
	}
	return strings.Join(parts, " AND ")
}

func equalValue(fv reflect.Value, want any) bool {
	if fv.Kind() == reflect.Ptr {
		if fv.IsNil() {
			return want == nil
		}
		if want == nil {
			return false
		}
		fv = fv.Elem()
		if wv := reflect.ValueOf(want); wv.Kind() == reflect.Ptr {
			want = wv.Elem().Interface()
		}
	}
	if !fv.Type().Comparable() {
		return reflect.DeepEqual(fv.Interface(), want)
	}
	return fv.Interface() == want
}

// convertValue 把条件值转换为字段类型：同类赋值、数值互转（不得丢失精度）、字符串类互转
func convertValue(value any, target reflect.Type) (any, error) {
	if value == nil {
		if target.Kind() == reflect.Ptr {
			return nil, nil
		}
		return nil, fmt.Errorf("nil value for non-nullable %s", target)
	}
	base := target
	if base.Kind() == reflect.Ptr {
		base = base.Elem()
	}

	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Ptr && !v.IsNil() && v.Type().Elem() == base {
		v = v.Elem()
	}
	if v.Type() == base {
		return v.Interface(), nil
	}

	switch {
	case isNumber(v.Kind()) && isNumber(base.Kind()):
		converted := v.Convert(base)
		if !converted.Convert(v.Type()).Equal(v) || isNegative(v) != isNegative(converted) {
			return nil, fmt.Errorf("value %v does not fit in %s", value, base)
		}
		return converted.Interface(), nil
	case v.Kind() == reflect.String && base.Kind() == reflect.String:
		return v.Convert(base).Interface(), nil
	case v.Type().AssignableTo(base):
		return v.Interface(), nil
	}
	return nil, fmt.Errorf("value of type %s cannot be compared with %s", v.Type(), base)
}

func isNegative(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() < 0
	case reflect.Float32, reflect.Float64:
		return v.Float() < 0
	default:
		return false
	}
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
