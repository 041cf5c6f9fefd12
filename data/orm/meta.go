package orm

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"
)

// FieldMeta 描述一个持久化字段
type FieldMeta struct {
	Name          string // Go 字段名
	Column        string
	Index         []int
	Type          reflect.Type
	PrimaryKey    bool
	AutoIncrement bool
	Unique        bool
}

// ModelMeta 描述模型的表名、字段与主键。
// 由 MetaOf 构建并缓存，构建后只读。
type ModelMeta struct {
	Type   reflect.Type
	Table  string
	Fields []FieldMeta

	keys     []int
	byName   map[string]int
	byColumn map[string]int
}

// Keys 返回主键字段，顺序即声明顺序
func (m *ModelMeta) Keys() []FieldMeta {
	out := make([]FieldMeta, len(m.keys))
	for i, idx := range m.keys {
		out[i] = m.Fields[idx]
	}
	return out
}

// KeyNames 返回主键字段的 Go 名称
func (m *ModelMeta) KeyNames() []string {
	names := make([]string, len(m.keys))
	for i, idx := range m.keys {
		names[i] = m.Fields[idx].Name
	}
	return names
}

// Field 按 Go 字段名查找
func (m *ModelMeta) Field(name string) (FieldMeta, bool) {
	idx, ok := m.byName[name]
	if !ok {
		return FieldMeta{}, false
	}
	return m.Fields[idx], true
}

// FieldByColumn 按列名查找
func (m *ModelMeta) FieldByColumn(column string) (FieldMeta, bool) {
	idx, ok := m.byColumn[column]
	if !ok {
		return FieldMeta{}, false
	}
	return m.Fields[idx], true
}

// KeyValues 读取实体的主键值（entity 为结构体或其指针）
func (m *ModelMeta) KeyValues(entity any) []any {
	v := reflect.Indirect(reflect.ValueOf(entity))
	values := make([]any, len(m.keys))
	for i, idx := range m.keys {
		values[i] = v.FieldByIndex(m.Fields[idx].Index).Interface()
	}
	return values
}

// UniqueFields 返回声明了唯一约束的非主键字段
func (m *ModelMeta) UniqueFields() []FieldMeta {
	var out []FieldMeta
	for _, f := range m.Fields {
		if f.Unique && !f.PrimaryKey {
			out = append(out, f)
		}
	}
	return out
}

// Columns 返回全部列名
func (m *ModelMeta) Columns() []string {
	cols := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		cols[i] = f.Column
	}
	return cols
}

var metaCache = struct {
	mu    sync.RWMutex
	metas map[reflect.Type]*ModelMeta
}{metas: make(map[reflect.Type]*ModelMeta)}

// MetaOf 返回模型元信息，model 可以是结构体值、指针或 reflect.Type
func MetaOf(model any) (*ModelMeta, error) {
	t, ok := model.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(model)
	}
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("orm.MetaOf: %v is not a struct type", t)
	}

	metaCache.mu.RLock()
	meta, ok := metaCache.metas[t]
	metaCache.mu.RUnlock()
	if ok {
		return meta, nil
	}

	meta = buildModelMeta(t)
	metaCache.mu.Lock()
	if existing, ok := metaCache.metas[t]; ok {
		meta = existing
	} else {
		metaCache.metas[t] = meta
	}
	metaCache.mu.Unlock()
	return meta, nil
}

func buildModelMeta(t reflect.Type) *ModelMeta {
	meta := &ModelMeta{
		Type:     t,
		Table:    tableNameOf(t),
		byName:   make(map[string]int),
		byColumn: make(map[string]int),
	}

	var walk func(reflect.Type, []int)
	walk = func(cur reflect.Type, prefix []int) {
		for i := 0; i < cur.NumField(); i++ {
			f := cur.Field(i)
			index := append(append([]int(nil), prefix...), i)

			// 内嵌结构体（例如公共的 Entity 基类）展开
			if f.Anonymous && f.Type.Kind() == reflect.Struct && !isTimeType(f.Type) {
				walk(f.Type, index)
				continue
			}
			if !f.IsExported() || f.Tag.Get("gorm") == "-" || f.Tag.Get("db") == "-" {
				continue
			}
			// 只收集标量字段，切片/映射/结构体（time.Time 除外）不落库
			if !isScalarDBField(f.Type) {
				continue
			}

			fm := parseColumnTag(f)
			fm.Index = index
			if fm.Column == "" {
				fm.Column = toSnakeCase(f.Name)
			}
			// 外层同名字段覆盖内嵌定义
			if idx, dup := meta.byName[fm.Name]; dup {
				if len(meta.Fields[idx].Index) >= len(fm.Index) {
					meta.Fields[idx] = fm
				}
				continue
			}
			meta.byName[fm.Name] = len(meta.Fields)
			meta.Fields = append(meta.Fields, fm)
		}
	}
	walk(t, nil)

	for i, f := range meta.Fields {
		meta.byColumn[f.Column] = i
		if f.PrimaryKey {
			meta.keys = append(meta.keys, i)
		}
	}
	if len(meta.keys) == 0 {
		if idx, ok := meta.byName["ID"]; ok {
			meta.Fields[idx].PrimaryKey = true
			meta.keys = []int{idx}
		}
	}
	// 单一整型主键默认自增
	if len(meta.keys) == 1 {
		key := &meta.Fields[meta.keys[0]]
		if isIntegerKind(key.Type.Kind()) {
			if !strings.Contains(strings.ToLower(fieldTag(t, key.Index, "gorm")), "autoincrement:false") {
				key.AutoIncrement = true
			}
		}
	}
	return meta
}

func fieldTag(t reflect.Type, index []int, key string) string {
	return t.FieldByIndex(index).Tag.Get(key)
}

// parseColumnTag 解析 gorm/db/json/key 标签
func parseColumnTag(f reflect.StructField) FieldMeta {
	fm := FieldMeta{Name: f.Name, Type: f.Type}

	for _, part := range strings.Split(f.Tag.Get("gorm"), ";") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case strings.HasPrefix(part, "column:"):
			fm.Column = strings.TrimPrefix(part, "column:")
		case strings.EqualFold(part, "primaryKey"), strings.EqualFold(part, "primary_key"):
			fm.PrimaryKey = true
		case strings.EqualFold(part, "autoIncrement"):
			fm.AutoIncrement = true
		case strings.EqualFold(part, "unique"), strings.HasPrefix(strings.ToLower(part), "uniqueindex"):
			fm.Unique = true
		}
	}
	if strings.EqualFold(f.Tag.Get("key"), "true") {
		fm.PrimaryKey = true
	}

	if fm.Column == "" {
		if dbTag := f.Tag.Get("db"); dbTag != "" {
			fm.Column = strings.Split(dbTag, ",")[0]
		} else if jsonTag := strings.Split(f.Tag.Get("json"), ",")[0]; jsonTag != "" && jsonTag != "-" {
			fm.Column = jsonTag
		}
	}
	return fm
}

type tableNamer interface{ TableName() string }

// tableNameOf 优先使用 TableName()，否则为类型名的 snake_case 复数
func tableNameOf(t reflect.Type) string {
	if tn, ok := reflect.New(t).Interface().(tableNamer); ok {
		if name := tn.TableName(); name != "" {
			return name
		}
	}
	return pluralize(toSnakeCase(t.Name()))
}

func pluralize(s string) string {
	switch {
	case s == "":
		return s
	case strings.HasSuffix(s, "s"), strings.HasSuffix(s, "x"),
		strings.HasSuffix(s, "ch"), strings.HasSuffix(s, "sh"):
		return s + "es"
	case strings.HasSuffix(s, "y") && len(s) > 1 && !strings.ContainsRune("aeiou", rune(s[len(s)-2])):
		return s[:len(s)-1] + "ies"
	default:
		return s + "s"
	}
}

// toSnakeCase 转换驼峰命名，连续大写视为一个单词（BookID -> book_id）
func toSnakeCase(s string) string {
	runes := []rune(s)
	var sb strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))) {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func isScalarDBField(t reflect.Type) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if isTimeType(t) {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.Float32, reflect.Float64, reflect.String:
		return true
	default:
		return isIntegerKind(t.Kind())
	}
}

func isIntegerKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

func isTimeType(t reflect.Type) bool {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.PkgPath() == "time" && t.Name() == "Time"
}
