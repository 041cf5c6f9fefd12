// Package memory 提供进程内的持久化上下文，用于测试和原型。
//
// Store 相当于一个数据库，可被多个工作单元（dbcontext.Context）共享；
// 存入和取出的都是值副本，调用方持有的指针不会影响已保存的数据。
package memory

import (
	"context"
	stdErrors "errors"
	"fmt"
	"reflect"
	"sync"

	"gensvc/core"
	"gensvc/data/orm"
	"gensvc/dbcontext"
)

// Config 内存上下文配置
type Config = dbcontext.Config

type table struct {
	meta   *orm.ModelMeta
	rows   []reflect.Value
	nextID int64
}

func (t *table) clone() *table {
	return &table{meta: t.meta, rows: append([]reflect.Value(nil), t.rows...), nextID: t.nextID}
}

// Store 并发安全的内存存储
type Store struct {
	mu     sync.RWMutex
	tables map[reflect.Type]*table
}

var _ dbcontext.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{tables: make(map[reflect.Type]*table)}
}

// NewContext 在 store 上开启一个新的工作单元
func NewContext(store *Store, config Config) *dbcontext.Context {
	return dbcontext.New(store, config)
}

// Seed 直接写入实体（不经过校验和变更发布），entities 为 *E
func (s *Store) Seed(entities ...any) error {
	entries := make([]*dbcontext.Entry, 0, len(entities))
	for _, entity := range entities {
		meta, err := orm.MetaOf(entity)
		if err != nil {
			return err
		}
		entries = append(entries, &dbcontext.Entry{Entity: entity, Meta: meta, State: dbcontext.StateAdded})
	}
	return s.Commit(context.Background(), entries)
}

// Count 返回某实体类型已保存的行数
func (s *Store) Count(entityType reflect.Type) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tables[entityType]; ok {
		return len(t.rows)
	}
	return 0
}

func (s *Store) Query(ctx context.Context, meta *orm.ModelMeta, filter core.Filter) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[meta.Type]
	if !ok {
		return []any{}, nil
	}
	out := make([]any, 0, len(t.rows))
	for _, row := range t.rows {
		if !filter.IsZero() && !filter.Matches(row.Interface()) {
			continue
		}
		p := reflect.New(meta.Type)
		p.Elem().Set(row)
		out = append(out, p.Interface())
	}
	return out, nil
}

// Commit 在副本上依次应用变更，全部成功后才替换原表
func (s *Store) Commit(ctx context.Context, entries []*dbcontext.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[reflect.Type]*table)
	stage := func(meta *orm.ModelMeta) *table {
		if t, ok := staged[meta.Type]; ok {
			return t
		}
		var t *table
		if existing, ok := s.tables[meta.Type]; ok {
			t = existing.clone()
		} else {
			t = &table{meta: meta}
		}
		staged[meta.Type] = t
		return t
	}

	var assigned []func()
	for _, e := range entries {
		t := stage(e.Meta)
		row := reflect.ValueOf(e.Entity).Elem()
		var err error
		switch e.State {
		case dbcontext.StateAdded:
			var restore func()
			restore, err = t.insert(row)
			if restore != nil {
				assigned = append(assigned, restore)
			}
		case dbcontext.StateModified:
			err = t.update(row)
		case dbcontext.StateDeleted:
			err = t.remove(row)
		}
		if err != nil {
			for _, restore := range assigned {
				restore()
			}
			return &dbcontext.CommitError{Entry: e, Err: err}
		}
	}

	for typ, t := range staged {
		s.tables[typ] = t
	}
	return nil
}

func (s *Store) IsUniqueViolation(err error) bool {
	return stdErrors.Is(err, dbcontext.ErrDuplicateKey)
}

// insert 为零值的自增主键分配 ID，返回撤销分配的函数
func (t *table) insert(row reflect.Value) (func(), error) {
	var restore func()
	keys := t.meta.Keys()
	if len(keys) == 1 && keys[0].AutoIncrement {
		field := row.FieldByIndex(keys[0].Index)
		if field.IsZero() {
			t.nextID = max(t.nextID, t.maxID(keys[0])) + 1
			if err := setInt(field, t.nextID); err != nil {
				return nil, err
			}
			restore = func() { field.Set(reflect.Zero(field.Type())) }
		}
	}
	if i := t.indexOf(row); i >= 0 {
		return restore, fmt.Errorf("%w: %s %v", dbcontext.ErrDuplicateKey, t.meta.Type.Name(), t.meta.KeyValues(row.Interface()))
	}
	if err := t.checkUnique(row, -1); err != nil {
		return restore, err
	}
	t.rows = append(t.rows, copyOf(row))
	return restore, nil
}

func (t *table) update(row reflect.Value) error {
	i := t.indexOf(row)
	if i < 0 {
		return orm.ErrNotFound
	}
	if err := t.checkUnique(row, i); err != nil {
		return err
	}
	t.rows[i] = copyOf(row)
	return nil
}

func (t *table) remove(row reflect.Value) error {
	i := t.indexOf(row)
	if i < 0 {
		return orm.ErrNotFound
	}
	t.rows = append(t.rows[:i:i], t.rows[i+1:]...)
	return nil
}

func (t *table) indexOf(row reflect.Value) int {
	for i, existing := range t.rows {
		if sameFields(t.meta.Keys(), existing, row) {
			return i
		}
	}
	return -1
}

func (t *table) checkUnique(row reflect.Value, self int) error {
	for _, f := range t.meta.UniqueFields() {
		for i, existing := range t.rows {
			if i != self && sameFields([]orm.FieldMeta{f}, existing, row) {
				return fmt.Errorf("%w: %s.%s = %v", dbcontext.ErrDuplicateKey,
					t.meta.Type.Name(), f.Name, row.FieldByIndex(f.Index).Interface())
			}
		}
	}
	return nil
}

func (t *table) maxID(key orm.FieldMeta) int64 {
	var maxID int64
	for _, row := range t.rows {
		if v := intOf(row.FieldByIndex(key.Index)); v > maxID {
			maxID = v
		}
	}
	return maxID
}

func sameFields(fields []orm.FieldMeta, a, b reflect.Value) bool {
	for _, f := range fields {
		if !reflect.DeepEqual(a.FieldByIndex(f.Index).Interface(), b.FieldByIndex(f.Index).Interface()) {
			return false
		}
	}
	return true
}

func copyOf(row reflect.Value) reflect.Value {
	v := reflect.New(row.Type()).Elem()
	v.Set(row)
	return v
}

func intOf(v reflect.Value) int64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint())
	default:
		return 0
	}
}

func setInt(v reflect.Value, n int64) error {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.OverflowInt(n) {
			return fmt.Errorf("memory: id %d overflows %s", n, v.Type())
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v.OverflowUint(uint64(n)) {
			return fmt.Errorf("memory: id %d overflows %s", n, v.Type())
		}
		v.SetUint(uint64(n))
	default:
		return fmt.Errorf("memory: cannot assign id to %s", v.Type())
	}
	return nil
}
