package dbcontext

import (
	"context"
	"reflect"

	"gensvc/core"
)

// Set 强类型的实体集合
type Set[E any] struct {
	inner IDbSet
}

// SetOf 返回 E 的强类型集合，E 不是可持久化的结构体时 panic(*core.ConfigurationError)
func SetOf[E any](db IDbContext) *Set[E] {
	return &Set[E]{inner: db.Set(reflect.TypeOf((*E)(nil)).Elem())}
}

func (s *Set[E]) Untyped() IDbSet { return s.inner }

func (s *Set[E]) Add(entity *E) error    { return s.inner.Add(entity) }
func (s *Set[E]) Update(entity *E) error { return s.inner.Update(entity) }
func (s *Set[E]) Remove(entity *E) error { return s.inner.Remove(entity) }

func (s *Set[E]) Where(ctx context.Context, filter core.Filter) ([]*E, error) {
	return typed[E](s.inner.Where(ctx, filter))
}

func (s *Set[E]) WhereTracked(ctx context.Context, filter core.Filter) ([]*E, error) {
	return typed[E](s.inner.WhereTracked(ctx, filter))
}

func (s *Set[E]) All(ctx context.Context) ([]*E, error) {
	return typed[E](s.inner.All(ctx))
}

func typed[E any](rows []any, err error) ([]*E, error) {
	if err != nil {
		return nil, err
	}
	out := make([]*E, len(rows))
	for i, row := range rows {
		out[i] = row.(*E)
	}
	return out, nil
}
