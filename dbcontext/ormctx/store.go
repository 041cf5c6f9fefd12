// Package ormctx 基于 data/orm 适配器的持久化上下文，支持任意 SQL 数据库。
//
// 查询在事务之外执行；SaveChangesWithValidation 的全部写入在同一个 orm 会话（事务）中完成。
package ormctx

import (
	"context"
	"fmt"
	"reflect"

	"gensvc/core"
	"gensvc/data/db/dialect"
	"gensvc/data/orm"
	"gensvc/dbcontext"
	apperrors "gensvc/errors"
	"gensvc/logging"
)

// Config ormctx 配置
type Config struct {
	dbcontext.Config

	// Orm 必填，需要 BasicCRUD、Query 与 Transaction 能力
	Orm orm.IOrm
}

// Store 把 dbcontext.Store 映射到 orm.IModel 操作
type Store struct {
	orm     orm.IOrm
	dialect dialect.Dialect
	logger  logging.Logger
}

var _ dbcontext.Store = (*Store)(nil)

// NewStore 校验适配器能力并创建 Store
func NewStore(o orm.IOrm) (*Store, error) {
	if o == nil {
		return nil, fmt.Errorf("ormctx: orm is required")
	}
	if !o.Capabilities().Supports(orm.CapabilityBasicCRUD, orm.CapabilityQuery, orm.CapabilityTransaction) {
		return nil, fmt.Errorf("ormctx: %w: basic CRUD, query and transactions are required", orm.ErrUnsupported)
	}
	return &Store{
		orm:     o,
		dialect: dialect.FromDatabase(o.Database()),
		logger:  logging.ComponentLogger("dbcontext.orm"),
	}, nil
}

// NewContext 创建 Store 并开启一个工作单元
func NewContext(config Config) (*dbcontext.Context, error) {
	store, err := NewStore(config.Orm)
	if err != nil {
		return nil, err
	}
	return dbcontext.New(store, config.Config), nil
}

// Query 把过滤条件转换为列上的等值条件，结果按主键排序
func (s *Store) Query(ctx context.Context, meta *orm.ModelMeta, filter core.Filter) ([]any, error) {
	var opts []orm.QueryOption
	for _, cond := range filter.Conditions() {
		field, ok := meta.Field(cond.Property)
		if !ok {
			return nil, core.NewConfigurationError(meta.Type, "property %s is not a persisted column", cond.Property)
		}
		opts = append(opts, orm.WithEquals(field.Column, cond.Value))
	}
	for _, key := range meta.Keys() {
		opts = append(opts, orm.WithOrderBy(key.Column, false))
	}

	dest := reflect.New(reflect.SliceOf(reflect.PointerTo(meta.Type)))
	if err := s.orm.Model(meta).Find(ctx, dest.Interface(), opts...); err != nil {
		return nil, apperrors.WrapDatabaseError(ctx, err, "query "+meta.Table)
	}
	rows := dest.Elem()
	out := make([]any, rows.Len())
	for i := range out {
		out[i] = rows.Index(i).Interface()
	}
	return out, nil
}

// Commit 在一个事务中按顺序写入，任一失败则回滚并撤销已回填的自增主键
func (s *Store) Commit(ctx context.Context, entries []*dbcontext.Entry) (err error) {
	session, err := s.orm.Begin(ctx)
	if err != nil {
		return apperrors.WrapDatabaseError(ctx, err, "begin transaction")
	}

	var generated []reflect.Value
	defer func() {
		if err == nil {
			return
		}
		if rbErr := session.Rollback(); rbErr != nil {
			s.logger.Warn(ctx, "回滚失败", logging.Error(rbErr))
		}
		for _, key := range generated {
			key.Set(reflect.Zero(key.Type()))
		}
	}()

	for _, e := range entries {
		model := session.Model(e.Meta)
		var opErr error
		switch e.State {
		case dbcontext.StateAdded:
			if key := autoKey(e); key.IsValid() && key.IsZero() {
				generated = append(generated, key)
			}
			opErr = model.Create(ctx, e.Entity)
		case dbcontext.StateModified:
			opErr = model.Save(ctx, e.Entity)
		case dbcontext.StateDeleted:
			opErr = model.Delete(ctx, e.Entity)
		}
		if opErr != nil {
			return &dbcontext.CommitError{Entry: e, Err: opErr}
		}
	}
	if err = session.Commit(); err != nil {
		return fmt.Errorf("ormctx: commit: %w", err)
	}
	return nil
}

func (s *Store) IsUniqueViolation(err error) bool {
	return s.dialect.IsUniqueViolation(err)
}

func autoKey(e *dbcontext.Entry) reflect.Value {
	keys := e.Meta.Keys()
	if len(keys) != 1 || !keys[0].AutoIncrement {
		return reflect.Value{}
	}
	return reflect.ValueOf(e.Entity).Elem().FieldByIndex(keys[0].Index)
}
