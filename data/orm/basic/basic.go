// Package basic 是基于 data/db 与 data/db/sql 的轻量 orm.IOrm 实现，
// 不依赖具体 ORM 库，字段映射来自 orm.MetaOf。
package basic

import (
	"context"
	"fmt"
	"reflect"

	dbcore "gensvc/data/db"
	dbsql "gensvc/data/db/sql"
	"gensvc/data/orm"
)

// Orm 轻量 IOrm 实现
type Orm struct {
	db   dbcore.IDatabase
	sql  dbsql.ISql
	caps orm.Capabilities
}

// New 创建基于指定 IDatabase 的 Orm 适配器
func New(db dbcore.IDatabase) *Orm {
	return &Orm{
		db:  db,
		sql: dbsql.New(db),
		caps: orm.NewCapabilities(
			orm.CapabilityBasicCRUD,
			orm.CapabilityQuery,
			orm.CapabilityTransaction,
			orm.CapabilityLastInsertID,
		),
	}
}

func (o *Orm) Capabilities() orm.Capabilities { return o.caps }
func (o *Orm) Database() dbcore.IDatabase     { return o.db }

// Model 返回模型级操作入口
func (o *Orm) Model(meta *orm.ModelMeta) orm.IModel {
	if meta == nil || meta.Table == "" {
		panic("basic.Orm: model meta with table name is required")
	}
	return &model{orm: o, meta: meta}
}

// Begin 开启事务会话，会话内的 Model 都在同一事务上执行
func (o *Orm) Begin(ctx context.Context) (orm.IOrmSession, error) {
	tx, err := o.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &session{Orm: New(tx), tx: tx}, nil
}

type session struct {
	*Orm
	tx dbcore.ITransaction
}

func (s *session) Commit() error   { return s.tx.Commit() }
func (s *session) Rollback() error { return s.tx.Rollback() }

// ------------------------------------------------------------------------
// model 实现 orm.IModel
// ------------------------------------------------------------------------

type model struct {
	orm  *Orm
	meta *orm.ModelMeta
}

func (m *model) Meta() *orm.ModelMeta { return m.meta }

func (m *model) query(qo orm.QueryOptions, columns ...string) dbsql.ISelectBuilder {
	builder := m.orm.sql.Select(columns...).From(m.meta.Table)
	for _, w := range qo.Where {
		if w.Value == nil {
			builder = builder.WhereNull(w.Column)
			continue
		}
		builder = builder.WhereEq(w.Column, w.Value)
	}
	for _, o := range qo.OrderBy {
		builder = builder.OrderBy(o.Column, o.Desc)
	}
	if qo.Offset > 0 {
		builder = builder.Offset(qo.Offset)
	}
	return builder
}

// First 查询单条记录，无结果返回 orm.ErrNotFound
func (m *model) First(ctx context.Context, dest any, opts ...orm.QueryOption) error {
	target, err := m.structTarget(dest)
	if err != nil {
		return err
	}
	rows, err := m.query(orm.CollectQueryOptions(opts...), m.meta.Columns()...).Limit(1).Query(ctx)
	if err != nil {
		return err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return orm.ErrNotFound
	}
	return m.scanRow(rows, target)
}

// Find 查询多条记录，dest 为 *[]T 或 *[]*T
func (m *model) Find(ctx context.Context, dest any, opts ...orm.QueryOption) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("basic.Model.Find: dest must be a pointer to slice, got %T", dest)
	}
	slice := rv.Elem()
	elemType := slice.Type().Elem()
	isPtr := elemType.Kind() == reflect.Ptr
	if isPtr {
		elemType = elemType.Elem()
	}
	if elemType != m.meta.Type {
		return fmt.Errorf("basic.Model.Find: dest element %s does not match model %s", elemType, m.meta.Type)
	}

	qo := orm.CollectQueryOptions(opts...)
	builder := m.query(qo, m.meta.Columns()...)
	if qo.Limit > 0 {
		builder = builder.Limit(qo.Limit)
	}
	rows, err := builder.Query(ctx)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		item := reflect.New(elemType)
		if err := m.scanRow(rows, item.Elem()); err != nil {
			return err
		}
		if isPtr {
			slice.Set(reflect.Append(slice, item))
		} else {
			slice.Set(reflect.Append(slice, item.Elem()))
		}
	}
	return rows.Err()
}

// Count 统计满足条件的行数
func (m *model) Count(ctx context.Context, opts ...orm.QueryOption) (int64, error) {
	rows, err := m.query(orm.CollectQueryOptions(opts...), "COUNT(*)").Query(ctx)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var count int64
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, err
		}
	}
	return count, rows.Err()
}

// Create 插入记录；零值自增主键交给数据库生成并回填
func (m *model) Create(ctx context.Context, entity any) error {
	val, err := m.structTarget(entity)
	if err != nil {
		return err
	}

	var (
		cols    []string
		vals    []any
		autoKey *orm.FieldMeta
	)
	for i := range m.meta.Fields {
		f := &m.meta.Fields[i]
		fv := val.FieldByIndex(f.Index)
		if f.PrimaryKey && f.AutoIncrement && fv.IsZero() {
			autoKey = f
			continue
		}
		cols = append(cols, f.Column)
		vals = append(vals, fv.Interface())
	}

	res, err := m.orm.sql.InsertInto(m.meta.Table).Columns(cols...).Values(vals...).Exec(ctx)
	if err != nil {
		return err
	}
	if autoKey == nil {
		return nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("basic.Model.Create: read generated key: %w", err)
	}
	fv := val.FieldByIndex(autoKey.Index)
	switch fv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		fv.SetUint(uint64(id))
	default:
		fv.SetInt(id)
	}
	return nil
}

// Save 按主键更新全部非主键列
func (m *model) Save(ctx context.Context, entity any) error {
	val, err := m.structTarget(entity)
	if err != nil {
		return err
	}
	keys := m.meta.Keys()
	if len(keys) == 0 {
		return orm.ErrNoKey
	}

	builder := m.orm.sql.Update(m.meta.Table)
	for _, f := range m.meta.Fields {
		if !f.PrimaryKey {
			builder = builder.Set(f.Column, val.FieldByIndex(f.Index).Interface())
		}
	}
	for _, k := range keys {
		builder = builder.WhereEq(k.Column, val.FieldByIndex(k.Index).Interface())
	}
	res, err := builder.Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Delete 按主键删除
func (m *model) Delete(ctx context.Context, entity any) error {
	val, err := m.structTarget(entity)
	if err != nil {
		return err
	}
	keys := m.meta.Keys()
	if len(keys) == 0 {
		return orm.ErrNoKey
	}

	builder := m.orm.sql.DeleteFrom(m.meta.Table)
	for _, k := range keys {
		builder = builder.WhereEq(k.Column, val.FieldByIndex(k.Index).Interface())
	}
	res, err := builder.Limit(1).Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

type rowsAffected interface{ RowsAffected() (int64, error) }

// requireAffected 按主键的更新/删除未命中时返回 orm.ErrNotFound
func requireAffected(res rowsAffected) error {
	n, err := res.RowsAffected()
	if err != nil {
		return nil // 驱动不支持时不做判断
	}
	if n == 0 {
		return orm.ErrNotFound
	}
	return nil
}

// structTarget 校验 dest 为指向模型类型的非空指针，返回可寻址的结构体值
func (m *model) structTarget(dest any) (reflect.Value, error) {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Type() != m.meta.Type {
		return reflect.Value{}, fmt.Errorf("basic.Model: expected *%s, got %T", m.meta.Type, dest)
	}
	return rv.Elem(), nil
}

// scanRow 按列名把当前行扫描进结构体，未知列丢弃
func (m *model) scanRow(rows dbcore.IRows, v reflect.Value) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	targets := make([]any, len(cols))
	for i, col := range cols {
		if f, ok := m.meta.FieldByColumn(col); ok {
			targets[i] = v.FieldByIndex(f.Index).Addr().Interface()
			continue
		}
		var discard any
		targets[i] = &discard
	}
	return rows.Scan(targets...)
}
