// Package sql 在 db.IDatabase 之上提供按方言转义的 SQL 构建器。
//
// 构建器只接受安全标识符，非法表名或列名在 Build 时返回 ErrUnsafeIdentifier。
package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	core "gensvc/data/db"
	"gensvc/data/db/dialect"
)

var (
	// ErrUnsafeIdentifier 表名或列名包含非法字符
	ErrUnsafeIdentifier = errors.New("sql: unsafe identifier")
	// ErrIncompleteStatement 缺少必需的子句（列、值或 SET）
	ErrIncompleteStatement = errors.New("sql: incomplete statement")
)

// ISql 统一的 SQL 构建入口
type ISql interface {
	Select(columns ...string) ISelectBuilder
	InsertInto(table string) IInsertBuilder
	Update(table string) IUpdateBuilder
	DeleteFrom(table string) IDeleteBuilder
	Dialect() dialect.Dialect
}

// ISelectBuilder 构建 SELECT 语句
type ISelectBuilder interface {
	From(table string) ISelectBuilder
	// WhereEq 追加 `column = ?`，列名按方言转义
	WhereEq(column string, value any) ISelectBuilder
	// WhereNull 追加 `column IS NULL`
	WhereNull(column string) ISelectBuilder
	Where(cond string, args ...any) ISelectBuilder
	OrderBy(column string, desc bool) ISelectBuilder
	Limit(n int) ISelectBuilder
	Offset(n int) ISelectBuilder
	Build() (query string, args []any, err error)
	Query(ctx context.Context) (core.IRows, error)
}

// IInsertBuilder 构建 INSERT 语句
type IInsertBuilder interface {
	Columns(cols ...string) IInsertBuilder
	Values(vals ...any) IInsertBuilder
	Build() (query string, args []any, err error)
	Exec(ctx context.Context) (sql.Result, error)
}

// IUpdateBuilder 构建 UPDATE 语句
type IUpdateBuilder interface {
	Set(column string, val any) IUpdateBuilder
	WhereEq(column string, value any) IUpdateBuilder
	Build() (query string, args []any, err error)
	Exec(ctx context.Context) (sql.Result, error)
}

// IDeleteBuilder 构建 DELETE 语句
type IDeleteBuilder interface {
	WhereEq(column string, value any) IDeleteBuilder
	Limit(n int) IDeleteBuilder
	Build() (query string, args []any, err error)
	Exec(ctx context.Context) (sql.Result, error)
}

type sqlImpl struct {
	db      core.IDatabase
	dialect dialect.Dialect
}

// New 创建 ISql，方言从 db 推断
func New(db core.IDatabase) ISql {
	return &sqlImpl{db: db, dialect: dialect.FromDatabase(db)}
}

func (s *sqlImpl) Select(columns ...string) ISelectBuilder {
	return &selectBuilder{db: s.db, dialect: s.dialect, cols: columns}
}

func (s *sqlImpl) InsertInto(table string) IInsertBuilder {
	return &insertBuilder{db: s.db, dialect: s.dialect, table: table}
}

func (s *sqlImpl) Update(table string) IUpdateBuilder {
	return &updateBuilder{db: s.db, dialect: s.dialect, table: table}
}

func (s *sqlImpl) DeleteFrom(table string) IDeleteBuilder {
	return &deleteBuilder{db: s.db, dialect: s.dialect, table: table}
}

func (s *sqlImpl) Dialect() dialect.Dialect { return s.dialect }

// conditions 记录等值条件，供 SELECT/UPDATE/DELETE 共用
type conditions struct {
	exprs []string
	args  []any
	err   error
}

func (c *conditions) eq(d dialect.Dialect, column string, value any) {
	if !isSafeIdentifier(column) {
		c.fail(column)
		return
	}
	c.exprs = append(c.exprs, d.QuoteIdentifier(column)+" = ?")
	c.args = append(c.args, value)
}

func (c *conditions) null(d dialect.Dialect, column string) {
	if !isSafeIdentifier(column) {
		c.fail(column)
		return
	}
	c.exprs = append(c.exprs, d.QuoteIdentifier(column)+" IS NULL")
}

func (c *conditions) raw(cond string, args ...any) {
	if cond == "" {
		return
	}
	c.exprs = append(c.exprs, cond)
	c.args = append(c.args, args...)
}

func (c *conditions) fail(name string) {
	if c.err == nil {
		c.err = fmt.Errorf("%w: %q", ErrUnsafeIdentifier, name)
	}
}

func quoteTable(d dialect.Dialect, table string) (string, error) {
	if !isSafeIdentifier(table) {
		return "", fmt.Errorf("%w: table %q", ErrUnsafeIdentifier, table)
	}
	return d.QuoteIdentifier(table), nil
}
