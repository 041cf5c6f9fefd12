package basic

import (
	"context"
	"database/sql"
	"errors"

	core "gensvc/data/db"
	"gensvc/data/db/dialect"
)

// ErrNestedTransaction 事务内再次 Begin
var ErrNestedTransaction = errors.New("basic.Tx: nested transactions are not supported")

// Tx 委托给 *sql.Tx，同时实现 core.IDatabase，便于 SQL 构建器在事务内执行
type Tx struct {
	db      *sql.DB
	tx      *sql.Tx
	dialect dialect.Dialect
}

func (t *Tx) Query(ctx context.Context, query string, args ...any) (core.IRows, error) {
	rows, err := t.tx.QueryContext(ctx, t.dialect.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	return &Rows{rows: rows}, nil
}

func (t *Tx) QueryRow(ctx context.Context, query string, args ...any) core.IRow {
	return t.tx.QueryRowContext(ctx, t.dialect.Rebind(query), args...)
}

func (t *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.dialect.Rebind(query), args...)
}

func (t *Tx) Begin(ctx context.Context) (core.ITransaction, error) {
	return nil, ErrNestedTransaction
}

func (t *Tx) Ping(ctx context.Context) error { return t.db.PingContext(ctx) }

// Close 事务不拥有连接池，关闭由 DB 负责
func (t *Tx) Close() error { return nil }

func (t *Tx) Commit() error   { return t.tx.Commit() }
func (t *Tx) Rollback() error { return t.tx.Rollback() }

// GetDialectName 实现 core.IDialectNameProvider
func (t *Tx) GetDialectName() string { return string(t.dialect.Name()) }
