package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	core "gensvc/data/db"
	"gensvc/data/db/dialect"
)

type insertBuilder struct {
	db      core.IDatabase
	dialect dialect.Dialect

	table   string
	columns []string
	rows    [][]any
}

func (b *insertBuilder) Columns(cols ...string) IInsertBuilder {
	b.columns = cols
	return b
}

func (b *insertBuilder) Values(vals ...any) IInsertBuilder {
	if len(vals) > 0 {
		b.rows = append(b.rows, vals)
	}
	return b
}

func (b *insertBuilder) Build() (string, []any, error) {
	table, err := quoteTable(b.dialect, b.table)
	if err != nil {
		return "", nil, err
	}
	if len(b.columns) == 0 || len(b.rows) == 0 {
		return "", nil, fmt.Errorf("%w: insert into %s needs columns and values", ErrIncompleteStatement, b.table)
	}

	quoted := make([]string, len(b.columns))
	for i, col := range b.columns {
		if !isSafeIdentifier(col) {
			return "", nil, fmt.Errorf("%w: column %q", ErrUnsafeIdentifier, col)
		}
		quoted[i] = b.dialect.QuoteIdentifier(col)
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO " + table + " (" + strings.Join(quoted, ", ") + ") VALUES ")
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(b.columns)), ", ") + ")"

	args := make([]any, 0, len(b.rows)*len(b.columns))
	for i, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("%w: row %d has %d values for %d columns", ErrIncompleteStatement, i, len(row), len(b.columns))
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(placeholder)
		args = append(args, row...)
	}
	return sb.String(), args, nil
}

func (b *insertBuilder) Exec(ctx context.Context) (sql.Result, error) {
	q, args, err := b.Build()
	if err != nil {
		return nil, err
	}
	return b.db.Exec(ctx, q, args...)
}

type updateBuilder struct {
	db      core.IDatabase
	dialect dialect.Dialect

	table   string
	setCols []string
	setArgs []any
	where   conditions
}

func (b *updateBuilder) Set(col string, val any) IUpdateBuilder {
	if !isSafeIdentifier(col) {
		b.where.fail(col)
		return b
	}
	b.setCols = append(b.setCols, b.dialect.QuoteIdentifier(col)+" = ?")
	b.setArgs = append(b.setArgs, val)
	return b
}

func (b *updateBuilder) WhereEq(column string, value any) IUpdateBuilder {
	b.where.eq(b.dialect, column, value)
	return b
}

func (b *updateBuilder) Build() (string, []any, error) {
	if b.where.err != nil {
		return "", nil, b.where.err
	}
	table, err := quoteTable(b.dialect, b.table)
	if err != nil {
		return "", nil, err
	}
	if len(b.setCols) == 0 {
		return "", nil, fmt.Errorf("%w: update %s has nothing to set", ErrIncompleteStatement, b.table)
	}

	var sb strings.Builder
	sb.WriteString("UPDATE " + table + " SET " + strings.Join(b.setCols, ", "))
	args := make([]any, 0, len(b.setArgs)+len(b.where.args))
	args = append(args, b.setArgs...)
	if len(b.where.exprs) > 0 {
		sb.WriteString(" WHERE " + strings.Join(b.where.exprs, " AND "))
		args = append(args, b.where.args...)
	}
	return sb.String(), args, nil
}

func (b *updateBuilder) Exec(ctx context.Context) (sql.Result, error) {
	q, args, err := b.Build()
	if err != nil {
		return nil, err
	}
	return b.db.Exec(ctx, q, args...)
}

type deleteBuilder struct {
	db      core.IDatabase
	dialect dialect.Dialect

	table string
	where conditions
	limit int
}

func (b *deleteBuilder) WhereEq(column string, value any) IDeleteBuilder {
	b.where.eq(b.dialect, column, value)
	return b
}

func (b *deleteBuilder) Limit(n int) IDeleteBuilder {
	b.limit = n
	return b
}

func (b *deleteBuilder) Build() (string, []any, error) {
	if b.where.err != nil {
		return "", nil, b.where.err
	}
	table, err := quoteTable(b.dialect, b.table)
	if err != nil {
		return "", nil, err
	}
	// 不允许无条件删除整表
	if len(b.where.exprs) == 0 {
		return "", nil, fmt.Errorf("%w: delete from %s without where", ErrIncompleteStatement, b.table)
	}

	args := append([]any(nil), b.where.args...)
	q := "DELETE FROM " + table + " WHERE " + strings.Join(b.where.exprs, " AND ")
	if b.limit > 0 && b.dialect.SupportsDeleteLimit() {
		q += " LIMIT ?"
		args = append(args, b.limit)
	}
	return q, args, nil
}

func (b *deleteBuilder) Exec(ctx context.Context) (sql.Result, error) {
	q, args, err := b.Build()
	if err != nil {
		return nil, err
	}
	return b.db.Exec(ctx, q, args...)
}
