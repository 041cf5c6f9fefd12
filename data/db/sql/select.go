package sql

import (
	"context"
	"fmt"
	"strings"

	core "gensvc/data/db"
	"gensvc/data/db/dialect"
)

type selectBuilder struct {
	db      core.IDatabase
	dialect dialect.Dialect

	cols   []string
	table  string
	where  conditions
	order  []string
	limit  int
	offset int
}

func (b *selectBuilder) From(table string) ISelectBuilder {
	b.table = table
	return b
}

func (b *selectBuilder) WhereEq(column string, value any) ISelectBuilder {
	b.where.eq(b.dialect, column, value)
	return b
}

func (b *selectBuilder) WhereNull(column string) ISelectBuilder {
	b.where.null(b.dialect, column)
	return b
}

func (b *selectBuilder) Where(cond string, args ...any) ISelectBuilder {
	b.where.raw(cond, args...)
	return b
}

func (b *selectBuilder) OrderBy(column string, desc bool) ISelectBuilder {
	if !isSafeIdentifier(column) {
		b.where.fail(column)
		return b
	}
	expr := b.dialect.QuoteIdentifier(column)
	if desc {
		expr += " DESC"
	}
	b.order = append(b.order, expr)
	return b
}

func (b *selectBuilder) Limit(n int) ISelectBuilder {
	b.limit = n
	return b
}

func (b *selectBuilder) Offset(n int) ISelectBuilder {
	b.offset = n
	return b
}

func (b *selectBuilder) Build() (string, []any, error) {
	if b.where.err != nil {
		return "", nil, b.where.err
	}
	table, err := quoteTable(b.dialect, b.table)
	if err != nil {
		return "", nil, err
	}

	cols := "*"
	if len(b.cols) > 0 {
		quoted := make([]string, len(b.cols))
		for i, c := range b.cols {
			if c == "*" || strings.HasPrefix(strings.ToUpper(c), "COUNT(") {
				quoted[i] = c
				continue
			}
			if !isSafeIdentifier(c) {
				return "", nil, fmt.Errorf("%w: column %q", ErrUnsafeIdentifier, c)
			}
			quoted[i] = b.dialect.QuoteIdentifier(c)
		}
		cols = strings.Join(quoted, ", ")
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + cols + " FROM " + table)

	// 每次 Build 使用独立的 args 副本
	args := append(make([]any, 0, len(b.where.args)+2), b.where.args...)
	if len(b.where.exprs) > 0 {
		sb.WriteString(" WHERE " + strings.Join(b.where.exprs, " AND "))
	}
	if len(b.order) > 0 {
		sb.WriteString(" ORDER BY " + strings.Join(b.order, ", "))
	}
	if b.limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, b.limit)
	}
	if b.offset > 0 {
		if b.limit <= 0 && b.dialect.Name() == dialect.NameSQLite {
			// sqlite 要求 OFFSET 前有 LIMIT
			sb.WriteString(" LIMIT -1")
		}
		sb.WriteString(" OFFSET ?")
		args = append(args, b.offset)
	}
	return sb.String(), args, nil
}

func (b *selectBuilder) Query(ctx context.Context) (core.IRows, error) {
	q, args, err := b.Build()
	if err != nil {
		return nil, err
	}
	return b.db.Query(ctx, q, args...)
}
