package sql

import (
	"context"
	stdsql "database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	core "gensvc/data/db"
)

// fakeDB 只提供方言名，构建测试不触达数据库
type fakeDB struct{ name string }

func (f *fakeDB) Query(ctx context.Context, query string, args ...any) (core.IRows, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeDB) QueryRow(ctx context.Context, query string, args ...any) core.IRow { return nil }
func (f *fakeDB) Exec(ctx context.Context, query string, args ...any) (stdsql.Result, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeDB) Begin(ctx context.Context) (core.ITransaction, error) { return nil, nil }
func (f *fakeDB) Ping(ctx context.Context) error                      { return nil }
func (f *fakeDB) Close() error                                        { return nil }
func (f *fakeDB) GetDialectName() string                              { return f.name }

func TestSelectBuilder(t *testing.T) {
	s := New(&fakeDB{name: "sqlite"})

	q, args, err := s.Select("id", "title").From("books").
		WhereEq("id", 42).WhereEq("shelf", "A").
		OrderBy("title", true).Limit(2).Build()
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id", "title" FROM "books" WHERE "id" = ? AND "shelf" = ? ORDER BY "title" DESC LIMIT ?`, q)
	assert.Equal(t, []any{42, "A", 2}, args)

	q, _, err = s.Select("id").From("books").WhereNull("shelf").Build()
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id" FROM "books" WHERE "shelf" IS NULL`, q)

	q, args, err = s.Select().From("books").Offset(5).Build()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "books" LIMIT -1 OFFSET ?`, q)
	assert.Equal(t, []any{5}, args)

	q, _, err = s.Select("COUNT(*)").From("books").Build()
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM "books"`, q)
}

func TestSelectBuilder_UnsafeIdentifier(t *testing.T) {
	s := New(&fakeDB{name: "sqlite"})

	_, _, err := s.Select().From("books; DROP TABLE x").Build()
	assert.ErrorIs(t, err, ErrUnsafeIdentifier)

	_, _, err = s.Select().From("books").WhereEq("id or 1=1", 1).Build()
	assert.ErrorIs(t, err, ErrUnsafeIdentifier)
}

func TestInsertBuilder(t *testing.T) {
	s := New(&fakeDB{name: "postgres"})

	q, args, err := s.InsertInto("books").Columns("title", "isbn").Values("Go", "1").Values("Rust", "2").Build()
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "books" ("title", "isbn") VALUES (?, ?), (?, ?)`, q)
	assert.Equal(t, []any{"Go", "1", "Rust", "2"}, args)

	_, _, err = s.InsertInto("books").Columns("title").Build()
	assert.ErrorIs(t, err, ErrIncompleteStatement)

	_, _, err = s.InsertInto("books").Columns("title", "isbn").Values("only one").Build()
	assert.ErrorIs(t, err, ErrIncompleteStatement)
}

func TestUpdateBuilder(t *testing.T) {
	s := New(&fakeDB{name: "mysql"})

	q, args, err := s.Update("books").Set("title", "New").WhereEq("id", 7).Build()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE `books` SET `title` = ? WHERE `id` = ?", q)
	assert.Equal(t, []any{"New", 7}, args)

	_, _, err = s.Update("books").WhereEq("id", 7).Build()
	assert.ErrorIs(t, err, ErrIncompleteStatement)
}

func TestDeleteBuilder(t *testing.T) {
	q, args, err := New(&fakeDB{name: "mysql"}).DeleteFrom("books").WhereEq("id", 1).Limit(1).Build()
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM `books` WHERE `id` = ? LIMIT ?", q)
	assert.Equal(t, []any{1, 1}, args)

	q, _, err = New(&fakeDB{name: "sqlite"}).DeleteFrom("books").WhereEq("id", 1).Limit(1).Build()
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "books" WHERE "id" = ?`, q)

	_, _, err = New(&fakeDB{name: "sqlite"}).DeleteFrom("books").Build()
	assert.ErrorIs(t, err, ErrIncompleteStatement)
}

func TestIsSafeIdentifier(t *testing.T) {
	for _, ok := range []string{"books", "_x", "books.id", "a1_b2"} {
		assert.True(t, isSafeIdentifier(ok), ok)
	}
	for _, bad := range []string{"", "1books", "books.", "a b", "x;y", "a-b"} {
		assert.False(t, isSafeIdentifier(bad), bad)
	}
}
