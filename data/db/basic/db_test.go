package basic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	core "gensvc/data/db"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(core.DefaultSQLiteConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.ExecDDL(context.Background(),
		`CREATE TABLE books (id INTEGER PRIMARY KEY AUTOINCREMENT, title TEXT NOT NULL)`))
	return db
}

// TestDB_ExecAndQuery 测试基本读写
func TestDB_ExecAndQuery(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	assert.Equal(t, "sqlite", db.GetDialectName())

	res, err := db.Exec(ctx, "INSERT INTO books (title) VALUES (?)", "Go")
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	var title string
	require.NoError(t, db.QueryRow(ctx, "SELECT title FROM books WHERE id = ?", id).Scan(&title))
	assert.Equal(t, "Go", title)

	rows, err := db.Query(ctx, "SELECT id, title FROM books")
	require.NoError(t, err)
	defer rows.Close()
	cols, err := rows.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "title"}, cols)
	assert.True(t, rows.Next())
	assert.False(t, rows.Next())
	assert.NoError(t, rows.Err())
}

// TestTx_CommitRollback 测试事务提交与回滚
func TestTx_CommitRollback(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	tx, err := db.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, "INSERT INTO books (title) VALUES (?)", "rolled back")
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	tx, err = db.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.Begin(ctx)
	assert.ErrorIs(t, err, ErrNestedTransaction)
	_, err = tx.Exec(ctx, "INSERT INTO books (title) VALUES (?)", "kept")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	var count int
	require.NoError(t, db.QueryRow(ctx, "SELECT COUNT(*) FROM books").Scan(&count))
	assert.Equal(t, 1, count)
}
