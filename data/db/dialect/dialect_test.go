package dialect

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	q := "SELECT * FROM t WHERE a = ? AND b IN (?, ?)"
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b IN ($2, $3)", New("postgres").Rebind(q))

	for _, name := range []string{"mysql", "sqlite", "unknown"} {
		assert.Equal(t, q, New(name).Rebind(q), name)
	}
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"books"."id"`, New("sqlite3").QuoteIdentifier("books.id"))
	assert.Equal(t, "`books`", New("MySQL").QuoteIdentifier("books"))
	assert.Equal(t, "books", New("").QuoteIdentifier("books"))
	assert.Equal(t, "", New("sqlite").QuoteIdentifier(""))
}

func TestIsUniqueViolation(t *testing.T) {
	sqlite := New("sqlite")
	assert.True(t, sqlite.IsUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: books.isbn (2067)")))
	assert.False(t, sqlite.IsUniqueViolation(errors.New("no such table: books")))
	assert.False(t, sqlite.IsUniqueViolation(nil))

	assert.True(t, New("postgres").IsUniqueViolation(errors.New(`duplicate key value violates unique constraint "books_pkey"`)))
	assert.True(t, New("mysql").IsUniqueViolation(errors.New("Error 1062: Duplicate entry '1' for key 'PRIMARY'")))
}

func TestSupportsDeleteLimit(t *testing.T) {
	assert.True(t, New("mysql").SupportsDeleteLimit())
	assert.False(t, New("sqlite").SupportsDeleteLimit())
	assert.False(t, New("postgres").SupportsDeleteLimit())
}
