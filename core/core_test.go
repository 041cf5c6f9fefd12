package core

import (
	stdErrors "errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gensvc/errors"
)

type book struct {
	ID      int64
	Title   string
	ShelfNo *int
}

type loan struct {
	BookID   uint
	Borrower string
}

var bookType = reflect.TypeOf(book{})

// TestServiceFunctions 测试能力集合
func TestServiceFunctions(t *testing.T) {
	fs := NewServiceFunctions(FuncCreate, FuncUpdate)
	assert.True(t, fs.Supports(FuncCreate))
	assert.True(t, fs.Supports(FuncCreate|FuncUpdate))
	assert.False(t, fs.Supports(FuncDelete))
	assert.True(t, fs.Supports(FuncNone))
	assert.True(t, fs.NeedsSetup())
	assert.False(t, fs.With(FuncDoesNotNeedSetup).NeedsSetup())
	assert.Equal(t, FuncCreate, fs.Without(FuncUpdate))
	assert.Equal(t, FuncCreate|FuncUpdate, fs, "With/Without return copies")

	assert.False(t, FuncAllCrudButCreate.Supports(FuncCreate))
	assert.True(t, FuncAllCrudButCreate.Supports(FuncReadList|FuncDelete))
	assert.False(t, FuncAllCrudButList.Supports(FuncReadList))
	assert.Equal(t, "Create|Update", fs.String())
	assert.Equal(t, "None", FuncNone.String())
}

// TestWhatItShouldBe 测试解析期望
func TestWhatItShouldBe(t *testing.T) {
	assert.True(t, ExpectAnything.AcceptsEntity())
	assert.True(t, ExpectAnything.AcceptsDto())
	assert.False(t, ExpectEntity.AcceptsDto())
	assert.False(t, ExpectDto.AcceptsEntity())

	narrowed := ExpectDto.Requiring(FuncCreate).Requiring(FuncReadList)
	assert.Equal(t, FuncCreate|FuncReadList, narrowed.Required())
	assert.Equal(t, FuncNone, ExpectDto.Required())
	assert.Equal(t, "dto supporting Create|ReadList", narrowed.String())
	assert.Equal(t, "entity or dto", ExpectAnything.String())
}

// TestBuildFilter_SingleKey 测试 [ID] + [42] 只匹配 ID == 42 的实体
func TestBuildFilter_SingleKey(t *testing.T) {
	f, err := BuildFilter(bookType, []string{"ID"}, []any{42})
	require.NoError(t, err)

	assert.True(t, f.Matches(book{ID: 42}))
	assert.True(t, f.Matches(&book{ID: 42, Title: "any"}))
	assert.False(t, f.Matches(book{ID: 41}))
	assert.False(t, f.Matches(loan{}))
	assert.False(t, f.Matches((*book)(nil)))
	assert.Equal(t, []Condition{{Property: "ID", Value: int64(42)}}, f.Conditions())
	assert.Equal(t, "ID == 42", f.String())
	assert.Equal(t, bookType, f.EntityType())
}

// TestBuildFilter_CompositeKey 测试复合键按顺序对应
func TestBuildFilter_CompositeKey(t *testing.T) {
	f, err := BuildFilter(reflect.TypeOf(loan{}), []string{"BookID", "Borrower"}, []any{int64(3), "ann"})
	require.NoError(t, err)
	assert.True(t, f.Matches(loan{BookID: 3, Borrower: "ann"}))
	assert.False(t, f.Matches(loan{BookID: 3, Borrower: "bob"}))

	_, err = BuildFilter(reflect.TypeOf(loan{}), []string{"BookID", "Borrower"}, []any{-1, "ann"})
	assert.Error(t, err)
}

// TestBuildFilter_ConfigurationErrors 测试非法输入返回配置错误
func TestBuildFilter_ConfigurationErrors(t *testing.T) {
	cases := map[string]func() error{
		"length mismatch": func() error {
			_, err := BuildFilter(bookType, []string{"ID"}, []any{1, 2})
			return err
		},
		"no keys": func() error {
			_, err := BuildFilter(bookType, nil, nil)
			return err
		},
		"unknown property": func() error {
			_, err := BuildFilter(bookType, []string{"Missing"}, []any{1})
			return err
		},
		"wrong value type": func() error {
			_, err := BuildFilter(bookType, []string{"ID"}, []any{"42"})
			return err
		},
		"lossy number": func() error {
			_, err := BuildFilter(bookType, []string{"ID"}, []any{42.5})
			return err
		},
		"not a struct": func() error {
			_, err := BuildFilter(reflect.TypeOf(0), []string{"ID"}, []any{1})
			return err
		},
	}
	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			err := build()
			require.Error(t, err)
			var cfgErr *ConfigurationError
			assert.True(t, stdErrors.As(err, &cfgErr))
			assert.True(t, errors.IsConfiguration(err))
			assert.True(t, errors.IsConfiguration(errors.Normalize(err)))
		})
	}

	assert.Panics(t, func() { MustBuildFilter(bookType, []string{"ID"}, nil) })
}

// TestNewFilter_Nullable 测试指针字段
func TestNewFilter_Nullable(t *testing.T) {
	shelf := 3
	f, err := NewFilter(bookType, Eq("ShelfNo", 3), Eq("Title", "Go"))
	require.NoError(t, err)
	assert.True(t, f.Matches(book{Title: "Go", ShelfNo: &shelf}))
	assert.False(t, f.Matches(book{Title: "Go"}))

	unshelved, err := NewFilter(bookType, Eq("ShelfNo", nil))
	require.NoError(t, err)
	assert.True(t, unshelved.Matches(book{}))
	assert.False(t, unshelved.Matches(book{ShelfNo: &shelf}))

	_, err = NewFilter(bookType, Eq("Title", nil))
	assert.Error(t, err)
	_, err = NewFilter(bookType)
	assert.Error(t, err)
}

func TestConfigurationError_Message(t *testing.T) {
	err := NewConfigurationError(bookType, "bad %s", "thing")
	assert.Equal(t, "configuration error for type core.book: bad thing", err.Error())
	assert.Equal(t, "configuration error: x", NewConfigurationError(nil, "x").Error())
}
