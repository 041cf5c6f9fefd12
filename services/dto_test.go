package services

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gensvc/core"
)

type Audit struct {
	CreatedBy string
	CreatedAt time.Time
}

type order struct {
	ID     int64
	Status string
	Total  float64
	Tags   []string
	Secret string
	Audit
}

type OrderStatus string

type orderView struct {
	ID        int64
	Status    OrderStatus
	Total     float32
	Tags      []string
	Secret    string `copy:"-"`
	CreatedBy string
	Extra     int
	hidden    string
}

func TestCopyFields(t *testing.T) {
	src := order{
		ID: 7, Status: "paid", Total: 12.5, Tags: []string{"a"}, Secret: "s",
		Audit: Audit{CreatedBy: "ann", CreatedAt: time.Unix(0, 0)},
	}
	var dst orderView
	dst.Secret = "kept"
	dst.hidden = "kept"

	copyFields(reflect.ValueOf(&src).Elem(), reflect.ValueOf(&dst).Elem())

	assert.Equal(t, int64(7), dst.ID)
	assert.Equal(t, OrderStatus("paid"), dst.Status)
	assert.Equal(t, []string{"a"}, dst.Tags)
	assert.Equal(t, "ann", dst.CreatedBy)
	assert.Equal(t, "kept", dst.Secret)
	assert.Equal(t, "kept", dst.hidden)
	assert.Zero(t, dst.Extra)
	// float64 与 float32 种类不同，不复制
	assert.Zero(t, dst.Total)
}

func TestCopyFields_PlanIsCached(t *testing.T) {
	src, dst := reflect.TypeOf(order{}), reflect.TypeOf(orderView{})
	first := planFor(src, dst)
	second := planFor(src, dst)
	require.NotEmpty(t, first)
	assert.Same(t, &first[0], &second[0])
}

func TestGenericDto_Defaults(t *testing.T) {
	f := newFixture(t)
	var base GenericDto[Book, BookDto]

	assert.Equal(t, "Book", base.DataItemName())
	assert.Equal(t, core.FuncAllCrud, base.declaredFunctions())
	assert.Equal(t, core.FuncNone, GenericDto[Book, brokenDto]{}.declaredFunctions())

	dto := &BookDto{ID: 5, Title: "Odin", AuthorID: 2, ISBN: "isbn-5", Authors: []string{"x"}}
	book := &Book{}
	result := base.CopyDtoToEntity(f.ctx, f.db, dto, book)
	require.True(t, result.IsValid(), result.ErrorsAsString())
	assert.Equal(t, &Book{ID: 5, Title: "Odin", AuthorID: 2, ISBN: "isbn-5"}, book)

	invalid := &BookDto{Title: "this title is far too long to be accepted by the dto"}
	untouched := &Book{Title: "Go"}
	result = base.CopyDtoToEntity(f.ctx, f.db, invalid, untouched)
	assert.ElementsMatch(t, []string{
		"The Title field must be at most 40 characters long.",
		"The AuthorID field is required.",
	}, result.Errors())
	assert.Equal(t, "Go", untouched.Title)

	back := &BookDto{}
	require.True(t, base.CopyEntityToDto(f.ctx, f.db, book, back).IsValid())
	assert.Equal(t, "Odin", back.Title)
	assert.Nil(t, back.Authors)
}

func TestCheckDto(t *testing.T) {
	assert.NoError(t, checkDto[Book, BookDto]())
	assert.Error(t, checkDto[Book, Book]())
	assert.Error(t, checkDto[Book, brokenDto]())
	assert.Error(t, checkDto[Book, mismatchedDto]())
	assert.Error(t, checkDto[Author, BookDto]())
}

func TestKeyValuesOf(t *testing.T) {
	dto := &BookDto{ID: 9}
	assert.Equal(t, []any{9}, keyValuesOf(dto, []string{"ID"}))
	assert.NoError(t, checkKeyFields(typeOf[BookDto](), []string{"ID"}))
	assert.Error(t, checkKeyFields(typeOf[titleOnlyDto](), []string{"ID"}))
}
