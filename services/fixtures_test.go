package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"gensvc/changefeed"
	"gensvc/core"
	"gensvc/dbcontext"
	"gensvc/dbcontext/memory"
	"gensvc/logging"
)

type Author struct {
	ID   int
	Name string `validate:"required"`
}

type Book struct {
	ID       int
	Title    string `validate:"required"`
	AuthorID int
	ISBN     string `gorm:"unique"`
}

type Review struct {
	ID     int
	BookID int
	Text   string
}

// keyless 没有主键，不能作为实体
type keyless struct {
	Name string
}

// BookDto 支持全部 CRUD，需要准备作者列表
type BookDto struct {
	GenericDto[Book, BookDto]
	ID         int
	Title      string `validate:"required,max=40"`
	AuthorID   int    `validate:"required"`
	ISBN       string
	Authors    []string `copy:"-"`
	SetupCount int      `copy:"-"`
}

func (BookDto) SupportedFunctions() core.ServiceFunctions { return core.FuncAllCrud }
func (BookDto) DataItemName() string                      { return "Novel" }

func (BookDto) SetupSecondaryData(ctx context.Context, db dbcontext.IDbContext, dto *BookDto) {
	dto.SetupCount++
	authors, err := dbcontext.SetOf[Author](db).All(ctx)
	if err != nil {
		return
	}
	dto.Authors = dto.Authors[:0]
	for _, a := range authors {
		dto.Authors = append(dto.Authors, a.Name)
	}
}

// ReadOnlyBookDto 只读且不需要准备辅助数据
type ReadOnlyBookDto struct {
	GenericDto[Book, ReadOnlyBookDto]
	ID         int
	Title      string
	SetupCount int `copy:"-"`
}

func (ReadOnlyBookDto) SupportedFunctions() core.ServiceFunctions {
	return core.FuncReadList | core.FuncReadSingle | core.FuncDoesNotNeedSetup
}

func (ReadOnlyBookDto) SetupSecondaryData(ctx context.Context, db dbcontext.IDbContext, dto *ReadOnlyBookDto) {
	dto.SetupCount++
}

// QuickBookDto 可创建和更新，但声明了不需要辅助数据
type QuickBookDto struct {
	GenericDto[Book, QuickBookDto]
	ID         int
	Title      string `validate:"required"`
	AuthorID   int
	ISBN       string
	SetupCount int `copy:"-"`
}

func (QuickBookDto) SupportedFunctions() core.ServiceFunctions {
	return core.FuncCreate | core.FuncUpdate | core.FuncDoesNotNeedSetup
}

func (QuickBookDto) SetupSecondaryData(ctx context.Context, db dbcontext.IDbContext, dto *QuickBookDto) {
	dto.SetupCount++
}

// brokenDto 没有声明 SupportedFunctions
type brokenDto struct {
	GenericDto[Book, brokenDto]
	ID int
}

// mismatchedDto 绑定声明指向了另一个 DTO
type mismatchedDto struct {
	GenericDto[Book, BookDto]
	ID int
}

func (mismatchedDto) SupportedFunctions() core.ServiceFunctions { return core.FuncAllCrud }

// titleOnlyDto 没有公开主键，不能用于更新
type titleOnlyDto struct {
	GenericDto[Book, titleOnlyDto]
	Title string
}

func (titleOnlyDto) SupportedFunctions() core.ServiceFunctions { return core.FuncAllCrud }

type fixture struct {
	ctx    context.Context
	store  *memory.Store
	db     *dbcontext.Context
	pub    *changefeed.MemoryPublisher
	logger *logging.MemoryLogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Seed(
		&Author{ID: 1, Name: "Ann"},
		&Author{ID: 2, Name: "Bob"},
		&Book{ID: 1, Title: "Go", AuthorID: 1, ISBN: "isbn-1"},
		&Book{ID: 2, Title: "Rust", AuthorID: 2, ISBN: "isbn-2"},
		&Book{ID: 3, Title: "Zig", AuthorID: 2, ISBN: "isbn-3"},
		&Review{ID: 1, BookID: 2, Text: "solid"},
		&Review{ID: 2, BookID: 2, Text: "long"},
	))
	f := &fixture{
		ctx:    context.Background(),
		store:  store,
		pub:    changefeed.NewMemoryPublisher(),
		logger: logging.NewMemoryLogger(),
	}
	f.db = memory.NewContext(store, memory.Config{Publisher: f.pub, Logger: f.logger})
	return f
}

// fresh 在同一存储上开启新的工作单元
func (f *fixture) fresh() *dbcontext.Context {
	return memory.NewContext(f.store, memory.Config{Logger: logging.NewNoopLogger()})
}

func (f *fixture) books(t *testing.T) []*Book {
	t.Helper()
	all, err := dbcontext.SetOf[Book](f.fresh()).All(f.ctx)
	require.NoError(t, err)
	return all
}

func (f *fixture) book(t *testing.T, id int) *Book {
	t.Helper()
	for _, b := range f.books(t) {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// requireConfigPanic 断言 fn 以 *core.ConfigurationError panic，返回该错误
func requireConfigPanic(t *testing.T, fn func()) (cfgErr *core.ConfigurationError) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a configuration panic")
		err, ok := r.(*core.ConfigurationError)
		require.True(t, ok, "unexpected panic value %v", r)
		cfgErr = err
	}()
	fn()
	return nil
}
