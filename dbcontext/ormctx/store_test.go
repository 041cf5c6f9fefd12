package ormctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"gensvc/changefeed"
	"gensvc/core"
	dbcore "gensvc/data/db"
	dbbasic "gensvc/data/db/basic"
	"gensvc/data/orm"
	ormbasic "gensvc/data/orm/basic"
	"gensvc/dbcontext"
	"gensvc/logging"
)

type rack struct {
	ID    int64
	Label string `gorm:"unique" validate:"required"`
	Floor *int
}

func openOrm(t *testing.T) orm.IOrm {
	t.Helper()
	db, err := dbbasic.New(dbcore.DefaultSQLiteConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.ExecDDL(context.Background(),
		`CREATE TABLE racks (id INTEGER PRIMARY KEY AUTOINCREMENT, label TEXT NOT NULL UNIQUE, floor INTEGER)`,
	))
	return ormbasic.New(db)
}

func newContext(t *testing.T, o orm.IOrm, pub changefeed.IPublisher) *dbcontext.Context {
	t.Helper()
	db, err := NewContext(Config{
		Config: dbcontext.Config{Publisher: pub, Logger: logging.NewNoopLogger()},
		Orm:    o,
	})
	require.NoError(t, err)
	return db
}

// TestContext_RoundTrip 测试插入、条件查询、跟踪更新与删除
func TestContext_RoundTrip(t *testing.T) {
	ctx := context.Background()
	o := openOrm(t)
	pub := changefeed.NewMemoryPublisher()

	db := newContext(t, o, pub)
	racks := dbcontext.SetOf[rack](db)
	two := 2
	a := &rack{Label: "A", Floor: &two}
	b := &rack{Label: "B"}
	require.NoError(t, racks.Add(a))
	require.NoError(t, racks.Add(b))
	require.True(t, db.SaveChangesWithValidation(ctx).IsValid())
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)

	db = newContext(t, o, pub)
	racks = dbcontext.SetOf[rack](db)
	unplaced, err := core.NewFilter(racks.Untyped().EntityType(), core.Eq("Floor", nil))
	require.NoError(t, err)
	found, err := racks.WhereTracked(ctx, unplaced)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "B", found[0].Label)

	found[0].Label = "B2"
	require.NoError(t, racks.Remove(&rack{ID: 1}))
	require.True(t, db.SaveChangesWithValidation(ctx).IsValid())

	all, err := racks.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "B2", all[0].Label)
	assert.Nil(t, all[0].Floor)

	ops := []changefeed.Operation{}
	for _, c := range pub.Changes() {
		ops = append(ops, c.Operation)
	}
	assert.Equal(t, []changefeed.Operation{
		changefeed.OpCreated, changefeed.OpCreated, changefeed.OpUpdated, changefeed.OpDeleted,
	}, ops)
}

// TestContext_UniqueViolationRollsBack 测试唯一约束冲突时整体回滚
func TestContext_UniqueViolationRollsBack(t *testing.T) {
	ctx := context.Background()
	o := openOrm(t)

	db := newContext(t, o, nil)
	require.NoError(t, dbcontext.SetOf[rack](db).Add(&rack{Label: "A"}))
	require.True(t, db.SaveChangesWithValidation(ctx).IsValid())

	db = newContext(t, o, nil)
	racks := dbcontext.SetOf[rack](db)
	fresh := &rack{Label: "C"}
	require.NoError(t, racks.Add(fresh))
	require.NoError(t, racks.Add(&rack{Label: "A"}))

	result := db.SaveChangesWithValidation(ctx)
	require.False(t, result.IsValid())
	assert.Equal(t, "A rack with the same key or unique value already exists.", result.ErrorsAsString())
	assert.Zero(t, fresh.ID)

	count, err := o.Model(mustMeta(t)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

// TestContext_SaveMissingRow 测试更新已被删除的行
func TestContext_SaveMissingRow(t *testing.T) {
	db := newContext(t, openOrm(t), nil)
	require.NoError(t, dbcontext.SetOf[rack](db).Update(&rack{ID: 42, Label: "gone"}))

	result := db.SaveChangesWithValidation(context.Background())
	require.False(t, result.IsValid())
	assert.Equal(t, "The rack could not be found. It may have been deleted by someone else.", result.ErrorsAsString())
}

// TestNewStore_Capabilities 测试适配器能力检查
func TestNewStore_Capabilities(t *testing.T) {
	_, err := NewStore(nil)
	assert.Error(t, err)

	_, err = NewStore(limitedOrm{IOrm: openOrm(t)})
	assert.ErrorIs(t, err, orm.ErrUnsupported)
}

type limitedOrm struct{ orm.IOrm }

func (limitedOrm) Capabilities() orm.Capabilities {
	return orm.NewCapabilities(orm.CapabilityBasicCRUD)
}

func mustMeta(t *testing.T) *orm.ModelMeta {
	t.Helper()
	meta, err := orm.MetaOf(rack{})
	require.NoError(t, err)
	return meta
}
