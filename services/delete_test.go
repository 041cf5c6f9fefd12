package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gensvc/changefeed"
	"gensvc/core"
	"gensvc/dbcontext"
	"gensvc/status"
)

func TestDelete_Entity(t *testing.T) {
	f := newFixture(t)

	result := Delete[Book](f.ctx, f.db, 3)

	require.True(t, result.IsValid(), result.ErrorsAsString())
	assert.Equal(t, "Successfully deleted Book.", result.SuccessMessage())
	assert.Len(t, f.books(t), 2)
	assert.Nil(t, f.book(t, 3))

	changes := f.pub.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, changefeed.OpDeleted, changes[0].Operation)
	assert.Nil(t, changes[0].Entity)
}

func TestDelete_Dto(t *testing.T) {
	f := newFixture(t)

	result := Delete[BookDto](f.ctx, f.db, 1)
	require.True(t, result.IsValid(), result.ErrorsAsString())
	assert.Equal(t, "Successfully deleted Novel.", result.SuccessMessage())

	again := Delete[BookDto](f.ctx, f.db, 1)
	assert.Equal(t, []string{"No Novel was found. Has it been deleted by someone else?"}, again.Errors())
}

func TestDelete_NotSupported(t *testing.T) {
	f := newFixture(t)

	result := Delete[QuickBookDto](f.ctx, f.db, 1)

	assert.Equal(t, []string{"Delete of an existing Book is not supported in this mode."}, result.Errors())
	assert.Len(t, f.books(t), 3)
}

func removeReviews(ctx context.Context, db dbcontext.IDbContext, book *Book) *status.SuccessOrErrors {
	filter, err := core.NewFilter(typeOf[Review](), core.Eq("BookID", book.ID))
	if err != nil {
		return status.Errorf("%v", err)
	}
	reviews := dbcontext.SetOf[Review](db)
	tracked, err := reviews.WhereTracked(ctx, filter)
	if err != nil {
		return status.Errorf("%v", err)
	}
	for _, r := range tracked {
		if err := reviews.Remove(r); err != nil {
			return status.Errorf("%v", err)
		}
	}
	return status.New()
}

func TestDeleteWithRelationships(t *testing.T) {
	f := newFixture(t)

	result := DeleteWithRelationships[Book](f.ctx, f.db, removeReviews, 2)

	require.True(t, result.IsValid(), result.ErrorsAsString())
	assert.Equal(t, 0, f.store.Count(typeOf[Review]()))
	assert.Nil(t, f.book(t, 2))
	assert.Len(t, f.pub.Changes(), 3)
}

func TestDeleteWithRelationships_RemoverAborts(t *testing.T) {
	f := newFixture(t)

	refuse := func(ctx context.Context, db dbcontext.IDbContext, book *Book) *status.SuccessOrErrors {
		return status.New().AddSingleError("%s still has reviews.", book.Title)
	}
	result := DeleteWithRelationships[Book](f.ctx, f.db, refuse, 2)

	assert.Equal(t, []string{"Rust still has reviews."}, result.Errors())
	assert.NotNil(t, f.book(t, 2))
	assert.Equal(t, 2, f.store.Count(typeOf[Review]()))
}

func TestDeleteWithRelationships_AbortDiscardsCleanup(t *testing.T) {
	f := newFixture(t)

	partial := func(ctx context.Context, db dbcontext.IDbContext, book *Book) *status.SuccessOrErrors {
		if r := removeReviews(ctx, db, book); !r.IsValid() {
			return r
		}
		return status.New().AddSingleError("%s is still on loan.", book.Title)
	}
	result := DeleteWithRelationships[Book](f.ctx, f.db, partial, 2)
	assert.Equal(t, []string{"Rust is still on loan."}, result.Errors())

	// 清理中删除的评论不会被之后的保存带出
	assert.False(t, f.db.HasChanges())
	save := f.db.SaveChangesWithValidation(f.ctx)
	require.True(t, save.IsValid(), save.ErrorsAsString())
	assert.Equal(t, 2, f.store.Count(typeOf[Review]()))
	assert.NotNil(t, f.book(t, 2))
	assert.Empty(t, f.pub.Changes())
}

func TestDeleteWithRelationships_RequiresEntity(t *testing.T) {
	f := newFixture(t)

	requireConfigPanic(t, func() {
		DeleteWithRelationships[BookDto](f.ctx, f.db, nil, 1)
	})
}

func TestDeleteDtoService_WithRelationships(t *testing.T) {
	f := newFixture(t)
	svc := NewDeleteDtoService[Book, BookDto](f.db)

	result := svc.DeleteWithRelationships(f.ctx, removeReviews, 2)
	require.True(t, result.IsValid(), result.ErrorsAsString())
	assert.Equal(t, "Successfully deleted Novel.", result.SuccessMessage())
	assert.Equal(t, 0, f.store.Count(typeOf[Review]()))
}
