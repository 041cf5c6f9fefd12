package changefeed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type book struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

func TestMarshalUnmarshal(t *testing.T) {
	ts := time.Unix(0, 1700000000000000000)
	c := Change{
		ID:         "chg-1",
		UnitOfWork: "uow-1",
		EntityType: "Book",
		Table:      "books",
		Operation:  OpCreated,
		Keys:       map[string]any{"ID": 7},
		Entity:     &book{ID: 7, Title: "Go"},
		Timestamp:  ts,
	}
	data, err := Marshal(c)
	require.NoError(t, err)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, "chg-1", decoded.ID)
	assert.Equal(t, "uow-1", decoded.UnitOfWork)
	assert.Equal(t, OpCreated, decoded.Operation)
	assert.Equal(t, ts.UnixNano(), decoded.Timestamp.UnixNano())
	assert.Equal(t, float64(7), decoded.Keys["ID"])
	assert.Equal(t, "Go", decoded.Entity.(map[string]any)["title"])
}

func TestMarshal_DeletedHasNoEntity(t *testing.T) {
	data, err := Marshal(Change{ID: "x", Operation: OpDeleted})
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"entity"`)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Nil(t, decoded.Entity)
	assert.False(t, decoded.Timestamp.IsZero())

	_, err = Unmarshal([]byte("{"))
	assert.Error(t, err)
}

func TestMemoryPublisher(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPublisher()
	require.NoError(t, p.Publish(ctx, Change{ID: "1"}, Change{ID: "2"}))
	assert.Len(t, p.Changes(), 2)

	p.Err = errors.New("down")
	assert.Error(t, p.Publish(ctx, Change{ID: "3"}))
	assert.Len(t, p.Changes(), 2)

	p.Reset()
	assert.Empty(t, p.Changes())
	assert.NoError(t, NoopPublisher{}.Publish(ctx, Change{}))
}
