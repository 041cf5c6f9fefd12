package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCache_BasicOperations 测试基本操作
func TestCache_BasicOperations(t *testing.T) {
	c := New[string, int](Config{Name: "test"})

	c.Set("key1", 100)
	value, found := c.Get("key1")
	assert.True(t, found)
	assert.Equal(t, 100, value)

	c.Set("key1", 200)
	value, _ = c.Get("key1")
	assert.Equal(t, 200, value)

	_, found = c.Get("missing")
	assert.False(t, found)

	assert.True(t, c.Delete("key1"))
	assert.False(t, c.Delete("key1"))
	assert.Zero(t, c.Len())

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

// TestCache_GetOrAdd 测试按需创建只发生一次
func TestCache_GetOrAdd(t *testing.T) {
	c := New[string, *int](Config{})
	calls := 0
	create := func() (*int, error) {
		calls++
		v := calls
		return &v, nil
	}

	first, hit, err := c.GetOrAdd("svc", create)
	require.NoError(t, err)
	assert.False(t, hit)
	second, hit, err := c.GetOrAdd("svc", create)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	_, _, err = c.GetOrAdd("bad", func() (*int, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	_, found := c.Get("bad")
	assert.False(t, found)
}

// TestCache_GetOrAdd_Concurrent 测试并发下同一键只创建一次
func TestCache_GetOrAdd_Concurrent(t *testing.T) {
	c := New[int, int](Config{})
	var created atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = c.GetOrAdd(7, func() (int, error) {
				created.Add(1)
				return 7, nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), created.Load())
}

// TestCache_LRUEviction 测试容量驱逐最久未使用的条目
func TestCache_LRUEviction(t *testing.T) {
	c := New[string, int](Config{MaxSize: 2})
	var evicted []string
	c.OnEvict = func(key string, _ int) { evicted = append(evicted, key) }

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	_, found := c.Get("b")
	assert.False(t, found)
	assert.Equal(t, []string{"b"}, evicted)
	assert.Equal(t, int64(1), c.Stats().Evictions)
	assert.Equal(t, 2, c.Len())
}

// TestCache_TTL 测试访问时间过期
func TestCache_TTL(t *testing.T) {
	now := time.Unix(1000, 0)
	c := New[string, int](Config{TTL: time.Minute})
	c.now = func() time.Time { return now }

	c.Set("k", 1)
	now = now.Add(30 * time.Second)
	_, found := c.Get("k")
	assert.True(t, found)

	now = now.Add(time.Minute)
	_, found = c.Get("k")
	assert.False(t, found)
	assert.Equal(t, int64(1), c.Stats().Expires)
}

func TestCache_ClearAndString(t *testing.T) {
	c := New[int, string](Config{Name: "services"})
	c.Set(1, "x")
	c.Clear()
	assert.Zero(t, c.Len())
	assert.Contains(t, c.String(), "Cache[services]: size=0/0")
}
