// Package cache 提供并发安全的泛型缓存。
//
// MaxSize 为 0 时不限容量、不驱逐，持久化上下文用它保存已解析的服务；
// 设置 MaxSize 后按 LRU 驱逐，设置 TTL 后按访问时间过期。
package cache

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// Config 缓存配置
type Config struct {
	// Name 用于日志和 String()
	Name string
	// MaxSize 最大条目数，0 表示不限制
	MaxSize int
	// TTL 基于访问时间的过期时间，0 表示永不过期
	TTL time.Duration
}

// Stats 缓存统计
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Expires   int64
	Size      int
}

type entry[K comparable, V any] struct {
	key        K
	value      V
	accessedAt time.Time
	elem       *list.Element
}

// Cache 泛型缓存，所有方法并发安全
type Cache[K comparable, V any] struct {
	config Config
	now    func() time.Time

	// OnEvict 条目因容量或过期被移除时回调（持锁调用，不得重入缓存）
	OnEvict func(key K, value V)

	mu    sync.Mutex
	items map[K]*entry[K, V]
	lru   *list.List // 最近使用的在前
	stats Stats
}

// New 创建缓存
func New[K comparable, V any](config Config) *Cache[K, V] {
	if config.Name == "" {
		config.Name = "unnamed"
	}
	return &Cache[K, V]{
		config: config,
		now:    time.Now,
		items:  make(map[K]*entry[K, V]),
		lru:    list.New(),
	}
}

// Get 返回未过期的值
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.lookupLocked(key); ok {
		c.stats.Hits++
		return e.value, true
	}
	c.stats.Misses++
	var zero V
	return zero, false
}

// Set 写入或覆盖
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value)
}

// GetOrAdd 命中时返回已有值；未命中时调用 create 并缓存其结果。
// create 在持锁状态下执行，同一个键只会被创建一次；create 出错或 panic 时不缓存。
func (c *Cache[K, V]) GetOrAdd(key K, create func() (V, error)) (V, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.lookupLocked(key); ok {
		c.stats.Hits++
		return e.value, true, nil
	}
	c.stats.Misses++

	value, err := create()
	if err != nil {
		var zero V
		return zero, false, err
	}
	c.setLocked(key, value)
	return value, false, nil
}

// Delete 删除条目，返回是否存在
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return false
	}
	c.lru.Remove(e.elem)
	delete(c.items, key)
	return true
}

// Clear 清空缓存，不触发 OnEvict
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]*entry[K, V])
	c.lru.Init()
}

// Len 当前条目数（含尚未清理的过期条目）
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats 返回统计副本
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = len(c.items)
	return s
}

func (c *Cache[K, V]) String() string {
	s := c.Stats()
	return fmt.Sprintf("Cache[%s]: size=%d/%d hits=%d misses=%d evictions=%d expires=%d",
		c.config.Name, s.Size, c.config.MaxSize, s.Hits, s.Misses, s.Evictions, s.Expires)
}

func (c *Cache[K, V]) lookupLocked(key K) (*entry[K, V], bool) {
	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	now := c.now()
	if c.config.TTL > 0 && now.Sub(e.accessedAt) >= c.config.TTL {
		c.removeLocked(e)
		c.stats.Expires++
		return nil, false
	}
	e.accessedAt = now
	c.lru.MoveToFront(e.elem)
	return e, true
}

func (c *Cache[K, V]) setLocked(key K, value V) {
	now := c.now()
	if e, ok := c.items[key]; ok {
		e.value = value
		e.accessedAt = now
		c.lru.MoveToFront(e.elem)
		return
	}
	if c.config.MaxSize > 0 && len(c.items) >= c.config.MaxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.removeLocked(oldest.Value.(*entry[K, V]))
			c.stats.Evictions++
		}
	}
	e := &entry[K, V]{key: key, value: value, accessedAt: now}
	e.elem = c.lru.PushFront(e)
	c.items[key] = e
}

func (c *Cache[K, V]) removeLocked(e *entry[K, V]) {
	c.lru.Remove(e.elem)
	delete(c.items, e.key)
	if c.OnEvict != nil {
		c.OnEvict(e.key, e.value)
	}
}
