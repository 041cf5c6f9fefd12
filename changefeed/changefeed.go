// Package changefeed 在持久化上下文成功提交后发布实体变更通知。
//
// 发布发生在提交之后，失败只记录日志，不影响已返回的操作结果。
package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Operation 变更类型
type Operation string

const (
	OpCreated Operation = "created"
	OpUpdated Operation = "updated"
	OpDeleted Operation = "deleted"
)

// Change 一个已提交实体的变更
type Change struct {
	ID         string
	UnitOfWork string
	EntityType string
	Table      string
	Operation  Operation
	Keys       map[string]any
	// Entity 提交后的实体快照，删除时为 nil
	Entity    any
	Timestamp time.Time
}

// IPublisher 变更发布器
type IPublisher interface {
	Publish(ctx context.Context, changes ...Change) error
	Close() error
}

// NoopPublisher 丢弃所有变更
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, changes ...Change) error { return nil }
func (NoopPublisher) Close() error                                         { return nil }

// MemoryPublisher 在内存中保存变更，用于测试与进程内订阅
type MemoryPublisher struct {
	mu      sync.Mutex
	changes []Change
	// Err 非空时 Publish 直接返回该错误
	Err error
}

func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

func (p *MemoryPublisher) Publish(ctx context.Context, changes ...Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.changes = append(p.changes, changes...)
	return nil
}

// Changes 返回已发布变更的副本
func (p *MemoryPublisher) Changes() []Change {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Change(nil), p.changes...)
}

func (p *MemoryPublisher) Reset() {
	p.mu.Lock()
	p.changes = nil
	p.mu.Unlock()
}

func (p *MemoryPublisher) Close() error { return nil }

// wireChange JSON 线格式，时间戳为纳秒
type wireChange struct {
	ID         string          `json:"id"`
	UnitOfWork string          `json:"uow_id"`
	EntityType string          `json:"entity_type"`
	Table      string          `json:"table"`
	Operation  Operation       `json:"operation"`
	Keys       map[string]any  `json:"keys"`
	Entity     json.RawMessage `json:"entity,omitempty"`
	Timestamp  int64           `json:"timestamp"`
}

// Marshal 编码为 JSON，零时间戳使用当前时间
func Marshal(c Change) ([]byte, error) {
	w := wireChange{
		ID:         c.ID,
		UnitOfWork: c.UnitOfWork,
		EntityType: c.EntityType,
		Table:      c.Table,
		Operation:  c.Operation,
		Keys:       c.Keys,
		Timestamp:  c.Timestamp.UnixNano(),
	}
	if c.Timestamp.IsZero() {
		w.Timestamp = time.Now().UnixNano()
	}
	if c.Entity != nil {
		data, err := json.Marshal(c.Entity)
		if err != nil {
			return nil, fmt.Errorf("changefeed: marshal entity %s: %w", c.EntityType, err)
		}
		w.Entity = data
	}
	return json.Marshal(w)
}

// Unmarshal 解码 JSON；Entity 解码为 map[string]any
func Unmarshal(data []byte) (Change, error) {
	var w wireChange
	if err := json.Unmarshal(data, &w); err != nil {
		return Change{}, err
	}
	c := Change{
		ID:         w.ID,
		UnitOfWork: w.UnitOfWork,
		EntityType: w.EntityType,
		Table:      w.Table,
		Operation:  w.Operation,
		Keys:       w.Keys,
		Timestamp:  time.Unix(0, w.Timestamp),
	}
	if len(w.Entity) > 0 {
		var entity map[string]any
		if err := json.Unmarshal(w.Entity, &entity); err != nil {
			return Change{}, err
		}
		c.Entity = entity
	}
	return c, nil
}
