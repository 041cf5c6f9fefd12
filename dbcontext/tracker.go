package dbcontext

import (
	"fmt"
	"reflect"

	"gensvc/data/orm"
)

// EntityState 被跟踪实体的状态
type EntityState int

const (
	StateUnchanged EntityState = iota
	StateAdded
	StateModified
	StateDeleted
)

func (s EntityState) String() string {
	switch s {
	case StateUnchanged:
		return "Unchanged"
	case StateAdded:
		return "Added"
	case StateModified:
		return "Modified"
	case StateDeleted:
		return "Deleted"
	default:
		return fmt.Sprintf("EntityState(%d)", int(s))
	}
}

// Entry 一个被跟踪的实体，Entity 为 *E
type Entry struct {
	Entity any
	Meta   *orm.ModelMeta
	State  EntityState

	// original 最近一次加载或提交时的值快照
	original any
}

// SameIdentity 判断两个实体是否为同一类型且主键值逐个相等
func (e *Entry) SameIdentity(meta *orm.ModelMeta, entity any) bool {
	return e.Meta == meta && sameKeys(meta, e.Entity, entity)
}

func sameKeys(meta *orm.ModelMeta, a, b any) bool {
	ka, kb := meta.KeyValues(a), meta.KeyValues(b)
	if len(ka) != len(kb) {
		return false
	}
	for i := range ka {
		if !reflect.DeepEqual(ka[i], kb[i]) {
			return false
		}
	}
	return true
}

type tracker struct {
	entries []*Entry
	byPtr   map[any]*Entry
}

func newTracker() *tracker {
	return &tracker{byPtr: make(map[any]*Entry)}
}

// attach 登记实体状态。
// 已新增的实体再次修改仍为新增；已新增的实体被删除时直接停止跟踪。
func (t *tracker) attach(entity any, meta *orm.ModelMeta, state EntityState) *Entry {
	if e, ok := t.byPtr[entity]; ok {
		switch {
		case e.State == StateAdded && state == StateModified:
		case e.State == StateAdded && state == StateDeleted:
			t.detach(e)
			return nil
		default:
			e.State = state
		}
		return e
	}
	e := &Entry{Entity: entity, Meta: meta, State: state, original: snapshot(entity)}
	t.entries = append(t.entries, e)
	t.byPtr[entity] = e
	return e
}

// find 按身份查找正在跟踪的实体
func (t *tracker) find(meta *orm.ModelMeta, entity any) *Entry {
	for _, e := range t.entries {
		if e.State != StateAdded && e.SameIdentity(meta, entity) {
			return e
		}
	}
	return nil
}

func (t *tracker) detach(target *Entry) {
	delete(t.byPtr, target.Entity)
	for i, e := range t.entries {
		if e == target {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return
		}
	}
}

// detectChanges 把值与快照不同的 Unchanged 实体标记为 Modified
func (t *tracker) detectChanges() {
	for _, e := range t.entries {
		if e.State == StateUnchanged && !reflect.DeepEqual(e.original, snapshot(e.Entity)) {
			e.State = StateModified
		}
	}
}

// pending 挂起的变更，按登记顺序
func (t *tracker) pending() []*Entry {
	t.detectChanges()
	var out []*Entry
	for _, e := range t.entries {
		if e.State != StateUnchanged {
			out = append(out, e)
		}
	}
	return out
}

// accept 提交成功后：删除的实体停止跟踪，其余变为 Unchanged 并刷新快照
func (t *tracker) accept() {
	kept := t.entries[:0]
	for _, e := range t.entries {
		if e.State == StateDeleted {
			delete(t.byPtr, e.Entity)
			continue
		}
		e.State = StateUnchanged
		e.original = snapshot(e.Entity)
		kept = append(kept, e)
	}
	t.entries = kept
}

func (t *tracker) reset() {
	t.entries = nil
	t.byPtr = make(map[any]*Entry)
}

func snapshot(entity any) any {
	return reflect.ValueOf(entity).Elem().Interface()
}
