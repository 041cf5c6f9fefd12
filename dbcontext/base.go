package dbcontext

import (
	"context"
	stdErrors "errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"gensvc/changefeed"
	"gensvc/core"
	"gensvc/data/orm"
	"gensvc/logging"
	"gensvc/status"
	"gensvc/validation"
)

// Store 底层存储。
// Query 返回新分配的 *E，零值 filter 表示全部；
// Commit 必须原子地应用全部变更，失败时存储保持不变。
type Store interface {
	Query(ctx context.Context, meta *orm.ModelMeta, filter core.Filter) ([]any, error)
	Commit(ctx context.Context, entries []*Entry) error
	IsUniqueViolation(err error) bool
}

// CommitError 提交某个实体时出错
type CommitError struct {
	Entry *Entry
	Err   error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("dbcontext: %s %s: %v", e.Entry.State, e.Entry.Meta.Type.Name(), e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// Config 持久化上下文配置，零值字段使用默认实现
type Config struct {
	// Validator 保存前对新增与修改的实体做校验，默认 validation.Default()
	Validator validation.IValidator
	// Publisher 提交成功后发布变更，默认丢弃
	Publisher changefeed.IPublisher
	// Logger 默认全局 Logger
	Logger logging.Logger
}

func (c Config) withDefaults() Config {
	if c.Validator == nil {
		c.Validator = validation.Default()
	}
	if c.Publisher == nil {
		c.Publisher = changefeed.NoopPublisher{}
	}
	if c.Logger == nil {
		c.Logger = logging.ComponentLogger("dbcontext")
	}
	return c
}

// Context IDbContext 的通用实现，具体读写由 Store 完成
type Context struct {
	store   Store
	config  Config
	scope   *Scope
	tracker *tracker
	sets    map[reflect.Type]*set
	now     func() time.Time
}

var _ IDbContext = (*Context)(nil)

// New 在 store 上开启一个新的工作单元
func New(store Store, config Config) *Context {
	config = config.withDefaults()
	return &Context{
		store:   store,
		config:  config,
		scope:   NewScope(config.Logger),
		tracker: newTracker(),
		sets:    make(map[reflect.Type]*set),
		now:     time.Now,
	}
}

func (c *Context) Scope() *Scope { return c.scope }

func (c *Context) Set(entityType reflect.Type) IDbSet {
	if s, ok := c.sets[entityType]; ok {
		return s
	}
	meta := c.mustMeta(entityType)
	s := &set{ctx: c, meta: meta}
	c.sets[entityType] = s
	return s
}

func (c *Context) KeyProperties(entityType reflect.Type) ([]string, error) {
	meta, err := c.meta(entityType)
	if err != nil {
		return nil, err
	}
	return meta.KeyNames(), nil
}

func (c *Context) meta(entityType reflect.Type) (*orm.ModelMeta, error) {
	if entityType == nil || entityType.Kind() != reflect.Struct {
		return nil, core.NewConfigurationError(entityType, "%v", ErrUnknownEntity)
	}
	meta, err := orm.MetaOf(entityType)
	if err != nil {
		return nil, core.NewConfigurationError(entityType, "%v", err)
	}
	if len(meta.Keys()) == 0 {
		return nil, core.NewConfigurationError(entityType, "%v", orm.ErrNoKey)
	}
	return meta, nil
}

func (c *Context) mustMeta(entityType reflect.Type) *orm.ModelMeta {
	meta, err := c.meta(entityType)
	if err != nil {
		panic(err)
	}
	return meta
}

func (c *Context) DiscardChanges() {
	c.tracker.reset()
}

// Entries 返回当前被跟踪实体的副本，按登记顺序
func (c *Context) Entries() []Entry {
	out := make([]Entry, len(c.tracker.entries))
	for i, e := range c.tracker.entries {
		out[i] = *e
	}
	return out
}

// HasChanges 是否存在挂起的变更
func (c *Context) HasChanges() bool {
	return len(c.tracker.pending()) > 0
}

func (c *Context) SaveChangesWithValidation(ctx context.Context) *status.SuccessOrErrors {
	result := status.New()
	pending := c.tracker.pending()
	if len(pending) == 0 {
		return result
	}
	logger := c.scope.Logger()

	for _, e := range pending {
		if e.State == StateDeleted {
			continue
		}
		result.AddFieldErrors(c.config.Validator.Validate(ctx, e.Entity))
	}
	if !result.IsValid() {
		logger.Warn(ctx, "实体校验失败，丢弃挂起的变更", logging.Int("errors", len(result.Errors())))
		c.DiscardChanges()
		return result
	}

	if err := c.store.Commit(ctx, pending); err != nil {
		result.AddSingleError(c.describe(err))
		logger.Warn(ctx, "提交失败，丢弃挂起的变更", logging.Error(err), logging.Int("pending", len(pending)))
		c.DiscardChanges()
		return result
	}

	changes := c.changesOf(pending)
	c.tracker.accept()
	logger.Debug(ctx, "变更已提交", logging.Int("count", len(changes)))

	if err := c.config.Publisher.Publish(ctx, changes...); err != nil {
		logger.Warn(ctx, "变更发布失败", logging.Error(err), logging.Int("count", len(changes)))
	}
	return result
}

func (c *Context) describe(err error) string {
	name, cause := "entity", err
	var ce *CommitError
	if stdErrors.As(err, &ce) {
		name, cause = ce.Entry.Meta.Type.Name(), ce.Err
	}
	switch {
	case stdErrors.Is(err, orm.ErrNotFound):
		return fmt.Sprintf("The %s could not be found. It may have been deleted by someone else.", name)
	case stdErrors.Is(err, ErrDuplicateKey), c.store.IsUniqueViolation(err):
		return fmt.Sprintf("A %s with the same key or unique value already exists.", name)
	default:
		return fmt.Sprintf("Unable to save the %s: %v", name, cause)
	}
}

func (c *Context) changesOf(entries []*Entry) []changefeed.Change {
	now := c.now()
	changes := make([]changefeed.Change, 0, len(entries))
	for _, e := range entries {
		keys := make(map[string]any, len(e.Meta.Keys()))
		values := e.Meta.KeyValues(e.Entity)
		for i, name := range e.Meta.KeyNames() {
			keys[name] = values[i]
		}
		change := changefeed.Change{
			ID:         uuid.NewString(),
			UnitOfWork: c.scope.ID(),
			EntityType: e.Meta.Type.Name(),
			Table:      e.Meta.Table,
			Keys:       keys,
			Timestamp:  now,
		}
		switch e.State {
		case StateAdded:
			change.Operation = changefeed.OpCreated
			change.Entity = snapshot(e.Entity)
		case StateModified:
			change.Operation = changefeed.OpUpdated
			change.Entity = snapshot(e.Entity)
		case StateDeleted:
			change.Operation = changefeed.OpDeleted
		}
		changes = append(changes, change)
	}
	return changes
}

type set struct {
	ctx  *Context
	meta *orm.ModelMeta
}

func (s *set) EntityType() reflect.Type { return s.meta.Type }

func (s *set) check(entity any) error {
	v := reflect.ValueOf(entity)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Type() != s.meta.Type {
		return fmt.Errorf("%w: want *%s, got %T", ErrEntityType, s.meta.Type, entity)
	}
	return nil
}

func (s *set) Add(entity any) error {
	if err := s.check(entity); err != nil {
		return err
	}
	s.ctx.tracker.attach(entity, s.meta, StateAdded)
	return nil
}

// Update 若同一主键的实体已被跟踪，则把值写入被跟踪的实例
func (s *set) Update(entity any) error {
	if err := s.check(entity); err != nil {
		return err
	}
	target := s.tracked(entity)
	if target != entity {
		reflect.ValueOf(target).Elem().Set(reflect.ValueOf(entity).Elem())
	}
	s.ctx.tracker.attach(target, s.meta, StateModified)
	return nil
}

func (s *set) Remove(entity any) error {
	if err := s.check(entity); err != nil {
		return err
	}
	s.ctx.tracker.attach(s.tracked(entity), s.meta, StateDeleted)
	return nil
}

func (s *set) tracked(entity any) any {
	if _, ok := s.ctx.tracker.byPtr[entity]; ok {
		return entity
	}
	if e := s.ctx.tracker.find(s.meta, entity); e != nil {
		return e.Entity
	}
	return entity
}

func (s *set) checkFilter(filter core.Filter) error {
	if !filter.IsZero() && filter.EntityType() != s.meta.Type {
		return fmt.Errorf("%w: filter is for %s, set is %s", ErrEntityType, filter.EntityType(), s.meta.Type)
	}
	return nil
}

func (s *set) Where(ctx context.Context, filter core.Filter) ([]any, error) {
	if err := s.checkFilter(filter); err != nil {
		return nil, err
	}
	return s.ctx.store.Query(ctx, s.meta, filter)
}

// WhereTracked 已在跟踪中的同主键实体直接返回被跟踪的实例，已标记删除的不返回
func (s *set) WhereTracked(ctx context.Context, filter core.Filter) ([]any, error) {
	rows, err := s.Where(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(rows))
	for _, row := range rows {
		if e := s.ctx.tracker.find(s.meta, row); e != nil {
			if e.State != StateDeleted {
				out = append(out, e.Entity)
			}
			continue
		}
		s.ctx.tracker.attach(row, s.meta, StateUnchanged)
		out = append(out, row)
	}
	return out, nil
}

func (s *set) All(ctx context.Context) ([]any, error) {
	return s.ctx.store.Query(ctx, s.meta, core.Filter{})
}
