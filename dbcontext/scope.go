package dbcontext

import (
	"reflect"
	"time"

	"github.com/google/uuid"

	"gensvc/cache"
	"gensvc/logging"
)

// ServiceKey 已解析服务的缓存键
type ServiceKey struct {
	Kind string
	Type reflect.Type
}

func (k ServiceKey) String() string {
	if k.Type == nil {
		return k.Kind + "(<nil>)"
	}
	return k.Kind + "(" + k.Type.String() + ")"
}

// Scope 工作单元范围：唯一 ID、带 uow_id 的 Logger 以及已解析服务缓存。
// 随持久化上下文一起创建和丢弃。
type Scope struct {
	id        string
	startedAt time.Time
	logger    logging.Logger
	services  *cache.Cache[ServiceKey, any]
}

// NewScope 创建新的工作单元范围，logger 为 nil 时使用全局 Logger
func NewScope(logger logging.Logger) *Scope {
	if logger == nil {
		logger = logging.GetLogger()
	}
	id := uuid.NewString()
	return &Scope{
		id:        id,
		startedAt: time.Now(),
		logger:    logger.WithFields(logging.String("uow_id", id)),
		services:  cache.New[ServiceKey, any](cache.Config{Name: "services-" + id}),
	}
}

func (s *Scope) ID() string             { return s.id }
func (s *Scope) StartedAt() time.Time   { return s.startedAt }
func (s *Scope) Logger() logging.Logger { return s.logger }

// Services 已解析服务缓存，不限容量、不过期
func (s *Scope) Services() *cache.Cache[ServiceKey, any] { return s.services }
