// Package redisstream 把实体变更追加到 Redis Streams（XADD）。
//
// 每张表一个流：<StreamPrefix><table>，字段为 id、operation、entity_type 与 JSON 编码的 change。
package redisstream

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"

	"gensvc/changefeed"
	apperrors "gensvc/errors"
	"gensvc/logging"
)

// client 用到的 go-redis 命令子集，便于测试替换
type client interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	Close() error
}

// Config Redis Streams 发布器配置
type Config struct {
	Client   redis.UniversalClient
	Addr     string
	Username string
	Password string
	DB       int

	StreamPrefix string
	// MaxLen 大于 0 时按近似长度裁剪流（MAXLEN ~）
	MaxLen int64
	Logger logging.Logger
}

// Publisher 实现 changefeed.IPublisher
type Publisher struct {
	cfg       Config
	client    client
	ownClient bool
	logger    logging.Logger
}

// New 创建发布器；未注入 Client 时按 Addr 创建并在 Close 时关闭
func New(cfg Config) (*Publisher, error) {
	if cfg.StreamPrefix == "" {
		cfg.StreamPrefix = "changes:"
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.ComponentLogger("changefeed.redis")
	}

	p := &Publisher{cfg: cfg, logger: cfg.Logger}
	switch {
	case cfg.Client != nil:
		p.client = cfg.Client
	case cfg.Addr != "":
		p.client = redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		p.ownClient = true
	default:
		return nil, errors.New("redisstream: neither Client nor Addr configured")
	}
	return p, nil
}

// Publish 逐条 XADD，遇到第一个错误即返回
func (p *Publisher) Publish(ctx context.Context, changes ...changefeed.Change) error {
	for _, c := range changes {
		payload, err := changefeed.Marshal(c)
		if err != nil {
			return err
		}
		args := &redis.XAddArgs{
			Stream: p.StreamName(c),
			Values: map[string]any{
				"id":          c.ID,
				"operation":   string(c.Operation),
				"entity_type": c.EntityType,
				"change":      string(payload),
			},
		}
		if p.cfg.MaxLen > 0 {
			args.MaxLen = p.cfg.MaxLen
			args.Approx = true
		}
		id, err := p.client.XAdd(ctx, args).Result()
		if err != nil {
			return apperrors.WrapError(err, apperrors.ErrCodeQueue, "append to "+args.Stream)
		}
		p.logger.Debug(ctx, "change appended",
			logging.String("stream", args.Stream), logging.String("entry_id", id))
	}
	return nil
}

// StreamName 返回变更所在的流
func (p *Publisher) StreamName(c changefeed.Change) string {
	table := c.Table
	if table == "" {
		table = strings.ToLower(c.EntityType)
	}
	return p.cfg.StreamPrefix + table
}

func (p *Publisher) Close() error {
	if p.ownClient {
		return p.client.Close()
	}
	return nil
}

// Decode 从流条目还原变更
func Decode(msg redis.XMessage) (changefeed.Change, error) {
	raw, ok := msg.Values["change"].(string)
	if !ok {
		return changefeed.Change{}, errors.New("redisstream: entry " + msg.ID + " has no change field")
	}
	return changefeed.Unmarshal([]byte(raw))
}
