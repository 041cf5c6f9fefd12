// Package natsjs 把实体变更发布到 NATS JetStream。
//
// 主题为 <SubjectPrefix><table>.<operation>，消息 ID 使用变更 ID，
// JetStream 据此在去重窗口内丢弃重复发布。
package natsjs

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"

	"gensvc/changefeed"
	apperrors "gensvc/errors"
	"gensvc/logging"
)

// JetStream 发布器用到的 nats.JetStreamContext 子集，便于测试替换
type JetStream interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
	StreamInfo(stream string, opts ...nats.JSOpt) (*nats.StreamInfo, error)
	AddStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error)
}

// Config JetStream 发布器配置
type Config struct {
	URL           string
	Stream        string
	SubjectPrefix string
	Logger        logging.Logger

	// Conn 复用已有连接；JetStream 直接注入（测试）时忽略 URL 与 Conn
	Conn      *nats.Conn
	JetStream JetStream

	// 可选：流参数
	Retention string // limits|interest|workqueue（默认 limits）
	MaxBytes  int64
	Replicas  int
}

// Publisher 实现 changefeed.IPublisher
type Publisher struct {
	cfg    Config
	logger logging.Logger

	mu       sync.Mutex
	conn     *nats.Conn
	js       JetStream
	ownsConn bool
	ready    bool
}

// New 创建发布器，连接在首次发布时建立
func New(cfg Config) *Publisher {
	if cfg.Stream == "" {
		cfg.Stream = "GENSVC_CHANGES"
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "changes."
	}
	if !strings.HasSuffix(cfg.SubjectPrefix, ".") {
		cfg.SubjectPrefix += "."
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.ComponentLogger("changefeed.nats")
	}
	return &Publisher{cfg: cfg, logger: cfg.Logger, js: cfg.JetStream}
}

// Publish 逐条发布，遇到第一个错误即返回
func (p *Publisher) Publish(ctx context.Context, changes ...changefeed.Change) error {
	js, err := p.ensureReady()
	if err != nil {
		return err
	}
	for _, c := range changes {
		data, err := changefeed.Marshal(c)
		if err != nil {
			return err
		}
		opts := []nats.PubOpt{nats.Context(ctx)}
		if c.ID != "" {
			opts = append(opts, nats.MsgId(c.ID))
		}
		if _, err := js.Publish(p.Subject(c), data, opts...); err != nil {
			return apperrors.WrapError(err, apperrors.ErrCodeQueue, "publish to "+p.Subject(c))
		}
		p.logger.Debug(ctx, "change published",
			logging.String("subject", p.Subject(c)), logging.String("change_id", c.ID))
	}
	return nil
}

// Subject 返回变更对应的主题
func (p *Publisher) Subject(c changefeed.Change) string {
	table := c.Table
	if table == "" {
		table = strings.ToLower(c.EntityType)
	}
	return p.cfg.SubjectPrefix + table + "." + string(c.Operation)
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ownsConn && p.conn != nil {
		p.conn.Close()
	}
	p.conn = nil
	p.ready = false
	return nil
}

func (p *Publisher) ensureReady() (JetStream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ready {
		return p.js, nil
	}
	if p.js == nil {
		if err := p.connectLocked(); err != nil {
			return nil, err
		}
	}
	if err := p.ensureStreamLocked(); err != nil {
		return nil, err
	}
	p.ready = true
	return p.js, nil
}

func (p *Publisher) connectLocked() error {
	if p.cfg.Conn != nil {
		p.conn = p.cfg.Conn
	} else {
		url := p.cfg.URL
		if url == "" {
			url = nats.DefaultURL
		}
		conn, err := nats.Connect(url)
		if err != nil {
			return err
		}
		p.conn = conn
		p.ownsConn = true
	}
	js, err := p.conn.JetStream()
	if err != nil {
		return err
	}
	p.js = js
	return nil
}

func (p *Publisher) ensureStreamLocked() error {
	_, err := p.js.StreamInfo(p.cfg.Stream)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return err
	}

	retention := nats.LimitsPolicy
	switch strings.ToLower(p.cfg.Retention) {
	case "interest":
		retention = nats.InterestPolicy
	case "workqueue":
		retention = nats.WorkQueuePolicy
	}
	sc := &nats.StreamConfig{
		Name:      p.cfg.Stream,
		Subjects:  []string{p.cfg.SubjectPrefix + ">"},
		Retention: retention,
	}
	if p.cfg.MaxBytes > 0 {
		sc.MaxBytes = p.cfg.MaxBytes
	}
	if p.cfg.Replicas > 0 {
		sc.Replicas = p.cfg.Replicas
	}
	_, err = p.js.AddStream(sc)
	return err
}
