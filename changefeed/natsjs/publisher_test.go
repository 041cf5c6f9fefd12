package natsjs

import (
	"context"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gensvc/changefeed"
	apperrors "gensvc/errors"
)

type published struct {
	subject string
	data    []byte
}

type fakeJetStream struct {
	streams    map[string]*nats.StreamConfig
	published  []published
	publishErr error
}

func newFakeJetStream() *fakeJetStream {
	return &fakeJetStream{streams: make(map[string]*nats.StreamConfig)}
}

func (f *fakeJetStream) Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error) {
	if f.publishErr != nil {
		return nil, f.publishErr
	}
	f.published = append(f.published, published{subject: subj, data: data})
	return &nats.PubAck{Stream: "GENSVC_CHANGES", Sequence: uint64(len(f.published))}, nil
}

func (f *fakeJetStream) StreamInfo(stream string, opts ...nats.JSOpt) (*nats.StreamInfo, error) {
	cfg, ok := f.streams[stream]
	if !ok {
		return nil, nats.ErrStreamNotFound
	}
	return &nats.StreamInfo{Config: *cfg}, nil
}

func (f *fakeJetStream) AddStream(cfg *nats.StreamConfig, opts ...nats.JSOpt) (*nats.StreamInfo, error) {
	f.streams[cfg.Name] = cfg
	return &nats.StreamInfo{Config: *cfg}, nil
}

// TestPublisher_Publish 测试建流与主题命名
func TestPublisher_Publish(t *testing.T) {
	js := newFakeJetStream()
	p := New(Config{JetStream: js, SubjectPrefix: "library"})

	err := p.Publish(context.Background(),
		changefeed.Change{ID: "c1", Table: "books", Operation: changefeed.OpCreated, Keys: map[string]any{"ID": 1}},
		changefeed.Change{ID: "c2", EntityType: "Loan", Operation: changefeed.OpDeleted},
	)
	require.NoError(t, err)

	require.Contains(t, js.streams, "GENSVC_CHANGES")
	assert.Equal(t, []string{"library.>"}, js.streams["GENSVC_CHANGES"].Subjects)
	assert.Equal(t, nats.LimitsPolicy, js.streams["GENSVC_CHANGES"].Retention)

	require.Len(t, js.published, 2)
	assert.Equal(t, "library.books.created", js.published[0].subject)
	assert.Equal(t, "library.loan.deleted", js.published[1].subject)

	decoded, err := changefeed.Unmarshal(js.published[0].data)
	require.NoError(t, err)
	assert.Equal(t, "c1", decoded.ID)

	require.NoError(t, p.Close())
}

// TestPublisher_Error 测试发布失败包装为队列错误
func TestPublisher_Error(t *testing.T) {
	js := newFakeJetStream()
	js.publishErr = errors.New("no responders")
	p := New(Config{JetStream: js, Retention: "workqueue"})

	err := p.Publish(context.Background(), changefeed.Change{ID: "c1", Table: "books", Operation: changefeed.OpUpdated})
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorCode(err, apperrors.ErrCodeQueue))
	assert.True(t, errors.Is(err, js.publishErr))
	assert.Contains(t, err.Error(), "changes.books.updated")
	assert.Equal(t, nats.WorkQueuePolicy, js.streams["GENSVC_CHANGES"].Retention)
}
