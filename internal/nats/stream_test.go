package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/aichat/internal/model"
)

type published struct {
	subject string
	data    []byte
}

// fakeJetStream implements the calls StreamManager makes; anything else panics
// through the nil embedded interface.
type fakeJetStream struct {
	jetstream.JetStream

	lookupErr  error
	created    []jetstream.StreamConfig
	publishErr error
	published  []published
}

func (f *fakeJetStream) Stream(context.Context, string) (jetstream.Stream, error) {
	return nil, f.lookupErr
}

func (f *fakeJetStream) CreateStream(_ context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	f.created = append(f.created, cfg)
	return nil, nil
}

func (f *fakeJetStream) Publish(_ context.Context, subject string, data []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if f.publishErr != nil {
		return nil, f.publishErr
	}
	f.published = append(f.published, published{subject: subject, data: data})
	return &jetstream.PubAck{Stream: StreamName, Sequence: uint64(len(f.published))}, nil
}

func TestEventSubject(t *testing.T) {
	assert.Equal(t, "conv.7.12.event.deleted", EventSubject(7, 12, model.EventTypeDeleted))
	assert.Equal(t, "conv.7.>", UserFilter(7))
}

func TestEnsureStream(t *testing.T) {
	t.Run("exists", func(t *testing.T) {
		js := &fakeJetStream{}
		require.NoError(t, NewStreamManager(js).EnsureStream(context.Background()))
		assert.Empty(t, js.created)
	})

	t.Run("missing", func(t *testing.T) {
		js := &fakeJetStream{lookupErr: jetstream.ErrStreamNotFound}
		require.NoError(t, NewStreamManager(js).EnsureStream(context.Background()))
		require.Len(t, js.created, 1)
		assert.Equal(t, StreamName, js.created[0].Name)
		assert.Equal(t, []string{"conv.>"}, js.created[0].Subjects)
	})

	t.Run("lookup failure", func(t *testing.T) {
		js := &fakeJetStream{lookupErr: errors.New("timeout")}
		assert.Error(t, NewStreamManager(js).EnsureStream(context.Background()))
		assert.Empty(t, js.created)
	})
}

func TestPublishEvent(t *testing.T) {
	js := &fakeJetStream{}
	m := NewStreamManager(js)

	event := &model.ConversationEvent{ID: "evt-1", ConversationID: 3, UserID: 9, Type: model.EventTypeRestored}
	seq, err := m.PublishEvent(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)

	require.Len(t, js.published, 1)
	assert.Equal(t, "conv.9.3.event.restored", js.published[0].subject)
	var got model.ConversationEvent
	require.NoError(t, json.Unmarshal(js.published[0].data, &got))
	assert.Equal(t, "evt-1", got.ID)

	js.publishErr = errors.New("no responders")
	_, err = m.PublishEvent(context.Background(), event)
	assert.Error(t, err)
}
