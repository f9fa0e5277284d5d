package mq

import (
	"context"
	"testing"

	"github.com/empdesk/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBackend struct {
	published []Message
	closed    bool
}

func (b *recordingBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	b.published = append(b.published, Message{ID: channel, Data: data, Attributes: attrs})
	return "msg-1", nil
}

func (b *recordingBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	for _, msg := range b.published {
		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (b *recordingBackend) Close() error {
	b.closed = true
	return nil
}

func TestMQDelegatesToBackend(t *testing.T) {
	ctx := context.Background()
	backend := &recordingBackend{}
	m := New(backend)

	id, err := m.Publish(ctx, "events", []byte(`{}`), map[string]string{AttrEventType: "employee.created"})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)

	var seen []Message
	require.NoError(t, m.Subscribe(ctx, "events", func(ctx context.Context, msg Message) error {
		seen = append(seen, msg)
		return nil
	}))
	require.Len(t, seen, 1)
	assert.Equal(t, "employee.created", seen[0].Attributes[AttrEventType])

	require.NoError(t, m.Close())
	assert.True(t, backend.closed)
}

func TestOpen(t *testing.T) {
	t.Run("disabled when no backend is configured", func(t *testing.T) {
		m, err := Open(context.Background(), config.MQConfig{})
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("unknown backend fails", func(t *testing.T) {
		_, err := Open(context.Background(), config.MQConfig{Backend: "kafka"})
		assert.Error(t, err)
	})

	t.Run("rabbitmq requires a url", func(t *testing.T) {
		_, err := Open(context.Background(), config.MQConfig{Backend: config.MQRabbitMQ})
		assert.Error(t, err)
	})

	t.Run("pubsub requires a project", func(t *testing.T) {
		_, err := Open(context.Background(), config.MQConfig{Backend: config.MQPubSub})
		assert.Error(t, err)
	})
}

func TestHeadersToAttributes(t *testing.T) {
	assert.Nil(t, headersToAttributes(nil))
	attrs := headersToAttributes(map[string]any{"a": "x", "b": []byte("y"), "c": 3})
	assert.Equal(t, map[string]string{"a": "x", "b": "y", "c": "3"}, attrs)
	assert.Equal(t, "application/json", contentType(map[string]string{AttrContentType: "application/json"}))
	assert.Equal(t, "application/octet-stream", contentType(nil))
}
