package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/empdesk/apiserver/config"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQClient publishes events to RabbitMQ queues named after the channel.
// Each queue is declared once per client, not on every publish.
type RabbitMQClient struct {
	conn            *amqp.Connection
	channel         *amqp.Channel
	queueDurable    bool
	queueAutoDelete bool
	prefetchCount   int

	mu       sync.Mutex
	declared map[string]struct{}
}

// NewRabbitMQClient constructs a RabbitMQ client from config.
func NewRabbitMQClient(cfg config.RabbitMQConfig) (*RabbitMQClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if cfg.PrefetchCount > 0 {
		if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, err
		}
	}

	return &RabbitMQClient{
		conn:            conn,
		channel:         ch,
		queueDurable:    cfg.QueueDurable,
		queueAutoDelete: cfg.QueueAutoDelete,
		prefetchCount:   cfg.PrefetchCount,
		declared:        make(map[string]struct{}),
	}, nil
}

// Publish sends an event to the named queue through the default exchange.
func (r *RabbitMQClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("rabbitmq channel is required")
	}

	if err := r.ensureQueue(channel); err != nil {
		return "", err
	}

	msg := r.publishing(data, attrs, time.Now())
	if err := r.channel.PublishWithContext(ctx, "", channel, false, false, msg); err != nil {
		return "", err
	}
	return msg.MessageId, nil
}

// Subscribe consumes events from the named queue. A handler error requeues
// the delivery.
func (r *RabbitMQClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("rabbitmq channel is required")
	}

	if err := r.ensureQueue(channel); err != nil {
		return err
	}

	consumerTag := fmt.Sprintf("consumer-%s", newMessageID())
	deliveries, err := r.channel.Consume(channel, consumerTag, false, false, false, false, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = r.channel.Cancel(consumerTag, false)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			if err := handler(ctx, amqpDelivery(delivery)); err != nil {
				_ = delivery.Nack(false, true)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

// Close closes the underlying channel and connection.
func (r *RabbitMQClient) Close() error {
	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func (r *RabbitMQClient) ensureQueue(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.declared[name]; ok {
		return nil
	}
	if _, err := r.channel.QueueDeclare(
		name,
		r.queueDurable,
		r.queueAutoDelete,
		false,
		false,
		nil,
	); err != nil {
		return err
	}
	r.declared[name] = struct{}{}
	return nil
}

// publishing maps event attributes onto AMQP properties. Messages on durable
// queues are persisted so events survive a broker restart.
func (r *RabbitMQClient) publishing(data []byte, attrs map[string]string, now time.Time) amqp.Publishing {
	headers := amqp.Table{}
	for key, value := range attrs {
		headers[key] = value
	}

	msg := amqp.Publishing{
		ContentType: contentType(attrs),
		MessageId:   newMessageID(),
		Type:        attrs[AttrEventType],
		Timestamp:   now.UTC(),
		Headers:     headers,
		Body:        data,
	}
	if r.queueDurable {
		msg.DeliveryMode = amqp.Persistent
	}
	return msg
}

func amqpDelivery(delivery amqp.Delivery) Message {
	attrs := headersToAttributes(delivery.Headers)
	if attrs == nil {
		attrs = make(map[string]string, 2)
	}
	if _, ok := attrs[AttrEventType]; !ok && delivery.Type != "" {
		attrs[AttrEventType] = delivery.Type
	}
	if _, ok := attrs[AttrContentType]; !ok && delivery.ContentType != "" {
		attrs[AttrContentType] = delivery.ContentType
	}
	return Message{
		ID:         delivery.MessageId,
		Data:       delivery.Body,
		Attributes: attrs,
	}
}

func contentType(attrs map[string]string) string {
	if value := attrs[AttrContentType]; value != "" {
		return value
	}
	return "application/octet-stream"
}

func headersToAttributes(headers amqp.Table) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(headers))
	for key, value := range headers {
		switch typed := value.(type) {
		case string:
			attrs[key] = typed
		case []byte:
			attrs[key] = string(typed)
		default:
			attrs[key] = fmt.Sprint(value)
		}
	}
	return attrs
}

func newMessageID() string {
	return uuid.NewString()
}
