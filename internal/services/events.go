package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/empdesk/apiserver/internal/mq"
	"github.com/empdesk/apiserver/types"
	"github.com/google/uuid"
)

// Publisher sends raw payloads to a named channel. *mq.MQ satisfies it.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// EventEmitter publishes change events. A nil *EventEmitter, or one without
// a publisher, drops events silently.
type EventEmitter struct {
	publisher Publisher
	channel   string
	logger    *slog.Logger
	now       func() time.Time
}

func NewEventEmitter(publisher Publisher, channel string, logger *slog.Logger) *EventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventEmitter{
		publisher: publisher,
		channel:   channel,
		logger:    logger,
		now:       time.Now,
	}
}

// Emit publishes event. Failures are logged and never returned: the change
// that produced the event has already been applied.
func (e *EventEmitter) Emit(ctx context.Context, event types.Event) {
	if e == nil || e.publisher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = e.now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		e.logger.Error("encode event", "type", event.Type, "error", err)
		return
	}

	attrs := map[string]string{
		mq.AttrContentType: "application/json",
		mq.AttrEventType:   string(event.Type),
	}
	if event.EmployeeID != 0 {
		attrs[mq.AttrOrderingKey] = "employee-" + strconv.Itoa(event.EmployeeID)
	}
	if _, err := e.publisher.Publish(ctx, e.channel, data, attrs); err != nil {
		e.logger.Warn("publish event", "type", event.Type, "channel", e.channel, "error", err)
	}
}
