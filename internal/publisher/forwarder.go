// Package publisher forwards checkout events to kafka. Forwarding is best
// effort: a full queue or a failed write is logged and the event dropped.
package publisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/fjod/go_cart/storefront/internal/events"
	"github.com/fjod/go_cart/storefront/internal/logging"
)

// MessageWriter is the part of *kafka.Writer the forwarder uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

type EventForwarder struct {
	timeout   time.Duration
	flushTick time.Duration
	batchSize int
	writer    MessageWriter
	queue     chan events.Event
	logger    *slog.Logger
}

func NewEventForwarder(writer MessageWriter) *EventForwarder {
	return &EventForwarder{
		timeout:   5 * time.Second,
		flushTick: time.Second,
		batchSize: 50,
		writer:    writer,
		queue:     make(chan events.Event, 256),
		logger:    logging.New("event-forwarder"),
	}
}

// Handle enqueues ev without blocking. It is an events.Handler.
func (f *EventForwarder) Handle(_ context.Context, ev events.Event) {
	select {
	case f.queue <- ev:
	default:
		f.logger.Warn("event queue full, dropping event", "event_type", ev.Kind, "order_id", ev.OrderID)
	}
}

// Run writes queued events until ctx is done, then flushes what is left.
func (f *EventForwarder) Run(ctx context.Context) {
	ticker := time.NewTicker(f.flushTick)
	defer ticker.Stop()

	batch := make([]kafka.Message, 0, f.batchSize)
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		f.write(ctx, batch)
		batch = batch[:0]
	}

	for {
		select {
		case ev := <-f.queue:
			msg, err := toMessage(ev)
			if err != nil {
				f.logger.Error("failed to encode event", "event_type", ev.Kind, "error", err)
				continue
			}
			batch = append(batch, msg)
			if len(batch) >= f.batchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		case <-ctx.Done():
			for {
				select {
				case ev := <-f.queue:
					if msg, err := toMessage(ev); err == nil {
						batch = append(batch, msg)
					}
				default:
					flush(context.WithoutCancel(ctx))
					return
				}
			}
		}
	}
}

func (f *EventForwarder) write(ctx context.Context, batch []kafka.Message) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	if err := f.writer.WriteMessages(ctx, batch...); err != nil {
		f.logger.Warn("failed to publish events", "count", len(batch), "error", err)
	}
}

func (f *EventForwarder) Close() error {
	return f.writer.Close()
}

func toMessage(ev events.Event) (kafka.Message, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.OrderID, 10)), // order_id for ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Kind)},
		},
	}, nil
}
