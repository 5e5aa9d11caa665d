// internal/domain/notification/notifier.go
package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/jewelry-storefront/internal/domain/order"
)

// Event is the payload fanned out for every detected order change.
// Consumers refresh their order views on receipt; a refresh is
// idempotent, so duplicate events from independent publishers are
// harmless.
type Event struct {
	Kind    order.NotificationKind `json:"kind"`
	OrderID uint                   `json:"order_id"`
	At      time.Time              `json:"at"`
}

// Publisher pushes order events onto a Redis channel. It implements
// order.Notifier and is strictly fire-and-forget: publish failures
// are logged and dropped.
type Publisher struct {
	client  *redis.Client
	channel string
	log     *logrus.Logger
}

// NewPublisher creates a publisher for the given channel.
func NewPublisher(client *redis.Client, channel string, log *logrus.Logger) *Publisher {
	return &Publisher{
		client:  client,
		channel: channel,
		log:     log,
	}
}

// Notify publishes one event. It never returns an error to the
// caller; a lost notification must not interrupt the polling loop.
func (p *Publisher) Notify(ctx context.Context, kind order.NotificationKind, orderID uint) {
	payload, err := json.Marshal(Event{
		Kind:    kind,
		OrderID: orderID,
		At:      time.Now().UTC(),
	})
	if err != nil {
		p.log.WithError(err).Error("failed to encode order event")
		return
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.log.WithError(err).WithFields(logrus.Fields{
			"kind":     kind,
			"order_id": orderID,
		}).Warn("order event publish failed")
	}
}

// Stream subscribes to the order event channel and hands decoded
// events to in-process consumers (the SSE endpoint).
type Stream struct {
	client  *redis.Client
	channel string
	log     *logrus.Logger
}

// NewStream creates a stream reader for the given channel.
func NewStream(client *redis.Client, channel string, log *logrus.Logger) *Stream {
	return &Stream{
		client:  client,
		channel: channel,
		log:     log,
	}
}

// Subscribe returns a channel of events and a cancel function. The
// channel closes when the context ends or cancel is called. Slow
// consumers lose events rather than stalling the feed.
func (s *Stream) Subscribe(ctx context.Context) (<-chan Event, func()) {
	sub := s.client.Subscribe(ctx, s.channel)
	out := make(chan Event, 16)

	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				s.log.WithError(err).Debug("dropping undecodable order event")
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			default:
				s.log.Debug("dropping order event for slow consumer")
			}
		}
	}()

	cancel := func() {
		_ = sub.Close()
	}
	return out, cancel
}
