// Package bus moves event payloads between the producer and analysis
// services over Redis pub/sub channels.
package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/collider-sim/collider-sim/sim"
)

const (
	// ChannelCollisionEvents carries wire-encoded events.
	ChannelCollisionEvents = "collision-events"

	// ChannelDetectorConfig carries detector description updates.
	ChannelDetectorConfig = "detector-config"
)

// Publisher pushes encoded events onto a channel.
type Publisher struct {
	rdb     *redis.Client
	channel string
}

// NewPublisher connects a publisher to Redis at addr.
func NewPublisher(addr, channel string) *Publisher {
	return &Publisher{
		rdb:     redis.NewClient(&redis.Options{Addr: addr}),
		channel: channel,
	}
}

// NewPublisherWithClient wraps an existing client.
func NewPublisherWithClient(rdb *redis.Client, channel string) *Publisher {
	return &Publisher{rdb: rdb, channel: channel}
}

// PublishEvent encodes one event and publishes it.
func (p *Publisher) PublishEvent(ctx context.Context, ev *sim.Event) error {
	payload, err := sim.EncodeEvent(ev)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", ev.EventID, err)
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event %s: %w", ev.EventID, err)
	}
	return nil
}

// PublishRaw marshals an arbitrary value and publishes it. Used for the
// detector-config channel.
func (p *Publisher) PublishRaw(ctx context.Context, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.channel, err)
	}
	return nil
}

// PublishBatch publishes a batch, returning how many events went out. A
// failed event stops the batch; the caller decides whether to retry the rest.
func (p *Publisher) PublishBatch(ctx context.Context, events []*sim.Event) (int, error) {
	for i, ev := range events {
		if err := p.PublishEvent(ctx, ev); err != nil {
			return i, err
		}
	}
	logrus.Debugf("published %d events to %s", len(events), p.channel)
	return len(events), nil
}

// Close releases the Redis connection.
func (p *Publisher) Close() error {
	return p.rdb.Close()
}

// Subscriber receives raw payloads from a channel.
type Subscriber struct {
	rdb     *redis.Client
	channel string
}

// NewSubscriber connects a subscriber to Redis at addr.
func NewSubscriber(addr, channel string) *Subscriber {
	return &Subscriber{
		rdb:     redis.NewClient(&redis.Options{Addr: addr}),
		channel: channel,
	}
}

// Payloads subscribes and returns a channel of raw message payloads. The
// channel closes when ctx is cancelled.
func (s *Subscriber) Payloads(ctx context.Context) (<-chan []byte, error) {
	sub := s.rdb.Subscribe(ctx, s.channel)
	// Confirm the subscription before handing the stream out.
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", s.channel, err)
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close releases the Redis connection.
func (s *Subscriber) Close() error {
	return s.rdb.Close()
}
