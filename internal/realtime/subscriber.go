package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultPingInterval is the cadence of the transport health check. go-redis
// retries dead pub/sub connections internally without telling the consumer,
// so the subscription probes the connection itself and reports failures on
// Errors, leaving recovery to the hook.
const defaultPingInterval = 3 * time.Second

// Subscription is one live table-channel subscription. Events are delivered
// in transport order; the Events channel closes on graceful shutdown, while
// transport failures are reported on Errors.
type Subscription interface {
	Events() <-chan Event
	Errors() <-chan error
	Close() error
}

// Subscriber opens change-notification subscriptions against the remote data
// service.
type Subscriber interface {
	Subscribe(ctx context.Context, table, filter string) (Subscription, error)
}

// RedisSubscriber implements Subscriber on Redis pub/sub.
type RedisSubscriber struct {
	client *redis.Client

	// PingInterval overrides the health check cadence. Zero means the
	// package default.
	PingInterval time.Duration
}

// NewRedisSubscriber wraps a redis client as a change-event Subscriber.
func NewRedisSubscriber(client *redis.Client) *RedisSubscriber {
	if client == nil {
		panic("realtime: redis client required")
	}
	return &RedisSubscriber{client: client}
}

// Subscribe opens the table channel and confirms the subscription before
// returning. Decode failures on individual payloads are dropped rather than
// tearing down the stream.
func (s *RedisSubscriber) Subscribe(ctx context.Context, table, filter string) (Subscription, error) {
	if table == "" {
		return nil, fmt.Errorf("realtime: table required")
	}

	ps := s.client.Subscribe(ctx, ChannelFor(table, filter))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("realtime: subscribe %s: %w", table, err)
	}

	interval := s.PingInterval
	if interval <= 0 {
		interval = defaultPingInterval
	}
	sub := &redisSubscription{
		ps:     ps,
		events: make(chan Event, 64),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
	}
	go sub.pump(ps.Channel())
	go sub.watch(interval)
	return sub, nil
}

type redisSubscription struct {
	ps        *redis.PubSub
	events    chan Event
	errs      chan error
	done      chan struct{}
	closeOnce sync.Once
}

func (s *redisSubscription) pump(msgs <-chan *redis.Message) {
	defer close(s.events)
	for msg := range msgs {
		ev, err := DecodeEvent([]byte(msg.Payload))
		if err != nil {
			continue
		}
		s.events <- ev
	}
}

// watch pings the pub/sub connection until it fails, then reports the
// failure once and stops. The consumer is expected to close the subscription
// and resubscribe.
func (s *redisSubscription) watch(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			err := s.ps.Ping(ctx)
			cancel()
			if err == nil {
				continue
			}
			select {
			case s.errs <- fmt.Errorf("realtime: subscription health check: %w", err):
			default:
			}
			return
		}
	}
}

func (s *redisSubscription) Events() <-chan Event { return s.events }
func (s *redisSubscription) Errors() <-chan error { return s.errs }

func (s *redisSubscription) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return s.ps.Close()
}
