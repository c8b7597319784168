package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/frahmantamala/resolution-tracker/pkg/logger"
)

const DefaultPrefix = "resolution"

// NewRedisClient parses redisURL and checks the server is reachable.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

func channelName(prefix, resolutionID string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + ":" + resolutionID
}

// RedisChannel delivers room events over redis pub/sub, one redis channel
// per resolution.
type RedisChannel struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

func NewRedisChannel(client *redis.Client, prefix string, lg *slog.Logger) *RedisChannel {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &RedisChannel{client: client, prefix: prefix, logger: lg}
}

// Subscribe returns once redis has confirmed the subscription, so events
// published afterwards are not missed.
func (c *RedisChannel) Subscribe(ctx context.Context, resolutionID string, handler Handler) (Subscription, error) {
	name := channelName(c.prefix, resolutionID)
	ps := c.client.Subscribe(ctx, name)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", name, err)
	}

	sub := &redisSubscription{ps: ps, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		for msg := range ps.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				c.logger.Warn("dropping malformed room event", "channel", name, "error", err)
				continue
			}
			if ev.ResolutionID != "" && ev.ResolutionID != resolutionID {
				continue
			}
			ev.ResolutionID = resolutionID
			handler(ev)
		}
	}()
	return sub, nil
}

type redisSubscription struct {
	ps   *redis.PubSub
	done chan struct{}
	once sync.Once
	err  error
}

// Close stops delivery and waits for the dispatch goroutine to exit.
func (s *redisSubscription) Close() error {
	s.once.Do(func() {
		s.err = s.ps.Close()
		<-s.done
	})
	return s.err
}

// Publisher pushes events into rooms.
type Publisher struct {
	client *redis.Client
	prefix string
}

func NewPublisher(client *redis.Client, prefix string) *Publisher {
	return &Publisher{client: client, prefix: prefix}
}

func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	if ev.ResolutionID == "" {
		return fmt.Errorf("publish %s: missing resolution id", ev.Type)
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, channelName(p.prefix, ev.ResolutionID), body).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}
