package tradefeed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/joripage/lazybook/pkg/orderbook"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RedisConfig struct {
	ConnectionURL       string
	PoolSize            int
	DialTimeoutSeconds  int
	ReadTimeoutSeconds  int
	WriteTimeoutSeconds int
	IdleTimeoutSeconds  int
}

// NewRedisClient creates a redis client from config and pings it.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		zap.S().Debugf("parse redis url fail: %+v", err)
		return nil, err
	}

	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.DialTimeout = time.Duration(cfg.DialTimeoutSeconds) * time.Second
	opts.ReadTimeout = time.Duration(cfg.ReadTimeoutSeconds) * time.Second
	opts.WriteTimeout = time.Duration(cfg.WriteTimeoutSeconds) * time.Second
	opts.ConnMaxIdleTime = time.Duration(cfg.IdleTimeoutSeconds) * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	zap.S().Debug("connect to redis successful")
	return client, nil
}

type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// RedisPublisher publishes each trade on a pub/sub channel and keeps the
// latest snapshot under a single key.
type RedisPublisher struct {
	client       redisClient
	tradeChannel string
	bookKey      string
	now          func() time.Time
}

func NewRedisPublisher(client redisClient, tradeChannel, bookKey string) *RedisPublisher {
	return &RedisPublisher{
		client:       client,
		tradeChannel: tradeChannel,
		bookKey:      bookKey,
		now:          time.Now,
	}
}

func (p *RedisPublisher) PublishTrades(ctx context.Context, results []orderbook.MatchResult) error {
	_, err := p.publishTradeEvents(ctx, tradeEvents(results, p.now()))
	return err
}

func (p *RedisPublisher) PublishSnapshot(ctx context.Context, snap orderbook.Snapshot) error {
	return p.publishSnapshotEvent(ctx, snapshotEvent(snap, p.now()))
}

// publishTradeEvents publishes one message per event and reports how many
// went out before the first failure.
func (p *RedisPublisher) publishTradeEvents(ctx context.Context, events []TradeEvent) (int, error) {
	for i, ev := range events {
		b, err := json.Marshal(ev)
		if err != nil {
			return i, err
		}
		if err := p.client.Publish(ctx, p.tradeChannel, b).Err(); err != nil {
			return i, err
		}
	}
	return len(events), nil
}

func (p *RedisPublisher) publishSnapshotEvent(ctx context.Context, ev SnapshotEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.client.Set(ctx, p.bookKey, b, 0).Err()
}

func (p *RedisPublisher) Close(context.Context) error {
	return p.client.Close()
}
