package tradefeed

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/joripage/lazybook/pkg/logging"
	"github.com/joripage/lazybook/pkg/orderbook"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	kafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var (
	fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	trades   = []orderbook.MatchResult{
		{BuyOrderID: "buy4", SellOrderID: "sell3", Price: 101.5, Qty: 6},
		{BuyOrderID: "buy3", SellOrderID: "sell4", Price: 99, Qty: 8},
	}
	snap = orderbook.Snapshot{
		Bids: []orderbook.Level{{Price: 99, Qty: 13}},
		Asks: []orderbook.Level{{Price: 101.5, Qty: 9}},
	}
)

type fakeWriter struct {
	msgs     []kafka.Message
	attempts [][]kafka.Message
	failures int
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.attempts = append(w.attempts, msgs)
	if w.failures > 0 {
		w.failures--
		return errors.New("leader not available")
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, "trades", "book")
	p.now = func() time.Time { return fixedNow }
	ctx := context.Background()

	require.NoError(t, p.PublishTrades(ctx, trades))
	require.NoError(t, p.PublishTrades(ctx, nil))
	require.NoError(t, p.PublishSnapshot(ctx, snap))
	require.NoError(t, p.Close(ctx))

	require.Len(t, w.msgs, 3)
	assert.True(t, w.closed)

	assert.Equal(t, "trades", w.msgs[0].Topic)
	assert.Equal(t, []byte("buy4"), w.msgs[0].Key)
	var ev TradeEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, "sell3", ev.SellOrderID)
	assert.Equal(t, "101.5", ev.Price.String())
	assert.Equal(t, int64(6), ev.Qty)
	assert.True(t, fixedNow.Equal(ev.Timestamp))

	assert.Equal(t, "book", w.msgs[2].Topic)
	var book SnapshotEvent
	require.NoError(t, json.Unmarshal(w.msgs[2].Value, &book))
	require.Len(t, book.Asks, 1)
	assert.Equal(t, int64(9), book.Asks[0].Qty)
	assert.Equal(t, "99", book.Bids[0].Price.String())
}

func TestKafkaPublisher_NotInitialized(t *testing.T) {
	var p *KafkaPublisher
	assert.Error(t, p.PublishTrades(context.Background(), trades))
	assert.NoError(t, p.Close(context.Background()))
}

type fakeRedis struct {
	published []string
	sets      map[string]string
	failPub   error
	// failCall fails the nth Publish call, counting from 1, once.
	failCall int
	pubCalls int
}

func (r *fakeRedis) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	r.pubCalls++
	if r.failPub != nil {
		return redis.NewIntResult(0, r.failPub)
	}
	if r.pubCalls == r.failCall {
		return redis.NewIntResult(0, errors.New("connection reset"))
	}
	r.published = append(r.published, channel+" "+string(message.([]byte)))
	return redis.NewIntResult(1, nil)
}

func (r *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	if r.sets == nil {
		r.sets = make(map[string]string)
	}
	r.sets[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func (r *fakeRedis) Close() error { return nil }

func TestRedisPublisher(t *testing.T) {
	client := &fakeRedis{}
	p := NewRedisPublisher(client, "ch", "book")
	ctx := context.Background()

	require.NoError(t, p.PublishTrades(ctx, trades))
	require.NoError(t, p.PublishSnapshot(ctx, snap))

	require.Len(t, client.published, 2)
	assert.Contains(t, client.published[1], `"buy_order_id":"buy3"`)
	assert.Contains(t, client.sets["book"], `"asks":[{"price":"101.5","qty":9}]`)
}

func TestRedisPublisher_Error(t *testing.T) {
	boom := errors.New("down")
	p := NewRedisPublisher(&fakeRedis{failPub: boom}, "ch", "book")
	assert.ErrorIs(t, p.PublishTrades(context.Background(), trades), boom)
}

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), RedisConfig{ConnectionURL: "not a url"})
	assert.Error(t, err)
}

type flakyPublisher struct {
	failures int
	calls    int
}

func (f *flakyPublisher) PublishTrades(context.Context, []orderbook.MatchResult) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("transient")
	}
	return nil
}

func (f *flakyPublisher) PublishSnapshot(ctx context.Context, _ orderbook.Snapshot) error {
	return f.PublishTrades(ctx, nil)
}

func (f *flakyPublisher) Close(context.Context) error { return nil }

func retryN(next Publisher, n uint64) Publisher {
	return &retryingPublisher{
		next: next,
		newBackOff: func() backoff.BackOff {
			return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, n)
		},
		now: func() time.Time { return fixedNow },
	}
}

func eventIDs(t *testing.T, msgs []kafka.Message) []string {
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		var ev TradeEvent
		require.NoError(t, json.Unmarshal(m.Value, &ev))
		ids = append(ids, ev.EventID)
	}
	return ids
}

func TestRetrying(t *testing.T) {
	ctx := context.Background()

	f := &flakyPublisher{failures: 2}
	require.NoError(t, retryN(f, 3).PublishTrades(ctx, trades))
	assert.Equal(t, 3, f.calls)

	f = &flakyPublisher{failures: 5}
	assert.Error(t, retryN(f, 2).PublishSnapshot(ctx, snap))
	assert.Equal(t, 3, f.calls)

	f = &flakyPublisher{}
	require.NoError(t, Retrying(f, time.Second).PublishTrades(ctx, nil))
	assert.Zero(t, f.calls, "empty passes are not published")
}

func TestRetrying_KeepsEventIDs(t *testing.T) {
	w := &fakeWriter{failures: 1}
	require.NoError(t, retryN(newKafkaPublisher(w, "t", "b"), 3).PublishTrades(context.Background(), trades))

	require.Len(t, w.attempts, 2)
	first := eventIDs(t, w.attempts[0])
	assert.Equal(t, first, eventIDs(t, w.attempts[1]), "a retry resends the same events")
	assert.Len(t, lo.Uniq(first), 2)
	assert.Len(t, w.msgs, 2)
}

func TestRetrying_RedisResumesAfterPartialBatch(t *testing.T) {
	client := &fakeRedis{failCall: 2}
	p := NewRedisPublisher(client, "ch", "book")
	require.NoError(t, retryN(p, 3).PublishTrades(context.Background(), trades))

	require.Len(t, client.published, 2, "the event sent before the failure is not sent again")
	assert.Contains(t, client.published[0], `"buy_order_id":"buy4"`)
	assert.Contains(t, client.published[1], `"buy_order_id":"buy3"`)
	assert.Equal(t, 3, client.pubCalls)
}

func TestMulti_RetriesOnlyTheFailingSink(t *testing.T) {
	ctx := context.Background()
	healthy := &flakyPublisher{}
	w := &fakeWriter{}
	client := &fakeRedis{failCall: 1}

	pub := Multi(healthy, retryN(newKafkaPublisher(w, "t", "b"), 3), retryN(NewRedisPublisher(client, "ch", "book"), 3))
	require.NoError(t, pub.PublishTrades(ctx, trades))

	assert.Equal(t, 1, healthy.calls, "healthy sink receives the batch exactly once")
	assert.Len(t, w.attempts, 1)
	assert.Len(t, w.msgs, 2)
	assert.Len(t, client.published, 2)
}

func TestMulti(t *testing.T) {
	ctx := context.Background()
	w := &fakeWriter{}
	bad := &flakyPublisher{failures: 1}

	err := Multi(newKafkaPublisher(w, "t", "b"), bad).PublishTrades(ctx, trades)
	assert.Error(t, err)
	assert.Len(t, w.msgs, 2, "healthy publishers still receive the event")

	assert.NoError(t, Multi(newKafkaPublisher(w, "t", "b"), bad).PublishSnapshot(ctx, snap))
}

func TestLogPublisher(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	p := NewLogPublisher(logging.New(zap.New(core)))

	require.NoError(t, p.PublishTrades(context.Background(), trades))
	require.NoError(t, p.PublishSnapshot(context.Background(), snap))

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "trade", entries[0].Message)
	assert.Equal(t, "buy4", entries[0].ContextMap()["buy_order_id"])
	assert.Equal(t, "book snapshot", entries[2].Message)
}
