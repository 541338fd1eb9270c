// Package tradefeed delivers match results and book snapshots to consumers
// outside the book.
package tradefeed

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/joripage/lazybook/pkg/logging"
	"github.com/joripage/lazybook/pkg/orderbook"
	"go.uber.org/zap"
)

type Publisher interface {
	PublishTrades(ctx context.Context, results []orderbook.MatchResult) error
	PublishSnapshot(ctx context.Context, snap orderbook.Snapshot) error
	Close(ctx context.Context) error
}

// LogPublisher writes events to the log instead of a broker.
type LogPublisher struct {
	log *logging.Logger
}

func NewLogPublisher(log *logging.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) PublishTrades(ctx context.Context, results []orderbook.MatchResult) error {
	for _, r := range results {
		p.log.Info(ctx, "trade",
			zap.String("buy_order_id", r.BuyOrderID),
			zap.String("sell_order_id", r.SellOrderID),
			zap.Float64("price", r.Price),
			zap.Int64("qty", r.Qty),
		)
	}
	return nil
}

func (p *LogPublisher) PublishSnapshot(ctx context.Context, snap orderbook.Snapshot) error {
	p.log.Debug(ctx, "book snapshot",
		zap.Int("bid_levels", len(snap.Bids)),
		zap.Int("ask_levels", len(snap.Asks)),
	)
	return nil
}

func (p *LogPublisher) Close(context.Context) error {
	return nil
}

type multiPublisher []Publisher

// Multi fans every event out to all publishers and joins their errors.
func Multi(pubs ...Publisher) Publisher {
	return multiPublisher(pubs)
}

func (m multiPublisher) PublishTrades(ctx context.Context, results []orderbook.MatchResult) error {
	var errs []error
	for _, p := range m {
		errs = append(errs, p.PublishTrades(ctx, results))
	}
	return errors.Join(errs...)
}

func (m multiPublisher) PublishSnapshot(ctx context.Context, snap orderbook.Snapshot) error {
	var errs []error
	for _, p := range m {
		errs = append(errs, p.PublishSnapshot(ctx, snap))
	}
	return errors.Join(errs...)
}

func (m multiPublisher) Close(ctx context.Context) error {
	var errs []error
	for _, p := range m {
		errs = append(errs, p.Close(ctx))
	}
	return errors.Join(errs...)
}

// eventPublisher is a sink that takes pre-built events. Retrying drives it
// directly so a retry resends the same event ids, and only the events that
// have not gone out yet.
type eventPublisher interface {
	publishTradeEvents(ctx context.Context, events []TradeEvent) (int, error)
	publishSnapshotEvent(ctx context.Context, ev SnapshotEvent) error
}

var (
	_ eventPublisher = (*KafkaPublisher)(nil)
	_ eventPublisher = (*RedisPublisher)(nil)
)

type retryingPublisher struct {
	next       Publisher
	newBackOff func() backoff.BackOff
	now        func() time.Time
}

// Retrying retries failed publishes with exponential backoff for at most
// maxElapsed per call. Wrap each sink on its own rather than a Multi, or the
// sinks that succeeded receive the batch again.
func Retrying(next Publisher, maxElapsed time.Duration) Publisher {
	return &retryingPublisher{
		next: next,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = maxElapsed
			return b
		},
		now: time.Now,
	}
}

func (r *retryingPublisher) PublishTrades(ctx context.Context, results []orderbook.MatchResult) error {
	if len(results) == 0 {
		return nil
	}
	ep, ok := r.next.(eventPublisher)
	if !ok {
		return r.retry(ctx, func() error {
			return r.next.PublishTrades(ctx, results)
		})
	}

	pending := tradeEvents(results, r.now())
	return r.retry(ctx, func() error {
		n, err := ep.publishTradeEvents(ctx, pending)
		pending = pending[n:]
		return err
	})
}

func (r *retryingPublisher) PublishSnapshot(ctx context.Context, snap orderbook.Snapshot) error {
	ep, ok := r.next.(eventPublisher)
	if !ok {
		return r.retry(ctx, func() error {
			return r.next.PublishSnapshot(ctx, snap)
		})
	}

	ev := snapshotEvent(snap, r.now())
	return r.retry(ctx, func() error {
		return ep.publishSnapshotEvent(ctx, ev)
	})
}

func (r *retryingPublisher) Close(ctx context.Context) error {
	return r.next.Close(ctx)
}

func (r *retryingPublisher) retry(ctx context.Context, op func() error) error {
	return backoff.Retry(op, backoff.WithContext(r.newBackOff(), ctx))
}
