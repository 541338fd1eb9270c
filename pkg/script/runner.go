package script

import (
	"context"
	"io"

	"github.com/joripage/lazybook/pkg/logging"
	"github.com/joripage/lazybook/pkg/orderbook"
	"github.com/joripage/lazybook/pkg/render"
	"github.com/joripage/lazybook/pkg/tradefeed"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Book is the part of the order book a script drives.
type Book interface {
	AddOrder(id string, side orderbook.Side, price float64, qty int64) ([]orderbook.MatchResult, error)
	CancelOrder(id string) error
	ModifyOrder(id string, newPrice float64, newQty int64) ([]orderbook.MatchResult, error)
	Match() []orderbook.MatchResult
	Snapshot(depth int) orderbook.Snapshot
	Spread() (decimal.Decimal, bool)
}

type Runner struct {
	Book      Book
	Publisher tradefeed.Publisher
	Logger    *logging.Logger
	Out       io.Writer
	Depth     int
}

type Result struct {
	Steps    int
	Rejected int
	Trades   []orderbook.MatchResult
}

// Run replays every step in order. Intents the book refuses are logged and
// counted; only publish and output failures stop the run.
func (r *Runner) Run(ctx context.Context, s *Script) (Result, error) {
	var res Result
	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Steps++

		trades, err := r.apply(step)
		if err != nil {
			res.Rejected++
			r.Logger.Warn(ctx, "order intent rejected",
				zap.Int("step", i),
				zap.String("op", string(step.Op)),
				zap.String("order_id", step.ID),
				zap.Error(err),
			)
			continue
		}
		r.Logger.Debug(ctx, "order intent applied",
			zap.Int("step", i),
			zap.String("op", string(step.Op)),
			zap.String("order_id", step.ID),
		)

		if step.Op == OpMatch || len(trades) > 0 {
			if err := r.trades(ctx, trades); err != nil {
				return res, err
			}
			res.Trades = append(res.Trades, trades...)
		}
		if step.Op == OpSnapshot {
			if err := r.snapshot(ctx, step.Depth); err != nil {
				return res, err
			}
		}
	}
	return res, nil
}

func (r *Runner) apply(step Step) ([]orderbook.MatchResult, error) {
	switch step.Op {
	case OpAdd:
		return r.Book.AddOrder(step.ID, step.side(), step.Price, step.Qty)
	case OpCancel:
		return nil, r.Book.CancelOrder(step.ID)
	case OpAmend:
		return r.Book.ModifyOrder(step.ID, step.Price, step.Qty)
	case OpMatch:
		return r.Book.Match(), nil
	}
	return nil, nil
}

func (r *Runner) trades(ctx context.Context, trades []orderbook.MatchResult) error {
	if err := render.Trades(r.Out, trades); err != nil {
		return err
	}
	if len(trades) == 0 {
		return nil
	}
	return r.Publisher.PublishTrades(ctx, trades)
}

func (r *Runner) snapshot(ctx context.Context, depth int) error {
	if depth <= 0 {
		depth = r.Depth
	}
	snap := r.Book.Snapshot(depth)
	spread, ok := r.Book.Spread()
	if err := render.Book(r.Out, snap, spread, ok); err != nil {
		return err
	}
	return r.Publisher.PublishSnapshot(ctx, snap)
}
