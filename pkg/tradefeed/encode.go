package tradefeed

import (
	"time"

	"github.com/google/uuid"
	"github.com/joripage/lazybook/pkg/orderbook"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type TradeEvent struct {
	EventID     string          `json:"event_id"`
	Timestamp   time.Time       `json:"ts"`
	BuyOrderID  string          `json:"buy_order_id"`
	SellOrderID string          `json:"sell_order_id"`
	Price       decimal.Decimal `json:"price"`
	Qty         int64           `json:"qty"`
}

type LevelEvent struct {
	Price decimal.Decimal `json:"price"`
	Qty   int64           `json:"qty"`
}

type SnapshotEvent struct {
	EventID   string       `json:"event_id"`
	Timestamp time.Time    `json:"ts"`
	Bids      []LevelEvent `json:"bids"`
	Asks      []LevelEvent `json:"asks"`
}

func tradeEvents(results []orderbook.MatchResult, now time.Time) []TradeEvent {
	return lo.Map(results, func(r orderbook.MatchResult, _ int) TradeEvent {
		return TradeEvent{
			EventID:     uuid.NewString(),
			Timestamp:   now,
			BuyOrderID:  r.BuyOrderID,
			SellOrderID: r.SellOrderID,
			Price:       decimal.NewFromFloat(r.Price),
			Qty:         r.Qty,
		}
	})
}

func snapshotEvent(snap orderbook.Snapshot, now time.Time) SnapshotEvent {
	return SnapshotEvent{
		EventID:   uuid.NewString(),
		Timestamp: now,
		Bids:      levelEvents(snap.Bids),
		Asks:      levelEvents(snap.Asks),
	}
}

func levelEvents(levels []orderbook.Level) []LevelEvent {
	return lo.Map(levels, func(l orderbook.Level, _ int) LevelEvent {
		return LevelEvent{Price: decimal.NewFromFloat(l.Price), Qty: l.Qty}
	})
}
