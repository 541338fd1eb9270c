package orderbook

import "github.com/shopspring/decimal"

// Level is one aggregated price level.
type Level struct {
	Price float64
	Qty   int64
}

// Snapshot holds the top levels of each side, best price first.
type Snapshot struct {
	Bids []Level
	Asks []Level
}

// BestBid returns the highest bid price.
//
// Known limitation: discovery only checks that the top entry's order is still
// resting. When a bid has been repriced lower, its old, higher entry keeps
// being reported here until a Match pass discards it.
func (ob *OrderBook) BestBid() (float64, bool) {
	return ob.buyHeap.best(ob.live)
}

// BestAsk returns the lowest ask price. It has the same stale-price
// limitation as BestBid.
func (ob *OrderBook) BestAsk() (float64, bool) {
	return ob.sellHeap.best(ob.live)
}

// Spread is best ask minus best bid, computed in decimal so that binary
// float noise does not leak into the result.
func (ob *OrderBook) Spread() (decimal.Decimal, bool) {
	bid, ok := ob.BestBid()
	if !ok {
		return decimal.Zero, false
	}
	ask, ok := ob.BestAsk()
	if !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(ask).Sub(decimal.NewFromFloat(bid)), true
}

// Snapshot aggregates up to depth levels per side. Levels are found through
// the price heaps but only prices that still hold resting orders are kept,
// each once.
func (ob *OrderBook) Snapshot(depth int) Snapshot {
	return Snapshot{
		Bids: ob.aggregate(ob.buyHeap, ob.buyOrders, depth),
		Asks: ob.aggregate(ob.sellHeap, ob.sellOrders, depth),
	}
}

func (ob *OrderBook) aggregate(h *priceHeap, book priceLedger, depth int) []Level {
	prices := h.levels(depth, ob.current)
	levels := make([]Level, 0, len(prices))
	for _, price := range prices {
		levels = append(levels, Level{Price: price, Qty: book.totalQty(price)})
	}
	return levels
}
