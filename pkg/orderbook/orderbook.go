package orderbook

import (
	"fmt"
	"math"
	"time"
)

// OrderBook is a single-instrument limit order book. It is not safe for
// concurrent use; wrap it in a SyncOrderBook when several goroutines need it.
type OrderBook struct {
	ordersByID map[string]*Order

	buyOrders  priceLedger
	sellOrders priceLedger

	buyHeap  *priceHeap
	sellHeap *priceHeap

	seq uint64
	now func() time.Time
}

type Option func(*OrderBook)

// WithClock overrides the clock used to stamp Order.CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(ob *OrderBook) {
		ob.now = now
	}
}

func New(opts ...Option) *OrderBook {
	ob := &OrderBook{
		ordersByID: make(map[string]*Order),
		buyOrders:  make(priceLedger),
		sellOrders: make(priceLedger),
		buyHeap:    newPriceHeap(func(a, b float64) bool { return a > b }), // max-heap
		sellHeap:   newPriceHeap(func(a, b float64) bool { return a < b }), // min-heap
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(ob)
	}
	return ob
}

// AddOrder rests a new limit order at the back of its price level. It never
// matches; call Match for that.
func (ob *OrderBook) AddOrder(id string, side Side, price float64, qty int64) error {
	if _, ok := ob.ordersByID[id]; ok {
		return fmt.Errorf("add %q: %w", id, ErrDuplicateID)
	}
	if !side.valid() {
		return fmt.Errorf("add %q: %w: %q", id, ErrInvalidSide, side)
	}
	if !validPrice(price) {
		return fmt.Errorf("add %q: %w: %v", id, ErrInvalidOrderPrice, price)
	}
	if qty <= 0 {
		return fmt.Errorf("add %q: %w: %d", id, ErrInvalidOrderQty, qty)
	}

	ob.seq++
	order := &Order{
		ID:        id,
		Side:      side,
		Price:     price,
		Qty:       qty,
		CreatedAt: ob.now(),
		seq:       ob.seq,
	}
	ob.ordersByID[id] = order

	book, h := ob.sideOf(side)
	book.push(order)
	h.push(heapEntry{price: price, seq: order.seq, id: id})
	return nil
}

// CancelOrder removes a resting order. Its heap entry stays behind and is
// discarded lazily.
func (ob *OrderBook) CancelOrder(id string) error {
	order, ok := ob.ordersByID[id]
	if !ok {
		return fmt.Errorf("cancel %q: %w", id, ErrUnknownID)
	}
	ob.retire(order)
	return nil
}

// ModifyOrder amends a resting order. A zero newPrice or newQty leaves that
// field unchanged.
//
// A price change sends the order to the back of the new level; a quantity
// change alone keeps its place in the queue, whether it goes up or down.
func (ob *OrderBook) ModifyOrder(id string, newPrice float64, newQty int64) error {
	order, ok := ob.ordersByID[id]
	if !ok {
		return fmt.Errorf("modify %q: %w", id, ErrUnknownID)
	}
	if newPrice != 0 && !validPrice(newPrice) {
		return fmt.Errorf("modify %q: %w: %v", id, ErrInvalidOrderPrice, newPrice)
	}
	if newQty < 0 {
		return fmt.Errorf("modify %q: %w: %d", id, ErrInvalidOrderQty, newQty)
	}

	if newPrice > 0 && newPrice != order.Price {
		book, h := ob.sideOf(order.Side)
		book.remove(order.Price, order)
		order.Price = newPrice
		book.push(order)
		h.push(heapEntry{price: newPrice, seq: order.seq, id: id})
	}
	if newQty > 0 {
		order.Qty = newQty
	}
	return nil
}

// Order returns a copy of the resting order with the given id.
func (ob *OrderBook) Order(id string) (Order, bool) {
	order, ok := ob.ordersByID[id]
	if !ok {
		return Order{}, false
	}
	return *order, true
}

// Len is the number of resting orders.
func (ob *OrderBook) Len() int {
	return len(ob.ordersByID)
}

// retire drops a cancelled or filled order from its level and the id map.
func (ob *OrderBook) retire(order *Order) {
	book, _ := ob.sideOf(order.Side)
	book.remove(order.Price, order)
	delete(ob.ordersByID, order.ID)
}

// validPrice rejects NaN and infinities along with non-positive prices; a NaN
// key could never be found again in the ledger.
func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 1)
}

func (ob *OrderBook) sideOf(side Side) (priceLedger, *priceHeap) {
	if side == BUY {
		return ob.buyOrders, ob.buyHeap
	}
	return ob.sellOrders, ob.sellHeap
}

// live reports whether the order e was pushed for is still resting. The seq
// check keeps an entry from a retired order dead if its id is added again.
func (ob *OrderBook) live(e heapEntry) bool {
	order, ok := ob.ordersByID[e.id]
	return ok && order.seq == e.seq
}

// current is live plus the order still resting at e's price.
func (ob *OrderBook) current(e heapEntry) bool {
	order, ok := ob.ordersByID[e.id]
	return ok && order.seq == e.seq && order.Price == e.price
}
