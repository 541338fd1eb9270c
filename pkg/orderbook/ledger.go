package orderbook

import "github.com/gammazero/deque"

// priceLedger keeps, per price, the FIFO queue of resting orders on one side.
// A price key exists only while its queue is non-empty.
type priceLedger map[float64]*deque.Deque[*Order]

func (l priceLedger) push(order *Order) {
	q := l[order.Price]
	if q == nil {
		q = &deque.Deque[*Order]{}
		l[order.Price] = q
	}
	q.PushBack(order)
}

// remove takes order out of the queue at price, keeping the relative order
// of the rest.
func (l priceLedger) remove(price float64, order *Order) bool {
	q := l[price]
	if q == nil {
		return false
	}
	i := q.Index(func(o *Order) bool { return o == order })
	if i < 0 {
		return false
	}
	q.Remove(i)
	if q.Len() == 0 {
		delete(l, price)
	}
	return true
}

func (l priceLedger) front(price float64) (*Order, bool) {
	q := l[price]
	if q == nil || q.Len() == 0 {
		return nil, false
	}
	return q.Front(), true
}

func (l priceLedger) has(price float64) bool {
	_, ok := l[price]
	return ok
}

func (l priceLedger) totalQty(price float64) int64 {
	q := l[price]
	if q == nil {
		return 0
	}
	var total int64
	for i := 0; i < q.Len(); i++ {
		total += q.At(i).Qty
	}
	return total
}

// position reports the zero-based queue position of order at its price.
func (l priceLedger) position(order *Order) int {
	q := l[order.Price]
	if q == nil {
		return -1
	}
	return q.Index(func(o *Order) bool { return o == order })
}
