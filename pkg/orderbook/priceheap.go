package orderbook

import (
	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/emirpasic/gods/utils"
)

// heapEntry is a discovery entry. It names an order by id and arrival seq;
// the book's ordersByID map is the authority on whether the entry is still
// live.
type heapEntry struct {
	price float64
	seq   uint64
	id    string
}

// priceHeap finds the best price on one side. Entries are never removed when
// an order is cancelled or repriced; they go stale and are discarded the next
// time they surface at the top.
type priceHeap struct {
	less func(a, b float64) bool
	heap *binaryheap.Heap
}

func newPriceHeap(less func(a, b float64) bool) *priceHeap {
	return &priceHeap{
		less: less,
		heap: binaryheap.NewWith(entryComparator(less)),
	}
}

func entryComparator(less func(a, b float64) bool) utils.Comparator {
	return func(a, b interface{}) int {
		x := a.(heapEntry)
		y := b.(heapEntry)
		switch {
		case less(x.price, y.price):
			return -1
		case less(y.price, x.price):
			return 1
		case x.seq < y.seq:
			return -1
		case x.seq > y.seq:
			return 1
		case x.id < y.id:
			return -1
		case x.id > y.id:
			return 1
		default:
			return 0
		}
	}
}

func (h *priceHeap) push(e heapEntry) {
	h.heap.Push(e)
}

func (h *priceHeap) Len() int {
	return h.heap.Size()
}

// best returns the price of the top entry whose order is still resting,
// dropping dead entries on the way. It does not check that the order still
// rests at that price: after a reprice the old entry keeps reporting the old
// price until it is popped by bestCurrent.
func (h *priceHeap) best(live func(e heapEntry) bool) (float64, bool) {
	for {
		v, ok := h.heap.Peek()
		if !ok {
			return 0, false
		}
		e := v.(heapEntry)
		if live(e) {
			return e.price, true
		}
		h.heap.Pop()
	}
}

// bestCurrent is best with the stricter check used by matching: an entry
// only counts if its order is resting at the entry's price.
func (h *priceHeap) bestCurrent(current func(e heapEntry) bool) (float64, bool) {
	for {
		v, ok := h.heap.Peek()
		if !ok {
			return 0, false
		}
		e := v.(heapEntry)
		if current(e) {
			return e.price, true
		}
		h.heap.Pop()
	}
}

// levels walks a copy of the heap in priority order and returns up to depth
// distinct prices with at least one current entry. The heap itself is left
// untouched.
func (h *priceHeap) levels(depth int, current func(e heapEntry) bool) []float64 {
	if depth <= 0 {
		return nil
	}
	scan := binaryheap.NewWith(entryComparator(h.less))
	scan.Push(h.heap.Values()...)

	prices := make([]float64, 0, depth)
	seen := make(map[float64]struct{})
	for len(prices) < depth {
		v, ok := scan.Pop()
		if !ok {
			break
		}
		e := v.(heapEntry)
		if _, dup := seen[e.price]; dup || !current(e) {
			continue
		}
		seen[e.price] = struct{}{}
		prices = append(prices, e.price)
	}
	return prices
}
