package orderbook

import "time"

type Side string

const (
	BUY  Side = "BUY"
	SELL Side = "SELL"
)

func (s Side) valid() bool {
	return s == BUY || s == SELL
}

// Order is a resting limit order. ID, Side and CreatedAt never change once
// the order is booked; Price moves only through ModifyOrder and Qty through
// ModifyOrder or a fill.
type Order struct {
	ID        string
	Side      Side
	Price     float64
	Qty       int64
	CreatedAt time.Time

	seq uint64 // arrival sequence, tie-break for the price heap
}
