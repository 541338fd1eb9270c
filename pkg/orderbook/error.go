package orderbook

import "errors"

var (
	ErrDuplicateID       = errors.New("order id already resting")
	ErrUnknownID         = errors.New("order not found")
	ErrInvalidSide       = errors.New("invalid order side")
	ErrInvalidOrderPrice = errors.New("invalid order price")
	ErrInvalidOrderQty   = errors.New("invalid order quantity")
)
