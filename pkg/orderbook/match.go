package orderbook

type MatchResult struct {
	BuyOrderID  string
	SellOrderID string
	Price       float64
	Qty         int64
}

// Match crosses the best bid against the best ask until the book no longer
// crosses and returns the trades in the order they happened.
//
// Every trade prints at the resting sell order's price, whichever side
// arrived last.
func (ob *OrderBook) Match() []MatchResult {
	var results []MatchResult

	for {
		bestBid, ok := ob.buyHeap.bestCurrent(ob.current)
		if !ok {
			break
		}
		bestAsk, ok := ob.sellHeap.bestCurrent(ob.current)
		if !ok || bestBid < bestAsk {
			break
		}

		buy, _ := ob.buyOrders.front(bestBid)
		sell, _ := ob.sellOrders.front(bestAsk)

		matchQty := min(buy.Qty, sell.Qty)
		buy.Qty -= matchQty
		sell.Qty -= matchQty

		results = append(results, MatchResult{
			BuyOrderID:  buy.ID,
			SellOrderID: sell.ID,
			Price:       sell.Price,
			Qty:         matchQty,
		})

		if buy.Qty == 0 {
			ob.retire(buy)
		}
		if sell.Qty == 0 {
			ob.retire(sell)
		}
	}

	return results
}
