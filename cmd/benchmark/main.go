package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/joripage/lazybook/pkg/orderbook"
)

const (
	numOrders  = 1_000_000
	matchEvery = 10
	cancelRate = 0.1
	minPrice   = 100.0
	maxPrice   = 200.0
	minQty     = 1
	maxQty     = 100
)

func main() {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ob := orderbook.New()

	totalMatched := 0
	totalQty := int64(0)
	cancelled := 0

	start := time.Now()
	for i := 0; i < numOrders; i++ {
		side := orderbook.BUY
		if rng.Intn(2) == 0 {
			side = orderbook.SELL
		}
		price := minPrice + rng.Float64()*(maxPrice-minPrice)
		price = float64(int(price*100)) / 100
		qty := int64(rng.Intn(maxQty-minQty+1) + minQty)

		if err := ob.AddOrder(fmt.Sprintf("ORD-%07d", i), side, price, qty); err != nil {
			panic(err)
		}

		if i > 0 && rng.Float64() < cancelRate {
			if ob.CancelOrder(fmt.Sprintf("ORD-%07d", rng.Intn(i))) == nil {
				cancelled++
			}
		}

		if i%matchEvery == 0 {
			for _, r := range ob.Match() {
				totalMatched++
				totalQty += r.Qty
			}
		}
	}
	elapsed := time.Since(start)

	fmt.Println("--------")
	fmt.Printf("Total Orders     : %d\n", numOrders)
	fmt.Printf("Cancelled        : %d\n", cancelled)
	fmt.Printf("Total Matches    : %d\n", totalMatched)
	fmt.Printf("Total Matched Qty: %d\n", totalQty)
	fmt.Printf("Resting          : %d\n", ob.Len())
	fmt.Printf("Time Taken       : %s\n", elapsed)
}
