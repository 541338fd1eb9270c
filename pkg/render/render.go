// Package render draws an order book snapshot as a text ladder.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/joripage/lazybook/pkg/orderbook"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const ruleWidth = 30

// Book writes asks above bids, worst ask on top so the two best prices meet
// in the middle, followed by the spread when there is one.
func Book(w io.Writer, snap orderbook.Snapshot, spread decimal.Decimal, hasSpread bool) error {
	var sb strings.Builder

	sb.WriteString("ORDER BOOK\n")
	sb.WriteString(strings.Repeat("=", ruleWidth) + "\n")
	sb.WriteString("ASKS (Sell Orders)\n")
	asks := lo.Reverse(append([]orderbook.Level(nil), snap.Asks...))
	for _, l := range asks {
		writeLevel(&sb, l)
	}
	sb.WriteString(strings.Repeat("-", ruleWidth) + "\n")
	sb.WriteString("BIDS (Buy Orders)\n")
	for _, l := range snap.Bids {
		writeLevel(&sb, l)
	}
	if hasSpread {
		fmt.Fprintf(&sb, "\nSpread: %s\n", spread.StringFixed(2))
	}
	sb.WriteString(strings.Repeat("=", ruleWidth) + "\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// Trades writes one line per trade.
func Trades(w io.Writer, results []orderbook.MatchResult) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Matches found: %d\n", len(results))
	for _, r := range results {
		fmt.Fprintf(&sb, "  BUY[%s] <=> SELL[%s] @ %s Qty %d\n",
			r.BuyOrderID, r.SellOrderID, price(r.Price), r.Qty)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeLevel(sb *strings.Builder, l orderbook.Level) {
	fmt.Fprintf(sb, "  %8s | %6d\n", price(l.Price), l.Qty)
}

func price(p float64) string {
	return decimal.NewFromFloat(p).StringFixed(2)
}
