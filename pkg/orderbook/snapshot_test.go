package orderbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_AggregatesLevels(t *testing.T) {
	ob := New()
	require.NoError(t, ob.AddOrder("b1", BUY, 100, 10))
	require.NoError(t, ob.AddOrder("b2", BUY, 100, 5))
	require.NoError(t, ob.AddOrder("b3", BUY, 99, 7))
	require.NoError(t, ob.AddOrder("b4", BUY, 98, 1))
	require.NoError(t, ob.AddOrder("s1", SELL, 101, 3))
	require.NoError(t, ob.AddOrder("s2", SELL, 102, 4))
	require.NoError(t, ob.AddOrder("s3", SELL, 101, 6))

	assert.Equal(t, Snapshot{
		Bids: []Level{{100, 15}, {99, 7}},
		Asks: []Level{{101, 9}, {102, 4}},
	}, ob.Snapshot(2))
}

func TestSnapshot_SkipsEmptiedLevels(t *testing.T) {
	ob := New()
	require.NoError(t, ob.AddOrder("b1", BUY, 100, 10))
	require.NoError(t, ob.AddOrder("b2", BUY, 99, 5))
	require.NoError(t, ob.AddOrder("b3", BUY, 98, 5))
	require.NoError(t, ob.CancelOrder("b1"))
	require.NoError(t, ob.ModifyOrder("b2", 98, 0))

	snap := ob.Snapshot(5)
	assert.Equal(t, []Level{{98, 10}}, snap.Bids, "b2's old price is not listed as an empty level")
	assert.Empty(t, snap.Asks)
}

func TestSnapshot_DoesNotConsumeHeap(t *testing.T) {
	ob := seededBook(t)
	require.NoError(t, ob.CancelOrder("buy1"))
	entries := ob.buyHeap.Len()

	first := ob.Snapshot(5)
	second := ob.Snapshot(5)
	assert.Equal(t, first, second)
	assert.Equal(t, entries, ob.buyHeap.Len())
}

func TestSnapshot_NonPositiveDepth(t *testing.T) {
	ob := seededBook(t)
	snap := ob.Snapshot(0)
	assert.Empty(t, snap.Bids)
	assert.Empty(t, snap.Asks)
}

func TestSpread(t *testing.T) {
	ob := New()
	_, ok := ob.Spread()
	assert.False(t, ok)

	require.NoError(t, ob.AddOrder("b", BUY, 99.5, 1))
	_, ok = ob.Spread()
	assert.False(t, ok, "spread needs both sides")

	require.NoError(t, ob.AddOrder("s", SELL, 100.1, 1))
	spread, ok := ob.Spread()
	require.True(t, ok)
	assert.Equal(t, "0.6", spread.String())
}

func TestBestPrices_EmptyBook(t *testing.T) {
	ob := New()
	_, ok := ob.BestBid()
	assert.False(t, ok)
	_, ok = ob.BestAsk()
	assert.False(t, ok)
}
