package orderbook

import (
	"sync"

	"github.com/shopspring/decimal"
)

type SyncConfig struct {
	// AutoMatch runs a match pass after every successful add or modify.
	AutoMatch bool
}

// SyncOrderBook serializes every call on one OrderBook behind a mutex, so
// that an amendment can never interleave with a match pass.
type SyncOrderBook struct {
	mu        sync.Mutex
	book      *OrderBook
	cfg       SyncConfig
	callbacks []func([]MatchResult)
}

func NewSyncOrderBook(cfg SyncConfig, opts ...Option) *SyncOrderBook {
	return &SyncOrderBook{
		book: New(opts...),
		cfg:  cfg,
	}
}

// RegisterTradeCallback adds fn to the callbacks that receive every
// non-empty match pass. Callbacks run after the book lock is released.
func (s *SyncOrderBook) RegisterTradeCallback(fn func([]MatchResult)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callbacks = append(s.callbacks, fn)
}

func (s *SyncOrderBook) AddOrder(id string, side Side, price float64, qty int64) ([]MatchResult, error) {
	s.mu.Lock()
	err := s.book.AddOrder(id, side, price, qty)
	results := s.autoMatch(err)
	cbs := s.callbacks
	s.mu.Unlock()

	notify(cbs, results)
	return results, err
}

func (s *SyncOrderBook) CancelOrder(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.book.CancelOrder(id)
}

func (s *SyncOrderBook) ModifyOrder(id string, newPrice float64, newQty int64) ([]MatchResult, error) {
	s.mu.Lock()
	err := s.book.ModifyOrder(id, newPrice, newQty)
	results := s.autoMatch(err)
	cbs := s.callbacks
	s.mu.Unlock()

	notify(cbs, results)
	return results, err
}

func (s *SyncOrderBook) Match() []MatchResult {
	s.mu.Lock()
	results := s.book.Match()
	cbs := s.callbacks
	s.mu.Unlock()

	notify(cbs, results)
	return results
}

func (s *SyncOrderBook) Order(id string) (Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.book.Order(id)
}

func (s *SyncOrderBook) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.book.Len()
}

func (s *SyncOrderBook) BestBid() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.book.BestBid()
}

func (s *SyncOrderBook) BestAsk() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.book.BestAsk()
}

func (s *SyncOrderBook) Spread() (decimal.Decimal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.book.Spread()
}

func (s *SyncOrderBook) Snapshot(depth int) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.book.Snapshot(depth)
}

// autoMatch must be called with s.mu held.
func (s *SyncOrderBook) autoMatch(err error) []MatchResult {
	if err != nil || !s.cfg.AutoMatch {
		return nil
	}
	return s.book.Match()
}

func notify(cbs []func([]MatchResult), results []MatchResult) {
	if len(results) == 0 {
		return
	}
	for _, cb := range cbs {
		cb(results)
	}
}
