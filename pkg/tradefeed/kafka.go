package tradefeed

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/joripage/lazybook/pkg/orderbook"
	kafka "github.com/segmentio/kafka-go"
)

var errNotInitialized = errors.New("producer not initialized")

type KafkaConfig struct {
	Brokers      []string
	TradeTopic   string
	BookTopic    string
	BatchSize    int
	BatchTimeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes trades keyed by buy order id to the trade topic and
// snapshots to the book topic, JSON encoded.
type KafkaPublisher struct {
	w          messageWriter
	tradeTopic string
	bookTopic  string
	now        func() time.Time
}

func NewKafkaPublisher(cfg KafkaConfig) *KafkaPublisher {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 50 * time.Millisecond
	}
	wr := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
	}
	return newKafkaPublisher(wr, cfg.TradeTopic, cfg.BookTopic)
}

func newKafkaPublisher(w messageWriter, tradeTopic, bookTopic string) *KafkaPublisher {
	return &KafkaPublisher{
		w:          w,
		tradeTopic: tradeTopic,
		bookTopic:  bookTopic,
		now:        time.Now,
	}
}

func (p *KafkaPublisher) PublishTrades(ctx context.Context, results []orderbook.MatchResult) error {
	if len(results) == 0 {
		return nil
	}
	if p == nil {
		return errNotInitialized
	}
	_, err := p.publishTradeEvents(ctx, tradeEvents(results, p.now()))
	return err
}

func (p *KafkaPublisher) PublishSnapshot(ctx context.Context, snap orderbook.Snapshot) error {
	if p == nil {
		return errNotInitialized
	}
	return p.publishSnapshotEvent(ctx, snapshotEvent(snap, p.now()))
}

// publishTradeEvents writes the batch in one call, so it is either fully
// sent or not at all.
func (p *KafkaPublisher) publishTradeEvents(ctx context.Context, events []TradeEvent) (int, error) {
	if p == nil || p.w == nil {
		return 0, errNotInitialized
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		b, err := json.Marshal(ev)
		if err != nil {
			return 0, err
		}
		msgs = append(msgs, kafka.Message{
			Topic: p.tradeTopic,
			Key:   []byte(ev.BuyOrderID),
			Value: b,
			Time:  ev.Timestamp,
		})
	}
	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		return 0, err
	}
	return len(events), nil
}

func (p *KafkaPublisher) publishSnapshotEvent(ctx context.Context, ev SnapshotEvent) error {
	if p == nil || p.w == nil {
		return errNotInitialized
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Topic: p.bookTopic,
		Value: b,
		Time:  ev.Timestamp,
	})
}

func (p *KafkaPublisher) Close(context.Context) error {
	if p == nil || p.w == nil {
		return nil
	}
	return p.w.Close()
}
