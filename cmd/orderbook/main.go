package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joripage/lazybook/config"
	"github.com/joripage/lazybook/pkg/logging"
	"github.com/joripage/lazybook/pkg/orderbook"
	"github.com/joripage/lazybook/pkg/script"
	"github.com/joripage/lazybook/pkg/tradefeed"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/app.yaml", "path to the yaml config")
	scriptPath := flag.String("script", "", "order-intent script, overrides the config")
	flag.Parse()

	if err := run(*configPath, *scriptPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, scriptPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if scriptPath != "" {
		cfg.Script = scriptPath
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log := logging.NewLogger(level).With(zap.String("service", cfg.ServiceName))
	defer log.Sync() //nolint:errcheck

	ctx = logging.WithRequestID(ctx, uuid.NewString())

	pub, err := newPublisher(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := pub.Close(context.Background()); err != nil {
			log.Error(ctx, "close publisher", zap.Error(err))
		}
	}()

	s, err := script.Load(cfg.Script)
	if err != nil {
		return fmt.Errorf("load script %s: %w", cfg.Script, err)
	}

	runner := &script.Runner{
		Book:      orderbook.NewSyncOrderBook(orderbook.SyncConfig{AutoMatch: cfg.AutoMatch}),
		Publisher: pub,
		Logger:    log,
		Out:       os.Stdout,
		Depth:     cfg.Depth,
	}

	log.Info(ctx, "running script", zap.String("script", cfg.Script), zap.Int("steps", len(s.Steps)))
	res, err := runner.Run(ctx, s)
	if err != nil {
		return err
	}
	log.Info(ctx, "script done",
		zap.Int("steps", res.Steps),
		zap.Int("rejected", res.Rejected),
		zap.Int("trades", len(res.Trades)),
	)
	return nil
}

func newPublisher(ctx context.Context, cfg *config.AppConfig, log *logging.Logger) (tradefeed.Publisher, error) {
	maxElapsed := time.Duration(cfg.Feed.RetryMaxElapsedMs) * time.Millisecond
	pubs := []tradefeed.Publisher{tradefeed.NewLogPublisher(log)}

	if k := cfg.Feed.Kafka; k != nil && len(k.Brokers) > 0 {
		pubs = append(pubs, tradefeed.Retrying(tradefeed.NewKafkaPublisher(tradefeed.KafkaConfig{
			Brokers:    k.Brokers,
			TradeTopic: k.TradeTopic,
			BookTopic:  k.BookTopic,
		}), maxElapsed))
	}

	if r := cfg.Feed.Redis; r != nil && r.ConnectionURL != "" {
		client, err := tradefeed.NewRedisClient(ctx, tradefeed.RedisConfig{
			ConnectionURL:       r.ConnectionURL,
			PoolSize:            r.PoolSize,
			DialTimeoutSeconds:  r.DialTimeoutSeconds,
			ReadTimeoutSeconds:  r.ReadTimeoutSeconds,
			WriteTimeoutSeconds: r.WriteTimeoutSeconds,
			IdleTimeoutSeconds:  r.IdleTimeoutSeconds,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		pubs = append(pubs, tradefeed.Retrying(tradefeed.NewRedisPublisher(client, r.TradeChannel, r.BookKey), maxElapsed))
	}

	return tradefeed.Multi(pubs...), nil
}
