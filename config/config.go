package config

import (
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	defaultServiceName = "lazybook"
	defaultLogLevel    = "info"
	defaultDepth       = 5
	defaultTradeTopic  = "lazybook.trades"
	defaultBookTopic   = "lazybook.book"
	defaultTradeChan   = "lazybook:trades"
	defaultBookKey     = "lazybook:book"
	defaultRetryMs     = 2000
)

type AppConfig struct {
	ServiceName string     `yaml:"service_name"`
	LogLevel    string     `yaml:"log_level"`
	Depth       int        `yaml:"depth"`
	Script      string     `yaml:"script"`
	AutoMatch   bool       `yaml:"auto_match"`
	Feed        FeedConfig `yaml:"feed"`
}

type FeedConfig struct {
	Kafka             *KafkaConfig `yaml:"kafka"`
	Redis             *RedisConfig `yaml:"redis"`
	RetryMaxElapsedMs int          `yaml:"retry_max_elapsed_ms"`
}

type KafkaConfig struct {
	Brokers    []string `yaml:"brokers"`
	TradeTopic string   `yaml:"trade_topic"`
	BookTopic  string   `yaml:"book_topic"`
}

type RedisConfig struct {
	ConnectionURL       string `yaml:"connection_url"`
	PoolSize            int    `yaml:"pool_size"`
	DialTimeoutSeconds  int    `yaml:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
	IdleTimeoutSeconds  int    `yaml:"idle_timeout_seconds"`
	TradeChannel        string `yaml:"trade_channel"`
	BookKey             string `yaml:"book_key"`
}

// Load load config from file and environment variables.
func Load(filePath string) (*AppConfig, error) {
	if len(filePath) == 0 {
		filePath = os.Getenv("CONFIG_FILE")
	}

	sugar := zap.S().With("func", "config.Load", "filePath", filePath)
	sugar.Debug("Load config...")

	configBytes, err := os.ReadFile(filePath)
	if err != nil {
		sugar.Error("Failed to load config file")
		return nil, err
	}
	configBytes = []byte(os.ExpandEnv(string(configBytes)))

	cfg := &AppConfig{}
	err = yaml.Unmarshal(configBytes, cfg)
	if err != nil {
		sugar.Error("Failed to parse config file")
		return nil, err
	}
	cfg.applyDefaults()

	zap.S().Debugf("config: %+v", cfg)

	return cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = defaultServiceName
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.Depth <= 0 {
		c.Depth = defaultDepth
	}
	if c.Feed.RetryMaxElapsedMs <= 0 {
		c.Feed.RetryMaxElapsedMs = defaultRetryMs
	}
	if k := c.Feed.Kafka; k != nil {
		if k.TradeTopic == "" {
			k.TradeTopic = defaultTradeTopic
		}
		if k.BookTopic == "" {
			k.BookTopic = defaultBookTopic
		}
	}
	if r := c.Feed.Redis; r != nil {
		if r.TradeChannel == "" {
			r.TradeChannel = defaultTradeChan
		}
		if r.BookKey == "" {
			r.BookKey = defaultBookKey
		}
	}
}
