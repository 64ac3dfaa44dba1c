package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port             string        `mapstructure:"SERVER_PORT"`
	Env              string        `mapstructure:"ENVIRONMENT"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	KafkaBrokers     []string      `mapstructure:"-"`
	KafkaTopic       string        `mapstructure:"KAFKA_TOPIC"`
	TickerSymbols    []string      `mapstructure:"-"`
	TickerInterval   time.Duration `mapstructure:"TICKER_INTERVAL"`
	TickerStartPrice float64       `mapstructure:"TICKER_START_PRICE"`
}

// Load reads configuration from the environment, with an optional .env
// file in path. Environment variables win over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "ledger.entry_posted")
	v.SetDefault("TICKER_SYMBOLS", "TSIM")
	v.SetDefault("TICKER_INTERVAL", "500ms")
	v.SetDefault("TICKER_START_PRICE", 100.0)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.KafkaBrokers = splitList(v.GetString("KAFKA_BROKERS"))
	cfg.TickerSymbols = splitList(v.GetString("TICKER_SYMBOLS"))

	if cfg.Port == "" {
		return nil, fmt.Errorf("SERVER_PORT must not be empty")
	}
	if cfg.TickerInterval <= 0 {
		return nil, fmt.Errorf("TICKER_INTERVAL must be positive, got %s", cfg.TickerInterval)
	}
	if cfg.TickerStartPrice <= 0 {
		return nil, fmt.Errorf("TICKER_START_PRICE must be positive, got %v", cfg.TickerStartPrice)
	}

	return &cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
