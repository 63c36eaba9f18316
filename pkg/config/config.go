package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"StockCast/pkg/util"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"5s"`
		RateLimit       float64       `yaml:"rate_limit" default:"5"`
		RateBurst       int           `yaml:"rate_burst" default:"10"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Catalog struct {
		Path string `yaml:"path" default:"data/stock.csv" validate:"required"`
	} `yaml:"catalog"`
	MarketData struct {
		Provider  string        `yaml:"provider" default:"yahoo" validate:"oneof=yahoo eodhd alpaca"`
		StartDate string        `yaml:"start_date" default:"2015-01-01" validate:"datetime=2006-01-02"`
		Timeout   time.Duration `yaml:"timeout" default:"30s"`
		Retries   int           `yaml:"retries" default:"2" validate:"gte=1,lte=10"`
		Backoff   time.Duration `yaml:"backoff" default:"500ms"`
		Proxy     string        `yaml:"proxy"`
		Yahoo     struct {
			BaseURL string `yaml:"base_url" default:"https://query1.finance.yahoo.com"`
		} `yaml:"yahoo"`
		EODHD struct {
			BaseURL   string `yaml:"base_url" default:"https://eodhd.com/api"`
			APIKey    string `yaml:"api_key"`
			RateLimit int    `yaml:"rate_limit" default:"10"`
		} `yaml:"eodhd"`
		Alpaca struct {
			APIKey    string `yaml:"api_key"`
			APISecret string `yaml:"api_secret"`
			Feed      string `yaml:"feed" default:"iex"`
		} `yaml:"alpaca"`
	} `yaml:"market_data"`
	Forecast struct {
		Model        string        `yaml:"model" default:"local" validate:"oneof=local remote"`
		ServiceURL   string        `yaml:"service_url"`
		Timeout      time.Duration `yaml:"timeout" default:"60s"`
		Attempts     int           `yaml:"attempts" default:"1" validate:"gte=1,lte=5"`
		DefaultYears int           `yaml:"default_years" default:"1" validate:"gte=1,lte=5"`
		TailRows     int           `yaml:"tail_rows" default:"5" validate:"gte=1,lte=100"`
	} `yaml:"forecast"`
	Cache struct {
		TTL            time.Duration `yaml:"ttl" default:"24h"`
		MaxEntries     int           `yaml:"max_entries" default:"1000"`
		InvalidateCron string        `yaml:"invalidate_cron" default:"0 0 0 * * *"`
		SweepInterval  time.Duration `yaml:"sweep_interval" default:"5m"`
		Redis          struct {
			Enabled      bool          `yaml:"enabled"`
			Addr         string        `yaml:"addr" default:"localhost:6379"`
			Password     string        `yaml:"password"`
			DB           int           `yaml:"db"`
			Prefix       string        `yaml:"prefix" default:"stockcast"`
			PoolSize     int           `yaml:"pool_size" default:"10"`
			MinIdleConns int           `yaml:"min_idle_conns" default:"2"`
			PoolTimeout  time.Duration `yaml:"pool_timeout" default:"30s"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Session struct {
		CookieName string        `yaml:"cookie_name" default:"stockcast_session"`
		IdleTTL    time.Duration `yaml:"idle_ttl" default:"2h"`
		SweepCron  string        `yaml:"sweep_cron" default:"0 */15 * * * *"`
	} `yaml:"session"`
	Events struct {
		Enabled bool     `yaml:"enabled"`
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic" default:"stockcast.pipeline.runs"`
	} `yaml:"events"`
}

var validate = validator.New()

// Default returns a configuration populated only from struct defaults.
func Default() *Config {
	var c Config
	_ = defaults.Set(&c)
	return &c
}

// Parse decodes YAML bytes on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Load reads and parses a YAML configuration file.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// Variables from a .env file in the working directory are loaded first.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("MARKET_PROVIDER"); v != "" {
		c.MarketData.Provider = v
	}
	if v := os.Getenv("EODHD_API_KEY"); v != "" {
		c.MarketData.EODHD.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		c.MarketData.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_SECRET_KEY"); v != "" {
		c.MarketData.Alpaca.APISecret = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.MarketData.Proxy = v
	}
	if v := os.Getenv("FORECAST_SERVICE_URL"); v != "" {
		c.Forecast.ServiceURL = v
		c.Forecast.Model = "remote"
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Events.Brokers = strings.Split(v, ",")
		c.Events.Enabled = true
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Forecast.Model == "remote" && c.Forecast.ServiceURL == "" {
		return fmt.Errorf("forecast.service_url is required for the remote model")
	}
	if c.MarketData.Provider == "eodhd" && c.MarketData.EODHD.APIKey == "" {
		return fmt.Errorf("market_data.eodhd.api_key is required for the eodhd provider")
	}
	if c.MarketData.Provider == "alpaca" && (c.MarketData.Alpaca.APIKey == "" || c.MarketData.Alpaca.APISecret == "") {
		return fmt.Errorf("market_data.alpaca credentials are required for the alpaca provider")
	}
	if c.Events.Enabled && len(c.Events.Brokers) == 0 {
		return fmt.Errorf("events.brokers cannot be empty when events are enabled")
	}
	return nil
}

// StartDate returns the first day of the fetched price history.
func (c *Config) StartDate() time.Time {
	return util.ParseTimeDefault(c.MarketData.StartDate, time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC))
}
