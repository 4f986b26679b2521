package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"SalesPulse/pkg/logger"
	"SalesPulse/pkg/util"
)

type Config struct {
	Environment string        `yaml:"environment" default:"development" validate:"oneof=development staging production"`
	Timezone    string        `yaml:"timezone" default:"Australia/Sydney" validate:"required"`
	Server      ServerConfig  `yaml:"server"`
	Logger      logger.Config `yaml:"logger"`
	Neto        NetoConfig    `yaml:"neto"`
	// Channels filters the order source. Unset means the dashboard's
	// channels; an explicit empty list fetches every channel.
	Channels  []string        `yaml:"channels" default:"[\"Edisons\",\"Mytopia\",\"eBay\",\"BigW\",\"Mydeals\",\"Kogan\",\"Bunnings\"]"`
	Cache     CacheConfig     `yaml:"cache"`
	Redis     RedisConfig     `yaml:"redis"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Forecast  ForecastConfig  `yaml:"forecast"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	SlowRequest     time.Duration `yaml:"slow_request" default:"2s"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	MetricsPath     string        `yaml:"metrics_path" default:"/metrics"`
}

type NetoConfig struct {
	URL      string        `yaml:"url" validate:"required,url"`
	Key      string        `yaml:"key" validate:"required"`
	Username string        `yaml:"username" validate:"required"`
	Timeout  time.Duration `yaml:"timeout" default:"30s"`
	Attempts int           `yaml:"attempts" default:"3" validate:"gte=1,lte=10"`
	Backoff  time.Duration `yaml:"backoff" default:"500ms"`
}

type CacheConfig struct {
	SalesTTL    time.Duration `yaml:"sales_ttl" default:"10m"`
	SummaryTTL  time.Duration `yaml:"summary_ttl" default:"10m"`
	RawTTL      time.Duration `yaml:"raw_ttl" default:"5m"`
	ForecastTTL time.Duration `yaml:"forecast_ttl" default:"30m"`
	// MemorySize bounds the in-process layer (the only layer when redis is off).
	MemorySize int           `yaml:"memory_size" default:"1000" validate:"gt=0"`
	MemoryTTL  time.Duration `yaml:"memory_ttl" default:"1m"`
}

type RedisConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr" default:"localhost:6379"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size" default:"10"`
	MinIdleConns int           `yaml:"min_idle_conns" default:"2"`
	PoolTimeout  time.Duration `yaml:"pool_timeout" default:"30s"`
	Prefix       string        `yaml:"prefix" default:"salespulse"`
}

type AlertsConfig struct {
	DedupTTL time.Duration `yaml:"dedup_ttl" default:"24h"`
	Kafka    struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"salespulse.red-flags"`
		ClientID     string        `yaml:"client_id" default:"salespulse"`
		RequiredAcks int           `yaml:"required_acks" default:"-1" validate:"oneof=-1 1"`
		Compression  string        `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
		MaxAttempts  int           `yaml:"max_attempts" default:"5"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"50ms"`
	} `yaml:"kafka"`
}

type SchedulerConfig struct {
	Disabled        bool          `yaml:"disabled"`
	WarmupSchedule  string        `yaml:"warmup_schedule" default:"@every 10m"`
	WarmupDays      int           `yaml:"warmup_days" default:"7" validate:"gte=0,lte=60"`
	RedFlagDisabled bool          `yaml:"red_flag_disabled"`
	RedFlagSchedule string        `yaml:"red_flag_schedule" default:"0 */15 * * * *"`
	JobTimeout      time.Duration `yaml:"job_timeout" default:"5m"`
}

type ForecastConfig struct {
	// Parallelism bounds concurrent history loads per forecast.
	Parallelism int `yaml:"parallelism" default:"4" validate:"gte=1,lte=32"`
}

type RateLimitConfig struct {
	Capacity     float64 `yaml:"capacity" default:"10"`
	RefillPerSec float64 `yaml:"refill_per_sec" default:"0.5"`
}

var validate = validator.New()

// Load reads a YAML file and fills defaults. A missing file yields the
// defaults so a deployment can run from environment variables alone.
func Load(path string) (*Config, error) {
	var c Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads .env (if present) and the YAML file, then applies
// environment overrides and validates the result.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.Getenv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Environment, "APP_ENV")
	set(&c.Timezone, "TIMEZONE")
	set(&c.Neto.URL, "NETO_API_URL")
	set(&c.Neto.Key, "NETO_API_KEY")
	set(&c.Neto.Username, "NETO_API_USERNAME")
	set(&c.Redis.Password, "REDIS_PASSWORD")
	set(&c.Alerts.Kafka.Topic, "KAFKA_TOPIC")
	set(&c.Logger.Level, "LOG_LEVEL")

	if v := getenv("SERVER_PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := getenv("SALES_CHANNELS"); v != "" {
		c.Channels = util.SplitList(v)
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Alerts.Kafka.Brokers = util.SplitList(v)
		c.Alerts.Kafka.Enabled = true
	}
}

// Validate checks struct tags plus the rules that span fields.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Alerts.Kafka.Enabled && len(c.Alerts.Kafka.Brokers) == 0 {
		return errors.New("alerts.kafka.brokers is required when kafka alerts are enabled")
	}
	return nil
}

// Location resolves the reference timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
