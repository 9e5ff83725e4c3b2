package app

import (
	"os"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the application configuration, loadable from environment
// variables (STORE_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:5000" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (STORE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	// Storage is "postgres" or "memory". Empty selects postgres when
	// DatabaseURL is set.
	Storage string `default:"" usage:"Storage backend: postgres or memory"`
	// Seed loads the starter catalog into an empty PostgreSQL database.
	Seed       bool `default:"false" usage:"Seed the product catalog on startup"`
	BcryptCost int  `default:"10" usage:"bcrypt cost for password hashes" flag:"bcrypt-cost"`
	Redis      RedisConfig
	Kafka      KafkaConfig
	Outbox     OutboxConfig
	Orders     OrdersConfig
	RateLimit  RateLimitConfig
	CORS       CORSConfig
	Graceful   GracefulConfig
}

// RedisConfig enables the order read cache when Addr is set.
type RedisConfig struct {
	Addr     string        `default:"" usage:"Redis address or redis:// URL (STORE_REDIS_ADDR or REDIS_URL)"`
	Password string        `default:"" usage:"Redis password"`
	DB       int           `default:"0" usage:"Redis database"`
	TTL      time.Duration `default:"5m" usage:"Cached order lifetime"`
}

// KafkaConfig enables publishing order events to Kafka when Brokers is set.
// Without brokers events are logged.
type KafkaConfig struct {
	Brokers []string `usage:"Kafka bootstrap brokers"`
	Topic   string   `default:"orders.events" usage:"Topic for order events"`
}

// OutboxConfig controls the event relay.
type OutboxConfig struct {
	Interval  time.Duration `default:"1s" usage:"Outbox poll interval"`
	BatchSize int           `default:"100" usage:"Records published per poll"`
}

// OrdersConfig controls order placement.
type OrdersConfig struct {
	PlaceTimeout time.Duration `default:"10s" usage:"Deadline for a single order placement" flag:"place-timeout"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window, 0 disables"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"http://localhost:3000,http://localhost:5173" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"true" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// LoadConfig loads configuration from environment variables and YAML config
// files, then applies platform defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "STORE",
		Files:     []string{"config.yaml", "/etc/ecomm-store/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps the conventional DATABASE_URL, REDIS_URL and
// PORT variables onto the STORE_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = os.Getenv("REDIS_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:5000" {
		c.Addr = "0.0.0.0:" + port
	}
	if c.Storage == "" {
		c.Storage = StorageMemory
		if c.DatabaseURL != "" {
			c.Storage = StoragePostgres
		}
	}
	c.Kafka.Brokers = compact(c.Kafka.Brokers)
	c.CORS.Origins = compact(c.CORS.Origins)
}

func (c *Config) validate() error {
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required for postgres storage: set STORE_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown storage %q", c.Storage)
	}
	if c.Orders.PlaceTimeout < 0 {
		return errors.New("orders place timeout must not be negative")
	}
	return nil
}

// compact trims entries and drops empty ones.
func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
