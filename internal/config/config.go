package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	Env         string
	HTTPAddr    string
	LogLevel    string
	LogFile     string

	Bus     BusConfig
	Gateway GatewayConfig

	// Optional backends; an empty value keeps the in-memory adapter.
	DatabaseURL            string
	RedisAddr              string
	KafkaBrokers           []string
	KafkaNotificationTopic string
	JournalPath            string

	OrderAdvanceOnDelivery bool
	DefaultCarrier         string
}

type BusConfig struct {
	QueueSize          int
	Workers            int
	HandlerConcurrency int
	HandlerTimeout     time.Duration
}

type GatewayConfig struct {
	Timeout            time.Duration
	SuccessRate        float64
	BreakerFailures    uint32
	BreakerOpenTimeout time.Duration
}

// Load reads the environment, after merging an optional .env file from the
// working directory. Variables already set in the process win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary lookup function.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	r := reader{lookup: lookup}
	cfg := Config{
		ServiceName: r.str("SERVICE_NAME", "minishop"),
		Env:         r.str("ENV", "dev"),
		HTTPAddr:    r.str("HTTP_ADDR", ":8080"),
		LogLevel:    r.str("LOG_LEVEL", "info"),
		LogFile:     r.str("LOG_FILE", ""),
		Bus: BusConfig{
			QueueSize:          r.int("BUS_QUEUE_SIZE", 1024),
			Workers:            r.int("BUS_WORKERS", 4),
			HandlerConcurrency: r.int("BUS_HANDLER_CONCURRENCY", 8),
			HandlerTimeout:     r.duration("BUS_HANDLER_TIMEOUT", 10*time.Second),
		},
		Gateway: GatewayConfig{
			Timeout:            r.duration("GATEWAY_TIMEOUT", 5*time.Second),
			SuccessRate:        r.float("GATEWAY_SUCCESS_RATE", 0.7),
			BreakerFailures:    uint32(r.int("GATEWAY_BREAKER_FAILURES", 5)),
			BreakerOpenTimeout: r.duration("GATEWAY_BREAKER_OPEN_TIMEOUT", 30*time.Second),
		},
		DatabaseURL:            r.str("DATABASE_URL", ""),
		RedisAddr:              r.str("REDIS_ADDR", ""),
		KafkaBrokers:           r.list("KAFKA_BROKERS"),
		KafkaNotificationTopic: r.str("KAFKA_NOTIFICATION_TOPIC", "minishop.notifications"),
		JournalPath:            r.str("JOURNAL_PATH", ""),
		OrderAdvanceOnDelivery: r.bool("ORDER_ADVANCE_ON_DELIVERY", false),
		DefaultCarrier:         r.str("SHIPPING_DEFAULT_CARRIER", "CJ"),
	}
	if len(r.errs) > 0 {
		return Config{}, errors.Join(r.errs...)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.ServiceName == "" {
		errs = append(errs, fmt.Errorf("SERVICE_NAME must not be empty"))
	}
	if c.HTTPAddr == "" {
		errs = append(errs, fmt.Errorf("HTTP_ADDR must not be empty"))
	}
	if c.Bus.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("BUS_QUEUE_SIZE must be positive, got %d", c.Bus.QueueSize))
	}
	if c.Bus.Workers <= 0 {
		errs = append(errs, fmt.Errorf("BUS_WORKERS must be positive, got %d", c.Bus.Workers))
	}
	if c.Bus.HandlerConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("BUS_HANDLER_CONCURRENCY must be positive, got %d", c.Bus.HandlerConcurrency))
	}
	if c.Bus.HandlerTimeout <= 0 {
		errs = append(errs, fmt.Errorf("BUS_HANDLER_TIMEOUT must be positive, got %s", c.Bus.HandlerTimeout))
	}
	if c.Gateway.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("GATEWAY_TIMEOUT must be positive, got %s", c.Gateway.Timeout))
	}
	if c.Gateway.SuccessRate < 0 || c.Gateway.SuccessRate > 1 {
		errs = append(errs, fmt.Errorf("GATEWAY_SUCCESS_RATE must be between 0 and 1, got %g", c.Gateway.SuccessRate))
	}
	if c.Gateway.BreakerFailures == 0 {
		errs = append(errs, fmt.Errorf("GATEWAY_BREAKER_FAILURES must be positive"))
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaNotificationTopic == "" {
		errs = append(errs, fmt.Errorf("KAFKA_NOTIFICATION_TOPIC must be set when KAFKA_BROKERS is"))
	}
	return errors.Join(errs...)
}

type reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *reader) raw(key string) (string, bool) {
	v, ok := r.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (r *reader) str(key, def string) string {
	if v, ok := r.raw(key); ok {
		return v
	}
	return def
}

func (r *reader) int(key string, def int) int {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s must be an integer, got %q", key, v))
		return def
	}
	return n
}

func (r *reader) float(key string, def float64) float64 {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s must be a number, got %q", key, v))
		return def
	}
	return f
}

func (r *reader) bool(key string, def bool) bool {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s must be a boolean, got %q", key, v))
		return def
	}
	return b
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s must be a duration like 5s, got %q", key, v))
		return def
	}
	return d
}

func (r *reader) list(key string) []string {
	v, ok := r.raw(key)
	if !ok {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
