package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port            int           `validate:"min=1,max=65535"`
	Env             string        `validate:"oneof=development staging production test"`
	LogLevel        string        `validate:"oneof=debug info warn error"`
	LogFormat       string        `validate:"oneof=text json"`
	RequestTimeout  time.Duration `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
	MaxBodyBytes    int64         `validate:"gt=0"`
	AllowedOrigins  []string      `validate:"min=1,dive,required"`
	RateLimitRPS    float64       `validate:"gte=0"`
	RateLimitBurst  int           `validate:"gte=1"`
	SeedBooks       bool
	Notifications   Notifications
}

type Notifications struct {
	Enabled  bool
	TopicURL string        `validate:"required_if=Enabled true,omitempty,url"`
	Timeout  time.Duration `validate:"gt=0"`
}

var validate = validator.New()

/*
Reads the configuration from the environment. A .env file, when present, is loaded first and never
overrides variables that are already set.
*/
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

/* Builds the configuration using getenv for lookups, applying defaults to empty values. */
func FromEnv(getenv func(string) string) (Config, error) {
	p := parser{getenv: getenv}

	cfg := Config{
		Port:            p.integer("PORT", 3000),
		Env:             p.str("ENV", "development"),
		LogLevel:        strings.ToLower(p.str("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(p.str("LOG_FORMAT", "text")),
		RequestTimeout:  p.duration("HTTP_REQUEST_TIMEOUT", 5*time.Second), //Must be written with a unit suffix, like 5s.
		ShutdownTimeout: p.duration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxBodyBytes:    int64(p.integer("MAX_BODY_BYTES", 10<<20)),
		AllowedOrigins:  p.list("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRPS:    p.decimal("RATE_LIMIT_RPS", 0),
		RateLimitBurst:  p.integer("RATE_LIMIT_BURST", 20),
		SeedBooks:       p.boolean("SEED_BOOKS", true),
		Notifications: Notifications{
			Enabled:  p.boolean("NOTIFICATIONS_ENABLED", false),
			TopicURL: p.str("NOTIFICATIONS_BASE_URL", ""),
			Timeout:  p.duration("NOTIFICATIONS_TIMEOUT", 2*time.Second),
		},
	}
	if len(p.errs) > 0 {
		return Config{}, fmt.Errorf("reading config: %w", errors.Join(p.errs...))
	}

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type parser struct {
	getenv func(string) string
	errs   []error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) integer(key string, def int) int {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) decimal(key string, def float64) float64 {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (p *parser) boolean(key string, def bool) bool {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (p *parser) list(key string, def []string) []string {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	items := []string{}
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
