package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/book-catalog/cmd/api/config"
	"github.com/matryer/is"
)

func envFrom(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func TestFromEnv(t *testing.T) {

	t.Run("applies defaults to an empty environment", func(t *testing.T) {
		is := is.New(t)

		cfg, err := config.FromEnv(envFrom(nil))
		is.NoErr(err)
		is.Equal(cfg.Port, 3000)
		is.Equal(cfg.Env, "development")
		is.Equal(cfg.LogFormat, "text")
		is.Equal(cfg.SlogLevel(), slog.LevelInfo)
		is.Equal(cfg.RequestTimeout, 5*time.Second)
		is.Equal(cfg.ShutdownTimeout, 10*time.Second)
		is.Equal(cfg.MaxBodyBytes, int64(10<<20))
		is.Equal(cfg.AllowedOrigins, []string{"*"})
		is.Equal(cfg.RateLimitRPS, 0.0)
		is.True(cfg.SeedBooks)
		is.True(!cfg.Notifications.Enabled)
		is.Equal(cfg.Notifications.Timeout, 2*time.Second)
	})

	t.Run("reads every variable", func(t *testing.T) {
		is := is.New(t)

		cfg, err := config.FromEnv(envFrom(map[string]string{
			"PORT":                   "8080",
			"ENV":                    "production",
			"LOG_LEVEL":              "DEBUG",
			"LOG_FORMAT":             "json",
			"HTTP_REQUEST_TIMEOUT":   "750ms",
			"HTTP_SHUTDOWN_TIMEOUT":  "3s",
			"MAX_BODY_BYTES":         "1024",
			"CORS_ALLOWED_ORIGINS":   "https://a.example, https://b.example,",
			"RATE_LIMIT_RPS":         "2.5",
			"RATE_LIMIT_BURST":       "5",
			"SEED_BOOKS":             "false",
			"NOTIFICATIONS_ENABLED":  "true",
			"NOTIFICATIONS_BASE_URL": "https://ntfy.sh/catalog",
			"NOTIFICATIONS_TIMEOUT":  "1s",
		}))
		is.NoErr(err)
		is.Equal(cfg.Port, 8080)
		is.Equal(cfg.Env, "production")
		is.Equal(cfg.SlogLevel(), slog.LevelDebug)
		is.Equal(cfg.LogFormat, "json")
		is.Equal(cfg.RequestTimeout, 750*time.Millisecond)
		is.Equal(cfg.ShutdownTimeout, 3*time.Second)
		is.Equal(cfg.MaxBodyBytes, int64(1024))
		is.Equal(cfg.AllowedOrigins, []string{"https://a.example", "https://b.example"})
		is.Equal(cfg.RateLimitRPS, 2.5)
		is.Equal(cfg.RateLimitBurst, 5)
		is.True(!cfg.SeedBooks)
		is.True(cfg.Notifications.Enabled)
		is.Equal(cfg.Notifications.TopicURL, "https://ntfy.sh/catalog")
		is.Equal(cfg.Notifications.Timeout, time.Second)
	})

	t.Run("expected error on malformed values", func(t *testing.T) {
		is := is.New(t)

		_, err := config.FromEnv(envFrom(map[string]string{
			"PORT":                 "eighty",
			"HTTP_REQUEST_TIMEOUT": "5",
		}))
		is.True(err != nil)
	})

	t.Run("expected validation error on out of range port", func(t *testing.T) {
		is := is.New(t)

		_, err := config.FromEnv(envFrom(map[string]string{"PORT": "70000"}))
		is.True(err != nil)
	})

	t.Run("expected validation error when notifications are enabled without a topic", func(t *testing.T) {
		is := is.New(t)

		_, err := config.FromEnv(envFrom(map[string]string{"NOTIFICATIONS_ENABLED": "true"}))
		is.True(err != nil)
	})

	t.Run("expected validation error on unknown log format", func(t *testing.T) {
		is := is.New(t)

		_, err := config.FromEnv(envFrom(map[string]string{"LOG_FORMAT": "xml"}))
		is.True(err != nil)
	})
}
