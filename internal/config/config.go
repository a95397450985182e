package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New loads .env (if present), config.yaml (if present) and MAILPROBE_*
// environment variables on top of the defaults.
func New() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/mailprobe/")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("MAILPROBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.listen_address", ":8080")
	v.SetDefault("server.request_timeout", "30s")

	// Response cache
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.cleanup_frequency", "1m")
	v.SetDefault("cache.redis_addr", "127.0.0.1:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)

	// DNS
	v.SetDefault("dns.nameservers", []string{})
	v.SetDefault("dns.timeout", "3s")

	// Disposable domains
	v.SetDefault("disposable.source", "embedded")
	v.SetDefault("disposable.url", "https://disposable.github.io/disposable-email-domains/domains.json")
	v.SetDefault("disposable.postgres_dsn", "")

	// SMTP prober
	v.SetDefault("smtp.enabled", true)
	v.SetDefault("smtp.port", 25)
	v.SetDefault("smtp.timeout", "10s")
	v.SetDefault("smtp.helo_host", "mta1.mailprobe.local")
	v.SetDefault("smtp.mail_from", "probe@mailprobe.local")
	v.SetDefault("smtp.max_concurrent", 15)
	v.SetDefault("smtp.detect_catch_all", false)
	v.SetDefault("smtp.proxies", []string{})

	// Heuristic scoring
	v.SetDefault("scoring.pass_threshold", 60)
	v.SetDefault("scoring.deterministic_threshold", 70)
	v.SetDefault("scoring.early_exit_local", -30)
	v.SetDefault("scoring.weights.local", 0.30)
	v.SetDefault("scoring.weights.mx", 0.30)
	v.SetDefault("scoring.weights.domain", 0.25)
	v.SetDefault("scoring.weights.pattern", 0.10)
	v.SetDefault("scoring.weights.reputation", 0.05)

	// Batch
	v.SetDefault("batch.max_size", 50)
	v.SetDefault("batch.concurrency", 5)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("sentry.dsn", "")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration. A single
// comma-separated string, as set through the environment, is split.
func (c *Config) GetStringSlice(key string) []string {
	raw := c.v.GetStringSlice(key)
	var out []string
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

// Set overrides a key at runtime. Used by the CLI flags.
func (c *Config) Set(key string, value any) {
	c.v.Set(key, value)
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
