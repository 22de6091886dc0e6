package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. VIEWGEN_SERVER_ADDR.
const EnvPrefix = "VIEWGEN"

// Backend names accepted by the records and layouts settings.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config is the runtime configuration of the viewgen server.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Layouts  BackendConfig  `mapstructure:"layouts"`
	Records  BackendConfig  `mapstructure:"records"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
	Live     LiveConfig     `mapstructure:"live"`
	Theme    ThemeConfig    `mapstructure:"theme"`
}

type ServerConfig struct {
	Addr            string          `mapstructure:"addr"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig applies per client IP to the JSON API. Zero rps disables
// limiting.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type RedisConfig struct {
	Addr string `mapstructure:"addr"`
}

type BackendConfig struct {
	Backend string `mapstructure:"backend"`
}

// CatalogConfig points at the directory holding schema, detail page and
// widget definition files.
type CatalogConfig struct {
	Dir   string `mapstructure:"dir"`
	Watch bool   `mapstructure:"watch"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LiveConfig configures the cost feed. An empty URL disables polling.
type LiveConfig struct {
	URL      string        `mapstructure:"url"`
	Interval time.Duration `mapstructure:"interval"`
}

// ThemeConfig selects the go-theme name and variant handed to the renderers.
// Tokens become CSS custom properties.
type ThemeConfig struct {
	Name        string            `mapstructure:"name"`
	Variant     string            `mapstructure:"variant"`
	Tokens      map[string]string `mapstructure:"tokens"`
	AssetPrefix string            `mapstructure:"asset_prefix"`
}

// Defaults registers the default value of every key on v.
func Defaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.rate_limit.rps", 20.0)
	v.SetDefault("server.rate_limit.burst", 40)
	v.SetDefault("database.url", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("layouts.backend", BackendMemory)
	v.SetDefault("records.backend", BackendMemory)
	v.SetDefault("catalog.dir", "catalog")
	v.SetDefault("catalog.watch", false)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("live.url", "")
	v.SetDefault("live.interval", 5*time.Second)
	v.SetDefault("theme.name", "viewgen")
	v.SetDefault("theme.variant", "light")
	v.SetDefault("theme.asset_prefix", "/static")
}

// Load reads defaults, then the optional file at path (or viewgen.yaml in the
// working directory when path is empty), then VIEWGEN_* environment
// variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	Defaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("viewgen")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	var errs []error
	switch c.Layouts.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("config: layouts.backend postgres requires database.url"))
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("config: layouts.backend redis requires redis.addr"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown layouts.backend %q", c.Layouts.Backend))
	}
	switch c.Records.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("config: records.backend postgres requires database.url"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown records.backend %q", c.Records.Backend))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("config: unknown log.format %q", c.Log.Format))
	}
	if c.Server.RateLimit.RPS < 0 || c.Server.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("config: server.rate_limit values must not be negative"))
	}
	return errors.Join(errs...)
}
