package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	RefreshStorePostgres = "postgres"
	RefreshStoreRedis    = "redis"
)

type Config struct {
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	JWTAccessSecret  string        `mapstructure:"JWT_ACCESS_SECRET"`
	JWTRefreshSecret string        `mapstructure:"JWT_REFRESH_SECRET"`
	AccessTokenTTL   time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL  time.Duration `mapstructure:"REFRESH_TOKEN_TTL"`

	PasswordPepper string `mapstructure:"PASSWORD_PEPPER"`
	HashWorkers    int    `mapstructure:"HASH_WORKERS"`
	HashQueueSize  int    `mapstructure:"HASH_QUEUE_SIZE"`

	RefreshStore  string `mapstructure:"REFRESH_STORE"`
	RedisAddress  string `mapstructure:"REDIS_ADDRESS"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	HTTPAddress string `mapstructure:"HTTP_ADDRESS"`
	GRPCAddress string `mapstructure:"GRPC_ADDRESS"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	AllowedOrigins   []string `mapstructure:"ALLOWED_ORIGINS"`
	AllowCredentials bool     `mapstructure:"ALLOW_CREDENTIALS"`

	CleanupInterval time.Duration `mapstructure:"CLEANUP_INTERVAL"`
}

var keys = []string{
	"DATABASE_URL",
	"JWT_ACCESS_SECRET", "JWT_REFRESH_SECRET", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL",
	"PASSWORD_PEPPER", "HASH_WORKERS", "HASH_QUEUE_SIZE",
	"REFRESH_STORE", "REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB",
	"HTTP_ADDRESS", "GRPC_ADDRESS", "LOG_LEVEL",
	"ALLOWED_ORIGINS", "ALLOW_CREDENTIALS",
	"CLEANUP_INTERVAL",
}

// Load reads the configuration from the environment and an optional
// config.json in the working directory. Environment values win.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, err
		}
	}

	v.SetDefault("ACCESS_TOKEN_TTL", "5m")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h")
	v.SetDefault("HASH_WORKERS", runtime.NumCPU())
	v.SetDefault("HASH_QUEUE_SIZE", 64)
	v.SetDefault("REFRESH_STORE", RefreshStorePostgres)
	v.SetDefault("HTTP_ADDRESS", ":8080")
	v.SetDefault("GRPC_ADDRESS", ":50051")
	v.SetDefault("CLEANUP_INTERVAL", "1h")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.AllowedOrigins = splitList(cfg.AllowedOrigins)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	required := []struct{ key, val string }{
		{"DATABASE_URL", c.DatabaseURL},
		{"JWT_ACCESS_SECRET", c.JWTAccessSecret},
		{"JWT_REFRESH_SECRET", c.JWTRefreshSecret},
	}
	for _, r := range required {
		if r.val == "" {
			return fmt.Errorf("%s is required", r.key)
		}
	}
	if c.JWTAccessSecret == c.JWTRefreshSecret {
		return errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive, got %s", c.AccessTokenTTL)
	}
	if c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("REFRESH_TOKEN_TTL must be positive, got %s", c.RefreshTokenTTL)
	}
	if c.HashWorkers <= 0 {
		return fmt.Errorf("HASH_WORKERS must be positive, got %d", c.HashWorkers)
	}
	if c.HashQueueSize < 0 {
		return fmt.Errorf("HASH_QUEUE_SIZE must not be negative, got %d", c.HashQueueSize)
	}
	switch c.RefreshStore {
	case RefreshStorePostgres:
	case RefreshStoreRedis:
		if c.RedisAddress == "" {
			return errors.New("REDIS_ADDRESS is required when REFRESH_STORE=redis")
		}
	default:
		return fmt.Errorf("REFRESH_STORE must be %q or %q, got %q", RefreshStorePostgres, RefreshStoreRedis, c.RefreshStore)
	}
	return nil
}

// splitList flattens comma separated entries, as ALLOWED_ORIGINS arrives
// from the environment.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
