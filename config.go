package session

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// Config carries the composition-root settings for a session stack: where
// the remote authority lives, how long a login may take, and which durable
// store backs the snapshot.
type Config struct {
	AuthBaseURL       string        `mapstructure:"auth_base_url"`
	LoginPath         string        `mapstructure:"login_path"`
	ElevatedLoginPath string        `mapstructure:"elevated_login_path"`
	RefreshPath       string        `mapstructure:"refresh_path"`
	LoginTimeout      time.Duration `mapstructure:"login_timeout"`
	StoreBackend      string        `mapstructure:"store_backend"` // memory | sqlite | redis
	StoreDSN          string        `mapstructure:"store_dsn"`
	RedisAddr         string        `mapstructure:"redis_addr"`
	RedisPrefix       string        `mapstructure:"redis_prefix"`
}

// LoadConfig reads configuration from defaults, an optional config file, and
// SESSION_-prefixed environment variables, in increasing precedence.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("auth_base_url", "http://localhost:8080")
	v.SetDefault("login_path", DefaultLoginPath)
	v.SetDefault("elevated_login_path", DefaultElevatedLoginPath)
	v.SetDefault("refresh_path", DefaultRefreshPath)
	v.SetDefault("login_timeout", DefaultLoginTimeout)
	v.SetDefault("store_backend", "memory")
	v.SetDefault("store_dsn", "file:session.db")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_prefix", "session:")

	v.SetEnvPrefix("SESSION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to read session config file")
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to unmarshal session config")
	}

	return cfg, nil
}

// BuildStore opens the Store named by the config.
func (c *Config) BuildStore(ctx context.Context) (Store, error) {
	switch c.StoreBackend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return OpenBunStore(ctx, c.StoreDSN)
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		return NewRedisStore(client, c.RedisPrefix), nil
	default:
		return nil, goerrors.New("unknown session store backend", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"backend": c.StoreBackend})
	}
}

// Build assembles the full stack: store, HTTP gateway, and Manager, with the
// gateway's refresh call reading the live credential from the Manager.
func Build(ctx context.Context, cfg *Config, opts ...Option) (*Manager, error) {
	store, err := cfg.BuildStore(ctx)
	if err != nil {
		return nil, err
	}

	var manager *Manager

	gateway := NewHTTPGateway(cfg.AuthBaseURL,
		WithLoginPaths(cfg.LoginPath, cfg.ElevatedLoginPath, cfg.RefreshPath),
		WithCredentialSource(func() string {
			if manager == nil {
				return ""
			}
			return manager.State().Credential
		}),
	)

	if cfg.LoginTimeout > 0 {
		opts = append([]Option{WithLoginTimeout(cfg.LoginTimeout)}, opts...)
	}

	manager = New(gateway, store, opts...)
	return manager, nil
}
