package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultAPIURL is the local development backend used when no URL is configured.
const DefaultAPIURL = "http://localhost:8000"

// Store backends.
const (
	StoreSQLite    = "sqlite"
	StoreRedis     = "redis"
	StoreRedisMock = "redis-mock"
	StoreMemory    = "memory"
)

const envPrefix = "METERCTL"

type Config struct {
	APIURL    string        `mapstructure:"api_url" yaml:"api_url"`
	Store     string        `mapstructure:"store" yaml:"store"`
	DBPath    string        `mapstructure:"db_path" yaml:"db_path"`
	Redis     RedisConfig   `mapstructure:"redis" yaml:"redis"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit" yaml:"rate_limit"`
	Debug     bool          `mapstructure:"debug" yaml:"debug"`
}

type RedisConfig struct {
	Addr      string         `mapstructure:"addr" yaml:"addr"`
	Password  RedactedString `mapstructure:"password" yaml:"password,omitempty"`
	DB        int            `mapstructure:"db" yaml:"db"`
	KeyPrefix string         `mapstructure:"key_prefix" yaml:"key_prefix"`
	// TTL expires the stored session. Zero keeps it until logout.
	TTL       time.Duration  `mapstructure:"ttl" yaml:"ttl"`
}

var defaultURLWarning sync.Once

// ResolveAPIURL returns raw without trailing slashes, or DefaultAPIURL when raw is
// empty. The fallback is announced once per process.
func ResolveAPIURL(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw != "" {
		return raw
	}
	defaultURLWarning.Do(func() {
		log.Warn().
			Str("api_url", DefaultAPIURL).
			Msg("METERCTL_API_URL is not set, falling back to the local development endpoint. Production deployments must set it explicitly.")
	})
	return DefaultAPIURL
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_url", "")
	v.SetDefault("store", StoreSQLite)
	v.SetDefault("db_path", defaultDBPath())
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "meterctl:")
	v.SetDefault("redis.ttl", time.Duration(0))
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("rate_limit", 0)
	v.SetDefault("debug", false)
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".meterctl", "state.db")
	}
	return filepath.Join(home, ".meterctl", "state.db")
}

// LoadOption overrides a setting after the file and environment are read.
type LoadOption func(v *viper.Viper)

// WithAPIURL overrides api_url, typically from a command-line flag. An empty value
// leaves the file and environment value in place.
func WithAPIURL(apiURL string) LoadOption {
	return func(v *viper.Viper) {
		if strings.TrimSpace(apiURL) != "" {
			v.Set("api_url", apiURL)
		}
	}
}

// Load reads the configuration from defaults, the optional YAML file at path,
// METERCTL_* environment variables and opts, in increasing order of precedence.
func Load(path string, opts ...LoadOption) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
			log.Debug().Str("path", path).Msg("Loaded config file")
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
		}
	}

	for _, opt := range opts {
		opt(v)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.APIURL = ResolveAPIURL(cfg.APIURL)
	return &cfg, nil
}

// Validate checks that the configuration can be used to build a client.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid api_url %q: %w", c.APIURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api_url must use http or https, got %q", c.APIURL)
	}
	if u.Host == "" {
		return fmt.Errorf("api_url %q has no host", c.APIURL)
	}

	switch c.Store {
	case StoreSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("db_path is required for the sqlite store")
		}
	case StoreRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for the redis store")
		}
	case StoreRedisMock, StoreMemory:
	default:
		return fmt.Errorf("unknown store %q (must be one of: sqlite, redis, redis-mock, memory)", c.Store)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Redis.TTL < 0 {
		return fmt.Errorf("redis.ttl cannot be negative, got %s", c.Redis.TTL)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit cannot be negative, got %v", c.RateLimit)
	}
	return nil
}

// DiscoverPath picks the config file: the flag value, then METERCTL_CONFIG, then
// ~/.meterctl/config.yaml.
func DiscoverPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if envPath := os.Getenv(envPrefix + "_CONFIG"); envPath != "" {
		return envPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".meterctl", "config.yaml")
	}
	return filepath.Join(home, ".meterctl", "config.yaml")
}

// Save writes cfg as YAML. The redis password is never written; supply it through
// METERCTL_REDIS_PASSWORD.
func Save(cfg *Config, path string) error {
	out := *cfg
	out.Redis.Password = ""
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Dump renders cfg as YAML with secrets redacted.
func Dump(cfg *Config) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
