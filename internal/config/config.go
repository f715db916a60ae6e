package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/andreiashu/tripgeo"
)

// Config holds all configuration for the server
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Geocoder GeocoderConfig
	Cache    CacheConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port    int
	GinMode string // debug, release, test
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// GeocoderConfig holds the remote geocoder settings
type GeocoderConfig struct {
	BaseURL        string
	AccessToken    string
	Languages      []string
	DailyLimit     int
	MonthlyLimit   int
	RequestDelay   time.Duration
	RequestTimeout time.Duration
	DefaultLimit   int
	FuzzyDistance  int // typo tolerance for gazetteer fallback, 0 disables
	Offline        bool
}

// CacheConfig selects the response cache backend
type CacheConfig struct {
	Backend   string // memory, redis
	TTL       time.Duration
	RedisAddr string
	RedisDB   int
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	// Set config file name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.tripgeo")

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.ginmode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("geocoder.baseurl", tripgeo.DefaultBaseURL)
	v.SetDefault("geocoder.accesstoken", "")
	v.SetDefault("geocoder.languages", append([]string(nil), tripgeo.DefaultLanguages...))
	v.SetDefault("geocoder.dailylimit", tripgeo.DefaultDailyLimit)
	v.SetDefault("geocoder.monthlylimit", tripgeo.DefaultMonthlyLimit)
	v.SetDefault("geocoder.requestdelay", tripgeo.DefaultRequestDelay)
	v.SetDefault("geocoder.requesttimeout", tripgeo.DefaultRequestTimeout)
	v.SetDefault("geocoder.defaultlimit", tripgeo.DefaultLimit)
	v.SetDefault("geocoder.fuzzydistance", 1)
	v.SetDefault("geocoder.offline", false)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", tripgeo.DefaultCacheTTL)
	v.SetDefault("cache.redisaddr", "localhost:6379")
	v.SetDefault("cache.redisdb", 0)

	// Read from environment variables, e.g. TRIPGEO_GEOCODER_ACCESSTOKEN
	v.SetEnvPrefix("TRIPGEO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we have defaults
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Environment values arrive as a single string
	if len(cfg.Geocoder.Languages) == 1 && strings.Contains(cfg.Geocoder.Languages[0], ",") {
		cfg.Geocoder.Languages = splitList(cfg.Geocoder.Languages[0])
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Cache.Backend) {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if !c.Geocoder.Offline && c.Geocoder.AccessToken == "" {
		return errors.New("geocoder.accesstoken is required unless geocoder.offline is set")
	}
	return nil
}

// GetServerAddr returns the server address in the format ":port"
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// NewLogger creates a new slog.Logger based on the configuration
func (c *Config) NewLogger() *slog.Logger {
	// Parse log level
	var level slog.Level
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// Create handler options
	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Choose handler based on format
	var handler slog.Handler
	switch strings.ToLower(c.Log.Format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default: // "text" or anything else
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
