package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/andreiashu/tripgeo"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TRIPGEO_GEOCODER_OFFLINE", "true")

	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.GetServerAddr() != ":8080" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Geocoder.BaseURL != tripgeo.DefaultBaseURL || cfg.Geocoder.DefaultLimit != tripgeo.DefaultLimit {
		t.Errorf("geocoder = %+v", cfg.Geocoder)
	}
	if cfg.Geocoder.FuzzyDistance != 1 {
		t.Errorf("fuzzy distance = %d", cfg.Geocoder.FuzzyDistance)
	}
	if cfg.Geocoder.DailyLimit != tripgeo.DefaultDailyLimit || cfg.Geocoder.MonthlyLimit != tripgeo.DefaultMonthlyLimit {
		t.Errorf("limits = %d/%d", cfg.Geocoder.DailyLimit, cfg.Geocoder.MonthlyLimit)
	}
	if cfg.Geocoder.RequestDelay != tripgeo.DefaultRequestDelay || cfg.Geocoder.RequestTimeout != tripgeo.DefaultRequestTimeout {
		t.Errorf("timings = %v/%v", cfg.Geocoder.RequestDelay, cfg.Geocoder.RequestTimeout)
	}
	if cfg.Cache.TTL != tripgeo.DefaultCacheTTL || cfg.Cache.Backend != "memory" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if strings.Join(cfg.Geocoder.Languages, ",") != strings.Join(tripgeo.DefaultLanguages, ",") {
		t.Errorf("languages = %v", cfg.Geocoder.Languages)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TRIPGEO_SERVER_PORT", "9090")
	t.Setenv("TRIPGEO_GEOCODER_ACCESSTOKEN", "pk.test")
	t.Setenv("TRIPGEO_GEOCODER_LANGUAGES", "ko,en")
	t.Setenv("TRIPGEO_GEOCODER_REQUESTDELAY", "250ms")
	t.Setenv("TRIPGEO_GEOCODER_DAILYLIMIT", "42")
	t.Setenv("TRIPGEO_CACHE_BACKEND", "redis")
	t.Setenv("TRIPGEO_CACHE_REDISADDR", "redis:6379")

	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GetServerAddr() != ":9090" {
		t.Errorf("addr = %q", cfg.GetServerAddr())
	}
	if cfg.Geocoder.AccessToken != "pk.test" || cfg.Geocoder.DailyLimit != 42 {
		t.Errorf("geocoder = %+v", cfg.Geocoder)
	}
	if len(cfg.Geocoder.Languages) != 2 || cfg.Geocoder.Languages[1] != "en" {
		t.Errorf("languages = %v", cfg.Geocoder.Languages)
	}
	if cfg.Geocoder.RequestDelay != 250*time.Millisecond {
		t.Errorf("delay = %v", cfg.Geocoder.RequestDelay)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisAddr != "redis:6379" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("server:\n  port: 7070\ngeocoder:\n  offline: true\n  monthlylimit: 500\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := load(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 7070 || !cfg.Geocoder.Offline || cfg.Geocoder.MonthlyLimit != 500 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadValidation(t *testing.T) {
	t.Run("token required", func(t *testing.T) {
		t.Setenv("TRIPGEO_GEOCODER_ACCESSTOKEN", "")
		t.Setenv("TRIPGEO_GEOCODER_OFFLINE", "false")
		if _, err := load(viper.New()); err == nil {
			t.Error("missing token accepted")
		}
	})
	t.Run("unknown backend", func(t *testing.T) {
		t.Setenv("TRIPGEO_GEOCODER_OFFLINE", "true")
		t.Setenv("TRIPGEO_CACHE_BACKEND", "memcached")
		if _, err := load(viper.New()); err == nil {
			t.Error("unknown cache backend accepted")
		}
	})
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level     string
		debugOn   bool
		warnOn    bool
		errorOnly bool
	}{
		{"debug", true, true, false},
		{"info", false, true, false},
		{"WARNING", false, true, false},
		{"error", false, false, true},
		{"nonsense", false, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := &Config{Log: LogConfig{Level: tt.level, Format: "json"}}
			logger := cfg.NewLogger()
			ctx := context.Background()
			if got := logger.Enabled(ctx, slog.LevelDebug); got != tt.debugOn {
				t.Errorf("debug enabled = %v", got)
			}
			if got := logger.Enabled(ctx, slog.LevelWarn); got != tt.warnOn {
				t.Errorf("warn enabled = %v", got)
			}
			if tt.errorOnly && !logger.Enabled(ctx, slog.LevelError) {
				t.Error("error level disabled")
			}
		})
	}
}
