// Command tripgeo-server serves destination lookups over HTTP.
package main

import (
	"context"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/andreiashu/tripgeo"
	"github.com/andreiashu/tripgeo/internal/api"
	"github.com/andreiashu/tripgeo/internal/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	opts := []tripgeo.Option{
		tripgeo.WithLogger(logger),
		tripgeo.WithBaseURL(cfg.Geocoder.BaseURL),
		tripgeo.WithAccessToken(cfg.Geocoder.AccessToken),
		tripgeo.WithLanguages(cfg.Geocoder.Languages...),
		tripgeo.WithQuotaCeilings(cfg.Geocoder.DailyLimit, cfg.Geocoder.MonthlyLimit),
		tripgeo.WithCacheTTL(cfg.Cache.TTL),
		tripgeo.WithRequestDelay(cfg.Geocoder.RequestDelay),
		tripgeo.WithRequestTimeout(cfg.Geocoder.RequestTimeout),
		tripgeo.WithDefaultLimit(cfg.Geocoder.DefaultLimit),
		tripgeo.WithFuzzyDistance(cfg.Geocoder.FuzzyDistance),
	}
	if cfg.Geocoder.Offline {
		opts = append(opts, tripgeo.WithOffline())
	}

	if strings.EqualFold(cfg.Cache.Backend, "redis") {
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisAddr,
			DB:   cfg.Cache.RedisDB,
		})
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, responses will not be cached until it recovers", "addr", cfg.Cache.RedisAddr, "error", err)
		}
		cancel()

		opts = append(opts, tripgeo.WithCache(tripgeo.NewRedisCache(rdb, cfg.Cache.TTL, tripgeo.WithRedisLogger(logger))))
	}

	resolver, err := tripgeo.New(opts...)
	if err != nil {
		logger.Error("failed to build resolver", "error", err)
		log.Fatal(err)
	}

	gin.SetMode(cfg.Server.GinMode)
	router := api.NewRouter(resolver, logger)

	logger.Info("starting server",
		"addr", cfg.GetServerAddr(),
		"state", resolver.State().String(),
		"destinations", resolver.Gazetteer().Len(),
	)
	if err := router.Run(cfg.GetServerAddr()); err != nil {
		logger.Error("server failed", "error", err)
		log.Fatal(err)
	}
}
