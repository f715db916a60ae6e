// Package tripgeo resolves free-text travel destinations (cities, airports,
// stations) to ranked places. It prefers a metered remote geocoder, guards
// it with a daily/monthly quota and a response cache, and falls back to a
// bundled multilingual gazetteer when the geocoder is unavailable.
package tripgeo

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Config contains the options used by New.
type Config struct {
	BaseURL        string        // Geocoder endpoint (default: DefaultBaseURL)
	AccessToken    string        // Geocoder access token, required unless Offline
	Languages      []string      // Language variants (default: DefaultLanguages)
	DailyLimit     int           // Daily request ceiling (default: DefaultDailyLimit)
	MonthlyLimit   int           // Monthly request ceiling (default: DefaultMonthlyLimit)
	CacheTTL       time.Duration // Response freshness window (default: DefaultCacheTTL)
	RequestDelay   time.Duration // Spacing between dispatched requests (default: DefaultRequestDelay)
	RequestTimeout time.Duration // Per-request timeout (default: DefaultRequestTimeout)
	DefaultLimit   int           // Results per call when the caller passes 0 (default: DefaultLimit)
	FuzzyDistance  int           // Typo tolerance of the gazetteer fallback (default: 0, disabled)
	Offline        bool          // Skip the remote geocoder entirely

	Cache      ResponseCache // Overrides the in-memory cache
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Option is a functional option for configuring New.
type Option func(*Config)

// WithAccessToken sets the geocoder access token.
func WithAccessToken(token string) Option {
	return func(c *Config) { c.AccessToken = token }
}

// WithBaseURL sets the geocoder endpoint.
func WithBaseURL(u string) Option {
	return func(c *Config) { c.BaseURL = u }
}

// WithLanguages sets the language variants merged per query.
func WithLanguages(langs ...string) Option {
	return func(c *Config) { c.Languages = langs }
}

// WithQuotaCeilings sets the daily and monthly request ceilings.
func WithQuotaCeilings(daily, monthly int) Option {
	return func(c *Config) {
		c.DailyLimit = daily
		c.MonthlyLimit = monthly
	}
}

// WithCacheTTL sets the response freshness window.
func WithCacheTTL(d time.Duration) Option {
	return func(c *Config) { c.CacheTTL = d }
}

// WithCache replaces the in-memory response cache, e.g. with a RedisCache.
func WithCache(cache ResponseCache) Option {
	return func(c *Config) { c.Cache = cache }
}

// WithRequestDelay sets the minimum spacing between dispatched requests.
func WithRequestDelay(d time.Duration) Option {
	return func(c *Config) { c.RequestDelay = d }
}

// WithRequestTimeout sets the per-request timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Config) { c.RequestTimeout = d }
}

// WithClient sets the HTTP client used for geocoder requests.
func WithClient(hc *http.Client) Option {
	return func(c *Config) { c.HTTPClient = hc }
}

// WithLogger sets the logger shared by all components.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// WithDefaultLimit sets the result count used when callers pass 0.
func WithDefaultLimit(n int) Option {
	return func(c *Config) { c.DefaultLimit = n }
}

// WithFuzzyDistance lets the gazetteer fallback match names within n edits.
func WithFuzzyDistance(n int) Option {
	return func(c *Config) { c.FuzzyDistance = n }
}

// WithOffline disables the remote geocoder; only the gazetteer answers.
func WithOffline() Option {
	return func(c *Config) { c.Offline = true }
}

func defaultConfig() *Config {
	return &Config{
		BaseURL:        DefaultBaseURL,
		DailyLimit:     DefaultDailyLimit,
		MonthlyLimit:   DefaultMonthlyLimit,
		CacheTTL:       DefaultCacheTTL,
		RequestDelay:   DefaultRequestDelay,
		RequestTimeout: DefaultRequestTimeout,
		DefaultLimit:   DefaultLimit,
	}
}

func (c *Config) validate() error {
	if c.FuzzyDistance < 0 {
		return fmt.Errorf("%w: fuzzy distance must not be negative", ErrInvalidConfig)
	}
	if c.Offline {
		return nil
	}
	if c.DailyLimit <= 0 || c.MonthlyLimit <= 0 {
		return fmt.Errorf("%w: quota ceilings must be positive (daily=%d, monthly=%d)", ErrInvalidConfig, c.DailyLimit, c.MonthlyLimit)
	}
	if c.CacheTTL <= 0 && c.Cache == nil {
		return fmt.Errorf("%w: cache TTL must be positive", ErrInvalidConfig)
	}
	return nil
}

// New builds a Resolver with its quota tracker, response cache, provider
// client and the embedded gazetteer.
//
// Example:
//
//	r, err := tripgeo.New(tripgeo.WithAccessToken(os.Getenv("MAPBOX_TOKEN")))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	places, _ := r.Resolve(ctx, "tokyo", nil, 5)
func New(opts ...Option) (*Resolver, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	gazetteer, err := DefaultGazetteer()
	if err != nil {
		return nil, fmt.Errorf("loading gazetteer: %w", err)
	}

	ropts := []ResolverOption{
		WithResolverLogger(cfg.Logger),
		WithResultLimit(cfg.DefaultLimit),
		WithFuzzyFallback(cfg.FuzzyDistance),
	}

	if !cfg.Offline {
		quota := NewQuotaTracker(WithQuotaLimits(cfg.DailyLimit, cfg.MonthlyLimit))

		cache := cfg.Cache
		if cache == nil {
			cache = NewMemoryCache(cfg.CacheTTL)
		}

		popts := []ProviderOption{
			WithResponseCache(cache),
			WithProviderLogger(cfg.Logger),
		}
		if cfg.HTTPClient != nil {
			popts = append(popts, WithHTTPClient(cfg.HTTPClient))
		}

		provider, err := NewProvider(ProviderConfig{
			BaseURL:        cfg.BaseURL,
			AccessToken:    cfg.AccessToken,
			Languages:      cfg.Languages,
			RequestDelay:   cfg.RequestDelay,
			RequestTimeout: cfg.RequestTimeout,
		}, quota, popts...)
		if err != nil {
			return nil, err
		}
		ropts = append(ropts, WithRemote(provider, quota))
	}

	return NewResolver(gazetteer, ropts...), nil
}
