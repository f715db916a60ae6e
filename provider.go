package tripgeo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the forward geocoding endpoint of the metered provider.
const DefaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

const (
	DefaultRequestDelay   = 100 * time.Millisecond
	DefaultRequestTimeout = 5 * time.Second
	DefaultLimit          = 10

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 4 << 20
)

// DefaultLanguages is the order in which language variants are requested
// and merged.
var DefaultLanguages = []string{"ko", "en", "ja", "zh", "es", "fr", "de"}

// ProviderConfig holds the remote geocoder settings.
type ProviderConfig struct {
	BaseURL        string        // Geocoding endpoint (default: DefaultBaseURL)
	AccessToken    string        // Required
	Languages      []string      // Language variants to merge (default: DefaultLanguages)
	RequestDelay   time.Duration // Minimum spacing between dispatched requests
	RequestTimeout time.Duration // Per-request timeout (default: DefaultRequestTimeout)
}

// ProviderStats counts what the provider did since it was created.
type ProviderStats struct {
	Requests    uint64 `json:"requests"`
	Failures    uint64 `json:"failures"`
	CacheHits   uint64 `json:"cacheHits"`
	CacheMisses uint64 `json:"cacheMisses"`
	QuotaSkips  uint64 `json:"quotaSkips"`
}

// Provider searches the metered geocoder in several languages and merges
// the answers. Each language request goes through the response cache first
// and only counts against the quota when it reaches the network.
// Safe for concurrent use.
type Provider struct {
	baseURL        string
	token          string
	languages      []string
	requestTimeout time.Duration
	httpClient     *http.Client
	quota          *QuotaTracker
	cache          ResponseCache
	limiter        *rate.Limiter
	logger         *slog.Logger

	requests    atomic.Uint64
	failures    atomic.Uint64
	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64
	quotaSkips  atomic.Uint64
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// WithResponseCache replaces the default 30 minute in-memory cache.
func WithResponseCache(c ResponseCache) ProviderOption {
	return func(p *Provider) {
		p.cache = c
	}
}

// WithProviderLogger sets the logger for per-language failures.
func WithProviderLogger(logger *slog.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = logger
	}
}

// NewProvider validates cfg and returns a ready client. Configuration
// problems are reported as errors wrapping ErrInvalidConfig.
func NewProvider(cfg ProviderConfig, quota *QuotaTracker, opts ...ProviderOption) (*Provider, error) {
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, fmt.Errorf("%w: geocoder access token is required", ErrInvalidConfig)
	}
	if quota == nil {
		return nil, fmt.Errorf("%w: quota tracker is required", ErrInvalidConfig)
	}

	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || u.RawQuery != "" {
		return nil, fmt.Errorf("%w: malformed geocoder base URL %q", ErrInvalidConfig, base)
	}

	languages := cfg.Languages
	if len(languages) == 0 {
		languages = DefaultLanguages
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	every := rate.Inf
	if cfg.RequestDelay > 0 {
		every = rate.Every(cfg.RequestDelay)
	}

	p := &Provider{
		baseURL:        strings.TrimSuffix(u.String(), "/"),
		token:          cfg.AccessToken,
		languages:      append([]string(nil), languages...),
		requestTimeout: timeout,
		httpClient:     &http.Client{},
		quota:          quota,
		cache:          NewMemoryCache(DefaultCacheTTL),
		limiter:        rate.NewLimiter(every, 1),
		logger:         discardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Languages returns the language variants in merge order.
func (p *Provider) Languages() []string {
	return append([]string(nil), p.languages...)
}

// Stats returns the provider counters.
func (p *Provider) Stats() ProviderStats {
	return ProviderStats{
		Requests:    p.requests.Load(),
		Failures:    p.failures.Load(),
		CacheHits:   p.cacheHits.Load(),
		CacheMisses: p.cacheMisses.Load(),
		QuotaSkips:  p.quotaSkips.Load(),
	}
}

// attempt is the outcome of one language request.
type attempt struct {
	language string
	places   []Place
	err      error
}

// Search queries every configured language, merges the successful answers
// in language order, drops duplicate provider ids and truncates to limit.
//
// A failing language is logged and skipped. Search returns ErrQuotaExceeded
// without any I/O when the quota tracker is already disabled, and an
// ErrInvalidConfig error when the provider rejects the access token.
func (p *Provider) Search(ctx context.Context, query string, proximity *Coordinates, limit int) ([]Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if p.quota.IsDisabled() {
		p.quotaSkips.Add(1)
		return nil, ErrQuotaExceeded
	}

	perLanguage := (limit + len(p.languages) - 1) / len(p.languages)

	attempts := make([]attempt, len(p.languages))
	var wg sync.WaitGroup
	for i, lang := range p.languages {
		wg.Add(1)
		go func(i int, lang string) {
			defer wg.Done()
			places, err := p.searchLanguage(ctx, query, lang, perLanguage, proximity)
			attempts[i] = attempt{language: lang, places: places, err: err}
		}(i, lang)
	}
	wg.Wait()

	var merged []Place
	seen := make(map[string]bool)
	for _, a := range attempts {
		if a.err != nil {
			if errors.Is(a.err, ErrInvalidConfig) {
				return nil, a.err
			}
			if errors.Is(a.err, ErrQuotaExceeded) {
				p.logger.Debug("language skipped", "language", a.language, "reason", p.quota.DisableReason())
			} else {
				p.logger.Warn("geocoder language request failed", "language", a.language, "error", a.err)
			}
			continue
		}
		for _, pl := range a.places {
			if pl.ID != "" {
				if seen[pl.ID] {
					continue
				}
				seen[pl.ID] = true
			}
			merged = append(merged, pl)
		}
	}

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// searchLanguage runs the cache → quota → network sequence for one language.
func (p *Provider) searchLanguage(ctx context.Context, query, lang string, limit int, proximity *Coordinates) ([]Place, error) {
	if p.quota.IsDisabled() {
		p.quotaSkips.Add(1)
		return nil, ErrQuotaExceeded
	}

	reqURL := p.requestURL(query, lang, limit, proximity)
	if body, ok := p.cache.Get(ctx, reqURL); ok {
		if places, err := decodeFeatures(body); err == nil {
			p.cacheHits.Add(1)
			return places, nil
		}
	}
	p.cacheMisses.Add(1)

	if !p.quota.CanProceed() {
		p.quotaSkips.Add(1)
		return nil, ErrQuotaExceeded
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, &RemoteRequestError{Language: lang, Err: err}
	}

	body, err := p.fetch(ctx, reqURL, lang)
	if err != nil {
		p.failures.Add(1)
		return nil, err
	}
	places, err := decodeFeatures(body)
	if err != nil {
		p.failures.Add(1)
		return nil, &RemoteRequestError{Language: lang, Err: fmt.Errorf("decoding response: %w", err)}
	}

	p.cache.Put(ctx, reqURL, body)
	return places, nil
}

// requestURL builds the outbound URL. It doubles as the cache key, so the
// parameter order must be stable; url.Values.Encode sorts by key.
func (p *Provider) requestURL(query, lang string, limit int, proximity *Coordinates) string {
	v := url.Values{}
	v.Set("access_token", p.token)
	v.Set("language", lang)
	v.Set("limit", strconv.Itoa(limit))
	v.Set("types", "place,poi")
	if proximity != nil {
		v.Set("proximity", strconv.FormatFloat(proximity.Longitude, 'f', -1, 64)+","+
			strconv.FormatFloat(proximity.Latitude, 'f', -1, 64))
	}
	return p.baseURL + "/" + url.PathEscape(query) + ".json?" + v.Encode()
}

// fetch dispatches one GET and returns the body of a 2xx response.
// Every dispatched request is recorded against the quota.
func (p *Provider) fetch(ctx context.Context, reqURL, lang string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &RemoteRequestError{Language: lang, Err: fmt.Errorf("creating request: %w", err)}
	}

	resp, err := p.httpClient.Do(req)
	p.quota.RecordRequest()
	p.requests.Add(1)
	if err != nil {
		// url.Error embeds the request URL, which carries the access token.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, &RemoteRequestError{Language: lang, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &RemoteRequestError{
			Language:   lang,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: access token rejected", ErrInvalidConfig),
		}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &RemoteRequestError{
			Language:   lang,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", truncate(string(body), 200)),
		}
	case err != nil:
		return nil, &RemoteRequestError{Language: lang, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading body: %w", err)}
	}
	return body, nil
}

func decodeFeatures(body []byte) ([]Place, error) {
	var fc featureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, err
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("unexpected response type %q", fc.Type)
	}
	places := make([]Place, 0, len(fc.Features))
	for _, f := range fc.Features {
		places = append(places, f.toPlace())
	}
	return places, nil
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}
