package tripgeo

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
)

// DefaultPopularCount is how many destinations PopularDestinations returns.
const DefaultPopularCount = 8

// State is the resolution strategy in effect for a call.
type State int

const (
	// StateRemotePreferred tries the remote geocoder before the gazetteer.
	StateRemotePreferred State = iota
	// StateFallbackOnly answers from the gazetteer alone.
	StateFallbackOnly
)

func (s State) String() string {
	switch s {
	case StateRemotePreferred:
		return "REMOTE_PREFERRED"
	case StateFallbackOnly:
		return "FALLBACK_ONLY"
	}
	return "UNKNOWN"
}

// RemoteSearcher is the remote half of the fallback chain. *Provider
// implements it.
type RemoteSearcher interface {
	Search(ctx context.Context, query string, proximity *Coordinates, limit int) ([]Place, error)
}

// ResolverStats counts where answers came from.
type ResolverStats struct {
	RemoteAnswers   uint64 `json:"remoteAnswers"`
	FallbackAnswers uint64 `json:"fallbackAnswers"`
	EmptyAnswers    uint64 `json:"emptyAnswers"`
}

// Resolver runs the fallback chain: remote geocoder first while the quota
// allows it, bundled gazetteer otherwise. The strategy is re-derived from
// the quota tracker on every call. Safe for concurrent use.
type Resolver struct {
	remote       RemoteSearcher
	quota        *QuotaTracker
	gazetteer    *Gazetteer
	logger       *slog.Logger
	defaultLimit int
	popularCount int
	fuzzy        int

	remoteAnswers   atomic.Uint64
	fallbackAnswers atomic.Uint64
	emptyAnswers    atomic.Uint64
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithRemote enables the remote geocoder guarded by quota.
func WithRemote(remote RemoteSearcher, quota *QuotaTracker) ResolverOption {
	return func(r *Resolver) {
		r.remote = remote
		r.quota = quota
	}
}

// WithResolverLogger sets the logger for fallback decisions.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithResultLimit sets the limit used when a call passes limit <= 0.
func WithResultLimit(n int) ResolverOption {
	return func(r *Resolver) {
		r.defaultLimit = n
	}
}

// WithFuzzyFallback lets gazetteer fallback tolerate up to n typos when
// nothing matches directly. n is capped at 3; 0 disables it.
func WithFuzzyFallback(n int) ResolverOption {
	return func(r *Resolver) {
		r.fuzzy = n
	}
}

// NewResolver returns a resolver over gazetteer. Without WithRemote it
// stays in StateFallbackOnly.
func NewResolver(gazetteer *Gazetteer, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		gazetteer:    gazetteer,
		logger:       discardLogger(),
		defaultLimit: DefaultLimit,
		popularCount: DefaultPopularCount,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State reports which strategy the next Resolve call will use.
func (r *Resolver) State() State {
	if r.remote == nil || (r.quota != nil && r.quota.IsDisabled()) {
		return StateFallbackOnly
	}
	return StateRemotePreferred
}

// Resolve turns a free-text query into ranked places. The remote attempt
// always completes before the fallback starts. Quota exhaustion, network
// failures and empty answers degrade to gazetteer results; only
// ErrInvalidConfig errors are returned. The result is never nil.
func (r *Resolver) Resolve(ctx context.Context, query string, proximity *Coordinates, limit int) ([]Place, error) {
	if limit <= 0 {
		limit = r.defaultLimit
	}
	if strings.TrimSpace(query) == "" {
		return []Place{}, nil
	}

	if r.State() == StateRemotePreferred {
		places, err := r.remote.Search(ctx, query, proximity, limit)
		switch {
		case errors.Is(err, ErrInvalidConfig):
			return nil, err
		case err != nil:
			r.logger.Info("remote search unavailable, using gazetteer", "error", err)
		case len(places) > 0:
			r.remoteAnswers.Add(1)
			return places, nil
		default:
			r.logger.Debug("remote search returned nothing, using gazetteer")
		}
	}

	return r.fallback(query, limit), nil
}

func (r *Resolver) fallback(query string, limit int) []Place {
	matches := r.gazetteer.SearchWithOptions(query, SearchOptions{
		Limit:         min(limit, SearchLimit),
		FuzzyDistance: r.fuzzy,
	})
	if len(matches) == 0 {
		r.emptyAnswers.Add(1)
		return []Place{}
	}
	r.fallbackAnswers.Add(1)
	return Places(matches)
}

// Autocomplete suggests destinations for a partial query from the
// gazetteer. It never calls the remote geocoder, so typing does not burn
// quota. Prefixes shorter than MinAutocompleteLen runes return nothing.
func (r *Resolver) Autocomplete(prefix string) []Place {
	places := Places(r.gazetteer.Autocomplete(prefix))
	if places == nil {
		return []Place{}
	}
	return places
}

// PopularDestinations returns the best-known cities of the gazetteer.
func (r *Resolver) PopularDestinations() []Place {
	entries := r.gazetteer.Popular(r.popularCount)
	out := make([]Place, len(entries))
	for i, e := range entries {
		out[i] = e.Place(e.BaseRelevance)
	}
	return out
}

// ResolveNearby ranks candidates for query by text relevance blended with
// proximity to origin. At least SearchLimit candidates are ranked before
// truncating to limit. An empty query ranks the whole gazetteer.
func (r *Resolver) ResolveNearby(ctx context.Context, query string, origin Coordinates, limit int) ([]Place, error) {
	if limit <= 0 {
		limit = r.defaultLimit
	}

	var candidates []Place
	if strings.TrimSpace(query) == "" {
		for _, e := range r.gazetteer.Entries() {
			candidates = append(candidates, e.Place(e.BaseRelevance))
		}
	} else {
		var err error
		candidates, err = r.Resolve(ctx, query, &origin, max(limit, SearchLimit))
		if err != nil {
			return nil, err
		}
	}

	ranked := RankNearby(origin, candidates)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// ResolveCoordinates returns the bundled destination nearest to a point.
func (r *Resolver) ResolveCoordinates(lat, lng float64) (Place, bool) {
	e, ok := r.gazetteer.Nearest(lat, lng)
	if !ok {
		return Place{}, false
	}
	return e.Place(e.BaseRelevance), true
}

// QuotaStats reports the remote quota. Without a remote geocoder the
// stats are zero and marked disabled.
func (r *Resolver) QuotaStats() QuotaStats {
	if r.quota == nil {
		return QuotaStats{Disabled: true, Reason: "remote geocoder not configured"}
	}
	return r.quota.Stats()
}

// ProviderStats returns the remote provider counters when the remote
// searcher exposes them.
func (r *Resolver) ProviderStats() (ProviderStats, bool) {
	s, ok := r.remote.(interface{ Stats() ProviderStats })
	if !ok {
		return ProviderStats{}, false
	}
	return s.Stats(), true
}

// Stats returns the answer-source counters.
func (r *Resolver) Stats() ResolverStats {
	return ResolverStats{
		RemoteAnswers:   r.remoteAnswers.Load(),
		FallbackAnswers: r.fallbackAnswers.Load(),
		EmptyAnswers:    r.emptyAnswers.Load(),
	}
}

// Gazetteer returns the fallback dataset.
func (r *Resolver) Gazetteer() *Gazetteer {
	return r.gazetteer
}
