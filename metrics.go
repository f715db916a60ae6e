package tripgeo

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	quotaUsedDesc = prometheus.NewDesc(
		"tripgeo_quota_used",
		"Remote geocoder requests counted in the current period",
		[]string{"period"},
		nil,
	)
	quotaRemainingDesc = prometheus.NewDesc(
		"tripgeo_quota_remaining",
		"Remote geocoder requests left in the current period",
		[]string{"period"},
		nil,
	)
	quotaDisabledDesc = prometheus.NewDesc(
		"tripgeo_quota_disabled",
		"1 when the remote geocoder is disabled by its quota",
		nil,
		nil,
	)
	providerEventsDesc = prometheus.NewDesc(
		"tripgeo_provider_events_total",
		"Remote geocoder per-language request outcomes",
		[]string{"event"},
		nil,
	)
	answersDesc = prometheus.NewDesc(
		"tripgeo_answers_total",
		"Resolve calls by the source that answered",
		[]string{"source"},
		nil,
	)
)

// Collector exposes a Resolver's quota, provider and answer counters to
// Prometheus. Values are read from the resolver on each scrape.
type Collector struct {
	r *Resolver
}

// NewCollector returns a collector for r.
func NewCollector(r *Resolver) *Collector {
	return &Collector{r: r}
}

// Describe sends the metric descriptors to the channel.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- quotaUsedDesc
	ch <- quotaRemainingDesc
	ch <- quotaDisabledDesc
	ch <- providerEventsDesc
	ch <- answersDesc
}

// Collect reads the current counters.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	q := c.r.QuotaStats()
	ch <- prometheus.MustNewConstMetric(quotaUsedDesc, prometheus.GaugeValue, float64(q.DailyUsed), "daily")
	ch <- prometheus.MustNewConstMetric(quotaUsedDesc, prometheus.GaugeValue, float64(q.MonthlyUsed), "monthly")
	ch <- prometheus.MustNewConstMetric(quotaRemainingDesc, prometheus.GaugeValue, float64(q.RemainingDaily), "daily")
	ch <- prometheus.MustNewConstMetric(quotaRemainingDesc, prometheus.GaugeValue, float64(q.RemainingMonthly), "monthly")
	disabled := 0.0
	if q.Disabled {
		disabled = 1
	}
	ch <- prometheus.MustNewConstMetric(quotaDisabledDesc, prometheus.GaugeValue, disabled)

	if p, ok := c.r.ProviderStats(); ok {
		for event, v := range map[string]uint64{
			"request":    p.Requests,
			"failure":    p.Failures,
			"cache_hit":  p.CacheHits,
			"cache_miss": p.CacheMisses,
			"quota_skip": p.QuotaSkips,
		} {
			ch <- prometheus.MustNewConstMetric(providerEventsDesc, prometheus.CounterValue, float64(v), event)
		}
	}

	s := c.r.Stats()
	ch <- prometheus.MustNewConstMetric(answersDesc, prometheus.CounterValue, float64(s.RemoteAnswers), "remote")
	ch <- prometheus.MustNewConstMetric(answersDesc, prometheus.CounterValue, float64(s.FallbackAnswers), "fallback")
	ch <- prometheus.MustNewConstMetric(answersDesc, prometheus.CounterValue, float64(s.EmptyAnswers), "empty")
}
