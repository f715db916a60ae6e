package tripgeo

import (
	"sync"
	"time"
)

// Default ceilings for the metered geocoder.
const (
	DefaultDailyLimit   = 100000
	DefaultMonthlyLimit = 100000
)

// Disable reasons reported by QuotaTracker.
const (
	ReasonDailyLimit   = "daily limit exceeded"
	ReasonMonthlyLimit = "monthly limit exceeded"
)

// QuotaStats is a point-in-time view of a QuotaTracker.
type QuotaStats struct {
	DailyUsed        int    `json:"dailyUsed"`
	MonthlyUsed      int    `json:"monthlyUsed"`
	RemainingDaily   int    `json:"remainingDaily"`
	RemainingMonthly int    `json:"remainingMonthly"`
	Disabled         bool   `json:"disabled"`
	Reason           string `json:"reason"`
}

// QuotaTracker counts remote requests against daily and monthly ceilings.
// Once a ceiling is hit the tracker disables itself and stays disabled
// until Reset is called, even across day or month rollovers.
// Safe for concurrent use.
type QuotaTracker struct {
	mu           sync.Mutex
	dailyLimit   int
	monthlyLimit int
	dailyCount   int
	monthlyCount int
	lastDay      int // year*1000 + day of year
	lastMonth    int // year*100 + month
	disabled     bool
	reason       string
	now          func() time.Time
}

// QuotaOption configures a QuotaTracker.
type QuotaOption func(*QuotaTracker)

// WithQuotaLimits overrides the daily and monthly ceilings.
func WithQuotaLimits(daily, monthly int) QuotaOption {
	return func(q *QuotaTracker) {
		q.dailyLimit = daily
		q.monthlyLimit = monthly
	}
}

// WithQuotaClock sets the time source used for rollover detection.
func WithQuotaClock(now func() time.Time) QuotaOption {
	return func(q *QuotaTracker) {
		q.now = now
	}
}

// NewQuotaTracker returns a tracker with zeroed counters.
func NewQuotaTracker(opts ...QuotaOption) *QuotaTracker {
	q := &QuotaTracker{
		dailyLimit:   DefaultDailyLimit,
		monthlyLimit: DefaultMonthlyLimit,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	t := q.now()
	q.lastDay, q.lastMonth = dayKey(t), monthKey(t)
	return q
}

func dayKey(t time.Time) int   { return t.Year()*1000 + t.YearDay() }
func monthKey(t time.Time) int { return t.Year()*100 + int(t.Month()) }

// rollover zeroes the counters whose calendar period changed.
// Caller must hold q.mu.
func (q *QuotaTracker) rollover() {
	t := q.now()
	if d := dayKey(t); d != q.lastDay {
		q.dailyCount = 0
		q.lastDay = d
	}
	if m := monthKey(t); m != q.lastMonth {
		q.monthlyCount = 0
		q.lastMonth = m
	}
}

// CanProceed reports whether another remote request fits under both
// ceilings. A negative answer disables the tracker.
func (q *QuotaTracker) CanProceed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	if q.disabled {
		return false
	}
	if q.dailyCount < q.dailyLimit && q.monthlyCount < q.monthlyLimit {
		return true
	}
	q.disabled = true
	if q.dailyCount >= q.dailyLimit {
		q.reason = ReasonDailyLimit
	} else {
		q.reason = ReasonMonthlyLimit
	}
	return false
}

// RecordRequest counts one dispatched remote request.
func (q *QuotaTracker) RecordRequest() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	q.dailyCount++
	q.monthlyCount++
}

// IsDisabled reports whether the tracker has tripped.
func (q *QuotaTracker) IsDisabled() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.disabled
}

// DisableReason returns why the tracker tripped, or "".
func (q *QuotaTracker) DisableReason() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.reason
}

// Reset re-enables the tracker and zeroes both counters.
func (q *QuotaTracker) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.disabled = false
	q.reason = ""
	q.dailyCount = 0
	q.monthlyCount = 0
	t := q.now()
	q.lastDay, q.lastMonth = dayKey(t), monthKey(t)
}

// Stats returns the current counters after applying any pending rollover.
func (q *QuotaTracker) Stats() QuotaStats {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	return QuotaStats{
		DailyUsed:        q.dailyCount,
		MonthlyUsed:      q.monthlyCount,
		RemainingDaily:   max(0, q.dailyLimit-q.dailyCount),
		RemainingMonthly: max(0, q.monthlyLimit-q.monthlyCount),
		Disabled:         q.disabled,
		Reason:           q.reason,
	}
}
