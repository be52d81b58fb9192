package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/forgo/ascend/api/internal/model"
)

// Metrics holds every collector the API exports. All methods are safe on a
// nil receiver so callers may run without metrics.
type Metrics struct {
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	authRejections     *prometheus.CounterVec
	events             *prometheus.CounterVec
	points             *prometheus.CounterVec
	badges             *prometheus.CounterVec
	levelUps           prometheus.Counter
	redemptions        *prometheus.CounterVec
	commitConflicts    prometheus.Counter
	challengesExpired  prometheus.Counter
	boardCache         *prometheus.CounterVec
	leaderboardRefresh prometheus.Histogram

	gatherer prometheus.Gatherer
}

// Event outcomes
const (
	OutcomeApplied   = "applied"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
)

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		authRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_rejections_total",
				Help: "Total number of unauthorized requests",
			},
			[]string{"reason"},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ascend_activity_events_total",
				Help: "Activity events by type and outcome",
			},
			[]string{"type", "outcome"},
		),
		points: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ascend_points_total",
				Help: "Points credited or debited by ledger reason",
			},
			[]string{"reason"},
		),
		badges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ascend_badges_awarded_total",
				Help: "Badge awards by badge id",
			},
			[]string{"badge"},
		),
		levelUps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ascend_level_ups_total",
			Help: "Transactions that raised a user's level",
		}),
		redemptions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ascend_redemptions_total",
				Help: "Reward redemptions by reward id",
			},
			[]string{"reward"},
		),
		commitConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ascend_commit_conflicts_total",
			Help: "Progression commits rejected by the version check",
		}),
		challengesExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ascend_challenges_expired_total",
			Help: "Challenges moved to expired by the sweep",
		}),
		boardCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ascend_leaderboard_cache_total",
				Help: "Leaderboard cache lookups by result",
			},
			[]string{"result"},
		),
		leaderboardRefresh: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ascend_leaderboard_refresh_seconds",
			Help:    "Duration of full leaderboard refreshes",
			Buckets: prometheus.DefBuckets,
		}),
		gatherer: gatherer,
	}

	reg.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.authRejections,
		m.events,
		m.points,
		m.badges,
		m.levelUps,
		m.redemptions,
		m.commitConflicts,
		m.challengesExpired,
		m.boardCache,
		m.leaderboardRefresh,
	)
	return m
}

// NewDefault registers with the global Prometheus registry
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// Handler serves the registered collectors
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveRequest records one HTTP request
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, http.StatusText(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())

	switch status {
	case http.StatusUnauthorized:
		m.authRejections.WithLabelValues("401_unauthorized").Inc()
	case http.StatusForbidden:
		m.authRejections.WithLabelValues("403_forbidden").Inc()
	}
}

// ObserveEvent counts an activity event outcome
func (m *Metrics) ObserveEvent(eventType model.EventType, outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(string(eventType), outcome).Inc()
}

// ObserveDelta records everything a committed transaction changed
func (m *Metrics) ObserveDelta(d *model.ProgressionDelta) {
	if m == nil || d == nil {
		return
	}
	for _, e := range d.Ledger {
		amount := e.Delta
		if amount < 0 {
			amount = -amount
		}
		m.points.WithLabelValues(string(e.Reason)).Add(float64(amount))
	}
	for _, a := range d.BadgeAwards {
		m.badges.WithLabelValues(a.BadgeID).Inc()
	}
	for _, r := range d.Redemptions {
		m.redemptions.WithLabelValues(r.RewardID).Inc()
	}
	if d.LeveledUp() {
		m.levelUps.Inc()
	}
}

// CommitConflict counts a failed optimistic version check
func (m *Metrics) CommitConflict() {
	if m == nil {
		return
	}
	m.commitConflicts.Inc()
}

// ChallengesExpired counts challenges expired by a sweep
func (m *Metrics) ChallengesExpired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.challengesExpired.Add(float64(n))
}

// BoardCacheResult counts a cache lookup: hit, miss or error
func (m *Metrics) BoardCacheResult(result string) {
	if m == nil {
		return
	}
	m.boardCache.WithLabelValues(result).Inc()
}

// ObserveRefresh records the duration of a leaderboard refresh
func (m *Metrics) ObserveRefresh(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.leaderboardRefresh.Observe(elapsed.Seconds())
}
