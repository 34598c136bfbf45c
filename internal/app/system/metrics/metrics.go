// Package metrics exposes governance counters and gauges to Prometheus.
package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	metricsstore "github.com/condovote/assemblyhub/internal/app/store/metrics"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
)

// Metrics holds the event counters. A nil *Metrics, or one that was never
// registered, silently drops observations.
type Metrics struct {
	transitions   *prometheus.CounterVec
	votes         *prometheus.CounterVec
	voteConflicts prometheus.Counter
	checkins      *prometheus.CounterVec
	otpRejections *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec

	registerOnce sync.Once
}

// New returns unregistered metrics.
func New() *Metrics {
	return &Metrics{}
}

// Register registers the counters with registry. Idempotent.
func (m *Metrics) Register(registry prometheus.Registerer) {
	if m == nil || registry == nil {
		return
	}
	m.registerOnce.Do(func() {
		factory := promauto.With(registry)

		m.transitions = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "assemblyhub_state_transitions_total",
			Help: "Total number of assembly and agenda item state transitions",
		}, []string{"entity", "to"})

		m.votes = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "assemblyhub_votes_cast_total",
			Help: "Total number of votes recorded",
		}, []string{"cast_by"})

		m.voteConflicts = factory.NewCounter(prometheus.CounterOpts{
			Name: "assemblyhub_vote_conflicts_total",
			Help: "Total number of duplicate votes rejected",
		})

		m.checkins = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "assemblyhub_checkins_total",
			Help: "Total number of check-ins, re-entries and checkouts",
		}, []string{"kind"})

		m.otpRejections = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "assemblyhub_otp_rejections_total",
			Help: "Total number of invalid or expired codes submitted",
		}, []string{"subject"})

		m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
			Name: "assemblyhub_http_requests_total",
			Help: "Total number of HTTP requests by status class",
		}, []string{"class"})
	})
}

// Transition records a state change of entity ("assembly" or "item").
func (m *Metrics) Transition(entity, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(entity, to).Inc()
}

// VoteCast records a vote.
func (m *Metrics) VoteCast(castBy string) {
	if m == nil || m.votes == nil {
		return
	}
	m.votes.WithLabelValues(castBy).Inc()
}

// VoteConflict records a rejected duplicate vote.
func (m *Metrics) VoteConflict() {
	if m == nil || m.voteConflicts == nil {
		return
	}
	m.voteConflicts.Inc()
}

// Checkin records an attendance event of kind checkin, reentry or checkout.
func (m *Metrics) Checkin(kind string) {
	if m == nil || m.checkins == nil {
		return
	}
	m.checkins.WithLabelValues(kind).Inc()
}

// OTPRejected records a failed code for subject "checkin" or "voting".
func (m *Metrics) OTPRejected(subject string) {
	if m == nil || m.otpRejections == nil {
		return
	}
	m.otpRejections.WithLabelValues(subject).Inc()
}

// HTTPRequest records a served request by status class ("2xx", "4xx", ...).
func (m *Metrics) HTTPRequest(status int) {
	if m == nil || m.httpRequests == nil {
		return
	}
	m.httpRequests.WithLabelValues(statusClass(status)).Inc()
}

// Middleware counts every response by status class.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequest(status)
	})
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// StoreCollector exports database totals as gauges, read on every scrape.
type StoreCollector struct {
	db      *mongo.Database
	timeout time.Duration

	assemblies *prometheus.Desc
	voting     *prometheus.Desc
	present    *prometheus.Desc
	votes      *prometheus.Desc
}

// NewStoreCollector returns a collector reading from db.
func NewStoreCollector(db *mongo.Database, timeout time.Duration) *StoreCollector {
	return &StoreCollector{
		db:      db,
		timeout: timeout,
		assemblies: prometheus.NewDesc("assemblyhub_assemblies",
			"Number of assemblies by status", []string{"status"}, nil),
		voting: prometheus.NewDesc("assemblyhub_items_voting",
			"Number of agenda items currently open for voting", nil, nil),
		present: prometheus.NewDesc("assemblyhub_participants_present",
			"Number of participants currently present", nil, nil),
		votes: prometheus.NewDesc("assemblyhub_votes",
			"Estimated number of stored votes", nil, nil),
	}
}

func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.assemblies
	ch <- c.voting
	ch <- c.present
	ch <- c.votes
}

func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	counts := metricsstore.FetchCounts(ctx, c.db)
	for status, n := range counts.AssembliesByStatus {
		ch <- prometheus.MustNewConstMetric(c.assemblies, prometheus.GaugeValue, float64(n), status)
	}
	ch <- prometheus.MustNewConstMetric(c.voting, prometheus.GaugeValue, float64(counts.OpenVotingItems))
	ch <- prometheus.MustNewConstMetric(c.present, prometheus.GaugeValue, float64(counts.PresentParticipants))
	ch <- prometheus.MustNewConstMetric(c.votes, prometheus.GaugeValue, float64(counts.Votes))
}
