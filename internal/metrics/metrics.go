// Package metrics exposes Prometheus metrics for the search lifecycle.
package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records search lifecycle metrics. It satisfies
// stories.Recorder and is safe for concurrent use.
type Collector struct {
	fetchStarted  prometheus.Counter
	fetchSuccess  prometheus.Counter
	fetchFail     prometheus.Counter
	fetchCanceled prometheus.Counter
	staleDiscards prometheus.Counter
	fetchLatency  prometheus.Histogram
	itemsFetched  prometheus.Counter
	itemsRemoved  prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		fetchStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stories_fetch_started_total",
			Help: "Search requests issued.",
		}),
		fetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stories_fetch_success_total",
			Help: "Search requests that returned results.",
		}),
		fetchFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stories_fetch_fail_total",
			Help: "Search requests that failed for any reason.",
		}),
		fetchCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stories_fetch_canceled_total",
			Help: "Search requests cancelled before completing, usually superseded by a newer query.",
		}),
		staleDiscards: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stories_fetch_stale_discarded_total",
			Help: "Search outcomes dropped because a newer query was committed.",
		}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stories_fetch_latency_seconds",
			Help:    "Search request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		itemsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stories_items_fetched_total",
			Help: "Stories received from successful searches.",
		}),
		itemsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stories_items_removed_total",
			Help: "Stories dismissed by the user.",
		}),
	}

	reg.MustRegister(
		c.fetchStarted,
		c.fetchSuccess,
		c.fetchFail,
		c.fetchCanceled,
		c.staleDiscards,
		c.fetchLatency,
		c.itemsFetched,
		c.itemsRemoved,
	)

	return c
}

// FetchStarted counts an issued request.
func (c *Collector) FetchStarted() {
	c.fetchStarted.Inc()
}

// FetchSucceeded counts a successful request and its latency.
func (c *Collector) FetchSucceeded(items int, took time.Duration) {
	c.fetchSuccess.Inc()
	c.itemsFetched.Add(float64(items))
	c.fetchLatency.Observe(took.Seconds())
}

// FetchFailed counts a failed request and its latency.
func (c *Collector) FetchFailed(took time.Duration) {
	c.fetchFail.Inc()
	c.fetchLatency.Observe(took.Seconds())
}

// FetchCanceled counts a cancelled request. Its latency is not observed.
func (c *Collector) FetchCanceled(time.Duration) {
	c.fetchCanceled.Inc()
}

// StaleDiscarded counts an outcome dropped in favour of a newer query.
func (c *Collector) StaleDiscarded() {
	c.staleDiscards.Inc()
}

// ItemRemoved counts a dismissed story.
func (c *Collector) ItemRemoved() {
	c.itemsRemoved.Inc()
}

// Router returns the HTTP handler serving /metrics from gatherer.
func Router(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return r
}
