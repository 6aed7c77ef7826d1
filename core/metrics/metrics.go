// Package metrics holds the Prometheus collectors shared by the bot core and
// the catalog services. Collectors are registered on a private registry so
// that tests and embedding applications do not collide with the global one.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()
	initOnce sync.Once

	HandlerTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_handlers_total",
			Help: "Count of handled updates by handler and status",
		},
		[]string{"handler", "status"},
	)
	HandlerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_handler_duration_seconds",
			Help:    "Time taken to process one update",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"handler"},
	)
	MessagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_messages_sent_total",
			Help: "Count of sent messages",
		},
		[]string{"type"}, // text, photo, document
	)
	SendFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_send_failures_total",
			Help: "Count of outbound Telegram calls that failed after retries",
		},
		[]string{"kind"},
	)
	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_rate_limited_total",
			Help: "Count of updates dropped by the rate limiter",
		},
	)
	DialogueSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_dialogue_steps_total",
			Help: "Count of film dialogue replies by state and outcome",
		},
		[]string{"state", "outcome"},
	)
	FilmsAdded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_films_added_total",
			Help: "Count of films committed to the catalog",
		},
	)
	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_sessions_active",
			Help: "Current number of dialogue sessions",
		},
	)
	SessionsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_sessions_expired_total",
			Help: "Count of abandoned sessions removed by the janitor",
		},
	)
)

// Init registers all collectors. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			HandlerTotal,
			HandlerDuration,
			MessagesSent,
			SendFailures,
			RateLimited,
			DialogueSteps,
			FilmsAdded,
			SessionsActive,
			SessionsExpired,
		)
	})
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	Init()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
