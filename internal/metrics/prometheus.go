package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ItemsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brain_items_ingested_total",
			Help: "Total raw items accepted into the learning queue",
		},
		[]string{"source_type"},
	)

	IngestConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "brain_ingest_conflicts_total",
			Help: "Total ingest attempts rejected as exact duplicates",
		},
	)

	ItemsClassified = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brain_items_classified_total",
			Help: "Total queue items processed by the classifier",
		},
		[]string{"content_type", "result"},
	)

	QueueBacklog = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "brain_queue_backlog",
			Help: "Unprocessed items remaining in the learning queue",
		},
	)

	SearchQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brain_search_queries_total",
			Help: "Total knowledge search queries",
		},
		[]string{"cache"},
	)

	HealthStatus = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "brain_health_status",
			Help: "Last overall health status (0 healthy, 1 degraded, 2 unhealthy)",
		},
	)

	HealingActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brain_healing_actions_total",
			Help: "Total self-healing actions by result",
		},
		[]string{"result"},
	)

	ScrapedItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brain_scraped_items_total",
			Help: "Total items emitted into the queue by connectors",
		},
		[]string{"source"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "brain_request_duration_seconds",
			Help:    "Pipeline endpoint duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 120},
		},
		[]string{"endpoint"},
	)
)

func Init() {
	prometheus.MustRegister(ItemsIngested)
	prometheus.MustRegister(IngestConflicts)
	prometheus.MustRegister(ItemsClassified)
	prometheus.MustRegister(QueueBacklog)
	prometheus.MustRegister(SearchQueries)
	prometheus.MustRegister(HealthStatus)
	prometheus.MustRegister(HealingActions)
	prometheus.MustRegister(ScrapedItems)
	prometheus.MustRegister(RequestDuration)
}

func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
