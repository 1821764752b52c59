package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mechlink",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mechlink",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mechlink",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Search metrics
	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mechlink",
		Subsystem: "search",
		Name:      "requests_total",
		Help:      "Total workshop searches by outcome",
	}, []string{"outcome"})

	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "mechlink",
		Subsystem: "search",
		Name:      "duration_seconds",
		Help:      "End-to-end workshop search latency",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	SearchCandidates = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mechlink",
		Subsystem: "search",
		Name:      "candidates",
		Help:      "Workshops remaining after each search stage",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
	}, []string{"stage"})

	GeocodeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mechlink",
		Subsystem: "geocode",
		Name:      "requests_total",
		Help:      "Geocoding provider calls by operation and outcome",
	}, []string{"operation", "outcome"})

	BackfillProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mechlink",
		Subsystem: "backfill",
		Name:      "workshops_total",
		Help:      "Workshops processed by the coordinate backfill",
	}, []string{"outcome"})

	WorkshopUpdatesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mechlink",
		Subsystem: "events",
		Name:      "workshop_updates_received_total",
		Help:      "Workshop update events consumed from the broker",
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mechlink",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mechlink",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mechlink",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mechlink",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mechlink",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "mechlink",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})

	DBPoolEmptyAcquires = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mechlink",
		Subsystem: "db",
		Name:      "pool_empty_acquires_total",
		Help:      "Total times a connection had to be established when acquiring from pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// PoolStat is the subset of pgxpool.Stat exported as gauges.
type PoolStat interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
	EmptyAcquireCount() int64
}

var lastEmptyAcquires int64

// UpdateDBPoolMetrics copies pool statistics into the db gauges.
func UpdateDBPoolMetrics(s PoolStat) {
	DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
	DBPoolConnsIdle.Set(float64(s.IdleConns()))
	DBPoolConnsOpen.Set(float64(s.TotalConns()))

	if n := s.EmptyAcquireCount(); n > lastEmptyAcquires {
		DBPoolEmptyAcquires.Add(float64(n - lastEmptyAcquires))
		lastEmptyAcquires = n
	}
}
