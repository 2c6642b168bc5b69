package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breadshare_local_http_requests_total",
			Help: "Total number of requests served on the local surface.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "breadshare_local_http_request_duration_seconds",
			Help:    "Local surface request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	backendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breadshare_backend_requests_total",
			Help: "Total number of outbound backend HTTP calls.",
		},
		[]string{"method", "path", "outcome"},
	)
	cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breadshare_cache_lookups_total",
			Help: "Response cache lookups by outcome.",
		},
		[]string{"outcome"},
	)
	wsConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "breadshare_ws_connected",
			Help: "Whether the realtime connection is currently established.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breadshare_ws_events_total",
			Help: "Total number of realtime events by name and direction.",
		},
		[]string{"event", "direction"},
	)
	wsReconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "breadshare_ws_reconnects_total",
			Help: "Total number of reconnect attempts.",
		},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "breadshare_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		backendRequestsTotal,
		cacheLookupsTotal,
		wsConnected,
		wsEventsTotal,
		wsReconnectsTotal,
		amqpPublishErrorsTotal,
	)
}

// HTTPMetricsMiddleware records request counts and latencies for the local
// surface.
func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncBackendRequest(method, path, outcome string) {
	backendRequestsTotal.WithLabelValues(method, path, outcome).Inc()
}

func IncCacheHit() {
	cacheLookupsTotal.WithLabelValues("hit").Inc()
}

func IncCacheMiss() {
	cacheLookupsTotal.WithLabelValues("miss").Inc()
}

func SetWSConnected(connected bool) {
	if connected {
		wsConnected.Set(1)
		return
	}
	wsConnected.Set(0)
}

func IncWSEvent(event, direction string) {
	wsEventsTotal.WithLabelValues(event, direction).Inc()
}

func IncWSReconnect() {
	wsReconnectsTotal.Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
