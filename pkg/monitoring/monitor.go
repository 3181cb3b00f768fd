package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	CheckinCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkins_total",
			Help: "Check-ins by gate outcome",
		},
		[]string{"outcome"},
	)

	TransitionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "student_status_transitions_total",
			Help: "Student status transitions",
		},
		[]string{"from", "to"},
	)

	DispatchCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_dispatch_total",
			Help: "Reviewer notification dispatch results",
		},
		[]string{"event", "result"},
	)

	DispatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notification_dispatch_duration_seconds",
			Help:    "Duration of reviewer notification dispatch",
			Buckets: prometheus.DefBuckets,
		},
	)
)

var registerOnce sync.Once

// Init 注册监控指标
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(CheckinCounter)
		prometheus.MustRegister(TransitionCounter)
		prometheus.MustRegister(DispatchCounter)
		prometheus.MustRegister(DispatchDuration)
	})
}

// MetricsMiddleware 记录HTTP请求指标
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

// PrometheusHandler 暴露 /metrics
func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
