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
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 业务指标
	PurchasesCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "learnhire_purchases_completed_total",
		Help: "Purchases transitioned to completed",
	})

	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnhire_webhook_events_total",
			Help: "Inbound provider webhook events by source, type and outcome",
		},
		[]string{"source", "type", "outcome"},
	)

	LecturesCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "learnhire_lectures_completed_total",
		Help: "Newly recorded lecture completions",
	})

	CertificatesIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "learnhire_certificates_issued_total",
		Help: "Certificate data documents issued",
	})

	ApplicationsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "learnhire_applications_submitted_total",
		Help: "Job applications submitted",
	})

	JobsImported = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "learnhire_jobs_imported_total",
		Help: "Jobs inserted from the external feed",
	})

	ChatCompletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnhire_chat_completions_total",
			Help: "Chat completion calls by outcome",
		},
		[]string{"outcome"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			PurchasesCompleted,
			WebhookEvents,
			LecturesCompleted,
			CertificatesIssued,
			ApplicationsSubmitted,
			JobsImported,
			ChatCompletions,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
