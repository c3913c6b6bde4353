package lights

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	commandsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xmas",
			Subsystem: "board",
			Name:      "commands_sent_total",
			Help:      "Board states sent to the command pipe.",
		},
		[]string{"success"},
	)
	enablesRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "xmas",
			Subsystem: "board",
			Name:      "enables_rejected_total",
			Help:      "Lights not lit because they were lit too recently.",
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xmas",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "xmas",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(commandsSent, enablesRejected, httpRequests, httpDuration)
	})
}

func recordSent(err error) {
	RegisterMetrics()
	commandsSent.WithLabelValues(strconv.FormatBool(err == nil)).Inc()
}

func recordRejected() {
	RegisterMetrics()
	enablesRejected.Inc()
}

func recordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}
