package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slipmux",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "slipmux",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	framesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slipmux",
			Subsystem: "link",
			Name:      "frames_sent_total",
			Help:      "Frames handed to a transport.",
		},
		[]string{"peer"},
	)
	bytesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slipmux",
			Subsystem: "link",
			Name:      "bytes_sent_total",
			Help:      "Encoded bytes handed to a transport.",
		},
		[]string{"peer"},
	)
	sendErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slipmux",
			Subsystem: "link",
			Name:      "send_errors_total",
			Help:      "Transport send failures.",
		},
		[]string{"peer"},
	)
	framesDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slipmux",
			Subsystem: "link",
			Name:      "frames_delivered_total",
			Help:      "Decoded datagrams delivered to the link handler.",
		},
		[]string{"peer"},
	)
	emptyFrames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slipmux",
			Subsystem: "link",
			Name:      "empty_frames_total",
			Help:      "Empty segments between consecutive END bytes.",
		},
		[]string{"peer"},
	)
	deliveryFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slipmux",
			Subsystem: "link",
			Name:      "delivery_failures_total",
			Help:      "Handler errors or panics while delivering a datagram.",
		},
		[]string{"peer"},
	)
	muxDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "slipmux",
			Subsystem: "mux",
			Name:      "dropped_total",
			Help:      "Datagrams dropped because no upward receiver was registered.",
		},
	)
	muxUnroutable = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "slipmux",
			Subsystem: "mux",
			Name:      "unroutable_total",
			Help:      "Sends addressed to an unconfigured next hop.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			framesSent, bytesSent, sendErrors,
			framesDelivered, emptyFrames, deliveryFailures,
			muxDropped, muxUnroutable,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordFrameSent(peer string, n int, err error) {
	RegisterMetrics()
	if err != nil {
		sendErrors.WithLabelValues(peer).Inc()
		return
	}
	framesSent.WithLabelValues(peer).Inc()
	bytesSent.WithLabelValues(peer).Add(float64(n))
}

func RecordFramesReceived(peer string, delivered, empty int) {
	RegisterMetrics()
	if delivered > 0 {
		framesDelivered.WithLabelValues(peer).Add(float64(delivered))
	}
	if empty > 0 {
		emptyFrames.WithLabelValues(peer).Add(float64(empty))
	}
}

func RecordDeliveryFailure(peer string) {
	RegisterMetrics()
	deliveryFailures.WithLabelValues(peer).Inc()
}

func RecordDropped() {
	RegisterMetrics()
	muxDropped.Inc()
}

func RecordUnroutable() {
	RegisterMetrics()
	muxUnroutable.Inc()
}
