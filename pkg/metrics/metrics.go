// Package metrics provides Prometheus metrics for the connector.
//
// A connector run is a short-lived process, so metrics are not served over
// HTTP. They are collected in a dedicated registry and, when requested,
// written once to a node-exporter textfile on exit.
//
// # Basic Usage
//
//	collector := metrics.NewCollector("elasticsearch")
//	collector.RecordPage("orders")
//	collector.RecordRecords("orders", len(hits))
//
//	timer := metrics.NewTimer("discover")
//	catalog, err := discover(ctx)
//	collector.ObserveOperation("discover", timer.Stop(), err)
//
//	_ = metrics.WriteTextfile("/var/lib/node_exporter/es.prom")
package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/nebulaerrors"
)

// Registry holds every metric the connector exports.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// RecordsEmitted counts records emitted per stream.
	//
	// Example:
	//	metrics.RecordsEmitted.WithLabelValues("elasticsearch", "orders").Add(500)
	RecordsEmitted = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nebula",
			Subsystem: "source",
			Name:      "records_emitted_total",
			Help:      "Total number of records emitted",
		},
		[]string{"connector", "stream"},
	)

	// PagesFetched counts scroll pages fetched per stream, including the
	// final empty page.
	PagesFetched = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nebula",
			Subsystem: "source",
			Name:      "pages_fetched_total",
			Help:      "Total number of scroll pages fetched",
		},
		[]string{"connector", "stream"},
	)

	// OperationDuration tracks check, discover and read durations in seconds.
	OperationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nebula",
			Subsystem: "source",
			Name:      "operation_duration_seconds",
			Help:      "Duration of connector operations in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		},
		[]string{"connector", "operation", "status"},
	)

	// Errors counts failed operations by error category.
	Errors = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nebula",
			Subsystem: "source",
			Name:      "errors_total",
			Help:      "Total number of connector errors",
		},
		[]string{"connector", "operation", "error_type"},
	)

	// Throughput is the records per second of the last completed read of a stream.
	Throughput = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "nebula",
			Subsystem: "source",
			Name:      "throughput_records_per_second",
			Help:      "Records per second of the last read",
		},
		[]string{"connector", "stream"},
	)
)

// Collector records metrics on behalf of one connector. Each connector
// instance creates its own collector.
type Collector struct {
	name      string
	startTime time.Time
}

// NewCollector creates a collector labelled with the connector name.
func NewCollector(name string) *Collector {
	return &Collector{
		name:      name,
		startTime: time.Now(),
	}
}

// Name returns the connector label.
func (c *Collector) Name() string {
	return c.name
}

// StartTime returns when the collector was created
func (c *Collector) StartTime() time.Time {
	return c.startTime
}

// RecordRecords adds n emitted records for stream.
func (c *Collector) RecordRecords(stream string, n int) {
	if n <= 0 {
		return
	}
	RecordsEmitted.WithLabelValues(c.name, stream).Add(float64(n))
}

// RecordPage counts one fetched scroll page for stream.
func (c *Collector) RecordPage(stream string) {
	PagesFetched.WithLabelValues(c.name, stream).Inc()
}

// ObserveOperation records the duration and outcome of an operation. A non-nil
// err also increments the error counter under its category.
func (c *Collector) ObserveOperation(operation string, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
		Errors.WithLabelValues(c.name, operation, string(nebulaerrors.TypeOf(err))).Inc()
	}
	OperationDuration.WithLabelValues(c.name, operation, status).Observe(d.Seconds())
}

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the timer's name.
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. It can be called more
// than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ThroughputTracker tracks records per second for one stream.
// Thread-safe for concurrent use.
type ThroughputTracker struct {
	mu        sync.Mutex
	count     int64
	lastReset time.Time
	connector string
	stream    string
}

// NewThroughputTracker creates a tracker for a stream of a connector.
func NewThroughputTracker(connector, stream string) *ThroughputTracker {
	return &ThroughputTracker{
		lastReset: time.Now(),
		connector: connector,
		stream:    stream,
	}
}

// Increment adds n to the record count.
func (t *ThroughputTracker) Increment(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count += n
}

// GetAndReset computes records per second since the last reset, publishes it
// to the Throughput gauge and starts a new window.
func (t *ThroughputTracker) GetAndReset() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.lastReset).Seconds()
	if elapsed == 0 {
		return 0
	}

	throughput := float64(t.count) / elapsed

	t.count = 0
	t.lastReset = time.Now()

	Throughput.WithLabelValues(t.connector, t.stream).Set(throughput)

	return throughput
}

// WriteTextfile writes every registered metric to path in the Prometheus text
// format. The write is atomic.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
