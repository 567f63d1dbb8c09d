package base

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/metrics"
)

// DefaultReportInterval is how often ProgressReporter logs while a stream is read.
const DefaultReportInterval = 10 * time.Second

// ProgressReporter tracks and reports progress of a stream read.
//
// Reporting is driven by the caller: IncrementProcessed logs a progress line
// once the report interval has elapsed, so no background goroutine is needed
// and the read stays single-threaded.
type ProgressReporter struct {
	logger     *zap.Logger
	throughput *metrics.ThroughputTracker
	stream     string

	totalRecords     int64
	processedRecords int64
	startTime        time.Time
	lastReportTime   time.Time
	reportInterval   time.Duration
	now              func() time.Time
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(logger *zap.Logger, collector *metrics.Collector, stream string) *ProgressReporter {
	now := time.Now()
	return &ProgressReporter{
		logger:         logger,
		throughput:     metrics.NewThroughputTracker(collector.Name(), stream),
		stream:         stream,
		startTime:      now,
		lastReportTime: now,
		reportInterval: DefaultReportInterval,
		now:            time.Now,
	}
}

// SetReportInterval changes how often progress is logged.
func (pr *ProgressReporter) SetReportInterval(d time.Duration) {
	pr.reportInterval = d
}

// SetTotal sets the total number of records to process
func (pr *ProgressReporter) SetTotal(total int64) {
	atomic.StoreInt64(&pr.totalRecords, total)
}

// IncrementProcessed adds count processed records and logs progress when the
// report interval has elapsed.
func (pr *ProgressReporter) IncrementProcessed(count int64) {
	atomic.AddInt64(&pr.processedRecords, count)
	pr.throughput.Increment(count)

	if pr.now().Sub(pr.lastReportTime) >= pr.reportInterval {
		pr.reportCurrentProgress()
	}
}

// GetProgress returns current progress
func (pr *ProgressReporter) GetProgress() (processed, total int64) {
	return atomic.LoadInt64(&pr.processedRecords), atomic.LoadInt64(&pr.totalRecords)
}

// GetElapsedTime returns time since start
func (pr *ProgressReporter) GetElapsedTime() time.Duration {
	return pr.now().Sub(pr.startTime)
}

// GetETA estimates time remaining
func (pr *ProgressReporter) GetETA() time.Duration {
	processed, total := pr.GetProgress()
	if processed == 0 || total == 0 || processed >= total {
		return 0
	}

	elapsed := pr.GetElapsedTime()
	rate := float64(processed) / elapsed.Seconds()
	if rate == 0 {
		return 0
	}

	remaining := total - processed
	return time.Duration(float64(remaining) / rate * float64(time.Second))
}

// GetAverageThroughput returns records per second since start
func (pr *ProgressReporter) GetAverageThroughput() float64 {
	elapsed := pr.GetElapsedTime().Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(atomic.LoadInt64(&pr.processedRecords)) / elapsed
}

func (pr *ProgressReporter) reportCurrentProgress() {
	processed, total := pr.GetProgress()

	fields := []zap.Field{
		zap.Int64("processed", processed),
		zap.Float64("throughput", pr.GetAverageThroughput()),
		zap.Duration("elapsed", pr.GetElapsedTime()),
	}
	if total > 0 {
		fields = append(fields,
			zap.Int64("total", total),
			zap.Float64("percentage", float64(processed)/float64(total)*100),
			zap.Duration("eta", pr.GetETA()),
		)
	}

	pr.logger.Info("progress update", fields...)
	pr.lastReportTime = pr.now()
}

// Finish logs the final summary and publishes the stream throughput.
func (pr *ProgressReporter) Finish() {
	processed, _ := pr.GetProgress()
	throughput := pr.throughput.GetAndReset()

	pr.logger.Info("stream completed",
		zap.Int64("records", processed),
		zap.Duration("duration", pr.GetElapsedTime()),
		zap.Float64("throughput", throughput))
}
