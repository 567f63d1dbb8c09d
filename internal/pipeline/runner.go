// Package pipeline executes connector commands against a source and writes
// the results as protocol messages.
//
// # Overview
//
// A Runner owns the protocol writer for one process. Each command maps to a
// single source operation:
//   - spec: the connection specification
//   - check: one CONNECTION_STATUS message, always, even on failure
//   - discover: one CATALOG message
//   - read: one RECORD message per document, streamed as they arrive
//
// # Basic Usage
//
//	runner := pipeline.NewRunner(source, protocol.NewWriter(os.Stdout), nil, logger)
//	stats, err := runner.Read(ctx, cfg, catalog, state)
package pipeline

import (
	"bytes"
	"context"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/config"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/connector/core"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/nebulaerrors"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/protocol"
)

// Runner executes connector commands and writes their protocol output.
type Runner struct {
	source core.Source      // Connector being run
	writer *protocol.Writer // Protocol output
	logger *zap.Logger      // Structured logger

	requestTimeout time.Duration // Bound for check and discover
}

// RunnerConfig contains runner configuration parameters.
type RunnerConfig struct {
	// RequestTimeout bounds check and discover. Zero means no bound. Reads
	// are never bounded: a full scroll can take arbitrarily long.
	RequestTimeout time.Duration
}

// DefaultRunnerConfig returns the default runner configuration.
func DefaultRunnerConfig() *RunnerConfig {
	return &RunnerConfig{
		RequestTimeout: 30 * time.Second,
	}
}

// ReadStats summarizes a completed or aborted read.
type ReadStats struct {
	Records   int64            // Records written
	PerStream map[string]int64 // Records written per stream
	Duration  time.Duration    // Wall time of the read
}

// Throughput returns records per second.
func (s *ReadStats) Throughput() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Records) / s.Duration.Seconds()
}

// NewRunner creates a runner for source writing to writer.
func NewRunner(source core.Source, writer *protocol.Writer, cfg *RunnerConfig, logger *zap.Logger) *Runner {
	if cfg == nil {
		cfg = DefaultRunnerConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		source:         source,
		writer:         writer,
		logger:         logger.With(zap.String("connector", source.Name())),
		requestTimeout: cfg.RequestTimeout,
	}
}

// Spec writes the connector specification.
func (r *Runner) Spec(_ context.Context) error {
	return r.emit(protocol.NewSpecMessage(r.source.Spec()))
}

// Check writes the connection status. Only a failure to write is returned:
// a failed check is a successful command.
func (r *Runner) Check(ctx context.Context, cfg *config.SourceConfig) (*protocol.ConnectionStatus, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	status := r.source.Check(ctx, cfg)
	if status == nil {
		status = protocol.Failed("Connection failed: no status returned")
	}
	if status.Status == protocol.StatusFailed {
		r.logger.Warn("check failed", zap.String("message", status.Message))
	}
	return status, r.emit(protocol.NewConnectionStatusMessage(status))
}

// Discover writes the catalog.
func (r *Runner) Discover(ctx context.Context, cfg *config.SourceConfig) (*protocol.Catalog, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	catalog, err := r.source.Discover(ctx, cfg)
	if err != nil {
		return nil, err
	}
	r.logger.Info("discovered streams", zap.Int("streams", len(catalog.Streams)))
	return catalog, r.emit(protocol.NewCatalogMessage(catalog))
}

// Read streams every record of catalog to the writer. The returned stats are
// valid even when an error is returned and count what was written before it.
func (r *Runner) Read(ctx context.Context, cfg *config.SourceConfig, catalog *protocol.ConfiguredCatalog, rawState json.RawMessage) (*ReadStats, error) {
	stats := &ReadStats{PerStream: make(map[string]int64)}
	start := time.Now()
	defer func() { stats.Duration = time.Since(start) }()

	state, err := r.decodeState(rawState)
	if err != nil {
		return stats, err
	}

	r.logger.Info("starting read", zap.Strings("streams", catalog.StreamNames()))

	records, err := r.source.Read(ctx, cfg, catalog, state)
	if err != nil {
		return stats, err
	}

	for record, err := range records {
		if err != nil {
			r.logger.Error("read failed",
				zap.Int64("records", stats.Records),
				zap.Error(err))
			return stats, r.finish(err)
		}
		if err := ctx.Err(); err != nil {
			return stats, r.finish(nebulaerrors.Wrap(err, nebulaerrors.ErrorTypeTimeout, "read cancelled"))
		}
		if err := r.writer.Write(protocol.NewRecordMessage(record)); err != nil {
			return stats, nebulaerrors.Wrap(err, nebulaerrors.ErrorTypeInternal, "failed to write record")
		}
		stats.Records++
		stats.PerStream[record.Stream]++
	}

	if err := r.writer.Flush(); err != nil {
		return stats, nebulaerrors.Wrap(err, nebulaerrors.ErrorTypeInternal, "failed to flush output")
	}

	stats.Duration = time.Since(start)
	r.logger.Info("read completed",
		zap.Int64("records", stats.Records),
		zap.Duration("duration", stats.Duration),
		zap.Float64("records_per_sec", stats.Throughput()))
	return stats, nil
}

// bounded applies the request timeout, if any.
func (r *Runner) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.requestTimeout)
}

func (r *Runner) emit(msg *protocol.Message) error {
	if err := r.writer.Write(msg); err != nil {
		return nebulaerrors.Wrap(err, nebulaerrors.ErrorTypeInternal, "failed to write message")
	}
	if err := r.writer.Flush(); err != nil {
		return nebulaerrors.Wrap(err, nebulaerrors.ErrorTypeInternal, "failed to flush output")
	}
	return nil
}

// finish flushes the records written so far and returns cause.
func (r *Runner) finish(cause error) error {
	if err := r.writer.Flush(); err != nil {
		r.logger.Warn("failed to flush output", zap.Error(err))
	}
	return cause
}

// decodeState parses the optional state blob. Any valid JSON is accepted;
// only an object is handed to the source, since no source keeps state.
func (r *Runner) decodeState(raw json.RawMessage) (core.State, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, nebulaerrors.New(nebulaerrors.ErrorTypeConfig, "state is not valid JSON")
	}
	if raw[0] != '{' {
		r.logger.Debug("ignoring non-object state", zap.Int("bytes", len(raw)))
		return nil, nil
	}
	var state core.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, nebulaerrors.Wrap(err, nebulaerrors.ErrorTypeConfig, "failed to decode state")
	}
	return state, nil
}
