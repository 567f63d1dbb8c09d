// Package base provides the BaseConnector that connectors embed. It carries
// the connector identity and the observability plumbing shared by every
// operation: a named logger, a metrics collector and a tracer.
//
// # Usage
//
//	type MySource struct {
//	    *base.BaseConnector
//	}
//
//	func NewMySource() *MySource {
//	    return &MySource{
//	        BaseConnector: base.NewBaseConnector("my-source", core.ConnectorTypeSource, "1.0.0"),
//	    }
//	}
//
//	func (s *MySource) Discover(ctx context.Context, cfg *config.SourceConfig) (*protocol.Catalog, error) {
//	    var catalog *protocol.Catalog
//	    err := s.Observe(ctx, "discover", func(ctx context.Context) error {
//	        var err error
//	        catalog, err = s.discover(ctx, cfg)
//	        return err
//	    })
//	    return catalog, err
//	}
package base

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/connector/core"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/logger"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/metrics"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/nebulaerrors"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/observability"
)

// BaseConnector provides common functionality for all connectors.
type BaseConnector struct {
	name          string
	connectorType core.ConnectorType
	version       string
	logger        *zap.Logger

	metricsCollector *metrics.Collector
	tracer           *observability.ConnectorTracer
}

// NewBaseConnector creates a new base connector with the specified name, type, and version.
func NewBaseConnector(name string, connectorType core.ConnectorType, version string) *BaseConnector {
	return &BaseConnector{
		name:             name,
		connectorType:    connectorType,
		version:          version,
		logger:           logger.Get().With(zap.String("connector", name)),
		metricsCollector: metrics.NewCollector(name),
		tracer:           observability.NewConnectorTracer(string(connectorType), name),
	}
}

// Name returns the connector name
func (bc *BaseConnector) Name() string {
	return bc.name
}

// Type returns the connector type
func (bc *BaseConnector) Type() core.ConnectorType {
	return bc.connectorType
}

// Version returns the connector version
func (bc *BaseConnector) Version() string {
	return bc.version
}

// GetLogger returns the connector logger
func (bc *BaseConnector) GetLogger() *zap.Logger {
	return bc.logger
}

// SetLogger replaces the connector logger. The connector name field is added.
func (bc *BaseConnector) SetLogger(l *zap.Logger) {
	bc.logger = l.With(zap.String("connector", bc.name))
}

// GetMetricsCollector returns the metrics collector
func (bc *BaseConnector) GetMetricsCollector() *metrics.Collector {
	return bc.metricsCollector
}

// GetTracer returns the connector tracer
func (bc *BaseConnector) GetTracer() *observability.ConnectorTracer {
	return bc.tracer
}

// SetTracer replaces the connector tracer.
func (bc *BaseConnector) SetTracer(t *observability.ConnectorTracer) {
	bc.tracer = t
}

// Observe runs fn as the named operation: inside a span, timed into the
// operation histogram, with failures counted and logged.
func (bc *BaseConnector) Observe(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, finish := bc.StartOperation(ctx, operation)
	err := fn(ctx)
	finish(err)
	return err
}

// StartOperation begins the named operation and returns the function that
// ends it. It is the split form of Observe for operations that outlive the
// call that starts them, such as a lazily consumed read.
func (bc *BaseConnector) StartOperation(ctx context.Context, operation string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := bc.tracer.StartSpan(ctx, operation)

	return ctx, func(err error) {
		duration := time.Since(start)
		observability.SetSpanStatus(span, err)
		span.End()

		bc.metricsCollector.ObserveOperation(operation, duration, err)

		if err != nil {
			bc.logger.Error("operation failed",
				zap.String("operation", operation),
				zap.String("error_type", string(nebulaerrors.TypeOf(err))),
				zap.Duration("duration", duration),
				zap.Error(err))
			return
		}
		bc.logger.Debug("operation completed",
			zap.String("operation", operation),
			zap.Duration("duration", duration))
	}
}

// NewProgressReporter returns a progress reporter for one stream, logging
// through the connector logger.
func (bc *BaseConnector) NewProgressReporter(stream string) *ProgressReporter {
	return NewProgressReporter(bc.logger.With(zap.String("stream", stream)), bc.metricsCollector, stream)
}
