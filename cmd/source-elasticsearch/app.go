package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/nebula-source-elasticsearch/internal/pipeline"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/config"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/connector/core"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/connector/registry"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/logger"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/metrics"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/observability"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/protocol"
)

// app holds the process-wide wiring shared by the connector commands.
type app struct {
	stdout io.Writer
	stderr io.Writer
	viper  *viper.Viper

	settings *config.Settings
	writer   *protocol.Writer
	source   core.Source
	runner   *pipeline.Runner
	log      *zap.Logger

	shutdownTracing observability.ShutdownFunc
}

// start loads settings and wires logging, tracing and the source.
func (a *app) start() error {
	settings, err := config.LoadSettings(a.viper)
	if err != nil {
		return err
	}
	a.settings = settings
	a.writer = protocol.NewWriter(a.stdout)

	if err := logger.Init(logger.Config{
		Level:    settings.LogLevel,
		Encoding: settings.LogEncoding,
		Protocol: a.writer,
	}); err != nil {
		return err
	}
	a.log = logger.With(zap.String("component", "cli"))

	shutdown, err := observability.InitTracing(observability.TracingConfig{
		Enabled:        settings.Trace,
		ServiceName:    "source-" + settings.Source,
		ServiceVersion: version,
		Writer:         a.stderr,
	})
	if err != nil {
		return err
	}
	a.shutdownTracing = shutdown

	source, err := registry.CreateSource(settings.Source)
	if err != nil {
		return err
	}
	a.source = source
	a.runner = pipeline.NewRunner(source, a.writer, &pipeline.RunnerConfig{
		RequestTimeout: settings.RequestTimeout,
	}, logger.Get())

	a.log.Debug("connector ready",
		zap.String("source", source.Name()),
		zap.String("version", source.Version()))
	return nil
}

// stop flushes every sink. It is safe to call after a failed start.
func (a *app) stop(ctx context.Context) {
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(context.WithoutCancel(ctx)); err != nil && a.log != nil {
			a.log.Warn("failed to flush traces", zap.Error(err))
		}
	}
	if a.settings != nil && a.settings.MetricsFile != "" {
		if err := metrics.WriteTextfile(a.settings.MetricsFile); err != nil && a.log != nil {
			a.log.Warn("failed to write metrics", zap.String("path", a.settings.MetricsFile), zap.Error(err))
		}
	}
	if a.writer != nil {
		_ = a.writer.Flush()
	}
	_ = logger.Sync()
}

// run wraps a connector command with start and stop. A command error is
// also logged so it reaches the orchestrator as a LOG message.
func (a *app) run(ctx context.Context, command string, fn func(ctx context.Context) error) error {
	defer a.stop(ctx)

	if err := a.start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", command, err)
	}
	if err := fn(ctx); err != nil {
		a.log.Error(command+" failed", zap.Error(err))
		return err
	}
	return nil
}

// loadConfig reads the connection configuration without validating its
// values: the source reports an invalid configuration itself.
func loadConfig(path string) (*config.SourceConfig, error) {
	return config.ReadSourceConfig(path)
}
