// Package elasticsearch implements a source connector for Elasticsearch 7.x
// and OpenSearch.
//
// Each index is a stream. Discover maps index mappings to flat JSON schemas;
// Read scrolls through every document of the configured streams with a
// match_all query and emits each _source as a record. Reads are always full
// refresh.
package elasticsearch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/config"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/connector/base"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/connector/core"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/nebulaerrors"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/protocol"
)

const (
	// ConnectorName is the registry name of the source.
	ConnectorName = "elasticsearch"
	// Version of the connector.
	Version = "0.2.0"
)

// ElasticsearchSource is the search-engine source connector.
type ElasticsearchSource struct {
	*base.BaseConnector

	newClient ClientFactory
	now       func() time.Time
}

// Option configures an ElasticsearchSource.
type Option func(*ElasticsearchSource)

// WithClientFactory replaces the engine client constructor.
func WithClientFactory(f ClientFactory) Option {
	return func(s *ElasticsearchSource) {
		s.newClient = f
	}
}

// WithClock replaces the clock used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *ElasticsearchSource) {
		s.now = now
	}
}

// New creates an ElasticsearchSource.
func New(opts ...Option) *ElasticsearchSource {
	s := &ElasticsearchSource{
		BaseConnector: base.NewBaseConnector(ConnectorName, core.ConnectorTypeSource, Version),
		newClient:     NewClient,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewElasticsearchSource is the registry factory.
func NewElasticsearchSource() (core.Source, error) {
	return New(), nil
}

// Spec returns the connection specification.
func (s *ElasticsearchSource) Spec() *protocol.ConnectorSpecification {
	return Specification()
}

// Check pings the engine. Every failure, including an invalid configuration,
// is reported as a FAILED status with a message.
func (s *ElasticsearchSource) Check(ctx context.Context, cfg *config.SourceConfig) (status *protocol.ConnectionStatus) {
	defer func() {
		if r := recover(); r != nil {
			s.GetLogger().Error("check panicked", zap.Any("panic", r))
			status = protocol.Failed(fmt.Sprintf("Connection failed: %v", r))
		}
	}()

	err := s.Observe(ctx, "check", func(ctx context.Context) error {
		client, err := s.connect(cfg)
		if err != nil {
			return err
		}
		s.GetLogger().Info("pinging engine")
		return client.Ping(ctx)
	})
	if err != nil {
		return protocol.Failed("Connection failed: " + err.Error())
	}
	return protocol.Succeeded()
}

// Discover lists every non-system index with its schema. An unsupported field
// type aborts discovery with an error wrapping *UnsupportedDataTypeError.
func (s *ElasticsearchSource) Discover(ctx context.Context, cfg *config.SourceConfig) (*protocol.Catalog, error) {
	var catalog *protocol.Catalog
	err := s.Observe(ctx, "discover", func(ctx context.Context) error {
		client, err := s.connect(cfg)
		if err != nil {
			return err
		}
		catalog, err = s.discover(ctx, client)
		return err
	})
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

// Read returns the documents of every configured stream, one stream after
// another in catalog order. State is accepted and ignored: every read is a
// full refresh.
func (s *ElasticsearchSource) Read(ctx context.Context, cfg *config.SourceConfig, catalog *protocol.ConfiguredCatalog, state core.State) (core.RecordSeq, error) {
	client, err := s.connect(cfg)
	if err != nil {
		return nil, err
	}
	if len(state) > 0 {
		s.GetLogger().Debug("ignoring state, only full refresh is supported")
	}

	var streams []protocol.ConfiguredStream
	if catalog != nil {
		streams = catalog.Streams
	}
	pageSize := cfg.PageSize

	return func(yield func(*protocol.RecordMessage, error) bool) {
		ctx, finish := s.StartOperation(ctx, "read")
		var readErr error
		defer func() { finish(readErr) }()

		for _, configured := range streams {
			if configured.SyncMode == protocol.SyncModeIncremental {
				s.GetLogger().Warn("incremental sync is not supported, reading full refresh",
					zap.String("stream", configured.Stream.Name))
			}
			for record, err := range s.scrollIndex(ctx, client, configured.Stream.Name, pageSize) {
				if err != nil {
					readErr = err
					yield(nil, err)
					return
				}
				if !yield(record, nil) {
					return
				}
			}
		}
	}, nil
}

// connect validates cfg and builds a client for it. cfg is not modified.
func (s *ElasticsearchSource) connect(cfg *config.SourceConfig) (Client, error) {
	if cfg == nil {
		return nil, nebulaerrors.New(nebulaerrors.ErrorTypeConfig, "configuration is missing")
	}
	normalized := *cfg
	normalized.Normalize()
	if err := normalized.Validate(); err != nil {
		return nil, err
	}

	s.GetLogger().Info("creating client", zap.String("host", normalized.Host))
	client, err := s.newClient(&normalized)
	if err != nil {
		return nil, nebulaerrors.Wrap(err, nebulaerrors.TypeOf(err), "failed to create client")
	}
	return client, nil
}
