// Package nebula is a source connector that extracts documents from
// Elasticsearch 7.x and OpenSearch clusters and emits them as line-delimited
// protocol messages, ready to run under any orchestrator that speaks the
// Airbyte protocol.
//
// # Architecture
//
// Every index is a stream. The connector offers three operations:
//
// 1. Check: builds a client from the connection configuration and pings the
// cluster. The outcome is always a CONNECTION_STATUS message.
//
// 2. Discover: lists every index except the system indices, fetches each
// mapping and translates it into a flat JSON schema. Object fields are
// skipped; a field type without a JSON equivalent aborts discovery.
//
// 3. Read: scrolls through every document of each configured index with a
// match_all query and emits its _source as a RECORD message. Reads are always
// full refresh.
//
// # Quick Start
//
//	import (
//	    "context"
//	    "os"
//
//	    "github.com/ajitpratap0/nebula-source-elasticsearch/internal/pipeline"
//	    "github.com/ajitpratap0/nebula-source-elasticsearch/pkg/config"
//	    "github.com/ajitpratap0/nebula-source-elasticsearch/pkg/connector/registry"
//	    "github.com/ajitpratap0/nebula-source-elasticsearch/pkg/protocol"
//	    _ "github.com/ajitpratap0/nebula-source-elasticsearch/pkg/connector/sources/elasticsearch"
//	)
//
//	cfg, _ := config.LoadSourceConfig("config.json")
//	catalog, _ := protocol.ReadConfiguredCatalog("configured_catalog.json")
//
//	source, _ := registry.CreateSource("elasticsearch")
//	runner := pipeline.NewRunner(source, protocol.NewWriter(os.Stdout), nil, nil)
//	stats, err := runner.Read(context.Background(), cfg, catalog, nil)
//
// # Key Packages
//
//	pkg/connector    - Connector framework and the elasticsearch source
//	pkg/protocol     - Message envelopes, catalogs and the line writer
//	pkg/config       - Connection configuration and process settings
//	pkg/nebulaerrors - Structured error handling
//	pkg/logger       - Structured logging, optionally as LOG messages
//	pkg/metrics      - Prometheus metrics with textfile export
//	pkg/observability - OpenTelemetry tracing
//	internal/pipeline - Command runner writing protocol output
//
// # Command Line
//
//	source-elasticsearch spec
//	source-elasticsearch check --config config.json
//	source-elasticsearch discover --config config.json
//	source-elasticsearch read --config config.json --catalog configured_catalog.json
//
// Process settings come from flags or NEBULA_* environment variables, for
// example NEBULA_LOG_LEVEL=debug or NEBULA_METRICS_FILE=/tmp/source.prom.
package nebula
