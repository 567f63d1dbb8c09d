// Package core defines the interfaces every connector implements.
package core

import (
	"context"
	"iter"

	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/config"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/protocol"
)

// ConnectorType represents the type of connector
type ConnectorType string

const (
	ConnectorTypeSource      ConnectorType = "source"
	ConnectorTypeDestination ConnectorType = "destination"
)

// State represents connector state passed back in on the next read
type State map[string]interface{}

// RecordSeq is a lazy, finite sequence of records. A non-nil error is the last
// element yielded.
type RecordSeq = iter.Seq2[*protocol.RecordMessage, error]

// Connector is the identity shared by all connectors.
type Connector interface {
	Name() string
	Type() ConnectorType
	Version() string
}

// Source is a connector that extracts data.
type Source interface {
	Connector

	// Spec describes the configuration the source accepts.
	Spec() *protocol.ConnectorSpecification

	// Check verifies connectivity. Every failure is reported as a FAILED
	// status, never as an error.
	Check(ctx context.Context, cfg *config.SourceConfig) *protocol.ConnectionStatus

	// Discover lists the available streams and their schemas.
	Discover(ctx context.Context, cfg *config.SourceConfig) (*protocol.Catalog, error)

	// Read returns the records of every stream in catalog. The sequence is
	// lazy: nothing is fetched until it is ranged over, and ranging again
	// starts from the beginning.
	Read(ctx context.Context, cfg *config.SourceConfig, catalog *protocol.ConfiguredCatalog, state State) (RecordSeq, error)
}
