package elasticsearch

import (
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/connector/registry"
)

// AliasOpenSearch is a second registry name for the same connector.
const AliasOpenSearch = "opensearch"

func init() {
	_ = registry.RegisterSource(ConnectorName, NewElasticsearchSource)
	_ = registry.RegisterSource(AliasOpenSearch, NewElasticsearchSource)

	_ = registry.RegisterConnectorInfo(&registry.ConnectorInfo{
		Name:        ConnectorName,
		Type:        "source",
		Description: "Elasticsearch 7.x and OpenSearch source reading every document of each index with scroll pagination",
		Version:     Version,
		Aliases:     []string{AliasOpenSearch},
		Capabilities: []string{
			"check",
			"discover",
			"full_refresh",
			"scroll",
		},
	})
}
