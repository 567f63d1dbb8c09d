package elasticsearch

import "github.com/ajitpratap0/nebula-source-elasticsearch/pkg/protocol"

// DocumentationURL points at the connector documentation.
const DocumentationURL = "https://docs.airbyte.com/integrations/sources/elasticsearch"

// Specification returns the JSON schema of the connection configuration.
func Specification() *protocol.ConnectorSpecification {
	return &protocol.ConnectorSpecification{
		DocumentationURL: DocumentationURL,
		ConnectionSpecification: map[string]interface{}{
			"$schema":              protocol.JSONSchemaDraft7,
			"title":                "Elasticsearch Source Spec",
			"type":                 "object",
			"required":             []string{"host", "username", "password", "page_size"},
			"additionalProperties": false,
			"properties": map[string]interface{}{
				"host": map[string]interface{}{
					"title":       "Host",
					"type":        "string",
					"description": "The full URL of the Elasticsearch server, e.g. http://localhost:9200",
					"examples":    []string{"http://localhost:9200"},
					"order":       0,
				},
				"username": map[string]interface{}{
					"title":       "Username",
					"type":        "string",
					"description": "Username for basic authentication",
					"order":       1,
				},
				"password": map[string]interface{}{
					"title":          "Password",
					"type":           "string",
					"description":    "Password for basic authentication",
					"airbyte_secret": true,
					"order":          2,
				},
				"page_size": map[string]interface{}{
					"title":       "Page Size",
					"type":        "integer",
					"description": "Number of documents fetched per scroll request",
					"minimum":     1,
					"default":     1000,
					"order":       3,
				},
			},
		},
		SupportsIncremental: false,
	}
}
