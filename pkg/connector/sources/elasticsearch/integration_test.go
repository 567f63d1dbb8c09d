//go:build integration

package elasticsearch

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/config"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/protocol"
)

var engineHost string

func TestMain(m *testing.M) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "opensearchproject/opensearch:2.11.0",
		ExposedPorts: []string{"9200/tcp"},
		Env: map[string]string{
			"discovery.type":          "single-node",
			"DISABLE_SECURITY_PLUGIN": "true",
			"OPENSEARCH_JAVA_OPTS":    "-Xms512m -Xmx512m",
		},
		WaitingFor: wait.ForHTTP("/").WithPort("9200/tcp").WithStartupTimeout(3 * time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to start opensearch container: %v", err))
	}

	host, err := container.Host(ctx)
	if err != nil {
		panic(fmt.Sprintf("failed to get opensearch host: %v", err))
	}
	port, err := container.MappedPort(ctx, "9200/tcp")
	if err != nil {
		panic(fmt.Sprintf("failed to get opensearch port: %v", err))
	}
	engineHost = fmt.Sprintf("http://%s:%s", host, port.Port())

	code := m.Run()

	if err := container.Terminate(ctx); err != nil {
		fmt.Printf("failed to terminate opensearch container: %v\n", err)
	}
	os.Exit(code)
}

func integrationConfig(pageSize int) *config.SourceConfig {
	return &config.SourceConfig{
		Host:     engineHost,
		Username: "admin",
		Password: "admin",
		PageSize: pageSize,
	}
}

func seedIndex(t *testing.T, index, mapping string, docs int) {
	t.Helper()
	client, err := opensearch.NewClient(opensearch.Config{Addresses: []string{engineHost}})
	require.NoError(t, err)

	res, err := client.Indices.Create(index, client.Indices.Create.WithBody(strings.NewReader(mapping)))
	require.NoError(t, err)
	require.False(t, res.IsError(), res.String())
	res.Body.Close()

	for i := 1; i <= docs; i++ {
		doc := fmt.Sprintf(`{"id":%d,"name":"item-%d","price":%d.5,"in_stock":%t}`, i, i, i, i%2 == 0)
		res, err := client.Index(index, strings.NewReader(doc), client.Index.WithRefresh("true"))
		require.NoError(t, err)
		require.False(t, res.IsError(), res.String())
		res.Body.Close()
	}
}

func TestIntegrationEndToEnd(t *testing.T) {
	ctx := context.Background()
	seedIndex(t, "products", `{"mappings":{"properties":{
		"id":{"type":"long"},
		"name":{"type":"text"},
		"price":{"type":"double"},
		"in_stock":{"type":"boolean"}
	}}}`, 7)

	src := New()

	status := src.Check(ctx, integrationConfig(3))
	require.Equal(t, protocol.StatusSucceeded, status.Status, status.Message)

	catalog, err := src.Discover(ctx, integrationConfig(3))
	require.NoError(t, err)

	stream, ok := catalog.Stream("products")
	require.True(t, ok)
	assert.Equal(t, map[string]protocol.FieldSchema{
		"id":       {Type: "integer"},
		"name":     {Type: "string"},
		"price":    {Type: "number"},
		"in_stock": {Type: "boolean"},
	}, stream.JSONSchema.Properties)
	for _, s := range catalog.Streams {
		assert.False(t, IsSystemIndex(s.Name))
	}

	seq, err := src.Read(ctx, integrationConfig(3), catalogFor("products"), nil)
	require.NoError(t, err)
	records, err := collect(t, seq)
	require.NoError(t, err)
	assert.Len(t, records, 7)
}

func TestIntegrationUnsupportedType(t *testing.T) {
	seedIndex(t, "places", `{"mappings":{"properties":{"location":{"type":"geo_point"}}}}`, 0)

	_, err := New().Discover(context.Background(), integrationConfig(10))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported data type: geo_point")
}
