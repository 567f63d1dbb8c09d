package elasticsearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/config"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/nebulaerrors"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/protocol"
)

const (
	engineUser     = "elastic"
	enginePassword = "secret"
)

// engine is an HTTP fake of the engine REST API backed by a fakeClient.
type engine struct {
	t     *testing.T
	store *fakeClient

	mu       sync.Mutex
	requests []string
	status   map[string]int
}

func newEngine(t *testing.T) (*engine, *httptest.Server) {
	t.Helper()
	e := &engine{t: t, store: newFakeClient(), status: make(map[string]int)}
	srv := httptest.NewServer(http.HandlerFunc(e.serve))
	t.Cleanup(srv.Close)
	return e, srv
}

func (e *engine) failWith(route string, status int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status[route] = status
}

func (e *engine) serve(w http.ResponseWriter, r *http.Request) {
	route := r.Method + " " + r.URL.Path
	e.mu.Lock()
	e.requests = append(e.requests, route)
	e.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if user, pass, ok := r.BasicAuth(); !ok || user != engineUser || pass != enginePassword {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"security_exception"}`)
		return
	}

	e.mu.Lock()
	status, fail := e.status[routeKey(r)]
	e.mu.Unlock()
	if fail {
		w.WriteHeader(status)
		_, _ = fmt.Fprintf(w, `{"error":"forced","status":%d}`, status)
		return
	}

	ctx := r.Context()
	path := strings.Trim(r.URL.Path, "/")
	switch {
	case path == "":
		if r.Method == http.MethodHead {
			return
		}
		_, _ = io.WriteString(w, `{"name":"node-1","cluster_name":"test","version":{"distribution":"opensearch","number":"2.11.0"},"tagline":"The OpenSearch Project"}`)

	case path == "*" && r.Method == http.MethodGet:
		body := map[string]json.RawMessage{}
		for _, name := range e.store.indices {
			body[name] = json.RawMessage(`{}`)
		}
		e.writeJSON(w, body)

	case strings.HasSuffix(path, "/_mapping"):
		index := strings.TrimSuffix(path, "/_mapping")
		fields, _ := e.store.Mapping(ctx, index)
		body := map[string]indexMapping{}
		m := indexMapping{}
		m.Mappings.Properties = fields
		body[index] = m
		e.writeJSON(w, body)

	case path == "_search/scroll" && r.Method == http.MethodDelete:
		var req struct {
			ScrollID string `json:"scroll_id"`
		}
		require.NoError(e.t, json.NewDecoder(r.Body).Decode(&req))
		if !e.store.hasCursor(req.ScrollID) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"succeeded":true,"num_freed":0}`)
			return
		}
		_ = e.store.ClearScroll(ctx, req.ScrollID)
		_, _ = io.WriteString(w, `{"succeeded":true,"num_freed":1}`)

	case path == "_search/scroll":
		var req struct {
			ScrollID string `json:"scroll_id"`
		}
		require.NoError(e.t, json.NewDecoder(r.Body).Decode(&req))
		page, err := e.store.Scroll(ctx, req.ScrollID, time.Minute)
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":{"type":"search_context_missing_exception"}}`)
			return
		}
		e.writePage(w, page, 0)

	case strings.HasSuffix(path, "/_search"):
		index := strings.TrimSuffix(path, "/_search")
		assert.NotEmpty(e.t, r.URL.Query().Get("scroll"))
		size := 10
		_, _ = fmt.Sscan(r.URL.Query().Get("size"), &size)
		page, err := e.store.Search(ctx, index, size, time.Minute)
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			_, _ = fmt.Fprintf(w, `{"error":{"type":"index_not_found_exception","index":%q}}`, index)
			return
		}
		e.writePage(w, page, page.Total)

	default:
		w.WriteHeader(http.StatusBadRequest)
		_, _ = fmt.Fprintf(w, `{"error":"unexpected request %s"}`, route)
	}
}

func routeKey(r *http.Request) string {
	path := strings.Trim(r.URL.Path, "/")
	switch {
	case path == "":
		return "ping"
	case path == "*":
		return "indices"
	case strings.HasSuffix(path, "/_mapping"):
		return "mapping"
	case path == "_search/scroll" && r.Method == http.MethodDelete:
		return "clear"
	case path == "_search/scroll":
		return "scroll"
	default:
		return "search"
	}
}

func (e *engine) writePage(w http.ResponseWriter, page *ScrollPage, total int64) {
	hits := make([]map[string]interface{}, 0, len(page.Hits))
	for _, hit := range page.Hits {
		hits = append(hits, map[string]interface{}{
			"_index":  hit.Index,
			"_id":     hit.ID,
			"_score":  1.0,
			"_source": hit.Source,
		})
	}
	e.writeJSON(w, map[string]interface{}{
		"_scroll_id": page.ScrollID,
		"took":       1,
		"timed_out":  false,
		"hits": map[string]interface{}{
			"total": map[string]interface{}{"value": total, "relation": "eq"},
			"hits":  hits,
		},
	})
}

func (e *engine) writeJSON(w http.ResponseWriter, v interface{}) {
	require.NoError(e.t, json.NewEncoder(w).Encode(v))
}

func engineConfig(srv *httptest.Server, pageSize int) *config.SourceConfig {
	return &config.SourceConfig{
		Host:     srv.URL,
		Username: engineUser,
		Password: enginePassword,
		PageSize: pageSize,
	}
}

func TestClientCheck(t *testing.T) {
	_, srv := newEngine(t)

	status := New().Check(context.Background(), engineConfig(srv, 10))
	assert.Equal(t, protocol.StatusSucceeded, status.Status, status.Message)
}

func TestClientCheckWrongPassword(t *testing.T) {
	_, srv := newEngine(t)
	cfg := engineConfig(srv, 10)
	cfg.Password = "wrong"

	status := New().Check(context.Background(), cfg)
	assert.Equal(t, protocol.StatusFailed, status.Status)
	assert.Contains(t, status.Message, "Connection failed")
	assert.Contains(t, status.Message, "401")
}

func TestClientCheckUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	cfg := engineConfig(srv, 10)
	srv.Close()

	status := New().Check(context.Background(), cfg)
	assert.Equal(t, protocol.StatusFailed, status.Status)
	assert.True(t, strings.HasPrefix(status.Message, "Connection failed: "))
}

func TestClientCheckWithoutCredentials(t *testing.T) {
	var authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"version":{"distribution":"opensearch","number":"2.11.0"}}`)
	}))
	t.Cleanup(srv.Close)

	status := New().Check(context.Background(), &config.SourceConfig{Host: srv.URL, PageSize: 10})
	assert.Equal(t, protocol.StatusSucceeded, status.Status, status.Message)
	assert.Empty(t, authHeader)
}

func TestClientDiscover(t *testing.T) {
	e, srv := newEngine(t)
	e.store.indices = []string{"orders", ".kibana_1"}
	e.store.mappings["orders"] = map[string]FieldMapping{
		"id":       {Type: "long"},
		"customer": {Type: "text"},
		"shipping": {Properties: json.RawMessage(`{"city":{"type":"text"}}`)},
	}

	catalog, err := New().Discover(context.Background(), engineConfig(srv, 10))
	require.NoError(t, err)
	require.Len(t, catalog.Streams, 1)

	orders := catalog.Streams[0]
	assert.Equal(t, "orders", orders.Name)
	assert.Equal(t, map[string]protocol.FieldSchema{
		"id":       {Type: "integer"},
		"customer": {Type: "string"},
	}, orders.JSONSchema.Properties)
}

func TestClientRead(t *testing.T) {
	e, srv := newEngine(t)
	e.store.addDocs("orders", 5)

	seq, err := New().Read(context.Background(), engineConfig(srv, 2), catalogFor("orders"), nil)
	require.NoError(t, err)

	records, err := collect(t, seq)
	require.NoError(t, err)
	require.Len(t, records, 5)
	for i, record := range records {
		assert.Equal(t, "orders", record.Stream)
		assert.JSONEq(t, fmt.Sprintf(`{"id":%d,"index":"orders"}`, i+1), string(record.Data))
	}

	assert.Equal(t, 1, e.store.clearCalls)
	assert.Zero(t, e.store.openCursors())
}

func TestClientErrorStatuses(t *testing.T) {
	tests := []struct {
		status int
		want   nebulaerrors.ErrorType
	}{
		{http.StatusForbidden, nebulaerrors.ErrorTypeAuthentication},
		{http.StatusNotFound, nebulaerrors.ErrorTypeNotFound},
		{http.StatusGatewayTimeout, nebulaerrors.ErrorTypeTimeout},
		{http.StatusServiceUnavailable, nebulaerrors.ErrorTypeConnection},
		{http.StatusBadRequest, nebulaerrors.ErrorTypeQuery},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			e, srv := newEngine(t)
			e.failWith("indices", tt.status)

			client, err := NewClient(engineConfig(srv, 10))
			require.NoError(t, err)

			_, err = client.Indices(context.Background())
			require.Error(t, err)
			assert.True(t, nebulaerrors.IsType(err, tt.want), err.Error())
			assert.Contains(t, err.Error(), fmt.Sprintf("status %d", tt.status))
		})
	}
}

func TestClientClearScrollIgnoresMissingCursor(t *testing.T) {
	_, srv := newEngine(t)

	client, err := NewClient(engineConfig(srv, 10))
	require.NoError(t, err)
	assert.NoError(t, client.ClearScroll(context.Background(), "expired"))
}

func TestClientScrollExpired(t *testing.T) {
	_, srv := newEngine(t)

	client, err := NewClient(engineConfig(srv, 10))
	require.NoError(t, err)

	_, err = client.Scroll(context.Background(), "expired", time.Minute)
	require.Error(t, err)
	assert.True(t, nebulaerrors.IsType(err, nebulaerrors.ErrorTypeNotFound))
	assert.Contains(t, err.Error(), "search_context_missing_exception")
}

func TestClientMappingAlias(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"orders-000001":{"mappings":{"properties":{"id":{"type":"long"}}}}}`)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(engineConfig(srv, 10))
	require.NoError(t, err)

	fields, err := client.Mapping(context.Background(), "orders")
	require.NoError(t, err)
	assert.Equal(t, map[string]FieldMapping{"id": {Type: "long"}}, fields)
}

func TestParseTotal(t *testing.T) {
	assert.Equal(t, int64(42), parseTotal(json.RawMessage(`{"value":42,"relation":"eq"}`)))
	assert.Equal(t, int64(7), parseTotal(json.RawMessage(`7`)))
	assert.Zero(t, parseTotal(nil))
	assert.Zero(t, parseTotal(json.RawMessage(`"many"`)))
}
