package elasticsearch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/config"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/nebulaerrors"
)

// maxErrorBody caps how much of an error response is kept for the message.
const maxErrorBody = 4 << 10

// Client is the subset of the engine API the connector needs.
type Client interface {
	// Ping is a liveness probe.
	Ping(ctx context.Context) error
	// Indices lists every index name visible to the user.
	Indices(ctx context.Context) ([]string, error)
	// Mapping returns the top-level field mappings of index.
	Mapping(ctx context.Context, index string) (map[string]FieldMapping, error)
	// Search opens a scroll cursor over index and returns its first page.
	Search(ctx context.Context, index string, size int, keepAlive time.Duration) (*ScrollPage, error)
	// Scroll fetches the next page of an open cursor.
	Scroll(ctx context.Context, scrollID string, keepAlive time.Duration) (*ScrollPage, error)
	// ClearScroll releases a cursor.
	ClearScroll(ctx context.Context, scrollID string) error
}

// ClientFactory builds a Client from the connection configuration.
type ClientFactory func(cfg *config.SourceConfig) (Client, error)

// FieldMapping is one entry of an index mapping. Properties is set for object
// fields, which have sub-fields instead of a type.
type FieldMapping struct {
	Type       string          `json:"type,omitempty"`
	Properties json.RawMessage `json:"properties,omitempty"`
}

// IsNested reports whether the field is an object with its own properties.
func (f FieldMapping) IsNested() bool {
	return len(f.Properties) > 0
}

// Hit is one document of a scroll page.
type Hit struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Source json.RawMessage `json:"_source"`
}

// ScrollPage is one page of a scroll cursor.
type ScrollPage struct {
	ScrollID string
	// Total is the number of matching documents, when the engine reports it.
	Total int64
	Hits  []Hit
}

type searchResponse struct {
	ScrollID string `json:"_scroll_id"`
	Hits     struct {
		Total json.RawMessage `json:"total"`
		Hits  []Hit           `json:"hits"`
	} `json:"hits"`
}

type indexMapping struct {
	Mappings struct {
		Properties map[string]FieldMapping `json:"properties"`
	} `json:"mappings"`
}

// parseTotal accepts both the 7.x object form and the legacy number form.
func parseTotal(raw json.RawMessage) int64 {
	if len(raw) == 0 {
		return 0
	}
	var obj struct {
		Value int64 `json:"value"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Value
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	return 0
}

// openSearchClient implements Client with opensearch-go, which speaks the
// Elasticsearch 7.x REST API.
type openSearchClient struct {
	client *opensearch.Client
}

// NewClient creates a Client for cfg. Retries are disabled: every request is
// attempted exactly once.
func NewClient(cfg *config.SourceConfig) (Client, error) {
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses:    []string{cfg.Host},
		Username:     cfg.Username,
		Password:     cfg.Password,
		DisableRetry: true,
	})
	if err != nil {
		return nil, nebulaerrors.Wrap(err, nebulaerrors.ErrorTypeConfig, "failed to create client").
			WithDetail("host", cfg.Host)
	}
	return &openSearchClient{client: client}, nil
}

func (c *openSearchClient) Ping(ctx context.Context) error {
	res, err := c.client.Ping(c.client.Ping.WithContext(ctx))
	if err != nil {
		return transportError(err, "ping")
	}
	if err := checkResponse(res, "ping"); err != nil {
		return err
	}
	drain(res)
	return nil
}

func (c *openSearchClient) Indices(ctx context.Context) ([]string, error) {
	res, err := c.client.Indices.Get([]string{"*"}, c.client.Indices.Get.WithContext(ctx))
	if err != nil {
		return nil, transportError(err, "get indices")
	}
	var body map[string]json.RawMessage
	if err := decodeResponse(res, "get indices", &body); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(body))
	for name := range body {
		names = append(names, name)
	}
	return names, nil
}

func (c *openSearchClient) Mapping(ctx context.Context, index string) (map[string]FieldMapping, error) {
	res, err := c.client.Indices.GetMapping(
		c.client.Indices.GetMapping.WithContext(ctx),
		c.client.Indices.GetMapping.WithIndex(index),
	)
	if err != nil {
		return nil, transportError(err, "get mapping")
	}
	var body map[string]indexMapping
	if err := decodeResponse(res, "get mapping", &body); err != nil {
		return nil, err
	}

	m, ok := body[index]
	if !ok {
		// An alias resolves to the concrete index name.
		if len(body) != 1 {
			return nil, nebulaerrors.Newf(nebulaerrors.ErrorTypeData, "mapping response does not contain index %s", index)
		}
		for _, only := range body {
			m = only
		}
	}
	if m.Mappings.Properties == nil {
		return map[string]FieldMapping{}, nil
	}
	return m.Mappings.Properties, nil
}

func (c *openSearchClient) Search(ctx context.Context, index string, size int, keepAlive time.Duration) (*ScrollPage, error) {
	res, err := c.client.Search(
		c.client.Search.WithContext(ctx),
		c.client.Search.WithIndex(index),
		c.client.Search.WithBody(strings.NewReader(`{"query":{"match_all":{}}}`)),
		c.client.Search.WithSize(size),
		c.client.Search.WithScroll(keepAlive),
	)
	if err != nil {
		return nil, transportError(err, "search")
	}
	return decodePage(res, "search")
}

func (c *openSearchClient) Scroll(ctx context.Context, scrollID string, keepAlive time.Duration) (*ScrollPage, error) {
	body, err := scrollBody(scrollID)
	if err != nil {
		return nil, err
	}
	res, err := c.client.Scroll(
		c.client.Scroll.WithContext(ctx),
		c.client.Scroll.WithBody(body),
		c.client.Scroll.WithScroll(keepAlive),
	)
	if err != nil {
		return nil, transportError(err, "scroll")
	}
	return decodePage(res, "scroll")
}

func (c *openSearchClient) ClearScroll(ctx context.Context, scrollID string) error {
	body, err := scrollBody(scrollID)
	if err != nil {
		return err
	}
	res, err := c.client.ClearScroll(
		c.client.ClearScroll.WithContext(ctx),
		c.client.ClearScroll.WithBody(body),
	)
	if err != nil {
		return transportError(err, "clear scroll")
	}
	// A cursor that already expired is not an error worth reporting.
	if res.StatusCode == http.StatusNotFound {
		drain(res)
		return nil
	}
	if err := checkResponse(res, "clear scroll"); err != nil {
		return err
	}
	drain(res)
	return nil
}

func scrollBody(scrollID string) (io.Reader, error) {
	data, err := json.Marshal(map[string]string{"scroll_id": scrollID})
	if err != nil {
		return nil, nebulaerrors.Wrap(err, nebulaerrors.ErrorTypeInternal, "failed to encode scroll request")
	}
	return bytes.NewReader(data), nil
}

func decodePage(res *opensearchapi.Response, op string) (*ScrollPage, error) {
	var body searchResponse
	if err := decodeResponse(res, op, &body); err != nil {
		return nil, err
	}
	return &ScrollPage{
		ScrollID: body.ScrollID,
		Total:    parseTotal(body.Hits.Total),
		Hits:     body.Hits.Hits,
	}, nil
}

func decodeResponse(res *opensearchapi.Response, op string, out interface{}) error {
	if err := checkResponse(res, op); err != nil {
		return err
	}
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return nebulaerrors.Wrap(err, nebulaerrors.ErrorTypeData, op+": failed to decode response")
	}
	return nil
}

// checkResponse turns an error status into a structured error and closes the
// body. On success the body is left open for the caller.
func checkResponse(res *opensearchapi.Response, op string) error {
	if !res.IsError() {
		if res.Body == nil {
			res.Body = io.NopCloser(bytes.NewReader(nil))
		}
		return nil
	}
	defer drain(res)

	var reason string
	if res.Body != nil {
		data, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		reason = strings.TrimSpace(string(data))
	}

	errType := nebulaerrors.ErrorTypeQuery
	switch res.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		errType = nebulaerrors.ErrorTypeAuthentication
	case http.StatusNotFound:
		errType = nebulaerrors.ErrorTypeNotFound
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		errType = nebulaerrors.ErrorTypeTimeout
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		errType = nebulaerrors.ErrorTypeConnection
	}

	msg := fmt.Sprintf("%s returned status %d", op, res.StatusCode)
	if reason != "" {
		msg += ": " + reason
	}
	return nebulaerrors.New(errType, msg).WithDetail("status", res.StatusCode)
}

func transportError(err error, op string) error {
	errType := nebulaerrors.ErrorTypeConnection
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		errType = nebulaerrors.ErrorTypeTimeout
	}
	return nebulaerrors.Wrap(err, errType, op+" request failed")
}

func drain(res *opensearchapi.Response) {
	if res.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxErrorBody))
	_ = res.Body.Close()
}
