package elasticsearch

import (
	"context"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/config"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/nebulaerrors"
)

type fakeCursor struct {
	index  string
	offset int
	size   int
}

// fakeClient is an in-memory engine holding documents per index.
type fakeClient struct {
	mu sync.Mutex

	pingErr    error
	indices    []string
	indicesErr error
	mappings   map[string]map[string]FieldMapping
	mappingErr error
	docs       map[string][]json.RawMessage
	searchErr  error
	scrollErr  error
	panicOn    string

	cursors map[string]*fakeCursor
	nextID  int

	pingCalls   int
	searchCalls []string
	scrollCalls int
	clearCalls  int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		mappings: make(map[string]map[string]FieldMapping),
		docs:     make(map[string][]json.RawMessage),
		cursors:  make(map[string]*fakeCursor),
	}
}

func (f *fakeClient) addDocs(index string, n int) {
	for i := 1; i <= n; i++ {
		f.docs[index] = append(f.docs[index], json.RawMessage(fmt.Sprintf(`{"id":%d,"index":%q}`, i, index)))
	}
}

func (f *fakeClient) factory() ClientFactory {
	return func(*config.SourceConfig) (Client, error) { return f, nil }
}

func (f *fakeClient) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOn == "ping" {
		panic("ping exploded")
	}
	f.pingCalls++
	return f.pingErr
}

func (f *fakeClient) Indices(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.indices, f.indicesErr
}

func (f *fakeClient) Mapping(_ context.Context, index string) (map[string]FieldMapping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mappingErr != nil {
		return nil, f.mappingErr
	}
	return f.mappings[index], nil
}

func (f *fakeClient) Search(_ context.Context, index string, size int, _ time.Duration) (*ScrollPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls = append(f.searchCalls, index)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	docs, ok := f.docs[index]
	if !ok {
		return nil, nebulaerrors.Newf(nebulaerrors.ErrorTypeNotFound, "search returned status 404: no such index [%s]", index)
	}

	f.nextID++
	id := fmt.Sprintf("scroll-%d", f.nextID)
	cur := &fakeCursor{index: index, size: size}
	f.cursors[id] = cur
	return &ScrollPage{ScrollID: id, Total: int64(len(docs)), Hits: f.nextPage(cur)}, nil
}

func (f *fakeClient) Scroll(_ context.Context, scrollID string, _ time.Duration) (*ScrollPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scrollCalls++
	if f.scrollErr != nil {
		return nil, f.scrollErr
	}
	cur, ok := f.cursors[scrollID]
	if !ok {
		return nil, nebulaerrors.New(nebulaerrors.ErrorTypeNotFound, "scroll returned status 404: search_context_missing_exception")
	}
	return &ScrollPage{ScrollID: scrollID, Hits: f.nextPage(cur)}, nil
}

func (f *fakeClient) ClearScroll(_ context.Context, scrollID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearCalls++
	delete(f.cursors, scrollID)
	return nil
}

func (f *fakeClient) nextPage(cur *fakeCursor) []Hit {
	docs := f.docs[cur.index]
	end := min(cur.offset+cur.size, len(docs))
	hits := make([]Hit, 0, end-cur.offset)
	for i := cur.offset; i < end; i++ {
		hits = append(hits, Hit{Index: cur.index, ID: fmt.Sprint(i + 1), Source: docs[i]})
	}
	cur.offset = end
	return hits
}

func (f *fakeClient) hasCursor(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.cursors[id]
	return ok
}

func (f *fakeClient) openCursors() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cursors)
}
