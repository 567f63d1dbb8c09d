package elasticsearch

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/connector/core"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/nebulaerrors"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/protocol"
)

const (
	// scrollKeepAlive is how long the engine keeps a cursor open between pages.
	scrollKeepAlive = time.Minute
	// clearScrollTimeout bounds the best-effort cursor release.
	clearScrollTimeout = 5 * time.Second
)

var emptyDocument = json.RawMessage(`{}`)

// scrollIndex returns the documents of index as a lazy sequence. Nothing is
// fetched until the sequence is ranged over, and every range starts a new
// cursor. A failed page fetch is yielded as the final element.
func (s *ElasticsearchSource) scrollIndex(ctx context.Context, client Client, index string, pageSize int) core.RecordSeq {
	return func(yield func(*protocol.RecordMessage, error) bool) {
		log := s.GetLogger().With(zap.String("stream", index))
		collector := s.GetMetricsCollector()
		progress := s.NewProgressReporter(index)

		log.Info("scrolling through index", zap.Int("page_size", pageSize))

		page, err := client.Search(ctx, index, pageSize, scrollKeepAlive)
		if err != nil {
			yield(nil, nebulaerrors.Wrap(err, queryErrorType(err), fmt.Sprintf("failed to open scroll on index %s", index)).
				WithDetail("index", index))
			return
		}
		collector.RecordPage(index)
		progress.SetTotal(page.Total)

		scrollID := page.ScrollID
		defer func() {
			s.releaseScroll(ctx, client, scrollID, log)
			progress.Finish()
		}()

		for len(page.Hits) > 0 {
			for i, hit := range page.Hits {
				data := hit.Source
				if len(data) == 0 {
					data = emptyDocument
				}
				record := &protocol.RecordMessage{
					Stream:    index,
					Data:      data,
					EmittedAt: s.now().UnixMilli(),
				}
				if !yield(record, nil) {
					collector.RecordRecords(index, i+1)
					progress.IncrementProcessed(int64(i + 1))
					return
				}
			}
			collector.RecordRecords(index, len(page.Hits))
			progress.IncrementProcessed(int64(len(page.Hits)))

			page, err = client.Scroll(ctx, scrollID, scrollKeepAlive)
			if err != nil {
				yield(nil, nebulaerrors.Wrap(err, queryErrorType(err), fmt.Sprintf("failed to scroll index %s", index)).
					WithDetail("index", index))
				return
			}
			collector.RecordPage(index)
			if page.ScrollID != "" {
				scrollID = page.ScrollID
			}
		}
	}
}

// releaseScroll clears the cursor. Failures are logged, never returned: the
// engine expires the cursor on its own after scrollKeepAlive.
func (s *ElasticsearchSource) releaseScroll(ctx context.Context, client Client, scrollID string, log *zap.Logger) {
	if scrollID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), clearScrollTimeout)
	defer cancel()

	if err := client.ClearScroll(ctx, scrollID); err != nil {
		log.Warn("failed to clear scroll", zap.Error(err))
	}
}

// queryErrorType keeps transport categories and reports every other remote
// failure as a query error.
func queryErrorType(err error) nebulaerrors.ErrorType {
	switch t := nebulaerrors.TypeOf(err); t {
	case nebulaerrors.ErrorTypeConnection, nebulaerrors.ErrorTypeTimeout, nebulaerrors.ErrorTypeAuthentication:
		return t
	default:
		return nebulaerrors.ErrorTypeQuery
	}
}
