package elasticsearch

import (
	"context"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/nebulaerrors"
	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/protocol"
)

// discover builds the catalog: one full-refresh stream per non-system index,
// in index name order.
func (s *ElasticsearchSource) discover(ctx context.Context, client Client) (*protocol.Catalog, error) {
	s.GetLogger().Info("getting indices")

	all, err := client.Indices(ctx)
	if err != nil {
		return nil, nebulaerrors.Wrap(err, nebulaerrors.TypeOf(err), "failed to list indices")
	}

	indices := lo.Reject(all, func(index string, _ int) bool {
		return IsSystemIndex(index)
	})
	// the engine's listing is a JSON object, so its order does not survive decoding
	slices.Sort(indices)

	streams := make([]protocol.Stream, 0, len(indices))
	for _, index := range indices {
		schema, err := s.indexSchema(ctx, client, index)
		if err != nil {
			return nil, err
		}
		streams = append(streams, protocol.Stream{
			Name:               index,
			JSONSchema:         schema,
			SupportedSyncModes: []protocol.SyncMode{protocol.SyncModeFullRefresh},
		})
	}

	s.GetLogger().Info("discovery completed", zap.Int("streams", len(streams)))
	return &protocol.Catalog{Streams: streams}, nil
}

// indexSchema converts the mapping of index into a flat object schema. Object
// fields are skipped.
func (s *ElasticsearchSource) indexSchema(ctx context.Context, client Client, index string) (*protocol.StreamSchema, error) {
	fields, err := client.Mapping(ctx, index)
	if err != nil {
		return nil, nebulaerrors.Wrap(err, nebulaerrors.TypeOf(err), fmt.Sprintf("failed to get mapping of index %s", index)).
			WithDetail("index", index)
	}

	schema := protocol.NewStreamSchema()
	for name, field := range fields {
		if field.IsNested() {
			s.GetLogger().Debug("skipping nested field", zap.String("index", index), zap.String("field", name))
			continue
		}

		jsonType, ok := JSONType(field.Type)
		if !ok {
			cause := &UnsupportedDataTypeError{Index: index, Field: name, Type: field.Type}
			return nil, nebulaerrors.Wrap(cause, nebulaerrors.ErrorTypeCapability, fmt.Sprintf("failed to discover index %s", index)).
				WithDetail("index", index).
				WithDetail("field", name)
		}
		schema.Properties[name] = protocol.FieldSchema{Type: jsonType}
	}
	return schema, nil
}
