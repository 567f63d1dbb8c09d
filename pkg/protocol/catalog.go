package protocol

// SyncMode controls how a stream is read.
type SyncMode string

const (
	SyncModeFullRefresh SyncMode = "full_refresh"
	SyncModeIncremental SyncMode = "incremental"
)

// DestinationSyncMode controls how a destination writes a stream.
type DestinationSyncMode string

const (
	DestinationSyncModeAppend    DestinationSyncMode = "append"
	DestinationSyncModeOverwrite DestinationSyncMode = "overwrite"
)

// JSONSchemaDraft7 is the $schema value attached to every discovered stream.
const JSONSchemaDraft7 = "http://json-schema.org/draft-07/schema#"

// FieldSchema is the schema of a single top-level field.
type FieldSchema struct {
	Type string `json:"type"`
}

// StreamSchema is the flat JSON-Schema object describing a stream.
type StreamSchema struct {
	Schema     string                 `json:"$schema,omitempty"`
	Type       string                 `json:"type"`
	Properties map[string]FieldSchema `json:"properties"`
}

// NewStreamSchema returns an empty object schema.
func NewStreamSchema() *StreamSchema {
	return &StreamSchema{
		Schema:     JSONSchemaDraft7,
		Type:       "object",
		Properties: make(map[string]FieldSchema),
	}
}

// Stream describes one discoverable collection.
type Stream struct {
	Name               string        `json:"name"`
	Namespace          string        `json:"namespace,omitempty"`
	JSONSchema         *StreamSchema `json:"json_schema"`
	SupportedSyncModes []SyncMode    `json:"supported_sync_modes"`
}

// Catalog is the output of discovery.
type Catalog struct {
	Streams []Stream `json:"streams"`
}

// Stream returns the stream with the given name.
func (c *Catalog) Stream(name string) (Stream, bool) {
	for _, s := range c.Streams {
		if s.Name == name {
			return s, true
		}
	}
	return Stream{}, false
}

// ConfiguredStream is a stream selected for a read, with its sync settings.
type ConfiguredStream struct {
	Stream              Stream              `json:"stream"`
	SyncMode            SyncMode            `json:"sync_mode"`
	DestinationSyncMode DestinationSyncMode `json:"destination_sync_mode,omitempty"`
	CursorField         []string            `json:"cursor_field,omitempty"`
	PrimaryKey          [][]string          `json:"primary_key,omitempty"`
}

// ConfiguredCatalog is the set of streams the orchestrator asks a read to produce.
type ConfiguredCatalog struct {
	Streams []ConfiguredStream `json:"streams"`
}

// StreamNames returns the configured stream names in catalog order.
func (c *ConfiguredCatalog) StreamNames() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.Streams))
	for _, s := range c.Streams {
		names = append(names, s.Stream.Name)
	}
	return names
}
