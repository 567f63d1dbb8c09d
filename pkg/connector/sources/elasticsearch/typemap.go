package elasticsearch

import "fmt"

// typeMapping translates engine field types to JSON-Schema types. A field
// type missing from this table fails discovery.
var typeMapping = map[string]string{
	"boolean": "boolean",

	"text":       "string",
	"date":       "string",
	"date_nanos": "string",

	"long":          "integer",
	"unsigned_long": "integer",
	"integer":       "integer",
	"short":         "integer",
	"byte":          "integer",

	"double":       "number",
	"float":        "number",
	"half_float":   "number",
	"scaled_float": "number",
}

// systemIndices are never exposed as streams.
var systemIndices = map[string]struct{}{
	".kibana_1":            {},
	".opendistro_security": {},
}

// JSONType returns the JSON-Schema type for an engine field type.
func JSONType(engineType string) (string, bool) {
	t, ok := typeMapping[engineType]
	return t, ok
}

// IsSystemIndex reports whether index is on the system denylist.
func IsSystemIndex(index string) bool {
	_, ok := systemIndices[index]
	return ok
}

// UnsupportedDataTypeError is returned by discovery when a mapping contains a
// field type with no JSON-Schema equivalent.
type UnsupportedDataTypeError struct {
	Index string
	Field string
	Type  string
}

func (e *UnsupportedDataTypeError) Error() string {
	return fmt.Sprintf("unsupported data type: %s", e.Type)
}
