package protocol

import (
	"os"

	json "github.com/goccy/go-json"

	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/nebulaerrors"
)

// ReadConfiguredCatalog loads a configured catalog from a JSON file.
func ReadConfiguredCatalog(path string) (*ConfiguredCatalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, nebulaerrors.Wrap(err, nebulaerrors.ErrorTypeConfig, "failed to read catalog file")
	}

	var catalog ConfiguredCatalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, nebulaerrors.Wrap(err, nebulaerrors.ErrorTypeConfig, "failed to parse catalog file "+path)
	}
	return &catalog, nil
}

// ReadState loads a state blob from a JSON file. An empty path yields nil state.
func ReadState(path string) (json.RawMessage, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, nebulaerrors.Wrap(err, nebulaerrors.ErrorTypeConfig, "failed to read state file")
	}
	if !json.Valid(data) {
		return nil, nebulaerrors.Newf(nebulaerrors.ErrorTypeConfig, "state file %s is not valid JSON", path)
	}
	return json.RawMessage(data), nil
}
