package config

import (
	"os"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/nebulaerrors"
)

// requiredKeys must appear in a connection configuration file. Their values
// may still be empty: a cluster without security takes empty credentials.
var requiredKeys = []string{"host", "username", "password", "page_size"}

// Load loads a configuration from a YAML file. JSON files parse too, since
// JSON is a subset of YAML.
func Load(filePath string, config interface{}) error {
	content, err := readConfigFile(filePath)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(content, config); err != nil {
		return nebulaerrors.Wrap(err, nebulaerrors.ErrorTypeConfig, "failed to parse config file "+filePath)
	}
	return nil
}

// ReadSourceConfig loads and normalizes the connection configuration and
// checks that every required key is present. Values are not validated.
func ReadSourceConfig(filePath string) (*SourceConfig, error) {
	content, err := readConfigFile(filePath)
	if err != nil {
		return nil, err
	}

	var keys map[string]interface{}
	if err := yaml.Unmarshal(content, &keys); err != nil {
		return nil, nebulaerrors.Wrap(err, nebulaerrors.ErrorTypeConfig, "failed to parse config file "+filePath)
	}
	missing := lo.Reject(requiredKeys, func(key string, _ int) bool {
		_, ok := keys[key]
		return ok
	})
	if len(missing) > 0 {
		msgs := lo.Map(missing, func(key string, _ int) string { return key + " is required" })
		return nil, nebulaerrors.New(nebulaerrors.ErrorTypeConfig, "invalid configuration: "+strings.Join(msgs, "; ")).
			WithDetail("fields", len(missing))
	}

	var cfg SourceConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, nebulaerrors.Wrap(err, nebulaerrors.ErrorTypeConfig, "failed to parse config file "+filePath)
	}
	cfg.Normalize()
	return &cfg, nil
}

// LoadSourceConfig loads, normalizes and validates the connection configuration.
func LoadSourceConfig(filePath string) (*SourceConfig, error) {
	cfg, err := ReadSourceConfig(filePath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readConfigFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: File path is controlled by caller
	if err != nil {
		return nil, nebulaerrors.Wrap(err, nebulaerrors.ErrorTypeConfig, "failed to read config file")
	}
	return []byte(substituteEnvVars(string(data))), nil
}

// Save saves a configuration to a YAML file
func Save(filePath string, config interface{}) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return nebulaerrors.Wrap(err, nebulaerrors.ErrorTypeInternal, "failed to marshal YAML")
	}

	if err := os.WriteFile(filePath, data, 0o600); err != nil {
		return nebulaerrors.Wrap(err, nebulaerrors.ErrorTypeInternal, "failed to write config file")
	}

	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	offset := 0
	for {
		start := strings.Index(content[offset:], "${")
		if start == -1 {
			break
		}
		start += offset
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		value := os.Getenv(content[start+2 : end])
		content = content[:start] + value + content[end+1:]
		// don't rescan the substituted value
		offset = start + len(value)
	}
	return content
}
