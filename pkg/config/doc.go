// Package config loads and validates the connector's configuration.
//
// There are two kinds of configuration:
//
//   - SourceConfig: the connection configuration (host, username, password,
//     page_size) read from a YAML or JSON file passed with --config.
//   - Settings: process options (log level, metrics textfile, tracing) bound
//     from CLI flags and NEBULA_* environment variables through viper.
//
// # Loading a connection configuration
//
//	cfg, err := config.LoadSourceConfig("secrets/config.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// LoadSourceConfig substitutes ${VAR_NAME} references with environment
// variables before parsing, normalizes the host and validates the result.
//
//	# config.yaml
//	host: ${ES_HOST}
//	username: elastic
//	password: ${ES_PASSWORD}
//	page_size: 500
//
// # Validation
//
// All four keys must be present in the file. Validation uses struct tags
// (go-playground/validator): host is required and page_size must be positive.
// The credentials may be empty for a cluster with security disabled. Failures are nebulaerrors of type
// config, so callers can tell them apart from connection failures.
package config
