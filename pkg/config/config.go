package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/nebulaerrors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// SourceConfig is the connection configuration supplied once per invocation.
// It is treated as immutable after LoadSourceConfig returns.
type SourceConfig struct {
	// Host is the engine base URL, e.g. "http://localhost:9200". A host without
	// a scheme is normalized to http.
	Host string `yaml:"host" json:"host" validate:"required"`
	// Username for basic authentication. Empty when security is disabled.
	Username string `yaml:"username" json:"username"`
	// Password for basic authentication
	Password string `yaml:"password" json:"password"`
	// PageSize is the number of documents fetched per scroll page
	PageSize int `yaml:"page_size" json:"page_size" validate:"required,gt=0"`
}

// Normalize fills derived values. It is safe to call more than once.
func (c *SourceConfig) Normalize() {
	c.Host = strings.TrimSpace(c.Host)
	if c.Host != "" && !strings.Contains(c.Host, "://") {
		c.Host = "http://" + c.Host
	}
	c.Host = strings.TrimRight(c.Host, "/")
}

// Validate checks the configuration for required fields and value ranges.
// Failures are reported as config errors naming every offending field.
func (c *SourceConfig) Validate() error {
	if c == nil {
		return nebulaerrors.New(nebulaerrors.ErrorTypeConfig, "configuration is missing")
	}

	err := getValidator().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nebulaerrors.Wrap(err, nebulaerrors.ErrorTypeConfig, "invalid configuration")
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, describeFieldError(fe))
	}
	return nebulaerrors.New(nebulaerrors.ErrorTypeConfig, "invalid configuration: "+strings.Join(fields, "; ")).
		WithDetail("fields", len(fields))
}

// Redacted returns a copy safe to log.
func (c SourceConfig) Redacted() SourceConfig {
	if c.Password != "" {
		c.Password = "****"
	}
	return c
}

var fieldKeys = map[string]string{
	"Host":     "host",
	"Username": "username",
	"Password": "password",
	"PageSize": "page_size",
}

func describeFieldError(fe validator.FieldError) string {
	key, ok := fieldKeys[fe.Field()]
	if !ok {
		key = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return key + " is required"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", key, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", key, fe.Tag())
	}
}
