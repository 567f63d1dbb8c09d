// Package protocol defines the message envelopes a source exchanges with the
// data-integration pipeline: one JSON object per line on stdout, each tagged with
// a Type and carrying exactly one payload (record, log, spec, connection status,
// catalog or state).
//
// The wire shape follows the Airbyte protocol so the connector can run inside any
// orchestrator that speaks it.
package protocol

import (
	json "github.com/goccy/go-json"
)

// Type identifies the payload carried by a Message.
type Type string

const (
	TypeRecord           Type = "RECORD"
	TypeState            Type = "STATE"
	TypeLog              Type = "LOG"
	TypeSpec             Type = "SPEC"
	TypeConnectionStatus Type = "CONNECTION_STATUS"
	TypeCatalog          Type = "CATALOG"
)

// Message is the envelope written for every protocol event.
type Message struct {
	Type             Type                    `json:"type"`
	Log              *LogMessage             `json:"log,omitempty"`
	Spec             *ConnectorSpecification `json:"spec,omitempty"`
	ConnectionStatus *ConnectionStatus       `json:"connectionStatus,omitempty"`
	Catalog          *Catalog                `json:"catalog,omitempty"`
	Record           *RecordMessage          `json:"record,omitempty"`
	State            *StateMessage           `json:"state,omitempty"`
}

// RecordMessage carries one extracted document.
type RecordMessage struct {
	Stream    string          `json:"stream"`
	Namespace string          `json:"namespace,omitempty"`
	Data      json.RawMessage `json:"data"`
	// EmittedAt is the wall-clock emission time in epoch milliseconds.
	EmittedAt int64 `json:"emitted_at"`
}

// StateMessage carries an opaque checkpoint blob.
type StateMessage struct {
	Data json.RawMessage `json:"data"`
}

// LogLevel is the severity of a LogMessage.
type LogLevel string

const (
	LogLevelFatal LogLevel = "FATAL"
	LogLevelError LogLevel = "ERROR"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelTrace LogLevel = "TRACE"
)

// LogMessage forwards a connector log line to the orchestrator.
type LogMessage struct {
	Level   LogLevel `json:"level"`
	Message string   `json:"message"`
}

// Status is the outcome of a connectivity check.
type Status string

const (
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
)

// ConnectionStatus is the result of a check.
type ConnectionStatus struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Succeeded returns a successful connection status.
func Succeeded() *ConnectionStatus {
	return &ConnectionStatus{Status: StatusSucceeded}
}

// Failed returns a failed connection status with the given message.
func Failed(message string) *ConnectionStatus {
	return &ConnectionStatus{Status: StatusFailed, Message: message}
}

// ConnectorSpecification describes the configuration a connector accepts.
type ConnectorSpecification struct {
	DocumentationURL        string                 `json:"documentationUrl,omitempty"`
	ConnectionSpecification map[string]interface{} `json:"connectionSpecification"`
	SupportsIncremental     bool                   `json:"supportsIncremental"`
}

// NewRecordMessage wraps a record in an envelope.
func NewRecordMessage(record *RecordMessage) *Message {
	return &Message{Type: TypeRecord, Record: record}
}

// NewLogMessage wraps a log line in an envelope.
func NewLogMessage(level LogLevel, message string) *Message {
	return &Message{Type: TypeLog, Log: &LogMessage{Level: level, Message: message}}
}

// NewSpecMessage wraps a specification in an envelope.
func NewSpecMessage(spec *ConnectorSpecification) *Message {
	return &Message{Type: TypeSpec, Spec: spec}
}

// NewConnectionStatusMessage wraps a check result in an envelope.
func NewConnectionStatusMessage(status *ConnectionStatus) *Message {
	return &Message{Type: TypeConnectionStatus, ConnectionStatus: status}
}

// NewCatalogMessage wraps a catalog in an envelope.
func NewCatalogMessage(catalog *Catalog) *Message {
	return &Message{Type: TypeCatalog, Catalog: catalog}
}
