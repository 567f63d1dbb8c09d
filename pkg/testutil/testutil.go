// Package testutil provides testing utilities for the connector
package testutil

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/protocol"
)

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout that is
// cancelled when the test completes.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// WriteFile creates name in a per-test temporary directory and returns its path.
func WriteFile(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// DecodeMessages parses line-delimited protocol output. Every non-empty line
// must be a valid message.
func DecodeMessages(t *testing.T, output []byte) []protocol.Message {
	t.Helper()

	var messages []protocol.Message
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var msg protocol.Message
		require.NoError(t, json.Unmarshal(line, &msg), "invalid protocol line: %s", line)
		messages = append(messages, msg)
	}
	require.NoError(t, scanner.Err())
	return messages
}

// MessagesOfType filters messages by type, keeping their order.
func MessagesOfType(messages []protocol.Message, typ protocol.Type) []protocol.Message {
	var out []protocol.Message
	for _, msg := range messages {
		if msg.Type == typ {
			out = append(out, msg)
		}
	}
	return out
}
