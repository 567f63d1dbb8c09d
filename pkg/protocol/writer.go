package protocol

import (
	"bufio"
	"io"
	"sync"

	json "github.com/goccy/go-json"
)

// Writer emits line-delimited protocol messages. It is safe for concurrent use;
// the logger and the read loop share one Writer.
type Writer struct {
	mu  sync.Mutex
	buf *bufio.Writer
	enc *json.Encoder
}

// NewWriter creates a Writer over w. Output is buffered; call Flush before exit.
func NewWriter(w io.Writer) *Writer {
	buf := bufio.NewWriterSize(w, 64*1024)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &Writer{buf: buf, enc: enc}
}

// Write encodes one message followed by a newline.
func (w *Writer) Write(msg *Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(msg)
}

// Flush writes any buffered messages to the underlying writer.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Flush()
}
