package logger

import (
	"bytes"

	"go.uber.org/zap/zapcore"

	"github.com/ajitpratap0/nebula-source-elasticsearch/pkg/protocol"
)

// protocolCore is a zapcore.Core that emits each entry as a protocol LOG
// message. Structured fields are appended to the message as a JSON object.
type protocolCore struct {
	zapcore.LevelEnabler
	enc zapcore.Encoder
	out *protocol.Writer
}

func newProtocolCore(out *protocol.Writer, level zapcore.LevelEnabler) zapcore.Core {
	// Only fields are encoded; every entry key is left empty so it is omitted.
	enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
	})
	return &protocolCore{LevelEnabler: level, enc: enc, out: out}
}

func (c *protocolCore) With(fields []zapcore.Field) zapcore.Core {
	clone := &protocolCore{LevelEnabler: c.LevelEnabler, enc: c.enc.Clone(), out: c.out}
	for i := range fields {
		fields[i].AddTo(clone.enc)
	}
	return clone
}

func (c *protocolCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *protocolCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(zapcore.Entry{}, fields)
	if err != nil {
		return err
	}
	defer buf.Free()

	message := ent.Message
	if encoded := bytes.TrimSpace(buf.Bytes()); len(encoded) > 2 {
		message += " " + string(encoded)
	}
	if ent.LoggerName != "" {
		message = ent.LoggerName + ": " + message
	}

	return c.out.Write(protocol.NewLogMessage(protocolLevel(ent.Level), message))
}

func (c *protocolCore) Sync() error {
	return c.out.Flush()
}

func protocolLevel(level zapcore.Level) protocol.LogLevel {
	switch level {
	case zapcore.DebugLevel:
		return protocol.LogLevelDebug
	case zapcore.InfoLevel:
		return protocol.LogLevelInfo
	case zapcore.WarnLevel:
		return protocol.LogLevelWarn
	case zapcore.ErrorLevel, zapcore.DPanicLevel:
		return protocol.LogLevelError
	case zapcore.PanicLevel, zapcore.FatalLevel:
		return protocol.LogLevelFatal
	default:
		return protocol.LogLevelTrace
	}
}
