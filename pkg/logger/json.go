package logger

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// JSONLogger writes one structured zerolog record per message. It is meant
// for log files that are inspected after the session.
type JSONLogger struct {
	zl     zerolog.Logger
	closer io.Closer
}

// NewJSONLogger creates a logger writing JSON lines to w. If w is an
// io.Closer it is closed by Close.
func NewJSONLogger(w io.Writer) *JSONLogger {
	l := &JSONLogger{
		zl: zerolog.New(w).With().Timestamp().Str("app", "pomadbg").Logger(),
	}
	if c, ok := w.(io.Closer); ok {
		l.closer = c
	}
	return l
}

func (j *JSONLogger) event(level zerolog.Level, t MessageType) *zerolog.Event {
	return j.zl.WithLevel(level).Str("kind", t.String())
}

func (j *JSONLogger) Debug(format string, args ...interface{}) {
	j.event(zerolog.DebugLevel, MessageDebug).Msg(fmt.Sprintf(format, args...))
}

func (j *JSONLogger) Info(format string, args ...interface{}) {
	j.event(zerolog.InfoLevel, MessageInfo).Msg(fmt.Sprintf(format, args...))
}

func (j *JSONLogger) Warning(format string, args ...interface{}) {
	j.event(zerolog.WarnLevel, MessageWarning).Msg(fmt.Sprintf(format, args...))
}

func (j *JSONLogger) Error(format string, args ...interface{}) {
	j.event(zerolog.ErrorLevel, MessageError).Msg(fmt.Sprintf(format, args...))
}

func (j *JSONLogger) Success(format string, args ...interface{}) {
	j.event(zerolog.InfoLevel, MessageSuccess).Msg(fmt.Sprintf(format, args...))
}

func (j *JSONLogger) Waiting(format string, args ...interface{}) {
	j.event(zerolog.InfoLevel, MessageWaiting).Msg(fmt.Sprintf(format, args...))
}

// Sent records the raw payload and its visible rendering.
func (j *JSONLogger) Sent(payload string) {
	j.event(zerolog.InfoLevel, MessageSent).
		Str("payload", payload).
		Int("bytes", len(payload)).
		Msg(Unhide(payload))
}

// Received records the raw payload and its visible rendering.
func (j *JSONLogger) Received(payload string) {
	j.event(zerolog.InfoLevel, MessageReceived).
		Str("payload", payload).
		Int("bytes", len(payload)).
		Msg(Unhide(payload))
}

func (j *JSONLogger) Separator() {}

// Section is kept as a marker record so sessions can be split when reading
// the file back.
func (j *JSONLogger) Section(title string) {
	j.zl.Info().Str("kind", "section").Msg(title)
}

func (j *JSONLogger) BlankLine() {}

// Close closes the underlying writer once.
func (j *JSONLogger) Close() error {
	if j.closer == nil {
		return nil
	}
	c := j.closer
	j.closer = nil
	return c.Close()
}
