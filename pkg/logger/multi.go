package logger

import "github.com/hashicorp/go-multierror"

// MultiLogger broadcasts log messages to multiple Logger backends.
// Useful for logging to the console and a JSON file simultaneously.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a logger that writes to all provided backends.
// Messages are written to each logger in order.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

func (m *MultiLogger) Debug(format string, args ...interface{}) {
	for _, l := range m.loggers {
		l.Debug(format, args...)
	}
}

func (m *MultiLogger) Info(format string, args ...interface{}) {
	for _, l := range m.loggers {
		l.Info(format, args...)
	}
}

func (m *MultiLogger) Warning(format string, args ...interface{}) {
	for _, l := range m.loggers {
		l.Warning(format, args...)
	}
}

func (m *MultiLogger) Error(format string, args ...interface{}) {
	for _, l := range m.loggers {
		l.Error(format, args...)
	}
}

func (m *MultiLogger) Success(format string, args ...interface{}) {
	for _, l := range m.loggers {
		l.Success(format, args...)
	}
}

func (m *MultiLogger) Waiting(format string, args ...interface{}) {
	for _, l := range m.loggers {
		l.Waiting(format, args...)
	}
}

func (m *MultiLogger) Sent(payload string) {
	for _, l := range m.loggers {
		l.Sent(payload)
	}
}

func (m *MultiLogger) Received(payload string) {
	for _, l := range m.loggers {
		l.Received(payload)
	}
}

func (m *MultiLogger) Separator() {
	for _, l := range m.loggers {
		l.Separator()
	}
}

func (m *MultiLogger) Section(title string) {
	for _, l := range m.loggers {
		l.Section(title)
	}
}

func (m *MultiLogger) BlankLine() {
	for _, l := range m.loggers {
		l.BlankLine()
	}
}

// Close closes all logger backends, attempting every one of them and
// returning the combined error.
func (m *MultiLogger) Close() error {
	var result *multierror.Error
	for _, l := range m.loggers {
		if err := l.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Ensure MultiLogger satisfies the Logger interface.
var _ Logger = (*MultiLogger)(nil)
