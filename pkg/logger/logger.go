// Package logger provides the logging interface shared by the pomadbg
// transport client, the session scheduler and the command line.
// It supports a colored console backend and a structured JSON file backend.
package logger

import (
	"fmt"
	"strings"
)

// Logger defines the message categories emitted during a debug session.
// Implementations are passed explicitly to each component; there is no
// package level logger.
type Logger interface {
	// Debug logs a diagnostic message (e.g., startup parameters).
	Debug(format string, args ...interface{})

	// Info logs an informational message (e.g., "Connecting to ...").
	Info(format string, args ...interface{})

	// Warning logs a recoverable problem (e.g., a skipped command line).
	Warning(format string, args ...interface{})

	// Error logs a failure (e.g., "Connection error: refused").
	Error(format string, args ...interface{})

	// Success logs a completed step (e.g., "Connection established").
	Success(format string, args ...interface{})

	// Waiting logs a pacing pause before the next command.
	Waiting(format string, args ...interface{})

	// Sent logs a payload written to the server.
	Sent(payload string)

	// Received logs a payload read from the server.
	Received(payload string)

	// Separator, Section and BlankLine are layout helpers. Backends
	// without a visual layout may ignore them.
	Separator()
	Section(title string)
	BlankLine()

	// Close releases resources held by the logger (e.g., an open log file).
	// Safe to call multiple times. Returns nil for loggers without resources.
	Close() error
}

var specialChars = strings.NewReplacer(
	"\r", "␍",
	"\n", "␊",
	"\x00", "␀",
)

// Unhide replaces carriage returns, line feeds and NUL bytes with visible
// symbols so payload framing can be inspected on a terminal.
func Unhide(s string) string {
	return specialChars.Replace(s)
}

// NopLogger is a logger that discards all messages.
// Useful for testing or when logging should be disabled.
type NopLogger struct{}

// NewNopLogger creates a logger that discards all messages.
func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

func (n *NopLogger) Debug(format string, args ...interface{})   {}
func (n *NopLogger) Info(format string, args ...interface{})    {}
func (n *NopLogger) Warning(format string, args ...interface{}) {}
func (n *NopLogger) Error(format string, args ...interface{})   {}
func (n *NopLogger) Success(format string, args ...interface{}) {}
func (n *NopLogger) Waiting(format string, args ...interface{}) {}
func (n *NopLogger) Sent(payload string)                        {}
func (n *NopLogger) Received(payload string)                    {}
func (n *NopLogger) Separator()                                 {}
func (n *NopLogger) Section(title string)                       {}
func (n *NopLogger) BlankLine()                                 {}

// Close is a no-op.
func (n *NopLogger) Close() error {
	return nil
}

// Ensure implementations satisfy the Logger interface.
var (
	_ Logger = (*NopLogger)(nil)
	_ Logger = (*ConsoleLogger)(nil)
	_ Logger = (*JSONLogger)(nil)
)

// MockLogger implements Logger for testing purposes.
// It records all log calls for verification in tests.
type MockLogger struct {
	DebugCalls    []string
	InfoCalls     []string
	WarningCalls  []string
	ErrorCalls    []string
	SuccessCalls  []string
	WaitingCalls  []string
	SentCalls     []string
	ReceivedCalls []string
	SectionCalls  []string
	CloseCalled   bool
}

// NewMockLogger creates a new MockLogger for testing.
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

// Debug records the formatted message.
func (m *MockLogger) Debug(format string, args ...interface{}) {
	m.DebugCalls = append(m.DebugCalls, fmt.Sprintf(format, args...))
}

// Info records the formatted message.
func (m *MockLogger) Info(format string, args ...interface{}) {
	m.InfoCalls = append(m.InfoCalls, fmt.Sprintf(format, args...))
}

// Warning records the formatted message.
func (m *MockLogger) Warning(format string, args ...interface{}) {
	m.WarningCalls = append(m.WarningCalls, fmt.Sprintf(format, args...))
}

// Error records the formatted message.
func (m *MockLogger) Error(format string, args ...interface{}) {
	m.ErrorCalls = append(m.ErrorCalls, fmt.Sprintf(format, args...))
}

// Success records the formatted message.
func (m *MockLogger) Success(format string, args ...interface{}) {
	m.SuccessCalls = append(m.SuccessCalls, fmt.Sprintf(format, args...))
}

// Waiting records the formatted message.
func (m *MockLogger) Waiting(format string, args ...interface{}) {
	m.WaitingCalls = append(m.WaitingCalls, fmt.Sprintf(format, args...))
}

// Sent records the raw payload.
func (m *MockLogger) Sent(payload string) {
	m.SentCalls = append(m.SentCalls, payload)
}

// Received records the raw payload.
func (m *MockLogger) Received(payload string) {
	m.ReceivedCalls = append(m.ReceivedCalls, payload)
}

func (m *MockLogger) Separator() {}

// Section records the title.
func (m *MockLogger) Section(title string) {
	m.SectionCalls = append(m.SectionCalls, title)
}

func (m *MockLogger) BlankLine() {}

// Close records that Close was called.
func (m *MockLogger) Close() error {
	m.CloseCalled = true
	return nil
}

// Ensure MockLogger satisfies the Logger interface.
var _ Logger = (*MockLogger)(nil)
