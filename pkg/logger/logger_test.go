package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func fixedConsole(buf *bytes.Buffer, opts Options) *ConsoleLogger {
	c := NewConsoleLogger(buf, opts)
	c.now = func() time.Time {
		return time.Date(2024, 5, 1, 13, 4, 5, 678_000_000, time.UTC)
	}
	return c
}

func TestConsoleLogger_Prefixes(t *testing.T) {
	buf := &bytes.Buffer{}
	l := fixedConsole(buf, Options{})

	l.Debug("debug %d", 1)
	l.Info("info")
	l.Warning("warn")
	l.Error("err")
	l.Success("ok")
	l.Waiting("wait")

	want := []string{
		"[?] debug 1",
		"[*] info",
		"[!] warn",
		"[-] err",
		"[+] ok",
		"[~] wait",
	}
	got := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestConsoleLogger_SentReceivedUnhide(t *testing.T) {
	buf := &bytes.Buffer{}
	l := fixedConsole(buf, Options{})

	l.Sent("*\n\x00")
	l.Received("OK\r\n")

	output := buf.String()
	if !strings.Contains(output, "[>] Sent: *␊␀") {
		t.Errorf("unexpected sent rendering: %q", output)
	}
	if !strings.Contains(output, "[<] Recv: OK␍␊") {
		t.Errorf("unexpected received rendering: %q", output)
	}
}

func TestConsoleLogger_ColorsAndTimestamps(t *testing.T) {
	buf := &bytes.Buffer{}
	l := fixedConsole(buf, Options{UseColors: true, UseTimestamps: true})

	l.Error("boom")

	want := "\033[91m[13:04:05.678] [-] boom\033[0m\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestConsoleLogger_NoColorByDefault(t *testing.T) {
	buf := &bytes.Buffer{}
	l := fixedConsole(buf, Options{})
	l.Info("plain")
	if strings.Contains(buf.String(), "\033[") {
		t.Errorf("expected no ANSI codes, got %q", buf.String())
	}
}

func TestPresentations_CoverEveryMessageType(t *testing.T) {
	seen := map[string]MessageType{}
	for mt := MessageType(0); mt < numMessageTypes; mt++ {
		p := presentations[mt]
		if p.prefix == "" || p.color == "" {
			t.Errorf("%s has no presentation", mt)
		}
		if other, dup := seen[p.prefix]; dup {
			t.Errorf("%s and %s share prefix %s", mt, other, p.prefix)
		}
		seen[p.prefix] = mt
	}
}

func TestSectionLine(t *testing.T) {
	tests := []struct {
		title string
		width int
		want  string
	}{
		{"ab", 10, "--- ab ---"},
		{"abc", 10, "-- abc ---"},
		{"too long title", 8, " too lon"},
		{"", 4, "-  -"},
		{"ñandú", 11, "-- ñandú --"},
		{"ééééé", 4, " ééé"},
	}
	for _, tt := range tests {
		got := SectionLine(tt.title, tt.width, "-")
		if got != tt.want {
			t.Errorf("SectionLine(%q, %d) = %q, want %q", tt.title, tt.width, got, tt.want)
		}
		if n := utf8.RuneCountInString(got); n != tt.width {
			t.Errorf("SectionLine(%q, %d) has %d runes", tt.title, tt.width, n)
		}
		if !utf8.ValidString(got) {
			t.Errorf("SectionLine(%q, %d) is not valid UTF-8", tt.title, tt.width)
		}
	}
}

func TestConsoleLogger_Layout(t *testing.T) {
	buf := &bytes.Buffer{}
	l := fixedConsole(buf, Options{})

	l.Separator()
	l.Section("Debug Session:")
	l.BlankLine()

	lines := strings.Split(buf.String(), "\n")
	if lines[0] != strings.Repeat("=", 60) {
		t.Errorf("unexpected separator: %q", lines[0])
	}
	if len(lines[1]) != 60 || !strings.Contains(lines[1], " Debug Session: ") {
		t.Errorf("unexpected section: %q", lines[1])
	}
	if lines[2] != "" {
		t.Errorf("expected blank line, got %q", lines[2])
	}
}

func TestUnhide(t *testing.T) {
	if got := Unhide("a\r\nb\x00"); got != "a␍␊b␀" {
		t.Errorf("unexpected unhide output: %q", got)
	}
	if got := Unhide("plain"); got != "plain" {
		t.Errorf("expected unchanged string, got %q", got)
	}
}

type closeRecorder struct {
	bytes.Buffer
	closed int
}

func (c *closeRecorder) Close() error {
	c.closed++
	return nil
}

func TestJSONLogger_WritesRecords(t *testing.T) {
	w := &closeRecorder{}
	l := NewJSONLogger(w)

	l.Info("connecting to %s", "127.0.0.1:3333")
	l.Sent("?g_var\n\x00")

	lines := strings.Split(strings.TrimSpace(w.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 records, got %d: %q", len(lines), w.String())
	}

	var info map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &info); err != nil {
		t.Fatalf("invalid JSON record: %v", err)
	}
	if info["level"] != "info" || info["kind"] != "info" {
		t.Errorf("unexpected info record: %v", info)
	}
	if info["message"] != "connecting to 127.0.0.1:3333" {
		t.Errorf("unexpected message: %v", info["message"])
	}

	var sent map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &sent); err != nil {
		t.Fatalf("invalid JSON record: %v", err)
	}
	if sent["kind"] != "sent" || sent["payload"] != "?g_var\n\x00" {
		t.Errorf("unexpected sent record: %v", sent)
	}
	if sent["bytes"] != float64(8) {
		t.Errorf("expected 8 bytes, got %v", sent["bytes"])
	}
}

func TestJSONLogger_CloseOnce(t *testing.T) {
	w := &closeRecorder{}
	l := NewJSONLogger(w)
	if err := l.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("unexpected second close error: %v", err)
	}
	if w.closed != 1 {
		t.Errorf("expected writer closed once, got %d", w.closed)
	}
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()

	// Should not panic
	logger.Debug("test")
	logger.Info("test")
	logger.Warning("test")
	logger.Error("test")
	logger.Sent("test")
	logger.Section("test")

	err := logger.Close()
	if err != nil {
		t.Errorf("expected nil error, got: %v", err)
	}
}

func TestMockLogger_RecordsCalls(t *testing.T) {
	logger := NewMockLogger()

	logger.Info("info %d", 1)
	logger.Info("info %d", 2)
	logger.Warning("warn %s", "test")
	logger.Error("err %v", "fail")
	logger.Sent("cmd\x00")

	if len(logger.InfoCalls) != 2 {
		t.Errorf("expected 2 info calls, got %d", len(logger.InfoCalls))
	}
	if logger.InfoCalls[0] != "info 1" {
		t.Errorf("expected 'info 1', got %s", logger.InfoCalls[0])
	}
	if len(logger.WarningCalls) != 1 || logger.WarningCalls[0] != "warn test" {
		t.Errorf("unexpected warning calls: %v", logger.WarningCalls)
	}
	if len(logger.ErrorCalls) != 1 || logger.ErrorCalls[0] != "err fail" {
		t.Errorf("unexpected error calls: %v", logger.ErrorCalls)
	}
	if len(logger.SentCalls) != 1 || logger.SentCalls[0] != "cmd\x00" {
		t.Errorf("unexpected sent calls: %q", logger.SentCalls)
	}
}

func TestMultiLogger_BroadcastsToAll(t *testing.T) {
	mock1 := NewMockLogger()
	mock2 := NewMockLogger()

	multi := NewMultiLogger(mock1, mock2)

	multi.Info("info msg")
	multi.Received("resp\n")
	multi.Section("title")

	for i, m := range []*MockLogger{mock1, mock2} {
		if len(m.InfoCalls) != 1 || m.InfoCalls[0] != "info msg" {
			t.Errorf("mock%d should receive info message", i+1)
		}
		if len(m.ReceivedCalls) != 1 || m.ReceivedCalls[0] != "resp\n" {
			t.Errorf("mock%d should receive payload", i+1)
		}
		if len(m.SectionCalls) != 1 {
			t.Errorf("mock%d should receive section", i+1)
		}
	}
}

func TestMultiLogger_EmptyLoggers(t *testing.T) {
	multi := NewMultiLogger()

	// Should not panic with no loggers
	multi.Info("test")
	multi.Warning("test")
	multi.Error("test")
	if err := multi.Close(); err != nil {
		t.Errorf("expected nil error, got: %v", err)
	}
}

// FailingCloseLogger is a logger that returns an error on Close().
// Used for testing MultiLogger error propagation.
type FailingCloseLogger struct {
	NopLogger
	closeErr error
}

func NewFailingCloseLogger(err error) *FailingCloseLogger {
	return &FailingCloseLogger{closeErr: err}
}

func (f *FailingCloseLogger) Close() error {
	return f.closeErr
}

var _ Logger = (*FailingCloseLogger)(nil)

func TestMultiLogger_Close_CombinesErrors(t *testing.T) {
	err1 := errors.New("logger1 failed to close")
	err2 := errors.New("logger2 failed to close")

	mock := NewMockLogger()
	multi := NewMultiLogger(NewFailingCloseLogger(err1), mock, NewFailingCloseLogger(err2))

	err := multi.Close()
	if !errors.Is(err, err1) || !errors.Is(err, err2) {
		t.Errorf("expected both errors, got %v", err)
	}
	if !mock.CloseCalled {
		t.Error("expected mock logger to be closed even after first error")
	}
}

func TestMultiLogger_Close_AllSucceed(t *testing.T) {
	mock1 := NewMockLogger()
	mock2 := NewMockLogger()

	if err := NewMultiLogger(mock1, mock2).Close(); err != nil {
		t.Errorf("expected nil error, got: %v", err)
	}
	if !mock1.CloseCalled || !mock2.CloseCalled {
		t.Error("expected all loggers closed")
	}
}
