package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-isatty"
)

// MessageType is the category of a console message. Each category has a
// fixed prefix and color.
type MessageType int

const (
	MessageDebug MessageType = iota
	MessageInfo
	MessageWarning
	MessageError
	MessageSuccess
	MessageSent
	MessageReceived
	MessageWaiting

	numMessageTypes
)

const (
	colorReset = "\033[0m"

	lineWidth     = 60
	separatorChar = "="
	sectionChar   = "-"

	timestampLayout = "15:04:05.000"
)

type presentation struct {
	prefix string
	color  string
}

var presentations = [numMessageTypes]presentation{
	MessageDebug:    {prefix: "[?]", color: "\033[97m"}, // white
	MessageInfo:     {prefix: "[*]", color: "\033[94m"}, // blue
	MessageWarning:  {prefix: "[!]", color: "\033[93m"}, // yellow
	MessageError:    {prefix: "[-]", color: "\033[91m"}, // red
	MessageSuccess:  {prefix: "[+]", color: "\033[92m"}, // green
	MessageSent:     {prefix: "[>]", color: "\033[96m"}, // cyan
	MessageReceived: {prefix: "[<]", color: "\033[95m"}, // purple
	MessageWaiting:  {prefix: "[~]", color: "\033[90m"}, // grey
}

// String returns the lower-case category name.
func (t MessageType) String() string {
	switch t {
	case MessageDebug:
		return "debug"
	case MessageInfo:
		return "info"
	case MessageWarning:
		return "warning"
	case MessageError:
		return "error"
	case MessageSuccess:
		return "success"
	case MessageSent:
		return "sent"
	case MessageReceived:
		return "received"
	case MessageWaiting:
		return "waiting"
	default:
		return fmt.Sprintf("MessageType(%d)", int(t))
	}
}

// Options configures a ConsoleLogger.
type Options struct {
	UseColors     bool
	UseTimestamps bool
}

// ConsoleLogger writes one formatted line per message to an io.Writer.
type ConsoleLogger struct {
	mu   sync.Mutex
	out  io.Writer
	opts Options
	now  func() time.Time
}

// NewConsoleLogger creates a logger that writes to out.
func NewConsoleLogger(out io.Writer, opts Options) *ConsoleLogger {
	return &ConsoleLogger{
		out:  out,
		opts: opts,
		now:  time.Now,
	}
}

// ColorsSupported reports whether f is a terminal that can render ANSI colors.
func ColorsSupported(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Format renders a message of the given category the way it is printed.
func (c *ConsoleLogger) Format(t MessageType, message string) string {
	parts := make([]string, 0, 3)
	if c.opts.UseTimestamps {
		parts = append(parts, "["+c.now().Format(timestampLayout)+"]")
	}
	var p presentation
	if t >= 0 && t < numMessageTypes {
		p = presentations[t]
	}
	if p.prefix != "" {
		parts = append(parts, p.prefix)
	}
	parts = append(parts, message)
	formatted := strings.Join(parts, " ")
	if c.opts.UseColors && p.color != "" {
		formatted = p.color + formatted + colorReset
	}
	return formatted
}

func (c *ConsoleLogger) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}

func (c *ConsoleLogger) log(t MessageType, format string, args ...interface{}) {
	c.println(c.Format(t, fmt.Sprintf(format, args...)))
}

func (c *ConsoleLogger) Debug(format string, args ...interface{}) {
	c.log(MessageDebug, format, args...)
}

func (c *ConsoleLogger) Info(format string, args ...interface{}) {
	c.log(MessageInfo, format, args...)
}

func (c *ConsoleLogger) Warning(format string, args ...interface{}) {
	c.log(MessageWarning, format, args...)
}

func (c *ConsoleLogger) Error(format string, args ...interface{}) {
	c.log(MessageError, format, args...)
}

func (c *ConsoleLogger) Success(format string, args ...interface{}) {
	c.log(MessageSuccess, format, args...)
}

func (c *ConsoleLogger) Waiting(format string, args ...interface{}) {
	c.log(MessageWaiting, format, args...)
}

// Sent logs payload with its control characters made visible.
func (c *ConsoleLogger) Sent(payload string) {
	c.println(c.Format(MessageSent, "Sent: "+Unhide(payload)))
}

// Received logs payload with its control characters made visible.
func (c *ConsoleLogger) Received(payload string) {
	c.println(c.Format(MessageReceived, "Recv: "+Unhide(payload)))
}

func (c *ConsoleLogger) Separator() {
	c.println(strings.Repeat(separatorChar, lineWidth))
}

// Section prints title centered in a line of dashes.
func (c *ConsoleLogger) Section(title string) {
	c.println(SectionLine(title, lineWidth, sectionChar))
}

func (c *ConsoleLogger) BlankLine() {
	c.println("")
}

// Close is a no-op; the writer is owned by the caller.
func (c *ConsoleLogger) Close() error {
	return nil
}

// SectionLine centers " title " within width using fill. Widths are counted
// in runes; titles that do not fit are truncated to width.
func SectionLine(title string, width int, fill string) string {
	title = " " + title + " "
	n := utf8.RuneCountInString(title)
	if n >= width {
		return string([]rune(title)[:width])
	}
	total := width - n
	left := total / 2
	right := total - left
	return strings.Repeat(fill, left) + title + strings.Repeat(fill, right)
}
