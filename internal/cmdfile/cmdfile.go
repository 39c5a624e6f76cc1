// Package cmdfile loads PoMA command definition files (.tpoma).
//
// Each line is blank, a comment starting with '#', or
// "timestamp|command" where timestamp is a non-negative number of seconds
// from session start. Malformed lines are skipped with a warning.
package cmdfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/warpdl/pomadbg/internal/scheduler"
	"github.com/warpdl/pomadbg/pkg/logger"
)

// Sentinel errors for command file loading.
var (
	// ErrFileNotFound is returned when the command file does not exist.
	ErrFileNotFound = errors.New("command file not found")
	// ErrFilePermission is returned when the command file cannot be read due to permissions.
	ErrFilePermission = errors.New("permission denied reading command file")
	// ErrNoCommands is returned when the file holds no valid command line.
	ErrNoCommands = errors.New("command file contains no valid commands")
)

// FileError wraps command file errors with the offending path.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Path)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// NewFileError creates a new FileError with the given path and error.
func NewFileError(path string, err error) *FileError {
	return &FileError{Path: path, Err: err}
}

// SkipReason tells why a line was not turned into a command.
type SkipReason string

const (
	SkipNoSeparator      SkipReason = "invalid format"
	SkipInvalidTimestamp SkipReason = "invalid timestamp"
)

// SkippedLine records a malformed line.
type SkippedLine struct {
	Number int
	Text   string
	Reason SkipReason
}

// ParseResult holds the result of parsing a command file.
type ParseResult struct {
	// Commands are sorted by timestamp; equal timestamps keep file order.
	Commands []scheduler.TimedCommand
	// Skipped lists malformed lines in file order.
	Skipped []SkippedLine
	// CommentLines is the count of '#' lines.
	CommentLines int
	// TotalLines is the number of lines read.
	TotalLines int
}

const separator = "|"

// ParseFile reads path from fs and parses it with Parse.
//
// Errors returned:
//   - ErrFileNotFound: file does not exist
//   - ErrFilePermission: cannot read file due to permissions
//   - ErrNoCommands: file holds no valid command (the result is still returned)
func ParseFile(fs afero.Fs, path string, log logger.Logger) (*ParseResult, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	log.Info("Loading commands from file '%s'.", path)

	f, err := fs.Open(path)
	if err != nil {
		return nil, wrapFileError(path, err)
	}
	defer f.Close()

	result, err := Parse(f, log)
	if err != nil {
		return nil, NewFileError(path, err)
	}
	log.Info("Loaded %d commands from '%s'.", len(result.Commands), path)
	if len(result.Commands) == 0 {
		return result, NewFileError(path, ErrNoCommands)
	}
	return result, nil
}

// Parse reads command lines from r. Each command is trimmed and given a
// trailing line feed. Only read errors are returned; malformed lines are
// warned about and skipped.
func Parse(r io.Reader, log logger.Logger) (*ParseResult, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	result := &ParseResult{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		result.TotalLines++
		lineNum := result.TotalLines
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines
		if line == "" {
			continue
		}

		// Skip comment lines
		if strings.HasPrefix(line, "#") {
			result.CommentLines++
			continue
		}

		rawTS, command, ok := strings.Cut(line, separator)
		if !ok {
			log.Warning("Line %d ignored (invalid format): '%s'.", lineNum, line)
			result.Skipped = append(result.Skipped, SkippedLine{lineNum, line, SkipNoSeparator})
			continue
		}

		ts, err := ParseTimestamp(rawTS)
		if err != nil {
			log.Warning("Line %d ignored (invalid timestamp): '%s'.", lineNum, line)
			result.Skipped = append(result.Skipped, SkippedLine{lineNum, line, SkipInvalidTimestamp})
			continue
		}

		result.Commands = append(result.Commands, scheduler.TimedCommand{
			Timestamp: ts,
			Command:   strings.TrimSpace(command) + "\n",
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	result.Commands = scheduler.Sort(result.Commands)
	return result, nil
}

// ParseTimestamp parses a non-negative, finite number of seconds. Values
// that do not fit in a time.Duration (about 292 years) are rejected.
func ParseTimestamp(s string) (time.Duration, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, fmt.Errorf("timestamp out of range: %s", s)
	}
	ns := math.Round(f * float64(time.Second))
	if ns >= float64(math.MaxInt64) {
		return 0, fmt.Errorf("timestamp out of range: %s", s)
	}
	return time.Duration(ns), nil
}

// wrapFileError converts OS-level errors to domain-specific errors.
func wrapFileError(path string, err error) error {
	if os.IsNotExist(err) {
		return NewFileError(path, ErrFileNotFound)
	}
	if os.IsPermission(err) {
		return NewFileError(path, ErrFilePermission)
	}
	// Return wrapped original error for unexpected cases
	return NewFileError(path, err)
}
