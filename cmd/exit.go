package cmd

import (
	"errors"

	"github.com/warpdl/pomadbg/pkg/pomacli"
)

// Process exit codes.
const (
	ExitOK                = 0
	ExitNoCommands        = 1
	ExitConnectionFailure = 2
	ExitFailure           = 3
)

// ErrNoCommandsLoaded is returned by run when the command file yields no
// command to send.
var ErrNoCommandsLoaded = errors.New("no commands loaded")

// ExitCode maps an error returned by Execute to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, ErrNoCommandsLoaded) {
		return ExitNoCommands
	}
	var ce *pomacli.ConnectError
	if errors.As(err, &ce) {
		return ExitConnectionFailure
	}
	return ExitFailure
}

// reportedError marks an error that was already logged to the operator.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

// Reported reports whether err was already shown to the operator.
func Reported(err error) bool {
	var re *reportedError
	return errors.As(err, &re)
}
