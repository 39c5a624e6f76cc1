package cmd

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/warpdl/pomadbg/internal/scheduler"
)

// prompter reads operator answers from a line-oriented input. Lines are
// read in the background so a pending prompt can be abandoned when the
// session is interrupted.
type prompter struct {
	in    io.Reader
	once  sync.Once
	lines chan string
}

func newPrompter(in io.Reader) *prompter {
	return &prompter{in: in, lines: make(chan string)}
}

func (p *prompter) start() {
	go func() {
		scanner := bufio.NewScanner(p.in)
		for scanner.Scan() {
			p.lines <- scanner.Text()
		}
		close(p.lines)
	}()
}

// Confirm returns a ConfirmFunc bound to ctx. The prompt itself is logged
// by the scheduler. Closed input and interruption both count as no.
func (p *prompter) Confirm(ctx context.Context) scheduler.ConfirmFunc {
	return func(string) bool {
		p.once.Do(p.start)
		select {
		case <-ctx.Done():
			return false
		case line, ok := <-p.lines:
			if !ok {
				return false
			}
			return acceptsContinue(line)
		}
	}
}

// acceptsContinue reports whether an answer means yes. An empty answer
// takes the default.
func acceptsContinue(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "", "y", "yes":
		return true
	default:
		return false
	}
}
