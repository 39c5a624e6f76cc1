package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/warpdl/pomadbg/common"
	"github.com/warpdl/pomadbg/pkg/logger"
)

// ErrNoCommands is returned by Run for an empty command list.
var ErrNoCommands = errors.New("there are no commands to send")

const confirmPrompt = "Error sending command. Continue? ([Y]/n)"

// Scheduler paces a command list against the wall clock.
type Scheduler struct {
	transport      Transport
	log            logger.Logger
	assumeYes      bool
	confirm        ConfirmFunc
	receiveTimeout time.Duration
	observer       Observer

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithAssumeYes makes every send failure continue without asking.
func WithAssumeYes(yes bool) Option {
	return func(s *Scheduler) {
		s.assumeYes = yes
	}
}

// WithConfirm sets how the operator is asked after a send failure. Without
// it a failure stops the session unless WithAssumeYes is set.
func WithConfirm(fn ConfirmFunc) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.confirm = fn
		}
	}
}

// WithReceiveTimeout overrides the 2s per-read response timeout.
func WithReceiveTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.receiveTimeout = d
		}
	}
}

// WithObserver registers o for per-command notifications.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		s.observer = o
	}
}

// New creates a scheduler driving t.
func New(t Transport, log logger.Logger, opts ...Option) *Scheduler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	s := &Scheduler{
		transport:      t,
		log:            log,
		confirm:        NeverConfirm,
		receiveTimeout: common.DefaultReceiveTimeout,
		now:            time.Now,
		sleep:          sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run plays commands in ascending timestamp order. It returns ErrNoCommands
// without touching the transport when commands is empty, and ctx.Err() when
// the session was interrupted. Stopping on a lost connection or on a
// declined confirmation is not an error; see Report.Abort.
func (s *Scheduler) Run(ctx context.Context, commands []TimedCommand) (Report, error) {
	if len(commands) == 0 {
		s.log.Error("There are no commands to send.")
		return Report{}, ErrNoCommands
	}

	ordered := Sort(commands)
	report := Report{Total: len(ordered)}

	s.log.Info("Starting a debugging session with %d commands.", report.Total)
	s.log.BlankLine()

	var runErr error
	start := s.now()
	for i, cmd := range ordered {
		n := i + 1
		if err := ctx.Err(); err != nil {
			report.Abort, runErr = AbortInterrupted, err
			break
		}
		if !s.transport.IsConnected() {
			s.log.Error("Connection lost. Stopping session.")
			report.Abort = AbortConnectionLost
			break
		}

		wait := cmd.Timestamp - s.now().Sub(start)
		if wait > 0 {
			if n > 1 {
				s.log.BlankLine()
			}
			s.log.Waiting("Waiting %.2fs to send the next command (ts=%.2fs)...", wait.Seconds(), cmd.Seconds())
			if err := s.sleep(ctx, wait); err != nil {
				report.Abort, runErr = AbortInterrupted, err
				break
			}
		}

		s.log.Section(fmt.Sprintf("command %d/%d (t=%.2fs)", n, report.Total, s.now().Sub(start).Seconds()))
		report.Attempted++

		if err := s.transport.Send(cmd.Command); err != nil {
			report.Failed++
			s.notify(n, report.Total, cmd, false)
			if !s.continueAfterFailure() {
				if err := ctx.Err(); err != nil {
					report.Abort, runErr = AbortInterrupted, err
				} else {
					report.Abort = AbortDeclined
				}
				break
			}
			continue
		}

		report.Sent++
		if resp, _ := s.transport.Receive(s.receiveTimeout); resp != "" {
			report.Responses++
		}
		s.notify(n, report.Total, cmd, true)
	}

	report.Elapsed = s.now().Sub(start)
	s.log.Separator()
	s.log.Info("Session completed. Total time: %.2fs.", report.Elapsed.Seconds())
	return report, runErr
}

func (s *Scheduler) continueAfterFailure() bool {
	if s.assumeYes {
		s.log.Warning("Error sending command. Continuing automatically (assuming yes).")
		return true
	}
	s.log.Warning(confirmPrompt)
	return s.confirm(confirmPrompt)
}

func (s *Scheduler) notify(index, total int, cmd TimedCommand, sent bool) {
	if s.observer != nil {
		s.observer.CommandDone(index, total, cmd, sent)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
