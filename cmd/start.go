package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/warpdl/pomadbg/pkg/logger"
)

const startAtLayout = "2006-01-02 15:04"

// parseStartAt validates and parses a --start-at value.
func parseStartAt(value string) (time.Time, error) {
	t, err := time.ParseInLocation(startAtLayout, value, time.Local)
	if value == "" || err != nil {
		return time.Time{}, fmt.Errorf("error: invalid --start-at format, expected YYYY-MM-DD HH:MM")
	}
	return t, nil
}

// parseStartIn validates a --start-in duration string.
// Zero is valid and means an immediate start.
func parseStartIn(value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if value == "" || err != nil || d < 0 {
		return 0, fmt.Errorf("error: invalid --start-in duration, expected format like 30s, 5m or 1h30m")
	}
	return d, nil
}

// validateStartExclusion checks that at most one of the start flags is set.
func validateStartExclusion(startAt, startIn, startCron string) error {
	set := 0
	for _, v := range []string{startAt, startIn, startCron} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return fmt.Errorf("error: flags --start-at, --start-in and --start-cron are mutually exclusive")
	}
	return nil
}

// validateCron checks a --start-cron expression.
// Enforces exactly 5 fields (minute hour day-of-month month day-of-week).
func validateCron(expr string) error {
	// gronx.IsValid also accepts 6-field (with seconds).
	fields := strings.Fields(expr)
	if len(fields) != 5 || !gronx.IsValid(expr) {
		return fmt.Errorf("error: invalid cron expression %q, expected 5-field format (minute hour day-of-month month day-of-week)", expr)
	}
	return nil
}

// nextCronTick returns the next occurrence of expr strictly after from.
// An expression without an occurrence within a year is rejected.
func nextCronTick(expr string, from time.Time) (time.Time, error) {
	next, err := gronx.NextTickAfter(expr, from, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("error: cron expression %q has no next occurrence: %w", expr, err)
	}
	if !next.Before(from.Add(365 * 24 * time.Hour)) {
		return time.Time{}, fmt.Errorf("error: cron expression %q has no occurrence within a year", expr)
	}
	return next, nil
}

// startDelay resolves the start flags into how long to wait from now.
// A --start-at in the past yields zero and a warning.
func startDelay(opts runOptions, now time.Time) (delay time.Duration, warning string, err error) {
	switch {
	case opts.StartAt != "":
		t, err := parseStartAt(opts.StartAt)
		if err != nil {
			return 0, "", err
		}
		if t.Before(now) {
			return 0, "Scheduled time is in the past, starting the session immediately.", nil
		}
		return t.Sub(now), "", nil
	case opts.StartIn != "":
		d, err := parseStartIn(opts.StartIn)
		return d, "", err
	case opts.StartCron != "":
		if err := validateCron(opts.StartCron); err != nil {
			return 0, "", err
		}
		next, err := nextCronTick(opts.StartCron, now)
		if err != nil {
			return 0, "", err
		}
		return next.Sub(now), "", nil
	}
	return 0, "", nil
}

// waitForStart blocks for the delayed start, returning ctx.Err() when
// interrupted.
func waitForStart(ctx context.Context, log logger.Logger, delay time.Duration, now time.Time) error {
	if delay <= 0 {
		return nil
	}
	log.Waiting("Session scheduled for %s, waiting %s...", now.Add(delay).Format("2006-01-02 15:04:05"), delay.Round(time.Second))
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
