package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli"
	"github.com/warpdl/pomadbg/cmd/common"
	"github.com/warpdl/pomadbg/internal/recorder"
	"github.com/warpdl/pomadbg/pkg/logger"
)

func (rt *runtimeIO) transcript(ctx *cli.Context) error {
	db := ctx.String("db")
	if db == "" {
		db = ctx.Args().First()
	}
	if db == "" {
		return common.PrintErrWithCmdHelp(ctx, errors.New("no transcript database provided"))
	}
	if _, err := os.Stat(db); err != nil {
		common.PrintRuntimeErr(ctx, "transcript", "open", err)
		return &reportedError{err}
	}
	rec, err := recorder.Open(db)
	if err != nil {
		common.PrintRuntimeErr(ctx, "transcript", "open", err)
		return &reportedError{err}
	}
	defer rec.Close()

	if id := ctx.String("session"); id != "" {
		err = printEvents(rt.out, rec, id)
	} else {
		err = printSessions(rt.out, rec)
	}
	if err != nil {
		common.PrintRuntimeErr(ctx, "transcript", "query", err)
		return &reportedError{err}
	}
	return nil
}

func printSessions(out io.Writer, rec *recorder.Recorder) error {
	sessions, err := rec.Sessions()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(out, "pomadbg: no recorded sessions")
		return nil
	}
	fmt.Fprintln(out, "Recorded sessions:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%-36s  %-21s  %-19s  %6s  %9s  %s\n", "Session", "Target", "Started", "Events", "Payload", "State")
	for _, s := range sessions {
		state := "complete"
		if s.EndedAt.IsZero() {
			state = "incomplete"
		}
		fmt.Fprintf(out, "%-36s  %-21s  %-19s  %6d  %9s  %s\n",
			s.ID,
			s.Target,
			s.StartedAt.Format("2006-01-02 15:04:05"),
			s.Events,
			humanize.Bytes(uint64(s.Bytes)),
			state,
		)
	}
	return nil
}

func printEvents(out io.Writer, rec *recorder.Recorder, id string) error {
	events, err := rec.Events(id)
	if err != nil {
		return err
	}
	var total int64
	for _, ev := range events {
		arrow := "<<"
		if ev.Direction == recorder.DirectionSent {
			arrow = ">>"
		}
		fmt.Fprintf(out, "%4d  %9.3fs  %s  %s\n", ev.Seq, ev.Offset.Seconds(), arrow, logger.Unhide(string(ev.Payload)))
		total += int64(len(ev.Payload))
	}
	fmt.Fprintf(out, "%d events, %s\n", len(events), humanize.Bytes(uint64(total)))
	return nil
}
