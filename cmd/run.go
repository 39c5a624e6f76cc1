package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/urfave/cli"
	"github.com/warpdl/pomadbg/cmd/common"
	pcommon "github.com/warpdl/pomadbg/common"
	"github.com/warpdl/pomadbg/internal/cmdfile"
	"github.com/warpdl/pomadbg/internal/recorder"
	"github.com/warpdl/pomadbg/internal/scheduler"
	"github.com/warpdl/pomadbg/pkg/logger"
	"github.com/warpdl/pomadbg/pkg/pomacli"
)

func (rt *runtimeIO) run(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	opts, err := runOptionsFromContext(ctx)
	if err != nil {
		fmt.Fprintf(rt.out, "%s: %s\n", ctx.App.HelpName, err.Error())
		return &reportedError{err}
	}

	sctx, cancel := setupShutdownHandler()
	defer cancel()
	return runSession(sctx, opts, rt.out, rt.in)
}

// runSession plays one debugging session and closes every resource it
// opened before returning.
func runSession(ctx context.Context, opts runOptions, out io.Writer, in io.Reader) error {
	log, logOut, err := newSessionLogger(opts, out)
	if err != nil {
		fmt.Fprintf(out, "pomadbg: %s\n", err.Error())
		return &reportedError{err}
	}
	defer log.Close()

	s := &session{
		opts:   opts,
		log:    log,
		logOut: logOut,
		out:    out,
		in:     in,
		fs:     afero.NewOsFs(),
		now:    time.Now,
	}
	return s.run(ctx)
}

type session struct {
	opts runOptions
	log  logger.Logger
	// logOut is where console lines go; nil when the logger writes
	// elsewhere.
	logOut *logOutput
	out    io.Writer
	in     io.Reader
	fs     afero.Fs
	now    func() time.Time
}

func (s *session) run(ctx context.Context) error {
	opts, log := s.opts, s.log

	log.Separator()
	log.Section("PoMA Debug Client")
	log.Separator()
	log.Debug("Starting PoMA Debug Client with params:")
	log.Debug("IP:   %s", opts.Host)
	log.Debug("Port: %d", opts.Port)
	if opts.File != "" {
		log.Debug("File: %s", opts.File)
	}

	log.BlankLine()
	log.Section("Session Commands:")
	commands, err := loadCommands(s.fs, opts.File, log)
	if err != nil {
		return err
	}
	printCommandTable(log, commands)

	delay, warning, err := startDelay(opts, s.now())
	if err != nil {
		log.Error("%s", err.Error())
		return &reportedError{err}
	}
	if warning != "" {
		log.Warning("%s", warning)
	}
	if err := waitForStart(ctx, log, delay, s.now()); err != nil {
		log.Error("Program interrupted by user.")
		return nil
	}

	clientOpts := []pomacli.Option{pomacli.WithConnectTimeout(opts.ConnectTimeout)}
	if opts.Proxy != "" {
		dialer, err := pomacli.NewProxyDialer(opts.Proxy)
		if err != nil {
			log.Error("Invalid proxy: '%v'.", err)
			return &reportedError{err}
		}
		log.Debug("Proxy: SOCKS5")
		clientOpts = append(clientOpts, pomacli.WithDialer(dialer))
	}
	if opts.Record != "" {
		rec, err := recorder.Open(opts.Record)
		if err != nil {
			log.Error("Cannot open transcript database '%s': %v.", opts.Record, err)
			return &reportedError{err}
		}
		tap, err := rec.Begin(net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)))
		if err != nil {
			rec.Close()
			log.Error("Cannot start recording: %v.", err)
			return &reportedError{err}
		}
		defer func() {
			if err := recorder.Finish(tap, rec); err != nil {
				log.Warning("Transcript was not closed cleanly: %v.", err)
			}
		}()
		log.Info("Recording session %s to '%s'.", tap.ID(), opts.Record)
		clientOpts = append(clientOpts, pomacli.WithTap(tap))
	}

	log.BlankLine()
	log.Section("PoMA/TCP Connection:")
	client := pomacli.NewClient(opts.Host, opts.Port, log, clientOpts...)
	if err := client.Connect(ctx); err != nil {
		if ctx.Err() != nil {
			log.Error("Program interrupted by user.")
			return nil
		}
		log.Error("TCP connection could not be established. Exiting.")
		return &reportedError{err}
	}
	defer client.Close()

	log.BlankLine()
	log.Separator()
	log.Section("Debug Session:")
	log.Separator()

	schedOpts := []scheduler.Option{
		scheduler.WithAssumeYes(opts.AssumeYes),
		scheduler.WithReceiveTimeout(opts.ReceiveTimeout),
		scheduler.WithConfirm(newPrompter(s.in).Confirm(ctx)),
	}
	var progress *progressObserver
	if opts.Progress {
		progress = newProgressObserver(s.out, len(commands))
		schedOpts = append(schedOpts, scheduler.WithObserver(progress))
		if s.logOut != nil {
			s.logOut.Set(progress.p)
		}
	}

	report, err := scheduler.New(client, log, schedOpts...).Run(ctx, commands)
	if progress != nil {
		progress.Wait()
		if s.logOut != nil {
			s.logOut.Set(s.out)
		}
	}
	switch {
	case errors.Is(err, context.Canceled):
		log.Error("Program interrupted by user.")
		err = nil
	case err != nil:
		log.Error("Error during session: '%v'.", err)
		err = &reportedError{err}
	}
	printSummary(log, report, client.Stats())
	return err
}

// loadCommands parses path, falling back to the default command file.
// Every failure is logged and reported as ErrNoCommandsLoaded.
func loadCommands(fs afero.Fs, path string, log logger.Logger) ([]scheduler.TimedCommand, error) {
	if path == "" {
		path = pcommon.DefaultCommandFile
		log.Info("No file specified. Using default definition.")
	}
	result, err := cmdfile.ParseFile(fs, path, log)
	if err != nil {
		switch {
		case errors.Is(err, cmdfile.ErrFileNotFound):
			log.Error("File not found: '%s'.", path)
		case errors.Is(err, cmdfile.ErrNoCommands):
		default:
			log.Error("Error reading file: '%v'.", err)
		}
		log.Error("No commands loaded. Exiting.")
		return nil, &reportedError{fmt.Errorf("%w: %w", ErrNoCommandsLoaded, err)}
	}
	return result.Commands, nil
}

func printCommandTable(log logger.Logger, commands []scheduler.TimedCommand) {
	log.Debug("%s : Command", common.RightAlign("Timestamp", 10))
	log.Debug("%s", strings.Repeat("-", 40))
	for _, c := range commands {
		log.Debug("%s : %s", common.RightAlign(formatSeconds(c.Timestamp), 10), logger.Unhide(c.Command))
	}
}

// formatSeconds renders a timestamp in seconds, always with a decimal
// point ("3.0", "1.5", "0.25").
func formatSeconds(d time.Duration) string {
	s := strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func printSummary(log logger.Logger, report scheduler.Report, stats pomacli.Stats) {
	log.BlankLine()
	log.Section("Session Summary:")
	log.Info("Commands: %d of %d attempted, %d sent, %d failed.", report.Attempted, report.Total, report.Sent, report.Failed)
	log.Info("Responses received: %d.", report.Responses)
	log.Info("Traffic: %s sent, %s received.",
		humanize.Bytes(uint64(stats.BytesSent)),
		humanize.Bytes(uint64(stats.BytesReceived)),
	)
	if report.Abort != scheduler.AbortNone {
		log.Warning("Session stopped early: %s.", report.Abort)
	}
}

// consoleOptions decides how console output is decorated. Colors are used
// only on a terminal and never when NO_COLOR is set.
func consoleOptions(out io.Writer, noColor, timestamps bool) logger.Options {
	useColors := !noColor && os.Getenv(pcommon.NoColorEnv) == ""
	if f, ok := out.(*os.File); ok {
		useColors = useColors && logger.ColorsSupported(f)
	} else {
		useColors = false
	}
	return logger.Options{UseColors: useColors, UseTimestamps: timestamps}
}

func newSessionLogger(opts runOptions, out io.Writer) (logger.Logger, *logOutput, error) {
	logOut := &logOutput{w: out}
	console := logger.NewConsoleLogger(logOut, consoleOptions(out, opts.NoColor, opts.Timestamps))
	if opts.LogFile == "" {
		return console, logOut, nil
	}
	f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("error: cannot open log file: %w", err)
	}
	return logger.NewMultiLogger(console, logger.NewJSONLogger(f)), logOut, nil
}
