package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli"
	"github.com/warpdl/pomadbg/common"
)

var (
	runFlags = []cli.Flag{
		cli.StringFlag{
			Name:   "ip, i",
			Usage:  "PoMA server IP address",
			Value:  common.DefaultHost,
			EnvVar: common.IPEnv,
		},
		cli.IntFlag{
			Name:   "port, p",
			Usage:  "PoMA server port",
			Value:  common.DefaultPort,
			EnvVar: common.PortEnv,
		},
		cli.StringFlag{
			Name:   "file, f",
			Usage:  "PoMA command definition file (.tpoma), " + common.DefaultCommandFile + " if not specified",
			EnvVar: common.FileEnv,
		},
		cli.BoolFlag{
			Name:   "assume-yes, y",
			Usage:  "bypass confirmation prompts by automatically responding yes",
			EnvVar: common.AssumeYesEnv,
		},
		cli.DurationFlag{
			Name:  "connect-timeout",
			Usage: "timeout for establishing the TCP connection",
			Value: common.DefaultConnectTimeout,
		},
		cli.DurationFlag{
			Name:  "receive-timeout",
			Usage: "timeout for each read while waiting for a response",
			Value: common.DefaultReceiveTimeout,
		},
		cli.BoolFlag{
			Name:  "timestamps, t",
			Usage: "prefix every log line with the wall-clock time",
		},
		cli.BoolFlag{
			Name:  "no-color",
			Usage: "disable colored output (also disabled when NO_COLOR is set)",
		},
		cli.StringFlag{
			Name:   "log-file",
			Usage:  "also write JSON log records to this file",
			EnvVar: common.LogFileEnv,
		},
		cli.StringFlag{
			Name:   "record",
			Usage:  "record every payload to this SQLite database",
			EnvVar: common.RecordEnv,
		},
		cli.StringFlag{
			Name:   "proxy",
			Usage:  "connect through a SOCKS5 proxy (socks5://[user:pass@]host:port)",
			EnvVar: common.ProxyEnv + ",ALL_PROXY",
		},
		cli.BoolFlag{
			Name:  "progress",
			Usage: "show a progress bar of processed commands",
		},
		cli.StringFlag{
			Name:  "start-at",
			Usage: "start the session at a local time (YYYY-MM-DD HH:MM)",
		},
		cli.StringFlag{
			Name:  "start-in",
			Usage: "start the session after a delay (e.g. 30s, 5m, 1h30m)",
		},
		cli.StringFlag{
			Name:  "start-cron",
			Usage: "start the session at the next tick of a 5-field cron expression",
		},
	}

	validateFlags = []cli.Flag{
		cli.StringFlag{
			Name:   "file, f",
			Usage:  "PoMA command definition file (.tpoma)",
			EnvVar: common.FileEnv,
		},
	}

	transcriptFlags = []cli.Flag{
		cli.StringFlag{
			Name:   "db",
			Usage:  "transcript database written by run --record",
			EnvVar: common.RecordEnv,
		},
		cli.StringFlag{
			Name:  "session, s",
			Usage: "dump the events of this session id",
		},
	}
)

var errInvalidPort = errors.New("error: invalid port, expected a value between 1 and 65535")

// runOptions is the validated form of the run flags.
type runOptions struct {
	Host           string
	Port           int
	File           string
	AssumeYes      bool
	ConnectTimeout time.Duration
	ReceiveTimeout time.Duration
	Timestamps     bool
	NoColor        bool
	LogFile        string
	Record         string
	Proxy          string
	Progress       bool
	StartAt        string
	StartIn        string
	StartCron      string
}

func runOptionsFromContext(ctx *cli.Context) (runOptions, error) {
	opts := runOptions{
		Host:           ctx.String("ip"),
		Port:           ctx.Int("port"),
		File:           ctx.String("file"),
		AssumeYes:      ctx.Bool("assume-yes"),
		ConnectTimeout: ctx.Duration("connect-timeout"),
		ReceiveTimeout: ctx.Duration("receive-timeout"),
		Timestamps:     ctx.Bool("timestamps"),
		NoColor:        ctx.Bool("no-color"),
		LogFile:        ctx.String("log-file"),
		Record:         ctx.String("record"),
		Proxy:          ctx.String("proxy"),
		Progress:       ctx.Bool("progress"),
		StartAt:        ctx.String("start-at"),
		StartIn:        ctx.String("start-in"),
		StartCron:      ctx.String("start-cron"),
	}
	// a bare positional argument is accepted as the command file
	if opts.File == "" && ctx.NArg() > 0 {
		opts.File = ctx.Args().First()
	}
	return opts, opts.validate()
}

func (o runOptions) validate() error {
	if o.Port < 1 || o.Port > 65535 {
		return errInvalidPort
	}
	if o.ConnectTimeout <= 0 {
		return fmt.Errorf("error: --connect-timeout must be positive, got %s", o.ConnectTimeout)
	}
	if o.ReceiveTimeout <= 0 {
		return fmt.Errorf("error: --receive-timeout must be positive, got %s", o.ReceiveTimeout)
	}
	if err := validateStartExclusion(o.StartAt, o.StartIn, o.StartCron); err != nil {
		return err
	}
	if o.StartAt != "" {
		if _, err := parseStartAt(o.StartAt); err != nil {
			return err
		}
	}
	if o.StartIn != "" {
		if _, err := parseStartIn(o.StartIn); err != nil {
			return err
		}
	}
	if o.StartCron != "" {
		if err := validateCron(o.StartCron); err != nil {
			return err
		}
	}
	return nil
}
