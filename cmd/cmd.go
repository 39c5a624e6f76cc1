// Package cmd implements the pomadbg command-line application.
package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/urfave/cli"
	"github.com/warpdl/pomadbg/cmd/common"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

// Execute runs the application with the given arguments.
func Execute(args []string, bArgs BuildArgs) error {
	return newApp(bArgs, os.Stdout, os.Stdin).Run(args)
}

func newApp(bArgs BuildArgs, out io.Writer, in io.Reader) *cli.App {
	rt := &runtimeIO{out: out, in: in}
	app := &cli.App{
		Name:                  "pomadbg",
		HelpName:              "pomadbg",
		Usage:                 "TCP debug client for PoMA interpreters.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "pomadbg <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          common.UsageErrorCallback,
		Writer:                out,
		ErrWriter:             out,
		Commands: []cli.Command{
			{
				Name:                   "run",
				Aliases:                []string{"r"},
				Usage:                  "play a command file against a PoMA server",
				Description:            RunDescription,
				OnUsageError:           common.UsageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Action:                 rt.run,
				UseShortOptionHandling: true,
				Flags:                  runFlags,
			},
			{
				Name:               "validate",
				Aliases:            []string{"check"},
				Usage:              "parse a command file without connecting",
				Description:        ValidateDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             rt.validate,
				Flags:              validateFlags,
			},
			{
				Name:               "transcript",
				Aliases:            []string{"t"},
				Usage:              "inspect recorded sessions",
				Description:        TranscriptDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             rt.transcript,
				Flags:              transcriptFlags,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  common.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of pomadbg",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             common.GetVersion,
			},
		},
		Action:                 rt.run,
		Flags:                  runFlags,
		UseShortOptionHandling: true,
		HideHelp:               true,
		HideVersion:            true,
	}
	common.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	return app
}

// runtimeIO carries the streams the actions talk to.
type runtimeIO struct {
	out io.Writer
	in  io.Reader
}
