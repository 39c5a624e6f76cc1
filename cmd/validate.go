package cmd

import (
	"time"

	"github.com/spf13/afero"
	"github.com/urfave/cli"
	"github.com/warpdl/pomadbg/pkg/logger"
)

func (rt *runtimeIO) validate(ctx *cli.Context) error {
	path := ctx.String("file")
	if path == "" {
		path = ctx.Args().First()
	}
	log := logger.NewConsoleLogger(rt.out, consoleOptions(rt.out, false, false))
	return validateFile(afero.NewOsFs(), path, log)
}

// validateFile parses a command file and prints the command table.
func validateFile(fs afero.Fs, path string, log logger.Logger) error {
	log.Section("Session Commands:")
	commands, err := loadCommands(fs, path, log)
	if err != nil {
		return err
	}
	printCommandTable(log, commands)

	var last time.Duration
	if n := len(commands); n > 0 {
		last = commands[n-1].Timestamp
	}
	log.Success("%d commands, session lasts at least %ss.", len(commands), formatSeconds(last))
	return nil
}
