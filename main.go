package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/warpdl/pomadbg/cmd"
)

var (
	version   string
	commit    string
	date      string
	buildType string = "unclassified"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	err := cmd.Execute(os.Args, cmd.BuildArgs{
		Version:   version,
		Commit:    commit,
		Date:      date,
		BuildType: buildType,
	})
	if err != nil && !cmd.Reported(err) {
		fmt.Printf("pomadbg: %s\n", err.Error())
	}
	os.Exit(cmd.ExitCode(err))
}
