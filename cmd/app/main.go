package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&serveCmd{}, "")
	commander.Register(&forecastCmd{}, "")
	commander.Register(&catalogCmd{}, "")

	flag.Parse()
	if flag.NArg() == 0 {
		// no subcommand: run the server
		os.Exit(int((&serveCmd{configPath: configPath()}).Execute(context.Background(), flag.CommandLine)))
	}
	os.Exit(int(commander.Execute(context.Background())))
}
