// Command stockctl runs reconciliations and inspects master data from a shell.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

// Set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	e := &env{out: os.Stdout, errOut: os.Stderr, open: openService}
	for _, c := range commands(e) {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func commands(e *env) []subcommands.Command {
	return []subcommands.Command{
		&reconcileCmd{baseCmd: baseCmd{env: e}},
		&checkCmd{baseCmd: baseCmd{env: e}},
		&stockCmd{baseCmd: baseCmd{env: e}},
		&refreshCmd{baseCmd: baseCmd{env: e}},
	}
}
