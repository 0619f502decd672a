package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type refreshCmd struct {
	baseCmd
}

func (*refreshCmd) Name() string     { return "refresh" }
func (*refreshCmd) Synopsis() string { return "drop cached stock and mapping tables" }
func (*refreshCmd) Usage() string {
	return `stockctl refresh [-config <file>]

  Invalidates the cached master data so the next run reads the store.
`
}

func (c *refreshCmd) SetFlags(f *flag.FlagSet) {
	c.setBaseFlags(f)
}

func (c *refreshCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	svc, closeFn, ok := c.connect(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	defer closeFn()

	if err := svc.RefreshMasterData(ctx); err != nil {
		c.fail(err)
		return subcommands.ExitFailure
	}
	fmt.Fprintln(c.out, "Master data cache cleared")
	return subcommands.ExitSuccess
}
