package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type stockCmd struct {
	baseCmd
	limit int
}

func (*stockCmd) Name() string     { return "stock" }
func (*stockCmd) Synopsis() string { return "print the first rows of the stock table" }
func (*stockCmd) Usage() string {
	return `stockctl stock [-limit <n>] [-config <file>]

  Prints the head of the stock ledger as JSON. -limit 0 prints every row.
`
}

func (c *stockCmd) SetFlags(f *flag.FlagSet) {
	c.setBaseFlags(f)
	f.IntVar(&c.limit, "limit", 5, "Number of records to print, 0 for all")
}

func (c *stockCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.limit < 0 {
		c.fail(fmt.Errorf("-limit must not be negative"))
		return subcommands.ExitUsageError
	}

	svc, closeFn, ok := c.connect(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	defer closeFn()

	preview, err := svc.StockPreview(ctx, c.limit)
	if err != nil {
		c.fail(err)
		return subcommands.ExitFailure
	}
	return c.printJSON(preview)
}
