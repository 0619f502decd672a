package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type checkCmd struct {
	baseCmd
	sales string
}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "list sale labels missing from the mapping table" }
func (*checkCmd) Usage() string {
	return `stockctl check -sales <file> [-config <file>]

  Prints every sale label of the extract that has no product mapping or is
  mapped to more than one admin code. Exits non-zero when any is found.
`
}

func (c *checkCmd) SetFlags(f *flag.FlagSet) {
	c.setBaseFlags(f)
	f.StringVar(&c.sales, "sales", "", "Sales CSV file, or - for stdin")
}

func (c *checkCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	data, err := readSalesFile(c.sales)
	if err != nil {
		c.fail(err)
		return subcommands.ExitUsageError
	}

	svc, closeFn, ok := c.connect(ctx)
	if !ok {
		return subcommands.ExitFailure
	}
	defer closeFn()

	check, err := svc.CheckMappings(ctx, data)
	if err != nil {
		c.fail(err)
		return subcommands.ExitFailure
	}

	if len(check.Unmapped) == 0 && len(check.Ambiguous) == 0 {
		fmt.Fprintf(c.out, "All %d labels are mapped (%d sale lines)\n", check.Labels, check.SaleLines)
		return subcommands.ExitSuccess
	}
	if len(check.Unmapped) > 0 {
		fmt.Fprintf(c.out, "%d of %d labels are unmapped:\n", len(check.Unmapped), check.Labels)
		for _, label := range check.Unmapped {
			fmt.Fprintf(c.out, "  %s\n", label)
		}
	}
	if len(check.Ambiguous) > 0 {
		fmt.Fprintf(c.out, "%d of %d labels map to more than one admin code:\n", len(check.Ambiguous), check.Labels)
		for _, label := range check.Ambiguous {
			fmt.Fprintf(c.out, "  %s\n", label)
		}
	}
	return subcommands.ExitFailure
}
