package main

import (
	"context"
	"flag"

	"github.com/google/subcommands"
	appreconcile "github.com/stockrecon/backend/internal/application/reconciliation"
)

type reconcileCmd struct {
	baseCmd
	sales  string
	dryRun bool
}

func (*reconcileCmd) Name() string     { return "reconcile" }
func (*reconcileCmd) Synopsis() string { return "deduct a sales extract from the stock table" }
func (*reconcileCmd) Usage() string {
	return `stockctl reconcile -sales <file> [-dry-run] [-config <file>]

  Reads the sales CSV (use - for stdin), deducts every sale from the stock
  table and prints the run report as JSON. With -dry-run nothing is written.
`
}

func (c *reconcileCmd) SetFlags(f *flag.FlagSet) {
	c.setBaseFlags(f)
	f.StringVar(&c.sales, "sales", "", "Sales CSV file, or - for stdin")
	f.BoolVar(&c.dryRun, "dry-run", false, "Compute the audit without writing the stock table")
}

func (c *reconcileCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	report, err := svc.Run(ctx, appreconcile.RunCommand{SalesCSV: data, DryRun: c.dryRun})
	if report != nil {
		c.printJSON(report)
	}
	if err != nil {
		c.fail(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
