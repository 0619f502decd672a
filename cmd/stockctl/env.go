package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"
	appreconcile "github.com/stockrecon/backend/internal/application/reconciliation"
	"github.com/stockrecon/backend/internal/bootstrap"
	"github.com/stockrecon/backend/internal/infrastructure/config"
)

// service is the part of the reconciliation service the commands drive
type service interface {
	Run(ctx context.Context, cmd appreconcile.RunCommand) (*appreconcile.RunReport, error)
	CheckMappings(ctx context.Context, salesCSV []byte) (*appreconcile.MappingCheck, error)
	StockPreview(ctx context.Context, limit int) (*appreconcile.StockPreview, error)
	RefreshMasterData(ctx context.Context) error
}

type openFunc func(ctx context.Context, configPath string) (service, func(), error)

// env is shared by every command
type env struct {
	out    io.Writer
	errOut io.Writer
	open   openFunc
}

func openService(ctx context.Context, configPath string) (service, func(), error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, nil, err
	}
	app, err := bootstrap.New(ctx, cfg, version)
	if err != nil {
		return nil, nil, err
	}
	closeApp := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = app.Close(ctx)
	}
	return app.Service, closeApp, nil
}

// baseCmd carries the flags every command accepts
type baseCmd struct {
	*env
	configPath string
}

func (b *baseCmd) setBaseFlags(f *flag.FlagSet) {
	f.StringVar(&b.configPath, "config", "", "Path to the TOML config file. Defaults to ./config.toml or /etc/stockrecon/config.toml")
}

// connect opens the service, reporting failures on errOut
func (b *baseCmd) connect(ctx context.Context) (service, func(), bool) {
	svc, closeFn, err := b.open(ctx, b.configPath)
	if err != nil {
		b.fail(err)
		return nil, nil, false
	}
	return svc, closeFn, true
}

func (b *baseCmd) fail(err error) {
	fmt.Fprintf(b.errOut, "Error: %v\n", err)
}

func (b *baseCmd) printJSON(v any) subcommands.ExitStatus {
	enc := json.NewEncoder(b.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		b.fail(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func readSalesFile(name string) ([]byte, error) {
	if name == "" {
		return nil, fmt.Errorf("-sales is required")
	}
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}
