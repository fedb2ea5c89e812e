// Command lendbook-admin is the operator CLI: export and import the
// ledger, print portfolio stats, and bootstrap the Google OAuth token
// used by the spreadsheet mirror.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/google/subcommands"

	"lendbook/internal/backend"
	"lendbook/internal/cli"
	"lendbook/internal/config"
	"lendbook/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(subcommands.HelpCommand(), "")
	commander.Register(&exportCmd{logger: logger}, "")
	commander.Register(&importCmd{logger: logger}, "")
	commander.Register(&statsCmd{logger: logger}, "")
	commander.Register(&oauthCmd{}, "")

	flag.Parse()

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()
	os.Exit(int(commander.Execute(ctx)))
}

// initBackend wires the store, messaging, and service from the
// environment configuration. Unlike the server mains it returns errors
// so commands can report them through their exit status.
func initBackend(ctx context.Context, logger *log.Logger) (*backend.BackendResult, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
}
