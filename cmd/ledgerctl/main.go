// Command ledgerctl runs administrative ledger operations against the
// configured storage: period open/close, rate ingestion, batch posting
// and report export.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path"

	"github.com/google/subcommands"

	"github.com/SscSPs/ledger_engine/internal/platform/app"
	"github.com/SscSPs/ledger_engine/internal/platform/config"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	env := &cliEnv{
		stdout: os.Stdout,
		stderr: os.Stderr,
		stdin:  os.Stdin,
		actor:  os.Getenv("USER"),
		open: func(ctx context.Context) (*app.App, error) {
			cfg, err := config.LoadConfig()
			if err != nil {
				return nil, err
			}
			return app.New(ctx, cfg, logger)
		},
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	for _, c := range commands(env) {
		commander.Register(c.cmd, c.group)
	}

	flag.Parse()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}
