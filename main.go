package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	dotenvErr := godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(&cfg)
	if dotenvErr != nil {
		pre := root.PersistentPreRunE
		root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
			if err := pre(cmd, args); err != nil {
				return err
			}
			slog.Debug("no .env file, using the environment only", "err", dotenvErr)
			return nil
		}
	}

	if err := root.ExecuteContext(ctx); err != nil {
		slog.Error("ipblocks", "err", err)
		stop()
		os.Exit(1)
	}
}
