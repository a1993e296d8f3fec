package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jinford/kits-cli/internal/app/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewCommand()

	if err := app.Run(ctx, os.Args); err != nil {
		cli.PrintError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
