package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/workbridge/workbridge/cmd/workbridgectl/cli"
	"github.com/workbridge/workbridge/internal/app"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping cli startup")
		return
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
