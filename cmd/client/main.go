package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/dosekeeper/internal/client/cli"
	"github.com/dmitrijs2005/dosekeeper/internal/client/config"
	"github.com/dmitrijs2005/dosekeeper/internal/logging"
)

func main() {

	cfg := config.LoadConfig()
	logger := logging.New(cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, store, cleanup, err := cli.Bootstrap(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}
	defer cleanup()

	store.WarmStart(ctx)
	store.Initialize(ctx)
	go store.Watch(ctx, cfg.SessionCheckInterval)

	app.Run(ctx)

}
