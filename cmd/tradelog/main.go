package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	tradelogcmd "github.com/tannhaus/accord/internal/cmd/tradelog"
	entrypoint "github.com/tannhaus/accord/internal/platform/cmd"
	"github.com/tannhaus/accord/internal/platform/config"
)

func main() {
	cfg, err := tradelogcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetPrefix("[TRADELOG] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceTradelog, func(ctx context.Context) error {
		return tradelogcmd.Run(ctx, cfg, os.Stdout)
	})
	if err != nil {
		log.Fatalf("failed to read journal: %v", err)
	}
}
