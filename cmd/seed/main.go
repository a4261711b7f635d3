package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	seedcmd "github.com/tannhaus/accord/internal/cmd/seed"
	entrypoint "github.com/tannhaus/accord/internal/platform/cmd"
	"github.com/tannhaus/accord/internal/platform/config"
)

func main() {
	cfg, err := seedcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetPrefix("[SEED] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSeed, func(ctx context.Context) error {
		return seedcmd.Run(ctx, cfg, os.Stdout)
	})
	if err != nil {
		log.Fatalf("failed to seed: %v", err)
	}
}
