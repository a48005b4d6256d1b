// Package main runs the Plannio REST API with in-process housekeeping.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	apicmd "github.com/plannio/plannio/internal/cmd/api"
	platformcmd "github.com/plannio/plannio/internal/platform/cmd"
)

func main() {
	cfg, err := apicmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceAPI, func(ctx context.Context) error {
		return apicmd.Run(ctx, cfg)
	}); err != nil {
		log.Fatalf("failed to serve api: %v", err)
	}
}
