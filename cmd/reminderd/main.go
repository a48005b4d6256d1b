// Package main runs the reminder daemon as a standalone process.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	reminderdcmd "github.com/plannio/plannio/internal/cmd/reminderd"
	platformcmd "github.com/plannio/plannio/internal/platform/cmd"
)

func main() {
	cfg, err := reminderdcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[reminderd] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceReminder, func(ctx context.Context) error {
		return reminderdcmd.Run(ctx, cfg)
	}); err != nil {
		log.Fatalf("failed to run reminder daemon: %v", err)
	}
}
