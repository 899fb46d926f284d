// Package main starts the marketplace rollup process.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/marketplace/internal/cmd/marketplace"
	"github.com/louisbranch/marketplace/internal/platform/config"
)

func main() {
	cfg, err := marketplace.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := marketplace.Run(ctx, cfg, os.Stdout); err != nil {
		config.Exitf("marketplace: %v", err)
	}
}
