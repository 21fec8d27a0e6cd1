package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	trackercmd "github.com/louisbranch/collectiontracker/internal/cmd/tracker"
)

func main() {
	cfg, err := trackercmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[TRACKER] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := trackercmd.Run(ctx, cfg); err != nil && ctx.Err() == nil {
		log.Fatalf("tracker failed: %v", err)
	}
}
