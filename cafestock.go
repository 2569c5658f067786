package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cafestock/pkg/app"
)

// main exposes a root-level entry point so operators can simply run `go run cafestock.go`.
func main() {
	logger := log.New(os.Stdout, "[cafestock] ", log.LstdFlags)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := app.Run(ctx, os.Args[1:], logger); err != nil {
		logger.Fatalf("application stopped with error: %v", err)
	}
}
