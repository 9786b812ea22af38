package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/wastesort/wastecam/internal/app"
	"github.com/wastesort/wastecam/internal/config"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, app.FromConfig)
	stop()
	os.Exit(code)
}

// run parses args, builds the app with newApp and runs it until it stops.
// It returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, newApp func(config.Config) (*app.App, error)) int {
	cfg, err := config.Load(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		log.Printf("Invalid configuration: %v", err)
		return exitUsage
	}

	a, err := newApp(cfg)
	if err != nil {
		log.Printf("Failed to initialize detector: %v", err)
		return exitFailure
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}()

	if err := a.Run(ctx); err != nil {
		if errors.Is(err, app.ErrCameraOpen) {
			fmt.Fprintln(stdout, app.MsgOpenFailed)
			log.Printf("%v", err)
			return exitFailure
		}
		log.Printf("Run failed: %v", err)
		return exitFailure
	}
	return exitOK
}
