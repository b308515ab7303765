package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
)

// waitForShutdown blocks until SIGINT/SIGTERM arrives or ctx is cancelled,
// grounded in the teacher's pkg/core/brain.go WaitForShutdown.
func waitForShutdown(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Printf("received signal %v, initiating shutdown...", sig)
		cancel()
	case <-ctx.Done():
	}
}

// printBanner prints the daemon's startup banner, grounded in the teacher's
// pkg/core/brain.go PrintBanner.
func printBanner() {
	banner := `
  ____              _  __                    _
 / ___|___   __ _  | |/ /___ _ __ _ __   ___| |
| |   / _ \ / _` + "`" + ` | | ' // _ \ '__| '_ \ / _ \ |
| |__| (_) | (_| | | . \  __/ |  | | | |  __/ |
 \____\___/ \__, | |_|\_\___|_|  |_| |_|\___|_|
            |___/
    Reflex + deep-think cognitive routing daemon
    ──────────────────────────────────────────────
`
	fmt.Print(banner)
}
