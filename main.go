// ./main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/mimic-cli/cmd"
	"github.com/xkilldash9x/mimic-cli/internal/observability"
)

// main is the entry point for the mimic CLI.
func main() {
	// Interrupts cancel the context; `record` uses that as its stop signal
	// and `run` aborts the replay gracefully.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cmd.Execute(ctx)
	observability.Sync()
	if err != nil && !errors.Is(err, context.Canceled) {
		os.Exit(1)
	}
}
