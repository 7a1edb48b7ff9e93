// Modbusdash is a dashboard client for a Modbus TCP HTTP gateway.
//
// It shows and edits the discrete inputs, coils and holding registers of a
// Modbus device through the gateway's REST API, and manages the
// human-readable names the gateway keeps for each address.
//
// Usage:
//
//	modbusdash [command] [flags]
//
// Running without arguments launches the full-screen dashboard.
// See 'modbusdash --help' for available commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/muurk/modbusdash/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	logging.Sync()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
