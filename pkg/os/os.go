package os

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// ExpectTermination returns a context cancelled on SIGINT or SIGTERM.
func ExpectTermination(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
