// Command fixflowctl runs the administrator operations of the lifecycle engine
// that the HTTP API does not expose: agency onboarding, currency changes,
// company re-parenting, login accounts and token issuance.
//
// Every command acts as the system principal and prints its result as JSON.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp()
	err := newRootCommand(a).ExecuteContext(ctx)
	a.close()
	if err != nil {
		os.Exit(1)
	}
}
