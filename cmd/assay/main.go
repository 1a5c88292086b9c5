// Command assay classifies material names against a three-level taxonomy
// from the command line.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := &app{stdout: os.Stdout, stderr: os.Stderr}
	err := a.execute(ctx, os.Args[1:])
	stop()
	if err != nil {
		os.Exit(1)
	}
}
