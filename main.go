package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/helalist/hela/cmd"
	"github.com/helalist/hela/pkg/logging"
)

func main() {
	logging.SetupLogger()
	rootCMD, err := cmd.GetRootCommand()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Ctrl-C cancels the in-flight call or transfer
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCMD.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
