package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"signalstore/cmd/signalstore/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, commands.ErrorText(err))
		stop()
		os.Exit(1)
	}
}
