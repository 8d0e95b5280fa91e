package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "time/tzdata" // spreadsheet time zones on hosts without zoneinfo

	"github.com/bassamadnan/sheetcrm/cli"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := cli.NewRootCmd(version).ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}
