// Command ordcache runs walk-throughs of the ordcache package: a single
// entry, smallest-key eviction, TTL expiry and concurrent access.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.dw1.io/ordcache/internal/command"
	mylog "go.dw1.io/ordcache/internal/log"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	mylog.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := os.Args
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	return 0
}
