package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"go.dw1.io/ordcache"
)

// HelloCommandBuilder returns the "hello" subcommand.
func HelloCommandBuilder() *cli.Command {
	return &cli.Command{
		Name:   "hello",
		Usage:  "store and read back a single entry",
		Action: HelloCommandAction,
	}
}

// HelloCommandAction stores "Hello" -> "world" and greets with it.
func HelloCommandAction(ctx context.Context, cmd *cli.Command) error {
	c := ordcache.New[string, string]()
	c.Set("Hello", "world")

	v, ok := c.Get("Hello")
	if !ok {
		return errors.New("entry for Hello went missing")
	}
	logger("hello").WithField("value", v).Debug("get")

	fmt.Fprintf(out(cmd), "Hello, %s!\n", v)
	return nil
}
