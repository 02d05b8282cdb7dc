package command

import (
	"context"
	"fmt"
	"slices"

	"github.com/urfave/cli/v3"

	"go.dw1.io/ordcache"
)

// SizeCommandBuilder returns the "size" subcommand.
func SizeCommandBuilder(cfgPath string) *cli.Command {
	return &cli.Command{
		Name:   "size",
		Usage:  "show smallest-key eviction in a bounded cache",
		Action: SizeCommandAction,
		Flags: []cli.Flag{
			maxSizeFlag(cfgPath, 1),
			&cli.IntFlag{
				Name:  "count",
				Usage: "number of keys to insert",
				Value: 4,
			},
		},
	}
}

// SizeCommandAction inserts 1..count into a bounded cache, printing the keys
// after each insert.
func SizeCommandAction(ctx context.Context, cmd *cli.Command) error {
	maxSize, count := cmd.Int("max-size"), cmd.Int("count")
	if err := positive("max-size", maxSize); err != nil {
		return err
	}

	c := ordcache.New[int, int]().WithMaxSize(maxSize)
	w := out(cmd)
	for i := 1; i <= count; i++ {
		c.Set(i, i)
		keys := slices.Collect(c.Keys())
		logger("size").WithField("key", i).WithField("len", len(keys)).Debug("set")
		fmt.Fprintf(w, "keys in cache: %v\n", keys)
	}
	return nil
}
