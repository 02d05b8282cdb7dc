package command

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/urfave/cli/v3"

	"go.dw1.io/ordcache"
)

// TTLCommandBuilder returns the "ttl" subcommand.
func TTLCommandBuilder(cfgPath string) *cli.Command {
	return &cli.Command{
		Name:   "ttl",
		Usage:  "watch entries expire one after another",
		Action: TTLCommandAction,
		Flags: []cli.Flag{
			ttlFlag(cfgPath, 5*time.Second),
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "pause between inserts and between polls",
				Value: time.Second,
			},
			&cli.IntFlag{
				Name:  "count",
				Usage: "number of keys to insert",
				Value: 4,
			},
		},
	}
}

// TTLCommandAction inserts 1..count one interval apart and then polls the
// remaining keys until every entry has expired.
func TTLCommandAction(ctx context.Context, cmd *cli.Command) error {
	ttl, interval, count := cmd.Duration("ttl"), cmd.Duration("interval"), cmd.Int("count")
	if interval <= 0 {
		return fmt.Errorf("--interval must be greater than 0; got %s", interval)
	}
	if ttl < 0 {
		return fmt.Errorf("--ttl must not be negative; got %s", ttl)
	}

	c := ordcache.New[int, int]().WithTTL(ttl)
	w := out(cmd)
	for i := 1; i <= count; i++ {
		fmt.Fprintf(w, "inserting %d\n", i)
		c.Set(i, i)
		if err := wait(ctx, interval); err != nil {
			return err
		}
	}
	fmt.Fprintln(w, "keys fully inserted")

	for c.Len() > 0 {
		fmt.Fprintf(w, "keys remaining: %v\n", slices.Collect(c.Keys()))
		if err := wait(ctx, interval); err != nil {
			return err
		}
	}
	logger("ttl").WithField("ttl", ttl).Info("all entries expired")
	fmt.Fprintln(w, "all keys expired")
	return nil
}
