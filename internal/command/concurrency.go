package command

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"go.dw1.io/ordcache"
)

// ConcurrencyCommandBuilder returns the "concurrency" subcommand.
func ConcurrencyCommandBuilder(cfgPath string) *cli.Command {
	return &cli.Command{
		Name:   "concurrency",
		Usage:  "share one cache between reader and writer goroutines",
		Action: ConcurrencyCommandAction,
		Flags: []cli.Flag{
			maxSizeFlag(cfgPath, 10),
			ttlFlag(cfgPath, 2*time.Second),
			&cli.IntFlag{
				Name:  "readers",
				Usage: "number of reader goroutines",
				Value: 5,
			},
			&cli.IntFlag{
				Name:  "writers",
				Usage: "number of writer goroutines",
				Value: 2,
			},
			&cli.DurationFlag{
				Name:  "sweep-every",
				Usage: "background purge interval, 0 to rely on lazy expiry only",
				Value: 50 * time.Millisecond,
			},
		},
	}
}

// ConcurrencyCommandAction seeds keys 1..3, reads them from several
// goroutines, waits for them to expire, writes fresh keys from other
// goroutines and checks the final state.
func ConcurrencyCommandAction(ctx context.Context, cmd *cli.Command) error {
	maxSize, ttl := cmd.Int("max-size"), cmd.Duration("ttl")
	readers, writers := cmd.Int("readers"), cmd.Int("writers")
	sweepEvery := cmd.Duration("sweep-every")

	if err := positive("max-size", maxSize); err != nil {
		return err
	}
	if ttl <= 0 {
		return fmt.Errorf("--ttl must be greater than 0; got %s", ttl)
	}
	if writers > maxSize {
		return fmt.Errorf("--writers (%d) must not exceed --max-size (%d)", writers, maxSize)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := ordcache.New[int, string]().WithMaxSize(maxSize).WithTTL(ttl)
	l := logger("concurrency")
	w := out(cmd)

	sweeper := make(chan error, 1)
	if sweepEvery > 0 {
		go func() {
			sweeper <- c.RunSweeper(ctx, sweepEvery)
		}()
	}

	c.Set(1, "one")
	c.Set(2, "two")
	c.Set(3, "three")

	var ops atomic.Int64

	var g errgroup.Group
	for i := range readers {
		g.Go(func() error {
			rl := l.WithField("reader", i)
			if v, ok := c.Get(1); ok {
				rl.WithField("value", v).Info("got key 1")
			} else {
				rl.Info("key 1 expired or missing")
			}
			keys := slices.Collect(c.Keys())
			values := slices.Collect(c.Values())
			ops.Add(3)
			if !slices.IsSorted(keys) {
				return fmt.Errorf("reader %d saw unordered keys %v", i, keys)
			}
			rl.WithField("keys", keys).WithField("values", values).Debug("snapshot")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Let the seeded keys expire.
	if err := wait(ctx, ttl); err != nil {
		return err
	}

	for i := range writers {
		g.Go(func() error {
			k := 10 + i
			c.Set(k, fmt.Sprintf("value%d", k))
			ops.Add(1)
			l.WithField("writer", i).WithField("key", k).Info("added key")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Fprintf(w, "final keys: %v\n", slices.Collect(c.Keys()))

	for k := 1; k <= 3; k++ {
		if c.Has(k) {
			return fmt.Errorf("key %d should have expired", k)
		}
	}
	for i := range writers {
		k := 10 + i
		want := fmt.Sprintf("value%d", k)
		if v, ok := c.Get(k); !ok || v != want {
			return fmt.Errorf("key %d: got (%q, %t); want %q", k, v, ok, want)
		}
	}
	ops.Add(int64(3 + writers))

	fmt.Fprintf(w, "%s operations across %d readers and %d writers\n",
		humanize.Comma(ops.Load()), readers, writers)

	if sweepEvery > 0 {
		cancel()
		if err := <-sweeper; !errors.Is(err, context.Canceled) {
			return fmt.Errorf("sweeper stopped: %w", err)
		}
	}
	return nil
}
