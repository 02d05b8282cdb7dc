// Package command builds the ordcache demo CLI.
package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/apex/log"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"go.dw1.io/ordcache/internal/config"
	mylog "go.dw1.io/ordcache/internal/log"
)

// InitApp loads the config file named by args (or the default location) and
// returns the root command. Flag values resolve from the command line, then
// the environment, then the config file.
func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	cfgPath := configPathFromArgs(args)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	app := &cli.Command{
		Name:  "ordcache",
		Usage: "ordered in-memory cache walk-throughs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to the YAML config file",
				Value: cfg.Source,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "debug, info, warn, error or fatal",
				Sources: sources(cfg.Source, "ORDCACHE_LOG", "log_level"),
				Value:   mylog.DefaultLevel,
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, mylog.SetLevel(cmd.String("log-level"))
		},
	}

	app.Commands = append(app.Commands,
		HelloCommandBuilder(),
		SizeCommandBuilder(cfg.Source),
		TTLCommandBuilder(cfg.Source),
		ConcurrencyCommandBuilder(cfg.Source),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app, nil
}

// configPathFromArgs finds --config ahead of flag parsing, since the config
// file feeds the flag value sources themselves.
func configPathFromArgs(args []string) string {
	for i, a := range args {
		switch {
		case a == "--config" || a == "-config":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(a, "--config="):
			return strings.TrimPrefix(a, "--config=")
		}
	}
	return config.Path()
}

// sources chains an env variable and a config file key as value sources.
func sources(cfgPath, env, key string) cli.ValueSourceChain {
	return cli.NewValueSourceChain(
		cli.EnvVar(env),
		yaml.YAML(key, altsrc.StringSourcer(cfgPath)),
	)
}

func maxSizeFlag(cfgPath string, def int) *cli.IntFlag {
	return &cli.IntFlag{
		Name:    "max-size",
		Usage:   "maximum number of entries",
		Sources: sources(cfgPath, "ORDCACHE_MAX_SIZE", "max_size"),
		Value:   def,
	}
}

func ttlFlag(cfgPath string, def time.Duration) *cli.DurationFlag {
	return &cli.DurationFlag{
		Name:    "ttl",
		Usage:   "time-to-live of each entry",
		Sources: sources(cfgPath, "ORDCACHE_TTL", "ttl"),
		Value:   def,
	}
}

// out returns the writer command output goes to.
func out(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func positive(name string, n int) error {
	if n <= 0 {
		return fmt.Errorf("--%s must be greater than 0; got %d", name, n)
	}
	return nil
}

func logger(command string) *log.Entry {
	return log.WithField("command", command)
}
