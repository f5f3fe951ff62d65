package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bruin-data/tap-redshift/pkg/catalog"
	"github.com/bruin-data/tap-redshift/pkg/extract"
	"github.com/bruin-data/tap-redshift/pkg/logger"
	"github.com/bruin-data/tap-redshift/pkg/message"
	"github.com/bruin-data/tap-redshift/pkg/path"
	"github.com/bruin-data/tap-redshift/pkg/query"
	"github.com/bruin-data/tap-redshift/pkg/redshift"
	"github.com/bruin-data/tap-redshift/pkg/state"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

type rowSource interface {
	Query(ctx context.Context, q *query.Query) (pgx.Rows, error)
}

type syncOptions struct {
	catalogPath  string
	statePath    string
	stateOutPath string
	schema       string
	startDate    *time.Time
	clock        func() time.Time
}

func Sync(isDebug *bool) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "extract the selected streams of the catalog and write them to stdout",
		Flags: []cli.Flag{
			configFlag,
			&cli.StringFlag{
				Name:     "catalog",
				Aliases:  []string{"properties"},
				Usage:    "the path to the catalog with the selected streams",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "state",
				Usage: "the path to the state document of a previous run",
			},
			&cli.StringFlag{
				Name:  "state-out",
				Usage: "write the final state to the given path as well",
			},
		},
		Action: func(c *cli.Context) error {
			defer RecoverFromPanic()
			runID := NewRunID()
			logger := makeLogger(*isDebug).With("run_id", runID)
			defer func() { _ = logger.Sync() }()

			ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := loadConfig(ctx, fs, c.String("config"), logger)
			if err != nil {
				printError(err, "", "Failed to load the configuration")
				return cli.Exit("", 1)
			}
			startDate, err := cfg.ParsedStartDate()
			if err != nil {
				printError(err, "", "Failed to load the configuration")
				return cli.Exit("", 1)
			}

			client, err := connect(ctx, cfg, logger)
			if err != nil {
				printError(err, "", "Failed to connect to Redshift")
				return cli.Exit("", 1)
			}
			defer client.Close()

			opts := &syncOptions{
				catalogPath:  c.String("catalog"),
				statePath:    c.String("state"),
				stateOutPath: c.String("state-out"),
				schema:       cfg.Schema,
				startDate:    startDate,
			}

			start := time.Now()
			if err := runSync(ctx, fs, redshift.NewDiscoverer(client), client, os.Stdout, opts, logger); err != nil {
				printError(err, "", "Sync failed")
				return cli.Exit("", 1)
			}

			successPrinter.Fprintf(os.Stderr, "Sync completed %s\n", faint("("+time.Since(start).Round(time.Millisecond).String()+")"))
			return nil
		},
	}
}

// runSync resolves the candidate catalog against the live schema and extracts every selected stream,
// writing the messages to out.
func runSync(ctx context.Context, fs afero.Fs, d discoverer, src rowSource, out io.Writer, opts *syncOptions, logger logger.Logger) error {
	live, err := d.Discover(ctx, opts.schema)
	if err != nil {
		return errors.Wrap(err, "failed to discover the live schema")
	}

	candidate, err := catalog.Load(fs, opts.catalogPath)
	if err != nil {
		return err
	}

	raw, err := state.Load(fs, opts.statePath)
	if err != nil {
		return err
	}

	resolution := catalog.Resolve(live, candidate, raw)
	for _, dropped := range resolution.Dropped {
		if dropped.HadBookmark {
			logger.Warnf("Stream '%s' has saved state but the %s, its bookmark is discarded", dropped.TapStreamID, dropped.Reason)
			continue
		}
		logger.Warnf("Skipping stream '%s', the %s", dropped.TapStreamID, dropped.Reason)
	}

	st := state.Build(raw, resolution.Catalog)

	var engineOpts []extract.Option
	if opts.startDate != nil {
		engineOpts = append(engineOpts, extract.WithStartDate(*opts.startDate))
	}
	if opts.clock != nil {
		engineOpts = append(engineOpts, extract.WithClock(opts.clock))
	}

	engine := extract.NewEngine(src, message.NewWriter(out), logger, engineOpts...)
	runErr := engine.Run(ctx, resolution.Catalog, st)

	if opts.stateOutPath != "" {
		if err := path.WriteJSON(fs, opts.stateOutPath, st); err != nil {
			if runErr != nil {
				logger.Errorf("Failed to write the state to '%s': %v", opts.stateOutPath, err)
				return runErr
			}
			return err
		}
	}

	return runErr
}
