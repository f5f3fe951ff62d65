package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bruin-data/tap-redshift/pkg/catalog"
	"github.com/bruin-data/tap-redshift/pkg/logger"
	"github.com/bruin-data/tap-redshift/pkg/redshift"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

type discoverer interface {
	Discover(ctx context.Context, schemaName string) (*catalog.Catalog, error)
}

var configFlag = &cli.StringFlag{
	Name:     "config",
	Usage:    "the path to the config document",
	Required: true,
}

func Discover(isDebug *bool) *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "print the catalog of every table and view in the configured schema",
		Flags: []cli.Flag{
			configFlag,
		},
		Action: func(c *cli.Context) error {
			defer RecoverFromPanic()
			logger := makeLogger(*isDebug)
			defer func() { _ = logger.Sync() }()

			ctx, cancel := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := loadConfig(ctx, fs, c.String("config"), logger)
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

			if err := runDiscover(ctx, redshift.NewDiscoverer(client), cfg.Schema, os.Stdout, logger); err != nil {
				printError(err, "", "Discovery failed")
				return cli.Exit("", 1)
			}

			return nil
		},
	}
}

func runDiscover(ctx context.Context, d discoverer, schemaName string, out io.Writer, logger logger.Logger) error {
	logger.Infof("Discovering tables in schema '%s'", schemaName)

	c, err := d.Discover(ctx, schemaName)
	if err != nil {
		return err
	}
	logger.Infof("Discovered %d streams", len(c.Streams))

	if err := catalog.Write(out, c); err != nil {
		return errors.Wrap(err, "failed to write the catalog")
	}

	return nil
}
