package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/bruin-data/tap-redshift/pkg/config"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func ConfigSchema() *cli.Command {
	return &cli.Command{
		Name:  "config-schema",
		Usage: "print the JSON schema of the config document",
		Action: func(c *cli.Context) error {
			schema, err := json.MarshalIndent(config.Schema(), "", "  ")
			if err != nil {
				return errors.Wrap(err, "failed to marshal the config schema")
			}

			fmt.Println(string(schema))
			return nil
		},
	}
}
