package cmd

import (
	"context"

	"github.com/bruin-data/tap-redshift/pkg/config"
	"github.com/bruin-data/tap-redshift/pkg/logger"
	"github.com/bruin-data/tap-redshift/pkg/redshift"
	"github.com/bruin-data/tap-redshift/pkg/secrets"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

type credentialsReader interface {
	GetCredentials(ctx context.Context, name string) (*secrets.Credentials, error)
}

// loadConfig reads the config document and, when a secret is referenced, fills the credentials from it.
func loadConfig(ctx context.Context, fs afero.Fs, configPath string, logger logger.Logger) (*config.Config, error) {
	if configPath == "" {
		return nil, errors.Wrap(config.ErrInvalidConfig, "the --config flag is required")
	}

	cfg, err := config.Load(fs, configPath)
	if err != nil {
		return nil, err
	}
	if cfg.PasswordSecret == "" {
		return cfg, nil
	}

	client, err := secrets.NewAWSSecretsManagerClient(ctx, logger, cfg.AWSRegion)
	if err != nil {
		return nil, err
	}
	if err := applySecret(ctx, cfg, client); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applySecret(ctx context.Context, cfg *config.Config, reader credentialsReader) error {
	creds, err := reader.GetCredentials(ctx, cfg.PasswordSecret)
	if err != nil {
		return errors.Wrapf(err, "failed to read the credentials from secret '%s'", cfg.PasswordSecret)
	}

	return cfg.ApplyCredentials(creds)
}

func connect(ctx context.Context, cfg *config.Config, logger logger.Logger) (*redshift.Client, error) {
	rsConfig := cfg.ToRedshiftConfig()
	logger.Debugf("Connecting to %s:%d/%s (sslmode=%s)", rsConfig.Host, rsConfig.Port, rsConfig.Database, rsConfig.SslMode)

	return redshift.NewClient(ctx, rsConfig)
}
