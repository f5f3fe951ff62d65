package secrets

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/bruin-data/tap-redshift/pkg/logger"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

type awsSecretsManagerClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Credentials are the connection fields a secret may carry. Both the "user" key and the
// "username" key used by AWS managed database secrets are understood.
type Credentials struct {
	User     string `mapstructure:"user"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	DBName   string `mapstructure:"dbname"`
}

func (c *Credentials) UserName() string {
	if c.User != "" {
		return c.User
	}
	return c.Username
}

// AWSSecretsManagerClient reads database credentials from AWS Secrets Manager.
type AWSSecretsManagerClient struct {
	client  awsSecretsManagerClient
	logger  logger.Logger
	cacheMu sync.RWMutex
	cache   map[string]*Credentials
}

// NewAWSSecretsManagerClient creates a client using the default AWS credential chain.
func NewAWSSecretsManagerClient(ctx context.Context, logger logger.Logger, region string) (*AWSSecretsManagerClient, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS configuration")
	}
	if cfg.Region == "" {
		return nil, errors.New("no AWS region configured, set aws_region in the config or AWS_REGION in the environment")
	}

	return &AWSSecretsManagerClient{
		client: secretsmanager.NewFromConfig(cfg),
		logger: logger,
		cache:  make(map[string]*Credentials),
	}, nil
}

func (c *AWSSecretsManagerClient) GetCredentials(ctx context.Context, name string) (*Credentials, error) {
	c.cacheMu.RLock()
	if creds, ok := c.cache[name]; ok {
		c.cacheMu.RUnlock()
		return creds, nil
	}
	c.cacheMu.RUnlock()

	c.logger.Debugf("Reading credentials from AWS Secrets Manager secret '%s'", name)
	result, err := c.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read secret '%s' from AWS Secrets Manager", name)
	}

	if result.SecretString == nil {
		return nil, errors.Errorf("secret '%s' has no string value", name)
	}

	var secretData map[string]any
	if err := json.Unmarshal([]byte(*result.SecretString), &secretData); err != nil {
		return nil, errors.Wrapf(err, "failed to parse secret '%s' as JSON", name)
	}

	creds := &Credentials{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           creds,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(secretData); err != nil {
		return nil, errors.Wrapf(err, "failed to decode secret '%s'", name)
	}

	c.cacheMu.Lock()
	c.cache[name] = creds
	c.cacheMu.Unlock()

	return creds, nil
}
