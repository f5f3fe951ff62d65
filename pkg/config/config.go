package config

import (
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/bruin-data/tap-redshift/pkg/date"
	"github.com/bruin-data/tap-redshift/pkg/path"
	"github.com/bruin-data/tap-redshift/pkg/redshift"
	"github.com/bruin-data/tap-redshift/pkg/secrets"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const (
	DefaultSchema         = "public"
	DefaultConnectTimeout = 10
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the connection and extraction settings document passed with --config.
type Config struct {
	Host           string `json:"host" mapstructure:"host" validate:"required_without=PasswordSecret" jsonschema:"description=Cluster endpoint"`
	Port           int    `json:"port" mapstructure:"port" validate:"required,min=1,max=65535" jsonschema:"required,oneof_type=integer;string,default=5439"`
	DBName         string `json:"dbname" mapstructure:"dbname" validate:"required" jsonschema:"required"`
	User           string `json:"user" mapstructure:"user" validate:"required_without=PasswordSecret"`
	Password       string `json:"password,omitempty" mapstructure:"password" validate:"required_without=PasswordSecret"`
	SSL            bool   `json:"ssl,omitempty" mapstructure:"ssl" jsonschema:"oneof_type=boolean;string,description=Require an encrypted connection"`
	Schema         string `json:"schema,omitempty" mapstructure:"schema" jsonschema:"default=public"`
	StartDate      string `json:"start_date,omitempty" mapstructure:"start_date" jsonschema:"description=Lower bound for incremental streams without a bookmark (ISO-8601)"`
	ConnectTimeout int    `json:"connect_timeout,omitempty" mapstructure:"connect_timeout" validate:"min=0" jsonschema:"default=10"`
	PasswordSecret string `json:"password_secret,omitempty" mapstructure:"password_secret" jsonschema:"description=AWS Secrets Manager secret holding the credentials"`
	AWSRegion      string `json:"aws_region,omitempty" mapstructure:"aws_region"`
}

// Load reads a YAML or JSON config document, applies defaults and validates it.
func Load(fs afero.Fs, filePath string) (*Config, error) {
	var raw map[string]any
	if err := path.ReadYaml(fs, filePath, &raw); err != nil {
		return nil, errors.Wrap(ErrInvalidConfig, err.Error())
	}

	c := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           c,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, errors.Wrap(ErrInvalidConfig, err.Error())
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Schema == "" {
		c.Schema = DefaultSchema
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
}

func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		return name
	})
	return validate
}

func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			messages := make([]string, 0, len(validationErrors))
			for _, fe := range validationErrors {
				messages = append(messages, "field '"+fe.Field()+"' failed the '"+fe.Tag()+"' check")
			}
			return errors.Wrap(ErrInvalidConfig, strings.Join(messages, ", "))
		}
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}

	if _, err := c.ParsedStartDate(); err != nil {
		return err
	}

	return nil
}

// ParsedStartDate returns nil when no start date is configured.
func (c *Config) ParsedStartDate() (*time.Time, error) {
	if c.StartDate == "" {
		return nil, nil
	}

	t, err := date.ParseTime(c.StartDate)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidConfig, "start_date '%s' is not a valid ISO-8601 date", c.StartDate)
	}
	return &t, nil
}

// ApplyCredentials fills the connection fields that are not set in the document from a secret.
func (c *Config) ApplyCredentials(creds *secrets.Credentials) error {
	if c.Host == "" {
		c.Host = creds.Host
	}
	if c.User == "" {
		c.User = creds.UserName()
	}
	if c.Password == "" {
		c.Password = creds.Password
	}

	var missing []string
	for name, value := range map[string]string{"host": c.Host, "user": c.User, "password": c.Password} {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return errors.Wrapf(ErrInvalidConfig, "secret '%s' does not provide %s", c.PasswordSecret, strings.Join(missing, ", "))
	}

	return nil
}

func (c *Config) ToRedshiftConfig() *redshift.Config {
	sslMode := redshift.SslModePrefer
	if c.SSL {
		sslMode = redshift.SslModeRequire
	}

	return &redshift.Config{
		Username:       c.User,
		Password:       c.Password,
		Host:           c.Host,
		Port:           c.Port,
		Database:       c.DBName,
		Schema:         c.Schema,
		SslMode:        sslMode,
		ConnectTimeout: c.ConnectTimeout,
	}
}

// Schema describes the config document as a JSON schema.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: true,
	}
	s := r.Reflect(&Config{})
	s.Title = "tap-redshift configuration"
	return s
}
