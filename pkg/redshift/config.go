package redshift

import (
	"net"
	"net/url"
	"strconv"
)

const (
	SslModeRequire = "require"
	SslModePrefer  = "prefer"
)

// Config represents Redshift connection configuration
type Config struct {
	Username       string
	Password       string
	Host           string
	Port           int
	Database       string
	Schema         string
	SslMode        string
	ConnectTimeout int
}

// ToDBConnectionURI returns a connection URI to be used with the pgx package.
func (c Config) ToDBConnectionURI() string {
	params := url.Values{}
	sslMode := c.SslMode
	if sslMode == "" {
		sslMode = SslModePrefer
	}
	params.Set("sslmode", sslMode)
	if c.ConnectTimeout > 0 {
		params.Set("connect_timeout", strconv.Itoa(c.ConnectTimeout))
	}
	if c.Schema != "" {
		params.Set("search_path", c.Schema)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: params.Encode(),
	}

	return u.String()
}

func (c Config) GetDatabase() string {
	return c.Database
}
