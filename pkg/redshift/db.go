package redshift

import (
	"context"

	"github.com/bruin-data/tap-redshift/pkg/query"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

type connection interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

type Client struct {
	connection connection
	config     *Config
}

// NewClient opens a single-connection pool and verifies it can reach the cluster.
func NewClient(ctx context.Context, config *Config) (*Client, error) {
	poolConfig, err := pgxpool.ParseConfig(config.ToDBConnectionURI())
	if err != nil {
		return nil, &ConnectionError{Host: config.Host, Err: errors.Wrap(err, "invalid connection settings")}
	}
	poolConfig.MaxConns = 1

	conn, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, &ConnectionError{Host: config.Host, Err: err}
	}

	client := &Client{
		connection: conn,
		config:     config,
	}
	if err := client.Ping(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	return client, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if err := c.connection.Ping(ctx); err != nil {
		return &ConnectionError{Host: c.config.Host, Err: err}
	}

	return nil
}

// Query runs the query and hands back the open cursor, the caller must close it.
func (c *Client) Query(ctx context.Context, q *query.Query) (pgx.Rows, error) {
	return c.connection.Query(ctx, q.String(), q.Args...)
}

func (c *Client) Select(ctx context.Context, q *query.Query) ([][]interface{}, error) {
	rows, err := c.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	collectedRows, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) ([]interface{}, error) {
		return row.Values()
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to collect row values")
	}

	if len(collectedRows) == 0 {
		return make([][]interface{}, 0), nil
	}

	return collectedRows, nil
}

func (c *Client) Database() string {
	return c.config.GetDatabase()
}

func (c *Client) Close() {
	c.connection.Close()
}
