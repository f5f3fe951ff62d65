package redshift

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrConnection = errors.New("cannot connect to redshift")

	ErrNoTablesDiscovered = errors.New("discovered no tables, check your user's permissions and the schema configuration value")
)

// ConnectionError carries the driver error behind a failed connection attempt and matches ErrConnection.
type ConnectionError struct {
	Host string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s at '%s': %v", ErrConnection, e.Host, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}
