package extract

import "fmt"

// QueryError is returned when the extraction query of a stream fails or its rows cannot be read.
type QueryError struct {
	Stream string
	Query  string
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("failed to extract stream '%s': %v", e.Stream, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
