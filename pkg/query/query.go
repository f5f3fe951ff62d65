package query

import "strings"

// Query is a single statement with its positional arguments.
type Query struct {
	Query string
	Args  []any
}

func (q Query) String() string {
	return q.Query
}

// ToLogQuery returns the statement terminated with a semicolon, the way it is printed in debug logs.
func (q Query) ToLogQuery() string {
	if strings.HasSuffix(q.Query, ";") {
		return q.Query
	}

	return q.Query + ";"
}
