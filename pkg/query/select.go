package query

import (
	"strings"

	"github.com/bruin-data/tap-redshift/pkg/catalog"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

type Column struct {
	Name   string
	Format string
}

// columnRenderer turns a quoted column reference into the expression that is selected.
type columnRenderer func(quoted string) string

var columnRenderers = map[string]columnRenderer{
	catalog.FormatGeometry: func(quoted string) string {
		return "ST_AsEWKT(" + quoted + ")"
	},
}

func renderColumn(c Column) string {
	quoted := pgx.Identifier{c.Name}.Sanitize()
	if render, ok := columnRenderers[c.Format]; ok {
		return render(quoted)
	}

	return quoted
}

// Select describes the extraction query of one stream. When ReplicationKey is set the rows are
// ordered by it, and ReplicationKeyValue, if present, becomes the inclusive lower bound.
type Select struct {
	Schema              string
	Table               string
	Columns             []Column
	ReplicationKey      string
	ReplicationKeyValue any
}

func (s Select) Build() (*Query, error) {
	if s.Table == "" {
		return nil, errors.New("cannot build a query without a table")
	}
	if len(s.Columns) == 0 {
		return nil, errors.Errorf("cannot build a query for table '%s' without columns", s.Table)
	}

	columns := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		columns = append(columns, renderColumn(c))
	}

	table := pgx.Identifier{s.Table}
	if s.Schema != "" {
		table = pgx.Identifier{s.Schema, s.Table}
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(columns, ","))
	sb.WriteString(" FROM ")
	sb.WriteString(table.Sanitize())

	q := &Query{}
	if s.ReplicationKey != "" {
		key := pgx.Identifier{s.ReplicationKey}.Sanitize()
		if s.ReplicationKeyValue != nil {
			sb.WriteString(" WHERE " + key + " >= $1")
			q.Args = append(q.Args, s.ReplicationKeyValue)
		}
		sb.WriteString(" ORDER BY " + key + " ASC")
	}

	q.Query = sb.String()
	return q, nil
}
