package redshift

import (
	"context"
	"fmt"
	"strings"

	"github.com/bruin-data/tap-redshift/pkg/catalog"
	"github.com/bruin-data/tap-redshift/pkg/query"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

const (
	tablesQuery = `
SELECT table_name::varchar, table_type::varchar
FROM information_schema.tables
WHERE table_schema = $1`

	columnsQuery = `
SELECT c.table_name::varchar, c.ordinal_position::int, c.column_name::varchar, c.udt_name::varchar, c.is_nullable::varchar
FROM information_schema.tables t
JOIN information_schema.columns c
	ON c.table_name = t.table_name
	AND c.table_schema = t.table_schema
WHERE t.table_schema = $1
ORDER BY c.table_name, c.ordinal_position`

	primaryKeysQuery = `
SELECT kc.table_name::varchar, kc.column_name::varchar
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kc
	ON kc.table_name = tc.table_name
	AND kc.table_schema = tc.table_schema
	AND kc.constraint_name = tc.constraint_name
WHERE tc.constraint_type = 'PRIMARY KEY'
	AND tc.table_schema = $1
ORDER BY tc.table_schema, tc.table_name, kc.ordinal_position`
)

const noReplicationKeysReason = "No replication keys found from table"

type selector interface {
	Select(ctx context.Context, q *query.Query) ([][]interface{}, error)
	Database() string
}

type Discoverer struct {
	client selector
}

func NewDiscoverer(client selector) *Discoverer {
	return &Discoverer{client: client}
}

type columnRow struct {
	table  string
	column Column
}

// Discover builds the catalog of every table and view in the given schema.
func (d *Discoverer) Discover(ctx context.Context, schemaName string) (*catalog.Catalog, error) {
	tableRows, err := d.client.Select(ctx, &query.Query{Query: tablesQuery, Args: []any{schemaName}})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tables")
	}
	tableTypes := make(map[string]string, len(tableRows))
	for _, row := range tableRows {
		if len(row) != 2 {
			continue
		}
		tableTypes[asString(row[0])] = asString(row[1])
	}

	columnRows, err := d.client.Select(ctx, &query.Query{Query: columnsQuery, Args: []any{schemaName}})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list columns")
	}
	columns := make([]columnRow, 0, len(columnRows))
	for _, row := range columnRows {
		if len(row) != 5 {
			continue
		}
		columns = append(columns, columnRow{
			table: asString(row[0]),
			column: Column{
				Name:       asString(row[2]),
				NativeType: asString(row[3]),
				Nullable:   asString(row[4]) == "YES",
			},
		})
	}

	pkRows, err := d.client.Select(ctx, &query.Query{Query: primaryKeysQuery, Args: []any{schemaName}})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list primary keys")
	}
	pkRows = lo.Filter(pkRows, func(row []interface{}, _ int) bool { return len(row) == 2 })
	primaryKeys := lo.MapValues(lo.GroupBy(pkRows, func(row []interface{}) string {
		return asString(row[0])
	}), func(rows [][]interface{}, _ string) []string {
		return lo.Map(rows, func(row []interface{}, _ int) string {
			return asString(row[1])
		})
	})

	database := d.client.Database()
	c := &catalog.Catalog{Streams: []*catalog.Stream{}}
	for _, group := range lo.PartitionBy(columns, func(r columnRow) string { return r.table }) {
		table := group[0].table
		c.Streams = append(c.Streams, buildStream(database, schemaName, table, tableTypes[table] == "VIEW",
			lo.Map(group, func(r columnRow, _ int) Column { return r.column }), primaryKeys[table]))
	}

	if len(c.Streams) == 0 {
		return nil, ErrNoTablesDiscovered
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "discovered catalog is invalid")
	}

	return c, nil
}

func buildStream(database, schemaName, table string, isView bool, columns []Column, primaryKeys []string) *catalog.Stream {
	schema := catalog.NewObjectSchema()
	for _, col := range columns {
		schema.Properties.Set(col.Name, SchemaForColumn(col))
	}

	keyProperties := lo.Filter(primaryKeys, func(name string, _ int) bool {
		s, ok := schema.Properties.Get(name)
		return ok && !s.IsUnsupported()
	})

	md := catalog.Metadata{Stream: catalog.StreamMetadata{
		SelectedByDefault:  lo.ToPtr(false),
		TableKeyProperties: keyProperties,
		IsView:             isView,
		SchemaName:         schemaName,
		DatabaseName:       database,
	}}

	for _, col := range columns {
		s, _ := schema.Properties.Get(col.Name)
		md.SetColumn(col.Name, catalog.ColumnMetadata{
			SelectedByDefault: lo.ToPtr(!s.IsUnsupported()),
			SQLDatatype:       strings.ToLower(col.NativeType),
			Inclusion:         s.Inclusion,
		})
		if IsDateTimeType(col.NativeType) {
			md.Stream.ValidReplicationKeys = append(md.Stream.ValidReplicationKeys, col.Name)
		}
	}

	if len(md.Stream.ValidReplicationKeys) == 0 {
		md.Stream.ForcedReplicationMethod = &catalog.ForcedReplicationMethod{
			ReplicationMethod: catalog.ReplicationMethodFullTable,
			Reason:            noReplicationKeysReason,
		}
	}

	qualifiedName := schemaName + "." + table
	return &catalog.Stream{
		TapStreamID: database + "." + qualifiedName,
		TableName:   qualifiedName,
		Stream:      table,
		Schema:      schema,
		Metadata:    md,
		ColumnOrder: schema.Properties.Names(),
	}
}

func asString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}
