package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/bruin-data/tap-redshift/pkg/catalog"
	"github.com/bruin-data/tap-redshift/pkg/query"
	"github.com/bruin-data/tap-redshift/pkg/state"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type staticDiscoverer struct {
	catalog *catalog.Catalog
	err     error
}

func (d *staticDiscoverer) Discover(ctx context.Context, schemaName string) (*catalog.Catalog, error) {
	return d.catalog, d.err
}

type poolSource struct {
	pool pgxmock.PgxPoolIface
}

func (s *poolSource) Query(ctx context.Context, q *query.Query) (pgx.Rows, error) {
	return s.pool.Query(ctx, q.String(), q.Args...)
}

func tableStream(table string) *catalog.Stream {
	schema := catalog.NewObjectSchema()
	schema.Properties.Set("id", &catalog.Schema{Type: catalog.Types{"integer"}, Inclusion: catalog.InclusionAvailable})
	schema.Properties.Set("updated_at", &catalog.Schema{Type: catalog.Types{"null", "string"}, Format: catalog.FormatDateTime, Inclusion: catalog.InclusionAvailable})

	md := catalog.Metadata{Stream: catalog.StreamMetadata{
		TableKeyProperties:   []string{"id"},
		SchemaName:           "public",
		DatabaseName:         "dev",
		ValidReplicationKeys: []string{"updated_at"},
	}}
	for _, name := range schema.Properties.Names() {
		md.SetColumn(name, catalog.ColumnMetadata{SelectedByDefault: lo.ToPtr(true), Inclusion: catalog.InclusionAvailable})
	}

	return &catalog.Stream{
		TapStreamID: "dev.public." + table,
		TableName:   "public." + table,
		Stream:      table,
		Schema:      schema,
		Metadata:    md,
		ColumnOrder: schema.Properties.Names(),
	}
}

func writeFixture(t *testing.T, fs afero.Fs, name string, content any) {
	t.Helper()

	buf, err := json.Marshal(content)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, name, buf, 0o644))
}

func messageTypes(t *testing.T, out string) []string {
	t.Helper()

	var types []string
	for _, line := range strings.Split(strings.TrimSuffix(out, "\n"), "\n") {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		types = append(types, m["type"].(string))
	}
	return types
}

func TestRunSync(t *testing.T) {
	t.Parallel()

	live := &catalog.Catalog{Streams: []*catalog.Stream{tableStream("orders"), tableStream("customers")}}

	selected := tableStream("orders")
	selected.Metadata.Stream.Selected = lo.ToPtr(true)
	selected.Metadata.Stream.ReplicationMethod = catalog.ReplicationMethodFullTable
	candidate := &catalog.Catalog{Streams: []*catalog.Stream{selected, tableStream("removed")}}

	fs := afero.NewMemMapFs()
	writeFixture(t, fs, "catalog.json", candidate)
	writeFixture(t, fs, "state.json", map[string]any{
		"bookmarks": map[string]any{"dev.public.removed": map[string]any{"version": 1}},
	})

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id","updated_at" FROM "public"."orders"`) + "$").
		WillReturnRows(pgxmock.NewRowsWithColumnDefinition(
			pgconn.FieldDescription{Name: "id"},
			pgconn.FieldDescription{Name: "updated_at"},
		).AddRow(1, ts).AddRow(2, ts))

	core, logs := observer.New(zapcore.WarnLevel)
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	opts := &syncOptions{
		catalogPath:  "catalog.json",
		statePath:    "state.json",
		stateOutPath: "state-out.json",
		schema:       "public",
		clock:        func() time.Time { return clock },
	}

	var out bytes.Buffer
	err = runSync(context.Background(), fs, &staticDiscoverer{catalog: live}, &poolSource{pool: mock}, &out, opts, zap.New(core).Sugar())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, []string{"STATE", "SCHEMA", "RECORD", "RECORD", "ACTIVATE_VERSION", "STATE", "STATE"}, messageTypes(t, out.String()))
	assert.Contains(t, out.String(), `{"type":"ACTIVATE_VERSION","stream":"dev.public.orders","version":1709294400000}`)
	assert.NotContains(t, out.String(), "dev.public.customers")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Stream 'dev.public.removed' has saved state but the stream no longer exists in the database, its bookmark is discarded", logs.All()[0].Message)

	saved, err := state.Load(fs, "state-out.json")
	require.NoError(t, err)
	assert.Nil(t, saved.CurrentlySyncing)
	assert.True(t, saved.HasBookmark("dev.public.orders"))
	assert.Nil(t, saved.Version("dev.public.orders"))
	assert.False(t, saved.HasBookmark("dev.public.removed"))
}

func TestRunSync_Failures(t *testing.T) {
	t.Parallel()

	live := &catalog.Catalog{Streams: []*catalog.Stream{tableStream("orders")}}

	t.Run("discovery error", func(t *testing.T) {
		t.Parallel()

		err := runSync(context.Background(), afero.NewMemMapFs(), &staticDiscoverer{err: errors.New("no tables")}, nil, &bytes.Buffer{}, &syncOptions{}, zap.NewNop().Sugar())
		require.ErrorContains(t, err, "failed to discover the live schema: no tables")
	})

	t.Run("missing catalog", func(t *testing.T) {
		t.Parallel()

		err := runSync(context.Background(), afero.NewMemMapFs(), &staticDiscoverer{catalog: live}, nil, &bytes.Buffer{}, &syncOptions{catalogPath: "catalog.json"}, zap.NewNop().Sugar())
		require.ErrorContains(t, err, "failed to load catalog")
	})

	t.Run("state is written when the extraction fails", func(t *testing.T) {
		t.Parallel()

		selected := tableStream("orders")
		selected.Metadata.Stream.Selected = lo.ToPtr(true)
		selected.Metadata.Stream.ReplicationMethod = catalog.ReplicationMethodIncremental
		selected.Metadata.Stream.ReplicationKey = "updated_at"

		fs := afero.NewMemMapFs()
		writeFixture(t, fs, "catalog.json", &catalog.Catalog{Streams: []*catalog.Stream{selected}})

		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id","updated_at" FROM "public"."orders" ORDER BY "updated_at" ASC`)).
			WillReturnError(errors.New("permission denied"))

		opts := &syncOptions{catalogPath: "catalog.json", stateOutPath: "state-out.json"}
		err = runSync(context.Background(), fs, &staticDiscoverer{catalog: live}, &poolSource{pool: mock}, &bytes.Buffer{}, opts, zap.NewNop().Sugar())
		require.ErrorContains(t, err, "permission denied")

		saved, err := state.Load(fs, "state-out.json")
		require.NoError(t, err)
		assert.Equal(t, "dev.public.orders", *saved.CurrentlySyncing)
		assert.NotNil(t, saved.Version("dev.public.orders"))
	})
}
