package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/bruin-data/tap-redshift/pkg/catalog"
	"github.com/bruin-data/tap-redshift/pkg/redshift"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunDiscover(t *testing.T) {
	t.Parallel()

	live := &catalog.Catalog{Streams: []*catalog.Stream{tableStream("orders"), tableStream("customers")}}

	var out bytes.Buffer
	require.NoError(t, runDiscover(context.Background(), &staticDiscoverer{catalog: live}, "public", &out, zap.NewNop().Sugar()))

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "catalog.json", out.Bytes(), 0o644))
	printed, err := catalog.Load(fs, "catalog.json")
	require.NoError(t, err)
	require.Len(t, printed.Streams, 2)
	assert.Equal(t, "dev.public.orders", printed.Streams[0].TapStreamID)
	assert.Equal(t, []string{"id", "updated_at"}, printed.Streams[0].Schema.Properties.Names())
}

func TestRunDiscover_NoTables(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := runDiscover(context.Background(), &staticDiscoverer{err: redshift.ErrNoTablesDiscovered}, "public", &out, zap.NewNop().Sugar())
	require.ErrorIs(t, err, redshift.ErrNoTablesDiscovered)
	assert.Empty(t, out.String())
}
