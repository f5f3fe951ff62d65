package state

import (
	"testing"

	"github.com/bruin-data/tap-redshift/pkg/catalog"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stream(id string, method catalog.ReplicationMethod, key string) *catalog.Stream {
	return &catalog.Stream{
		TapStreamID: id,
		Schema:      catalog.NewObjectSchema(),
		Metadata: catalog.Metadata{Stream: catalog.StreamMetadata{
			Selected:          lo.ToPtr(true),
			ReplicationMethod: method,
			ReplicationKey:    key,
		}},
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "state.json", []byte(`{
		"currently_syncing": "dev.public.orders",
		"bookmarks": {
			"dev.public.orders": {"version": 1700000000000, "replication_key": "updated_at", "replication_key_value": "2024-01-02T00:00:00Z"},
			"dev.public.customers": {"version": null}
		}
	}`), 0o644))
	require.NoError(t, afero.WriteFile(fs, "empty.json", []byte(`{}`), 0o644))

	s, err := Load(fs, "state.json")
	require.NoError(t, err)
	assert.Equal(t, "dev.public.orders", *s.CurrentlySyncing)
	assert.Equal(t, int64(1700000000000), *s.Version("dev.public.orders"))
	assert.Equal(t, "2024-01-02T00:00:00Z", *s.ReplicationKeyValue("dev.public.orders"))
	assert.True(t, s.HasBookmark("dev.public.customers"))
	assert.Nil(t, s.Version("dev.public.customers"))
	assert.False(t, s.HasBookmark("dev.public.unknown"))

	empty, err := Load(fs, "empty.json")
	require.NoError(t, err)
	assert.NotNil(t, empty.Bookmarks)

	none, err := Load(fs, "")
	require.NoError(t, err)
	assert.Equal(t, New(), none)

	_, err = Load(fs, "missing.json")
	require.ErrorContains(t, err, "failed to load state")
}

func TestReplicationState_CloneIsDeep(t *testing.T) {
	t.Parallel()

	s := New()
	s.SetVersion("a", lo.ToPtr(int64(1)))
	s.SetReplicationKeyValue("a", "2024-01-01T00:00:00Z")
	s.SetCurrentlySyncing(lo.ToPtr("a"))

	snapshot := s.Clone()
	s.SetVersion("a", nil)
	s.SetReplicationKeyValue("a", "2024-02-01T00:00:00Z")
	s.SetCurrentlySyncing(nil)
	s.SetVersion("b", lo.ToPtr(int64(2)))

	assert.Equal(t, int64(1), *snapshot.Version("a"))
	assert.Equal(t, "2024-01-01T00:00:00Z", *snapshot.ReplicationKeyValue("a"))
	assert.Equal(t, "a", *snapshot.CurrentlySyncing)
	assert.False(t, snapshot.HasBookmark("b"))
}

func TestBuild(t *testing.T) {
	t.Parallel()

	raw := &ReplicationState{
		CurrentlySyncing: lo.ToPtr("dev.public.orders"),
		Bookmarks: map[string]*Bookmark{
			"dev.public.orders": {
				Version:             lo.ToPtr(int64(10)),
				ReplicationKey:      lo.ToPtr("updated_at"),
				ReplicationKeyValue: lo.ToPtr("2024-01-02T00:00:00Z"),
			},
			"dev.public.events": {
				Version:             lo.ToPtr(int64(20)),
				ReplicationKey:      lo.ToPtr("created_at"),
				ReplicationKeyValue: lo.ToPtr("2024-01-03T00:00:00Z"),
			},
			"dev.public.customers": {Version: lo.ToPtr(int64(30))},
			"dev.public.removed":   {Version: lo.ToPtr(int64(40))},
		},
	}
	c := &catalog.Catalog{Streams: []*catalog.Stream{
		stream("dev.public.orders", catalog.ReplicationMethodIncremental, "updated_at"),
		stream("dev.public.events", catalog.ReplicationMethodIncremental, "updated_at"),
		stream("dev.public.customers", catalog.ReplicationMethodFullTable, ""),
		stream("dev.public.products", catalog.ReplicationMethodFullTable, ""),
		stream("dev.public.new_incremental", catalog.ReplicationMethodIncremental, "updated_at"),
		stream("dev.public.unselected", "", ""),
	}}

	got := Build(raw, c)

	expected := &ReplicationState{
		CurrentlySyncing: lo.ToPtr("dev.public.orders"),
		Bookmarks: map[string]*Bookmark{
			"dev.public.orders": {
				Version:             lo.ToPtr(int64(10)),
				ReplicationKey:      lo.ToPtr("updated_at"),
				ReplicationKeyValue: lo.ToPtr("2024-01-02T00:00:00Z"),
			},
			"dev.public.events": {
				Version:        lo.ToPtr(int64(20)),
				ReplicationKey: lo.ToPtr("updated_at"),
			},
			"dev.public.customers":       {Version: lo.ToPtr(int64(30))},
			"dev.public.products":        {},
			"dev.public.new_incremental": {ReplicationKey: lo.ToPtr("updated_at")},
		},
	}
	assert.Equal(t, expected, got)

	assert.Equal(t, got, Build(got, c), "building twice must not change the state")
	assert.Equal(t, int64(10), *raw.Bookmarks["dev.public.orders"].Version, "raw state must not be mutated")
}

func TestBuild_NilState(t *testing.T) {
	t.Parallel()

	c := &catalog.Catalog{Streams: []*catalog.Stream{
		stream("dev.public.products", catalog.ReplicationMethodFullTable, ""),
	}}

	got := Build(nil, c)
	assert.Nil(t, got.CurrentlySyncing)
	assert.True(t, got.HasBookmark("dev.public.products"))
	assert.Nil(t, got.Version("dev.public.products"))
}
