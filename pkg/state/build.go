package state

import (
	"github.com/bruin-data/tap-redshift/pkg/catalog"
	"github.com/samber/lo"
)

// Build derives the state a run starts from. Bookmarks only survive when they still match the
// replication method and key chosen in the resolved catalog; streams without a method get nothing.
func Build(raw *ReplicationState, c *catalog.Catalog) *ReplicationState {
	if raw == nil {
		raw = New()
	}

	out := New()
	out.CurrentlySyncing = clonePtr(raw.CurrentlySyncing)

	for _, stream := range c.Streams {
		prev := raw.Bookmark(stream.TapStreamID)

		switch stream.ReplicationMethod() {
		case catalog.ReplicationMethodIncremental:
			key := stream.ReplicationKey()
			b := &Bookmark{ReplicationKey: lo.ToPtr(key)}
			if prev != nil {
				b.Version = clonePtr(prev.Version)
				if lo.FromPtr(prev.ReplicationKey) == key {
					b.ReplicationKeyValue = clonePtr(prev.ReplicationKeyValue)
				}
			}
			out.Bookmarks[stream.TapStreamID] = b

		case catalog.ReplicationMethodFullTable:
			b := &Bookmark{}
			if prev != nil {
				b.Version = clonePtr(prev.Version)
			}
			out.Bookmarks[stream.TapStreamID] = b
		}
	}

	return out
}
