package catalog

import "github.com/samber/lo"

// BookmarkLookup reports whether saved replication state exists for a stream.
type BookmarkLookup interface {
	HasBookmark(tapStreamID string) bool
}

type DroppedStream struct {
	TapStreamID string
	Reason      string
	HadBookmark bool
}

type Resolution struct {
	Catalog *Catalog
	Dropped []DroppedStream
}

// Resolve merges a user-edited candidate catalog into the freshly discovered live one. Column types,
// key properties and supported replication keys always come from live, selections and replication
// settings come from the candidate. Streams that no longer exist in the database are reported as
// dropped, streams only known to live are carried over unselected.
func Resolve(live, candidate *Catalog, bookmarks BookmarkLookup) *Resolution {
	res := &Resolution{Catalog: &Catalog{Streams: make([]*Stream, 0, len(live.Streams))}}

	for _, c := range candidate.Streams {
		if _, ok := live.Get(c.TapStreamID); ok {
			continue
		}

		hadBookmark := bookmarks != nil && bookmarks.HasBookmark(c.TapStreamID)
		res.Dropped = append(res.Dropped, DroppedStream{
			TapStreamID: c.TapStreamID,
			Reason:      "stream no longer exists in the database",
			HadBookmark: hadBookmark,
		})
	}

	for _, l := range live.Streams {
		c, ok := candidate.Get(l.TapStreamID)
		if !ok {
			stream := l.Clone()
			stream.Metadata.Stream.Selected = lo.ToPtr(false)
			res.Catalog.Streams = append(res.Catalog.Streams, stream)
			continue
		}

		res.Catalog.Streams = append(res.Catalog.Streams, resolveStream(l, c))
	}

	return res
}

func resolveStream(live, candidate *Stream) *Stream {
	stream := live.Clone()
	md := &stream.Metadata.Stream
	cmd := candidate.Metadata.Stream

	md.Selected = clonePtr(cmd.Selected)
	md.ViewKeyProperties = cloneStrings(cmd.ViewKeyProperties)
	md.ReplicationMethod, md.ReplicationKey = resolveReplication(live.Metadata.Stream, cmd)

	for _, name := range stream.Metadata.columnOrder {
		column, _ := stream.Metadata.Column(name)
		if cc, ok := candidate.Metadata.Column(name); ok && column.Inclusion != InclusionUnsupported {
			column.Selected = clonePtr(cc.Selected)
		}
		stream.Metadata.SetColumn(name, column)
	}

	return stream
}

func resolveReplication(live, candidate StreamMetadata) (ReplicationMethod, string) {
	if live.ForcedReplicationMethod != nil {
		return live.ForcedReplicationMethod.ReplicationMethod, ""
	}

	key := candidate.ReplicationKey
	if key != "" && !lo.Contains(live.ValidReplicationKeys, key) {
		return ReplicationMethodFullTable, ""
	}

	switch candidate.ReplicationMethod {
	case ReplicationMethodFullTable:
		return ReplicationMethodFullTable, ""
	case ReplicationMethodIncremental:
		if key == "" {
			return ReplicationMethodFullTable, ""
		}
		return ReplicationMethodIncremental, key
	}

	if key != "" {
		return ReplicationMethodIncremental, key
	}
	return ReplicationMethodFullTable, ""
}
