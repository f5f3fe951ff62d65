package state

import (
	"github.com/bruin-data/tap-redshift/pkg/path"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// Bookmark is the persisted progress of a single stream.
type Bookmark struct {
	Version             *int64  `json:"version"`
	ReplicationKey      *string `json:"replication_key,omitempty"`
	ReplicationKeyValue *string `json:"replication_key_value,omitempty"`
}

func (b *Bookmark) clone() *Bookmark {
	if b == nil {
		return nil
	}

	return &Bookmark{
		Version:             clonePtr(b.Version),
		ReplicationKey:      clonePtr(b.ReplicationKey),
		ReplicationKeyValue: clonePtr(b.ReplicationKeyValue),
	}
}

type ReplicationState struct {
	CurrentlySyncing *string              `json:"currently_syncing"`
	Bookmarks        map[string]*Bookmark `json:"bookmarks"`
}

func New() *ReplicationState {
	return &ReplicationState{Bookmarks: map[string]*Bookmark{}}
}

// Load reads a state document. An empty path means there is no prior state.
func Load(fs afero.Fs, filePath string) (*ReplicationState, error) {
	if filePath == "" {
		return New(), nil
	}

	s := New()
	if err := path.ReadJSON(fs, filePath, s); err != nil {
		return nil, errors.Wrap(err, "failed to load state")
	}
	if s.Bookmarks == nil {
		s.Bookmarks = map[string]*Bookmark{}
	}

	return s, nil
}

// Clone returns a deep copy, so that later mutations never leak into an emitted checkpoint.
func (s *ReplicationState) Clone() *ReplicationState {
	c := &ReplicationState{
		CurrentlySyncing: clonePtr(s.CurrentlySyncing),
		Bookmarks:        make(map[string]*Bookmark, len(s.Bookmarks)),
	}
	for id, b := range s.Bookmarks {
		c.Bookmarks[id] = b.clone()
	}

	return c
}

func (s *ReplicationState) HasBookmark(tapStreamID string) bool {
	_, ok := s.Bookmarks[tapStreamID]
	return ok
}

func (s *ReplicationState) Bookmark(tapStreamID string) *Bookmark {
	return s.Bookmarks[tapStreamID]
}

func (s *ReplicationState) bookmark(tapStreamID string) *Bookmark {
	if s.Bookmarks == nil {
		s.Bookmarks = map[string]*Bookmark{}
	}

	b, ok := s.Bookmarks[tapStreamID]
	if !ok || b == nil {
		b = &Bookmark{}
		s.Bookmarks[tapStreamID] = b
	}
	return b
}

func (s *ReplicationState) Version(tapStreamID string) *int64 {
	if b := s.Bookmarks[tapStreamID]; b != nil {
		return b.Version
	}
	return nil
}

func (s *ReplicationState) SetVersion(tapStreamID string, version *int64) {
	s.bookmark(tapStreamID).Version = clonePtr(version)
}

func (s *ReplicationState) ReplicationKeyValue(tapStreamID string) *string {
	if b := s.Bookmarks[tapStreamID]; b != nil {
		return b.ReplicationKeyValue
	}
	return nil
}

func (s *ReplicationState) SetReplicationKey(tapStreamID, key string) {
	s.bookmark(tapStreamID).ReplicationKey = lo.ToPtr(key)
}

func (s *ReplicationState) SetReplicationKeyValue(tapStreamID, value string) {
	s.bookmark(tapStreamID).ReplicationKeyValue = lo.ToPtr(value)
}

func (s *ReplicationState) SetCurrentlySyncing(tapStreamID *string) {
	s.CurrentlySyncing = clonePtr(tapStreamID)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	return lo.ToPtr(*p)
}
