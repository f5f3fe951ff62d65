package message

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/bruin-data/tap-redshift/pkg/catalog"
	"github.com/bruin-data/tap-redshift/pkg/state"
)

type Type string

const (
	TypeSchema          Type = "SCHEMA"
	TypeRecord          Type = "RECORD"
	TypeActivateVersion Type = "ACTIVATE_VERSION"
	TypeState           Type = "STATE"
)

const timeExtractedLayout = "2006-01-02T15:04:05.000000Z07:00"

// Message is one line of the output stream.
type Message interface {
	Type() Type
}

type Schema struct {
	Stream             string          `json:"stream"`
	Schema             *catalog.Schema `json:"schema"`
	KeyProperties      []string        `json:"key_properties"`
	BookmarkProperties []string        `json:"bookmark_properties,omitempty"`
}

func (Schema) Type() Type { return TypeSchema }

func (m Schema) MarshalJSON() ([]byte, error) {
	type alias Schema
	if m.KeyProperties == nil {
		m.KeyProperties = []string{}
	}

	return marshal(struct {
		Type Type `json:"type"`
		alias
	}{TypeSchema, alias(m)})
}

type Record struct {
	Stream        string         `json:"stream"`
	Record        map[string]any `json:"record"`
	Version       *int64         `json:"version,omitempty"`
	TimeExtracted time.Time      `json:"-"`
}

func (Record) Type() Type { return TypeRecord }

func (m Record) MarshalJSON() ([]byte, error) {
	type alias Record

	var extracted string
	if !m.TimeExtracted.IsZero() {
		extracted = m.TimeExtracted.UTC().Format(timeExtractedLayout)
	}

	return marshal(struct {
		Type Type `json:"type"`
		alias
		TimeExtracted string `json:"time_extracted,omitempty"`
	}{TypeRecord, alias(m), extracted})
}

type ActivateVersion struct {
	Stream  string `json:"stream"`
	Version int64  `json:"version"`
}

func (ActivateVersion) Type() Type { return TypeActivateVersion }

func (m ActivateVersion) MarshalJSON() ([]byte, error) {
	type alias ActivateVersion
	return marshal(struct {
		Type Type `json:"type"`
		alias
	}{TypeActivateVersion, alias(m)})
}

// State carries a checkpoint; Value must be a snapshot that is not mutated afterwards.
type State struct {
	Value *state.ReplicationState `json:"value"`
}

func (State) Type() Type { return TypeState }

func (m State) MarshalJSON() ([]byte, error) {
	type alias State
	return marshal(struct {
		Type Type `json:"type"`
		alias
	}{TypeState, alias(m)})
}

// marshal encodes without HTML escaping, json.Marshal would escape record values on the way out.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
