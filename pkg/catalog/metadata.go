package catalog

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

type ReplicationMethod string

const (
	ReplicationMethodFullTable   ReplicationMethod = "FULL_TABLE"
	ReplicationMethodIncremental ReplicationMethod = "INCREMENTAL"
)

const propertiesBreadcrumb = "properties"

type scope int

const (
	scopeStream scope = iota
	scopeColumn
)

// Breadcrumb addresses a metadata entry: either the whole stream or a single column.
type Breadcrumb struct {
	scope  scope
	column string
}

func StreamBreadcrumb() Breadcrumb {
	return Breadcrumb{scope: scopeStream}
}

func ColumnBreadcrumb(column string) Breadcrumb {
	return Breadcrumb{scope: scopeColumn, column: column}
}

func (b Breadcrumb) IsStream() bool {
	return b.scope == scopeStream
}

func (b Breadcrumb) Column() string {
	return b.column
}

func (b Breadcrumb) MarshalJSON() ([]byte, error) {
	if b.IsStream() {
		return []byte("[]"), nil
	}

	return json.Marshal([]string{propertiesBreadcrumb, b.column})
}

func (b *Breadcrumb) UnmarshalJSON(data []byte) error {
	var parts []string
	if err := json.Unmarshal(data, &parts); err != nil {
		return errors.Wrap(err, "breadcrumb must be a list of strings")
	}

	switch {
	case len(parts) == 0:
		*b = StreamBreadcrumb()
	case len(parts) == 2 && parts[0] == propertiesBreadcrumb:
		*b = ColumnBreadcrumb(parts[1])
	default:
		return errors.Errorf("unsupported breadcrumb %v", parts)
	}

	return nil
}

type ForcedReplicationMethod struct {
	ReplicationMethod ReplicationMethod `json:"replication-method"`
	Reason            string            `json:"reason"`
}

type StreamMetadata struct {
	Selected                *bool                    `json:"selected,omitempty"`
	SelectedByDefault       *bool                    `json:"selected-by-default,omitempty"`
	TableKeyProperties      []string                 `json:"table-key-properties"`
	ViewKeyProperties       []string                 `json:"view-key-properties,omitempty"`
	IsView                  bool                     `json:"is-view"`
	SchemaName              string                   `json:"schema-name,omitempty"`
	DatabaseName            string                   `json:"database-name,omitempty"`
	ValidReplicationKeys    []string                 `json:"valid-replication-keys,omitempty"`
	ForcedReplicationMethod *ForcedReplicationMethod `json:"forced-replication-method,omitempty"`
	ReplicationMethod       ReplicationMethod        `json:"replication-method,omitempty"`
	ReplicationKey          string                   `json:"replication-key,omitempty"`
}

func (m StreamMetadata) clone() StreamMetadata {
	c := m
	c.Selected = clonePtr(m.Selected)
	c.SelectedByDefault = clonePtr(m.SelectedByDefault)
	c.TableKeyProperties = cloneStrings(m.TableKeyProperties)
	c.ViewKeyProperties = cloneStrings(m.ViewKeyProperties)
	c.ValidReplicationKeys = cloneStrings(m.ValidReplicationKeys)
	if m.ForcedReplicationMethod != nil {
		forced := *m.ForcedReplicationMethod
		c.ForcedReplicationMethod = &forced
	}
	return c
}

type ColumnMetadata struct {
	Selected          *bool     `json:"selected,omitempty"`
	SelectedByDefault *bool     `json:"selected-by-default,omitempty"`
	SQLDatatype       string    `json:"sql-datatype,omitempty"`
	Inclusion         Inclusion `json:"inclusion,omitempty"`
}

func (m ColumnMetadata) clone() ColumnMetadata {
	c := m
	c.Selected = clonePtr(m.Selected)
	c.SelectedByDefault = clonePtr(m.SelectedByDefault)
	return c
}

// Metadata holds the stream-level entry and the per-column entries of a stream, keyed by breadcrumb.
type Metadata struct {
	Stream StreamMetadata

	columns     map[string]ColumnMetadata
	columnOrder []string
}

func (m *Metadata) Column(name string) (ColumnMetadata, bool) {
	c, ok := m.columns[name]
	return c, ok
}

func (m *Metadata) SetColumn(name string, c ColumnMetadata) {
	if m.columns == nil {
		m.columns = map[string]ColumnMetadata{}
	}
	if _, ok := m.columns[name]; !ok {
		m.columnOrder = append(m.columnOrder, name)
	}
	m.columns[name] = c
}

// Breadcrumbs lists every entry address, the stream first and columns in insertion order.
func (m *Metadata) Breadcrumbs() []Breadcrumb {
	crumbs := []Breadcrumb{StreamBreadcrumb()}
	for _, name := range m.columnOrder {
		crumbs = append(crumbs, ColumnBreadcrumb(name))
	}
	return crumbs
}

func (m *Metadata) Clone() Metadata {
	c := Metadata{Stream: m.Stream.clone()}
	for _, name := range m.columnOrder {
		c.SetColumn(name, m.columns[name].clone())
	}
	return c
}

type metadataEntry struct {
	Breadcrumb Breadcrumb      `json:"breadcrumb"`
	Metadata   json.RawMessage `json:"metadata"`
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	entries := make([]metadataEntry, 0, len(m.columnOrder)+1)
	for _, crumb := range m.Breadcrumbs() {
		var value any = m.Stream
		if !crumb.IsStream() {
			value = m.columns[crumb.Column()]
		}

		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		entries = append(entries, metadataEntry{Breadcrumb: crumb, Metadata: raw})
	}

	return json.Marshal(entries)
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	var entries []metadataEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return errors.Wrap(err, "metadata must be a list of breadcrumb entries")
	}

	*m = Metadata{}
	for _, entry := range entries {
		if entry.Breadcrumb.IsStream() {
			if err := json.Unmarshal(entry.Metadata, &m.Stream); err != nil {
				return errors.Wrap(err, "failed to parse stream metadata")
			}
			continue
		}

		var column ColumnMetadata
		if err := json.Unmarshal(entry.Metadata, &column); err != nil {
			return errors.Wrapf(err, "failed to parse metadata of column '%s'", entry.Breadcrumb.Column())
		}
		m.SetColumn(entry.Breadcrumb.Column(), column)
	}

	return nil
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	return lo.ToPtr(*p)
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}
