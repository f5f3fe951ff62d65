package catalog

import (
	"strings"

	"github.com/samber/lo"
)

func (s *Stream) IsSelected() bool {
	return lo.FromPtr(s.Metadata.Stream.Selected)
}

func (s *Stream) IsView() bool {
	return s.Metadata.Stream.IsView
}

// KeyProperties returns the user-supplied view keys for views and the discovered primary key otherwise.
func (s *Stream) KeyProperties() []string {
	if s.IsView() {
		return s.Metadata.Stream.ViewKeyProperties
	}

	return s.Metadata.Stream.TableKeyProperties
}

func (s *Stream) ReplicationMethod() ReplicationMethod {
	return s.Metadata.Stream.ReplicationMethod
}

func (s *Stream) ReplicationKey() string {
	return s.Metadata.Stream.ReplicationKey
}

// SchemaName is the database schema the stream's table lives in.
func (s *Stream) SchemaName() string {
	if s.Metadata.Stream.SchemaName != "" {
		return s.Metadata.Stream.SchemaName
	}

	if schema, _, ok := strings.Cut(s.TableName, "."); ok {
		return schema
	}
	return ""
}

func (s *Stream) Table() string {
	if _, table, ok := strings.Cut(s.TableName, "."); ok {
		return table
	}
	if s.TableName != "" {
		return s.TableName
	}

	return s.Stream
}

func (s *Stream) ColumnSchema(name string) (*Schema, bool) {
	if s.Schema == nil || s.Schema.Properties == nil {
		return nil, false
	}

	return s.Schema.Properties.Get(name)
}

func (s *Stream) columnNames() []string {
	if len(s.ColumnOrder) > 0 {
		return s.ColumnOrder
	}
	if s.Schema == nil || s.Schema.Properties == nil {
		return nil
	}

	return s.Schema.Properties.Names()
}

// IsColumnSelected reports whether a column takes part in extraction. Unsupported columns never do,
// key properties and the replication key always do, the rest follow their selection flags.
func (s *Stream) IsColumnSelected(name string) bool {
	schema, ok := s.ColumnSchema(name)
	if !ok || schema.IsUnsupported() {
		return false
	}

	md, _ := s.Metadata.Column(name)
	if md.Inclusion == InclusionUnsupported {
		return false
	}
	if md.Inclusion == InclusionAutomatic || lo.Contains(s.KeyProperties(), name) || s.ReplicationKey() == name {
		return true
	}
	if md.Selected != nil {
		return *md.Selected
	}

	return lo.FromPtr(md.SelectedByDefault)
}

func (s *Stream) SelectedColumns() []string {
	return lo.Filter(s.columnNames(), func(name string, _ int) bool {
		return s.IsColumnSelected(name)
	})
}

// SelectedSchema is the stream schema narrowed down to the selected columns.
func (s *Stream) SelectedSchema() *Schema {
	selected := NewObjectSchema()
	for _, name := range s.SelectedColumns() {
		schema, _ := s.ColumnSchema(name)
		selected.Properties.Set(name, schema.Clone())
	}

	return selected
}

func (s *Stream) Clone() *Stream {
	c := *s
	c.Schema = s.Schema.Clone()
	c.Metadata = s.Metadata.Clone()
	c.ColumnOrder = cloneStrings(s.ColumnOrder)
	return &c
}
