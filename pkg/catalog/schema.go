package catalog

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

type Inclusion string

const (
	InclusionAvailable   Inclusion = "available"
	InclusionUnsupported Inclusion = "unsupported"
	InclusionAutomatic   Inclusion = "automatic"
)

const (
	TypeNull    = "null"
	TypeBoolean = "boolean"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeString  = "string"
	TypeObject  = "object"
)

const (
	FormatDateTime = "date-time"
	FormatDate     = "date"
	FormatGeometry = "symon.geo"
)

// Types is a JSON schema "type" value. A single type is written as a plain string, several as a list.
type Types []string

func (t Types) MarshalJSON() ([]byte, error) {
	if len(t) == 1 {
		return json.Marshal(t[0])
	}

	return json.Marshal([]string(t))
}

func (t *Types) UnmarshalJSON(b []byte) error {
	var single string
	if err := json.Unmarshal(b, &single); err == nil {
		*t = Types{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return errors.Wrap(err, "schema type must be a string or a list of strings")
	}

	*t = many
	return nil
}

// Schema is the normalized JSON schema of a stream or of one of its columns.
type Schema struct {
	Type        Types       `json:"type,omitempty"`
	Properties  *Properties `json:"properties,omitempty"`
	Format      string      `json:"format,omitempty"`
	Minimum     *int64      `json:"minimum,omitempty"`
	Maximum     *int64      `json:"maximum,omitempty"`
	Inclusion   Inclusion   `json:"inclusion,omitempty"`
	Description string      `json:"description,omitempty"`
}

func NewObjectSchema() *Schema {
	return &Schema{
		Type:       Types{TypeObject},
		Properties: NewProperties(),
	}
}

func (s *Schema) HasType(name string) bool {
	return lo.Contains(s.Type, name)
}

func (s *Schema) IsNullable() bool {
	return s.HasType(TypeNull)
}

func (s *Schema) IsUnsupported() bool {
	return s.Inclusion == InclusionUnsupported
}

func (s *Schema) IsDateTime() bool {
	return s.Format == FormatDateTime
}

func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}

	c := *s
	c.Type = append(Types(nil), s.Type...)
	if s.Minimum != nil {
		c.Minimum = lo.ToPtr(*s.Minimum)
	}
	if s.Maximum != nil {
		c.Maximum = lo.ToPtr(*s.Maximum)
	}
	if s.Properties != nil {
		c.Properties = s.Properties.Clone()
	}

	return &c
}

// Properties is an insertion-ordered set of named column schemas.
type Properties struct {
	names []string
	items map[string]*Schema
}

func NewProperties() *Properties {
	return &Properties{items: map[string]*Schema{}}
}

func (p *Properties) Set(name string, schema *Schema) {
	if _, ok := p.items[name]; !ok {
		p.names = append(p.names, name)
	}
	p.items[name] = schema
}

func (p *Properties) Get(name string) (*Schema, bool) {
	s, ok := p.items[name]
	return s, ok
}

func (p *Properties) Names() []string {
	return append([]string(nil), p.names...)
}

func (p *Properties) Len() int {
	return len(p.names)
}

func (p *Properties) Clone() *Properties {
	c := NewProperties()
	for _, name := range p.names {
		c.Set(name, p.items[name].Clone())
	}
	return c
}

func (p *Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range p.names {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(p.items[name])
		if err != nil {
			return nil, errors.Wrapf(err, "failed to marshal schema of property '%s'", name)
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func (p *Properties) UnmarshalJSON(b []byte) error {
	p.names = nil
	p.items = map[string]*Schema{}

	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("schema properties must be a JSON object")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return errors.New("schema property name must be a string")
		}

		var schema Schema
		if err := dec.Decode(&schema); err != nil {
			return errors.Wrapf(err, "failed to parse schema of property '%s'", name)
		}
		p.Set(name, &schema)
	}

	_, err = dec.Token()
	return err
}
