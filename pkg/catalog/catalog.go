package catalog

import (
	"encoding/json"
	"io"

	"github.com/bruin-data/tap-redshift/pkg/path"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/xeipuuv/gojsonschema"
)

// Catalog is the ordered set of streams exposed by the source, unique by tap stream id.
type Catalog struct {
	Streams []*Stream `json:"streams"`
}

type Stream struct {
	TapStreamID string   `json:"tap_stream_id"`
	TableName   string   `json:"table_name"`
	Stream      string   `json:"stream"`
	Schema      *Schema  `json:"schema"`
	Metadata    Metadata `json:"metadata"`
	ColumnOrder []string `json:"column_order"`
}

func (c *Catalog) Get(tapStreamID string) (*Stream, bool) {
	for _, s := range c.Streams {
		if s.TapStreamID == tapStreamID {
			return s, true
		}
	}

	return nil, false
}

func schemaLoader() *gojsonschema.SchemaLoader {
	loader := gojsonschema.NewSchemaLoader()
	loader.Draft = gojsonschema.Draft7
	loader.Validate = true
	return loader
}

// Validate checks that stream ids are unique and that every stream schema is a valid JSON schema.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Streams))
	for _, s := range c.Streams {
		if s.TapStreamID == "" {
			return errors.Errorf("stream '%s' has no tap_stream_id", s.Stream)
		}
		if seen[s.TapStreamID] {
			return errors.Errorf("duplicate stream '%s' in catalog", s.TapStreamID)
		}
		seen[s.TapStreamID] = true

		if s.Schema == nil {
			return errors.Errorf("stream '%s' has no schema", s.TapStreamID)
		}
		if _, err := schemaLoader().Compile(gojsonschema.NewGoLoader(s.Schema)); err != nil {
			return errors.Wrapf(err, "invalid schema for stream '%s'", s.TapStreamID)
		}
	}

	return nil
}

func Load(fs afero.Fs, filePath string) (*Catalog, error) {
	var c Catalog
	if err := path.ReadJSON(fs, filePath, &c); err != nil {
		return nil, errors.Wrap(err, "failed to load catalog")
	}

	return &c, nil
}

func Write(w io.Writer, c *Catalog) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(c); err != nil {
		return errors.Wrap(err, "failed to write catalog")
	}

	return nil
}
