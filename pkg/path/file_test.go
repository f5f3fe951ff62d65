package path

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type connectionDoc struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

func TestReadYaml(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		path     string
		expected map[string]any
		wantErr  string
	}{
		{
			name:     "yaml document",
			content:  "host: localhost\nport: 5439\n",
			path:     "/config.yml",
			expected: map[string]any{"host": "localhost", "port": 5439},
		},
		{
			name:     "json is accepted as yaml",
			content:  `{"host": "localhost", "port": "5439"}`,
			path:     "/config.json",
			expected: map[string]any{"host": "localhost", "port": "5439"},
		},
		{
			name:    "broken document",
			content: "host: [localhost",
			path:    "/broken.yml",
			wantErr: "failed to parse file /broken.yml",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, tt.path, []byte(tt.content), 0o644))

			var out map[string]any
			err := ReadYaml(fs, tt.path, &out)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestReadYaml_MissingFile(t *testing.T) {
	t.Parallel()

	var out map[string]any
	err := ReadYaml(afero.NewMemMapFs(), "/nope.yml", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file /nope.yml")
}

func TestJSON_WriteThenRead(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, WriteJSON(fs, "/state.json", connectionDoc{Host: "db", Port: 5439}))

	var out connectionDoc
	require.NoError(t, ReadJSON(fs, "/state.json", &out))
	assert.Equal(t, connectionDoc{Host: "db", Port: 5439}, out)
}

func TestReadJSON_InvalidDocument(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/bad.json", []byte("{"), 0o644))

	var out connectionDoc
	err := ReadJSON(fs, "/bad.json", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse JSON file /bad.json")
}
