package path

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ReadYaml decodes a YAML (or JSON, being a YAML subset) document into out.
func ReadYaml(fs afero.Fs, path string, out interface{}) error {
	buf, err := afero.ReadFile(fs, path)
	if err != nil {
		return errors.Wrapf(err, "failed to read file %s", path)
	}

	if err := yaml.Unmarshal(buf, out); err != nil {
		return errors.Wrapf(err, "failed to parse file %s", path)
	}

	return nil
}

func ReadJSON(fs afero.Fs, path string, out interface{}) error {
	buf, err := afero.ReadFile(fs, path)
	if err != nil {
		return errors.Wrapf(err, "failed to read file %s", path)
	}

	if err := json.Unmarshal(buf, out); err != nil {
		return errors.Wrapf(err, "failed to parse JSON file %s", path)
	}

	return nil
}

func WriteJSON(fs afero.Fs, path string, content interface{}) error {
	buf, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal object to json")
	}

	err = afero.WriteFile(fs, path, buf, 0o644)
	if err != nil {
		return errors.Wrapf(err, "failed to write JSON file to %s", path)
	}

	return nil
}
