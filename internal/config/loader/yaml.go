package loader

import "gopkg.in/yaml.v3"

// decodeYAML decodes a YAML document. Mappings decode as map[string]any,
// the same shape the TOML decoder produces.
func decodeYAML(source string, data []byte) (map[string]any, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}
	return m, nil
}
