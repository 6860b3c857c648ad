// Package file reads admin interface settings from a YAML overlay file.
//
//	port: 8088
//	isPublicGateWay: false
//	allowedHosts: 127.0.0.1,0:0:0:0:0:0:0:1
//
// Values are taken verbatim as scalars and validated by the access package.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source is a read-only settings overlay backed by a YAML file.
type Source struct {
	path string
}

// New creates a Source for path. The file does not need to exist yet.
func New(path string) *Source {
	return &Source{path: path}
}

// LoadSettings implements access.Source. A missing file yields no settings.
func (s *Source) LoadSettings(ctx context.Context) (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading settings file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML mapping of scalar values.
func Parse(data []byte) (map[string]string, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing settings file: %w", err)
	}

	values := make(map[string]string, len(doc))
	for name, node := range doc {
		if node.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("setting %q: value must be a scalar", name)
		}
		values[name] = node.Value
	}
	return values, nil
}

