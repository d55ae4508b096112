// Package decode implements the engine's decode(path) collaborator:
// turning a YAML or JSON document on disk into a generic Value tree.
package decode

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Decoder is the collaborator contract §6 names as `decode(path) → Value`.
// JSON is accepted for free: it is a syntactic subset of YAML, so a
// single YAML decoder serves both without a content-sniffing branch.
type Decoder interface {
	Decode(path string) (interface{}, error)
}

// YAMLDecoder is the default Decoder, backed by gopkg.in/yaml.v3.
type YAMLDecoder struct{}

// Default returns the engine's default Decoder.
func Default() Decoder {
	return YAMLDecoder{}
}

// Decode reads path and unmarshals it into a Value tree: maps become
// map[string]interface{}, sequences become []interface{}.
func (YAMLDecoder) Decode(path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("decode: reading %s: %w", path, err)
	}
	var v interface{}
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode: parsing %s: %w", path, err)
	}
	return v, nil
}
