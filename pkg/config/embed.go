package config

import (
	_ "embed"
	"errors"
)

//go:embed embedded/defaults.json
var defaultConfig []byte

//go:embed embedded/schema.json
var configSchema []byte

//go:embed embedded/mirrors
var defaultMirrors []byte

// DefaultConfigContent returns the document written by `bulge setup`
func DefaultConfigContent() []byte {
	return append([]byte(nil), defaultConfig...)
}

// DefaultMirrorsContent returns the mirror list written by `bulge setup`
func DefaultMirrorsContent() []byte {
	return append([]byte(nil), defaultMirrors...)
}

// rawBytesProvider implements koanf provider for raw bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}
