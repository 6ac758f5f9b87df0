// Package config handles configuration management for bulge.
//
// Configuration is layered with koanf: embedded defaults, then the JSON
// document at <root>/etc/bulge/config.json, then BULGE_* environment
// overrides. The JSON document is validated against an embedded schema
// before it is merged, so a malformed file is always a fatal error.
//
// The mirror list lives next to the config file and holds one URL template
// per line. Every template must contain the literal token $repo.
package config
