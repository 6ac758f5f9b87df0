package config

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/arthur-debert/bulge/pkg/errors"
	"github.com/arthur-debert/bulge/pkg/logging"
	"github.com/arthur-debert/bulge/pkg/types"
	"github.com/go-viper/mapstructure/v2"
	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// EnvPrefix is the prefix of configuration environment overrides
const EnvPrefix = "BULGE_"

// envKeys are the top-level keys that may be overridden from the
// environment. Other BULGE_* variables (BULGE_ROOT, BULGE_LOG_FILE) are
// not configuration.
var envKeys = map[string]bool{
	"architecture": true,
	"colour":       true,
	"progressbar":  true,
	"keyring":      true,
	"timeout":      true,
}

// Load reads, validates and decodes the configuration document at path.
func Load(fsys types.FS, path string) (*Config, error) {
	logger := logging.GetLogger("config")

	data, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "config file %s not found, run `bulge setup` first", path).
				WithDetail("path", path)
		}
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to read config file %s", path).
			WithDetail("path", path)
	}

	if err := Validate(data); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	// 1. Defaults
	var defaults map[string]interface{}
	if err := json.Unmarshal(defaultConfig, &defaults); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to decode embedded defaults")
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to load config defaults")
	}

	// 2. Config document
	if err := k.Load(&rawBytesProvider{bytes: data}, kjson.Parser()); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to parse config file %s", path)
	}

	// 3. Environment overrides
	err = k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		if !envKeys[key] {
			return ""
		}
		return key
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment overrides")
	}

	// 4. Unmarshal
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to decode config file %s", path)
	}

	// 5. Post-process
	if err := postProcess(&cfg); err != nil {
		return nil, err
	}

	logger.Debug().
		Str("path", path).
		Str("architecture", cfg.Architecture).
		Int("repos", len(cfg.Repos)).
		Int("active", len(cfg.ActiveSources())).
		Msg("Configuration loaded")

	return &cfg, nil
}

// Validate checks a raw configuration document against the embedded schema.
func Validate(data []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("config.schema.json", bytes.NewReader(configSchema)); err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to load config schema")
	}
	schema, err := compiler.Compile("config.schema.json")
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to compile config schema")
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, errors.ErrConfigParse, "config file is not valid JSON")
	}
	if err := schema.Validate(doc); err != nil {
		return errors.Wrap(err, errors.ErrConfigInvalid, "config file does not match schema")
	}
	return nil
}

func postProcess(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Repos))
	for _, r := range cfg.Repos {
		if seen[r.Name] {
			return errors.Newf(errors.ErrConfigInvalid, "repository %q is configured more than once", r.Name).
				WithDetail("repo", r.Name)
		}
		seen[r.Name] = true
	}
	if cfg.Timeout <= 0 {
		return errors.Newf(errors.ErrConfigInvalid, "timeout must be positive, got %s", cfg.Timeout)
	}
	return nil
}
