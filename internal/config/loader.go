package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Source describes where a config is read from. Later sources win:
// defaults, then the YAML file, then the environment.
type Source struct {
	// EnvPrefix selects variables like PREFIX_TRACK_URL. A double underscore
	// nests: PREFIX_CLICKHOUSE__ADDR sets clickhouse.addr.
	EnvPrefix string
	File      string
	Defaults  map[string]any
}

func LoadInto(dst any, src Source) error {
	k := koanf.New(".")

	for key, value := range src.Defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	if src.File != "" {
		if err := k.Load(file.Provider(src.File), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load config file: %w", err)
		}
	}

	if src.EnvPrefix != "" {
		if err := k.Load(env.Provider(src.EnvPrefix, ".", func(s string) string {
			return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, src.EnvPrefix)), "__", ".")
		}), nil); err != nil {
			return fmt.Errorf("load env: %w", err)
		}
	}

	if err := k.UnmarshalWithConf("", dst, koanf.UnmarshalConf{Tag: "mapstructure"}); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}
