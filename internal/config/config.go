// Package config loads the wirekit configuration file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/anirudhraja/wirekit/codec"
)

// Environment overrides, applied after the file.
const (
	EnvRecursionLimit = "WIREKIT_RECURSION_LIMIT"
	EnvUnknownFields  = "WIREKIT_UNKNOWN_FIELDS"
	EnvUnknownEnums   = "WIREKIT_UNKNOWN_ENUMS"
	EnvLogLevel       = "WIREKIT_LOG_LEVEL"
)

// Config is the resolved configuration.
type Config struct {
	ProtoDirs      []string
	RecursionLimit int
	UnknownFields  string
	UnknownEnums   string
	LogLevel       string
}

type fileConfig struct {
	ProtoDirs []string `toml:"proto_dirs"`
	Codec     struct {
		RecursionLimit int    `toml:"recursion_limit"`
		UnknownFields  string `toml:"unknown_fields"`
		UnknownEnums   string `toml:"unknown_enums"`
	} `toml:"codec"`
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	opts := codec.DefaultOptions()
	return Config{
		ProtoDirs:      []string{"."},
		RecursionLimit: opts.RecursionLimit,
		UnknownFields:  opts.UnknownFields.String(),
		UnknownEnums:   opts.UnknownEnums.String(),
		LogLevel:       "info",
	}
}

// Load reads path on top of the defaults. An empty path skips the file.
// Environment overrides are applied last, then the result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		var raw fileConfig
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("load config: unknown keys %v", undecoded)
		}
		if meta.IsDefined("proto_dirs") {
			cfg.ProtoDirs = normalizeDirs(raw.ProtoDirs)
		}
		if meta.IsDefined("codec", "recursion_limit") {
			cfg.RecursionLimit = raw.Codec.RecursionLimit
		}
		if meta.IsDefined("codec", "unknown_fields") {
			cfg.UnknownFields = strings.TrimSpace(raw.Codec.UnknownFields)
		}
		if meta.IsDefined("codec", "unknown_enums") {
			cfg.UnknownEnums = strings.TrimSpace(raw.Codec.UnknownEnums)
		}
		if meta.IsDefined("log", "level") {
			cfg.LogLevel = strings.TrimSpace(raw.Log.Level)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv(EnvRecursionLimit); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvRecursionLimit, err)
		}
		c.RecursionLimit = n
	}
	if v, ok := os.LookupEnv(EnvUnknownFields); ok {
		c.UnknownFields = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv(EnvUnknownEnums); ok {
		c.UnknownEnums = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.LogLevel = strings.TrimSpace(v)
	}
	return nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if _, err := c.CodecOptions(); err != nil {
		return err
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return nil
}

// CodecOptions converts the codec section.
func (c Config) CodecOptions() (codec.Options, error) {
	opts := codec.DefaultOptions()
	opts.RecursionLimit = c.RecursionLimit

	var err error
	if opts.UnknownFields, err = codec.ParseUnknownFieldPolicy(c.UnknownFields); err != nil {
		return codec.Options{}, err
	}
	if opts.UnknownEnums, err = codec.ParseUnknownEnumPolicy(c.UnknownEnums); err != nil {
		return codec.Options{}, err
	}
	if err := opts.Validate(); err != nil {
		return codec.Options{}, err
	}
	return opts, nil
}

func normalizeDirs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, dir := range in {
		v := strings.TrimSpace(dir)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
