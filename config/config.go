// Package config resolves textquest settings from defaults, an optional
// YAML file and command line flags, in that order of precedence.
package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// CodeInvalid marks configuration that could not be read or validated.
const CodeInvalid = "config_invalid"

// Defaults.
const (
	DefaultLogFormat = "text"
	DefaultLogLevel  = "warn"
)

// Config is the resolved configuration for one run.
type Config struct {
	// Seed fixes the RNG; 0 seeds from the clock.
	Seed   int64  `koanf:"seed" validate:"gte=0"`
	Plain  bool   `koanf:"plain"`
	Trace  bool   `koanf:"trace"`
	Script string `koanf:"script" validate:"omitempty,file"`
	Log    Log    `koanf:"log"`
}

// Log selects where and how diagnostics are written.
type Log struct {
	Format string `koanf:"format" validate:"oneof=json text"`
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	// File receives logs; empty means stderr in plain mode and nowhere
	// in the TUI.
	File string `koanf:"file"`
}

var defaults = map[string]any{
	"seed":       int64(0),
	"plain":      false,
	"trace":      false,
	"script":     "",
	"log.format": DefaultLogFormat,
	"log.level":  DefaultLogLevel,
	"log.file":   "",
}

// RegisterFlags adds the flags read by Load to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Int64("seed", 0, "RNG seed (0 = time based)")
	fs.Bool("plain", false, "use the line based interface instead of the TUI")
	fs.Bool("trace", false, "print events after every turn")
	fs.String("script", "", "read commands from a file instead of stdin")
	fs.String("log-format", DefaultLogFormat, "log format (json or text)")
	fs.String("log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
	fs.String("log-file", "", "write logs to this file")
}

// Load layers defaults, the YAML file at path (if not empty) and the
// flags changed in fs (if not nil), then validates the result.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	for key, v := range defaults {
		if err := k.Set(key, v); err != nil {
			return nil, oops.Code(CodeInvalid).With("key", key).Wrapf(err, "setting default")
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code(CodeInvalid).With("path", path).Wrapf(err, "reading config file")
		}
	}

	if fs != nil {
		if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, flagKey(fs)), nil); err != nil {
			return nil, oops.Code(CodeInvalid).Wrapf(err, "reading flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code(CodeInvalid).Wrapf(err, "decoding config")
	}
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// flagKey maps --log-level to log.level and skips flags Load does not own.
func flagKey(fs *pflag.FlagSet) func(*pflag.Flag) (string, any) {
	return func(f *pflag.Flag) (string, any) {
		key := strings.ReplaceAll(f.Name, "-", ".")
		if _, ok := defaults[key]; !ok {
			return "", nil
		}
		return key, posflag.FlagVal(fs, f)
	}
}

// Validate checks field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return oops.Code(CodeInvalid).Public("Invalid configuration.").Wrapf(err, "validating config")
	}
	return nil
}
