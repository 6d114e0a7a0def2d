package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
)

// Environment variable names.
const (
	EnvPrefix     = "PITCHSPLITS_"
	EnvConfigPath = EnvPrefix + "CONFIG"
)

// LoadOptions controls where Load looks for settings.
type LoadOptions struct {
	// ConfigPath is a YAML file; empty falls back to $PITCHSPLITS_CONFIG.
	ConfigPath string
	// EnvFile is a dotenv file; empty means ".env". A missing file is skipped.
	EnvFile string
	// Override runs after every source is merged and before validation.
	Override func(*Config)
}

// Load builds a Config by layering, low to high precedence:
//  1. defaults (New)
//  2. YAML file (opts.ConfigPath or $PITCHSPLITS_CONFIG)
//  3. dotenv file, which never replaces variables already set
//  4. env vars with prefix PITCHSPLITS_
//  5. opts.Override
func Load(_ context.Context, opts LoadOptions) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, envFile, err)
		}
		log.Debug().Str("path", envFile).Msg("No dotenv file, using process environment")
	}

	k := koanf.New(".")

	path := opts.ConfigPath
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// PITCHSPLITS_SEASON_START -> season_start; underscores match koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}
	k.Delete("config")

	cfg := *New()
	conf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, conf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if opts.Override != nil {
		opts.Override(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
