// Package config loads peon settings. Sources are layered, later ones winning:
// built-in defaults, an optional YAML config file, a .env file, PEON_*
// environment variables, and command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable peon reads.
const EnvPrefix = "PEON"

// Configuration keys.
const (
	KeyLogLevel                = "log-level"
	KeyLogFile                 = "log-file"
	KeyTestMode                = "test-mode"
	KeyCraftLoopFromRecipeNote = "craft-loop-from-recipe-note"
	KeyCraftLoopMaxWait        = "craft-loop-max-wait"
	KeyCraftLoopEcho           = "craft-loop-echo"
	KeyMacros                  = "macros"
	KeyScenario                = "scenario"
	KeyFlushInterval           = "flush-interval"
	KeyAddonPollInterval       = "addon-poll-interval"
)

// Config holds resolved settings.
type Config struct {
	LogLevel string
	LogFile  string
	TestMode bool

	// CraftLoopFromRecipeNote puts the crafting-loop synchronization steps
	// before the macro body instead of after it.
	CraftLoopFromRecipeNote bool
	// CraftLoopMaxWait bounds each injected /waitaddon. Zero means the
	// command default.
	CraftLoopMaxWait time.Duration
	CraftLoopEcho    bool

	MacrosPath   string
	ScenarioPath string

	FlushInterval     time.Duration
	AddonPollInterval time.Duration
}

// Options tells Load where to look.
type Options struct {
	// ConfigFile is an optional YAML file. A missing file is an error only
	// when it was named explicitly.
	ConfigFile string
	// EnvFile is an optional .env file; a missing file is ignored.
	EnvFile string
	// Flags are bound last and win over every other source when set.
	Flags *pflag.FlagSet
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyTestMode, false)
	v.SetDefault(KeyCraftLoopFromRecipeNote, false)
	v.SetDefault(KeyCraftLoopMaxWait, 5.0)
	v.SetDefault(KeyCraftLoopEcho, false)
	v.SetDefault(KeyMacros, "")
	v.SetDefault(KeyScenario, "")
	v.SetDefault(KeyFlushInterval, 100*time.Millisecond)
	v.SetDefault(KeyAddonPollInterval, 100*time.Millisecond)
}

// Default returns the built-in configuration.
func Default() Config {
	cfg, _ := Load(Options{})
	return cfg
}

// Load resolves the configuration.
func Load(opts Options) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	}

	if opts.EnvFile != "" {
		values, err := readDotEnv(opts.EnvFile)
		if err != nil {
			return Config{}, err
		}
		if err := v.MergeConfigMap(values); err != nil {
			return Config{}, fmt.Errorf("failed to merge %s: %w", opts.EnvFile, err)
		}
	}

	if opts.Flags != nil {
		if err := v.BindPFlags(opts.Flags); err != nil {
			return Config{}, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	cfg := Config{
		LogLevel:                v.GetString(KeyLogLevel),
		LogFile:                 v.GetString(KeyLogFile),
		TestMode:                v.GetBool(KeyTestMode),
		CraftLoopFromRecipeNote: v.GetBool(KeyCraftLoopFromRecipeNote),
		CraftLoopMaxWait:        time.Duration(v.GetFloat64(KeyCraftLoopMaxWait) * float64(time.Second)),
		CraftLoopEcho:           v.GetBool(KeyCraftLoopEcho),
		MacrosPath:              v.GetString(KeyMacros),
		ScenarioPath:            v.GetString(KeyScenario),
		FlushInterval:           v.GetDuration(KeyFlushInterval),
		AddonPollInterval:       v.GetDuration(KeyAddonPollInterval),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.CraftLoopMaxWait < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyCraftLoopMaxWait))
	}
	if c.FlushInterval <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyFlushInterval))
	}
	if c.AddonPollInterval <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyAddonPollInterval))
	}
	return errors.Join(errs...)
}

// readDotEnv parses a .env file into configuration keys. Only PEON_* entries
// are used; PEON_CRAFT_LOOP_ECHO becomes craft-loop-echo.
func readDotEnv(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("failed to read .env file %s: %w", path, err)
	}

	envMap, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse .env file %s: %w", path, err)
	}

	values := make(map[string]any, len(envMap))
	for key, value := range envMap {
		name, ok := strings.CutPrefix(key, EnvPrefix+"_")
		if !ok {
			continue
		}
		values[strings.ReplaceAll(strings.ToLower(name), "_", "-")] = value
	}
	return values, nil
}
