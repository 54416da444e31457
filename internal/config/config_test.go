package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.CraftLoopFromRecipeNote)
	assert.Equal(t, 5*time.Second, cfg.CraftLoopMaxWait)
	assert.False(t, cfg.CraftLoopEcho)
	assert.Equal(t, 100*time.Millisecond, cfg.FlushInterval)
	assert.Equal(t, 100*time.Millisecond, cfg.AddonPollInterval)
	assert.Equal(t, cfg, Default())
}

func TestLoad_ConfigFile(t *testing.T) {
	path := writeFile(t, "peon.yaml", `
craft-loop-from-recipe-note: true
craft-loop-max-wait: 2.5
macros: crafting.yaml
flush-interval: 250ms
`)

	cfg, err := Load(Options{ConfigFile: path})
	require.NoError(t, err)

	assert.True(t, cfg.CraftLoopFromRecipeNote)
	assert.Equal(t, 2500*time.Millisecond, cfg.CraftLoopMaxWait)
	assert.Equal(t, "crafting.yaml", cfg.MacrosPath)
	assert.Equal(t, 250*time.Millisecond, cfg.FlushInterval)
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	_, err := Load(Options{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestLoad_DotEnvOverridesConfigFile(t *testing.T) {
	configPath := writeFile(t, "peon.yaml", "craft-loop-max-wait: 2\ncraft-loop-echo: false\n")
	envPath := writeFile(t, ".env", "PEON_CRAFT_LOOP_MAX_WAIT=7\nPEON_CRAFT_LOOP_ECHO=true\nOTHER_TOOL=ignored\n")

	cfg, err := Load(Options{ConfigFile: configPath, EnvFile: envPath})
	require.NoError(t, err)

	assert.Equal(t, 7*time.Second, cfg.CraftLoopMaxWait)
	assert.True(t, cfg.CraftLoopEcho)
}

func TestLoad_MissingDotEnvIsIgnored(t *testing.T) {
	_, err := Load(Options{EnvFile: filepath.Join(t.TempDir(), ".env")})
	assert.NoError(t, err)
}

func TestLoad_EnvironmentOverridesDotEnv(t *testing.T) {
	envPath := writeFile(t, ".env", "PEON_SCENARIO=from-dotenv.yaml\n")
	t.Setenv("PEON_SCENARIO", "from-env.yaml")
	t.Setenv("PEON_ADDON_POLL_INTERVAL", "50ms")

	cfg, err := Load(Options{EnvFile: envPath})
	require.NoError(t, err)

	assert.Equal(t, "from-env.yaml", cfg.ScenarioPath)
	assert.Equal(t, 50*time.Millisecond, cfg.AddonPollInterval)
}

func TestLoad_FlagsWin(t *testing.T) {
	t.Setenv("PEON_LOG_LEVEL", "warn")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String(KeyLogLevel, "", "")
	flags.Bool(KeyCraftLoopEcho, false, "")
	require.NoError(t, flags.Parse([]string{"--log-level=debug"}))

	cfg, err := Load(Options{Flags: flags})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.CraftLoopEcho, "unset flags do not override defaults")
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("PEON_CRAFT_LOOP_MAX_WAIT", "-1")
	t.Setenv("PEON_FLUSH_INTERVAL", "0s")

	_, err := Load(Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyCraftLoopMaxWait)
	assert.Contains(t, err.Error(), KeyFlushInterval)
}
